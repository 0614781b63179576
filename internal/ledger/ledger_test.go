package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	l, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	assert.Zero(t, l.Len())
	assert.False(t, l.Has("anything"))
}

func TestLoad_ByID(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dataset,id,question,short_answer,long_answer,url_en,url_it,url_sc\n"+
		"natural_questions,q1,where is x,Dubai,para,u1,u2,u3\n"+
		"natural_questions,q2,when was y,1886,para,u1,,u3\n")

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Has("q1"))
	assert.True(t, l.Has("q2"))
	assert.False(t, l.Has("q3"))
	assert.False(t, l.Legacy())
	assert.Equal(t, "q1", l.Key("q1", "where is x"))
}

func TestLoad_LegacyFallsBackToQuestion(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dataset,question,short_answer\n"+
		"natural_questions,where is x,Dubai\n")

	l, err := Load(path)
	require.NoError(t, err)
	assert.True(t, l.Legacy())
	assert.True(t, l.Has("where is x"))
	assert.False(t, l.Has("q1"))
	assert.Equal(t, "where is x", l.Key("q1", "where is x"))
}

func TestLoad_HeaderOnly(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "dataset,id,question,short_answer,long_answer,url_en,url_it,url_sc\n")
	l, err := Load(path)
	require.NoError(t, err)
	assert.Zero(t, l.Len())
}

func TestLoad_EmptyFile(t *testing.T) {
	t.Parallel()

	l, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Zero(t, l.Len())
}

func TestLoad_NoUsableColumn(t *testing.T) {
	t.Parallel()

	_, err := Load(writeFile(t, "a,b,c\n1,2,3\n"))
	require.Error(t, err)
}
