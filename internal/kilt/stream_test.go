package kilt

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpuslab/crossqa/internal/model"
)

const sampleLines = `{"id":"q1","input":"where is the burj khalifa","output":[{"answer":"Dubai","provenance":[{"title":"Burj Khalifa"}]}]}

{"id":"q2","input":"when was cuore published","output":[{"answer":["1","8","8","6"],"provenance":[{"title":"Cuore"}]}]}
{"id":"q3","input":"no provenance here","output":[{"answer":"x"}]}
`

func TestStream_Next(t *testing.T) {
	t.Parallel()

	s := New(strings.NewReader(sampleLines))

	first, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "q1", first.ID)
	assert.Equal(t, "where is the burj khalifa", first.Question)
	title, short, ok := first.FirstProvenance()
	require.True(t, ok)
	assert.Equal(t, "Burj Khalifa", title)
	assert.Equal(t, "Dubai", short)

	second, err := s.Next()
	require.NoError(t, err)
	_, short, ok = second.FirstProvenance()
	require.True(t, ok)
	assert.Equal(t, "1886", short) // fragment list joined

	third, err := s.Next()
	require.NoError(t, err)
	_, _, ok = third.FirstProvenance()
	assert.False(t, ok)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStream_MalformedLine(t *testing.T) {
	t.Parallel()

	s := New(strings.NewReader("{\"id\":\"q1\",\"input\":\"ok\"}\nnot json\n"))

	_, err := s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestOpen_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "input.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(sampleLines), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var items []model.SourceItem
	for {
		item, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		items = append(items, item)
	}
	assert.Len(t, items, 3)
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
}
