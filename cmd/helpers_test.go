package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("50ms")
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, d)

	_, err = parseDuration("-1s")
	assert.Error(t, err)

	_, err = parseDuration("soon")
	assert.Error(t, err)
}

func TestParseLangCols(t *testing.T) {
	cols, err := parseLangCols("en:url_en, sc:url_sc")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"en": "url_en", "sc": "url_sc"}, cols)

	cols, err = parseLangCols("")
	require.NoError(t, err)
	assert.Empty(t, cols)

	_, err = parseLangCols("en=url_en")
	assert.Error(t, err)
}

func TestSplitLangs(t *testing.T) {
	assert.Equal(t, []string{"en", "it", "sc"}, splitLangs("en, it,sc"))
	assert.Nil(t, splitLangs(""))
}

func TestNewHTTPClient(t *testing.T) {
	c := newHTTPClient(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.Timeout)
}
