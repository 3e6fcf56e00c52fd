package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePath = filepath.Join("..", "..", "data", "mock", "austin311_sample.csv")

func decodeLines(t *testing.T, out []byte) []map[string]any {
	t.Helper()
	var lines []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, sc.Err())
	return lines
}

func TestRun_PrintsDocuments(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"-csv", samplePath}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	lines := decodeLines(t, stdout.Bytes())
	require.Len(t, lines, 4)

	first := lines[0]
	assert.Equal(t, "20-00012345", first["key"])
	assert.InDelta(t, 2, first["line"], 0)

	doc := first["document"].(map[string]any)
	assert.InDelta(t, 78701, doc["zipcode"], 0)
	assert.InDelta(t, 14, doc["createdhour"], 0)
	assert.NotContains(t, doc, "createddate")
	geo := doc["latitudelongitude"].(map[string]any)
	assert.Equal(t, "20-00012345", geo["title"])
	assert.Equal(t, []any{30.267153, -97.743061}, geo["location"])

	// Rows without a request number are still printed with an empty key.
	assert.Equal(t, "", lines[2]["key"])
}

func TestRun_IncludeEmptyRows(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"-csv", samplePath, "-skip-empty=false"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Len(t, decodeLines(t, stdout.Bytes()), 5)
}

func TestRun_Limit(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"-csv", samplePath, "-limit", "2"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Len(t, decodeLines(t, stdout.Bytes()), 2)
}

func TestRun_MissingFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-csv")
}

func TestRun_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := run([]string{"-csv", filepath.Join(t.TempDir(), "nope.csv")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "open export")
}
