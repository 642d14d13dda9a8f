package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defs = `
definitions:
  - name: int
  - name: list
    label: record
    edges: [int, list]
  - name: list2
    label: record
    edges: [int, list3]
  - name: list3
    label: record
    edges: [int, list2]
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCanonCommand(t *testing.T) {
	path := writeFile(t, "defs.yaml", defs)

	out, err := execute(t, "canon", path, "--check")
	require.NoError(t, err)
	assert.Equal(t, "int 0\nlist 1\nlist2 1\nlist3 1\n", out)
}

func TestCanonCommandReports(t *testing.T) {
	path := writeFile(t, "defs.yaml", defs)
	cfg := writeFile(t, "config.yaml", "logLevel: error\ndisableProbe: true\n")

	out, err := execute(t, "canon", path, "--config", cfg, "--stats", "--metrics", "--signatures")
	require.NoError(t, err)
	assert.Regexp(t, `(?m)^list 1 [0-9a-f]{16} record\(0,\^\[\]\)$`, out)
	assert.Contains(t, out, "ids: 2\n")
	assert.Contains(t, out, "typecanon_insertions_total{outcome=\"collapsed\"} 1")
	assert.Contains(t, out, "typecanon_ids 2")
}

func TestCanonCommandErrors(t *testing.T) {
	_, err := execute(t, "canon", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := writeFile(t, "bad.yaml", "definitions:\n  - name: a\n    edges: [b]\n")
	_, err = execute(t, "canon", bad)
	assert.Error(t, err)

	_, err = execute(t, "canon")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
