package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommandText(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "linkwatch")
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := runCommand(t, "version", "--format", "json")
	require.NoError(t, err)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "go_version")
}

func TestVersionCommandUnknownFormat(t *testing.T) {
	_, err := runCommand(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestInitCommandWritesConfig(t *testing.T) {
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	out, err := runCommand(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, ".linkwatch.yml")

	data, err := os.ReadFile(".linkwatch.yml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "packages:")
	assert.Contains(t, string(data), "poll_interval_ms: 500")

	// A second init without --force refuses to overwrite.
	_, err = runCommand(t, "init")
	assert.Error(t, err)

	_, err = runCommand(t, "init", "--force")
	assert.NoError(t, err)
}
