package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_FlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "deskctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server: http://127.0.0.1:1\nsessionFile: "+filepath.Join(dir, "a.yaml")+"\n"), 0o600))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "--session-file", filepath.Join(dir, "b.yaml"), "session"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Not logged in.")
}

func TestRootCmd_InvalidServer(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "session"})
	assert.Error(t, cmd.Execute())

	cmd = newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--server", "not a url", "session"})
	assert.Error(t, cmd.Execute())
}
