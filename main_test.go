package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	core.SetLogOutput(io.Discard)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "menu.toml"), []byte("[[scene]]\nname = \"Menu\"\nrole = \"active\"\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "--config", "", dir})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "ok   menu (1 scenes)")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("scene:\n  - name: A\n  - name: A\n"), 0o644))
	out.Reset()
	rootCmd.SetArgs([]string{"validate", "--config", "", dir})
	err := rootCmd.Execute()
	assert.ErrorIs(t, err, core.ErrInvalidDefinition)
	assert.Contains(t, out.String(), "FAIL broken")
}

func TestShippedDefinitionsAreValid(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"validate", "--config", "", filepath.Join("assets", "groups")})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "ok   level-1 (3 scenes)")
}
