package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "info", Format: "text"}, &buf)

	logger.Info("lot accepted", "lot_id", "lot-1")
	logger.Debug("not visible")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, `msg="lot accepted"`)
	assert.Contains(t, out, "lot_id=lot-1")
	assert.NotContains(t, out, "not visible")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "debug", Format: "json"}, &buf)

	logger.Debug("cache hit", "language", "de")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "cache hit", entry["msg"])
	assert.Equal(t, "de", entry["language"])
}

func TestNewLogger_BadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "loud", Format: "text"}, &buf)

	logger.Debug("suppressed")
	logger.Info("kept")

	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), "kept")
}

func TestResolveOutput_Streams(t *testing.T) {
	assert.Same(t, os.Stderr, resolveOutput("stderr"))
	assert.Same(t, os.Stdout, resolveOutput("stdout"))
	assert.Same(t, os.Stdout, resolveOutput(""))
}

func TestResolveOutput_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	logger := NewLogger(Config{Level: "info", Format: "text"}, resolveOutput("file"))
	logger.Info("written to file")

	data, err := os.ReadFile(filepath.Join(dir, "lot-vision.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
}
