package log

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	SetOutput(buf)
	color.NoColor = true
	t.Cleanup(func() { Configure(Options{}) })
	return buf
}

func TestWithContext_IncludesRequestID(t *testing.T) {
	buf := captureOutput(t)

	ctx := WithRequestID(context.Background(), "req-42")
	InfoWithContext(ctx, "uploaded %d bytes", 10)
	ErrorWithContext(ctx, "render failed")

	out := buf.String()
	assert.Contains(t, out, "[INFO] [req_id=req-42] uploaded 10 bytes")
	assert.Contains(t, out, "[ERROR] [req_id=req-42] render failed")
}

func TestWithContext_NoRequestID(t *testing.T) {
	buf := captureOutput(t)

	WarnWithContext(context.Background(), "tier %s missing", "Gold")
	assert.Contains(t, buf.String(), "[WARN] tier Gold missing")
	assert.NotContains(t, buf.String(), "req_id")
}

func TestDump_OnlyInDebug(t *testing.T) {
	buf := captureOutput(t)

	Dump("snapshot", map[string]int{"Basic": 1})
	assert.Empty(t, buf.String())

	Configure(Options{Debug: true})
	SetOutput(buf)
	Dump("snapshot", map[string]int{"Basic": 1})
	assert.Contains(t, buf.String(), "snapshot")
	assert.Contains(t, buf.String(), "Basic")
}

func TestConfigure_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "api.log")

	Configure(Options{File: file, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	t.Cleanup(func() { Configure(Options{}) })

	Info("hello %s", "file")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}
