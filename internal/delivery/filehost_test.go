package delivery

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHost_DownloadWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	var stdout, stderr bytes.Buffer
	h := NewFileHost(dir, &stdout, &stderr)
	s := &fakeScheduler{}
	c := NewChain(h, FileHostCapabilities(uaFirefox), WithScheduler(s))

	res := c.Deliver(context.Background(), `{"version":"1.0.0"}`, "fiquest_ada_031425.json", "application/json")
	require.True(t, res.Succeeded)
	assert.Equal(t, StrategyBlobDownload, res.Strategy)

	data, err := os.ReadFile(filepath.Join(dir, "fiquest_ada_031425.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1.0.0"}`, string(data))
	assert.Equal(t, []string{filepath.Join(dir, "fiquest_ada_031425.json")}, h.Saved())
	assert.Empty(t, stdout.String())

	s.runAll()
	h.mu.Lock()
	assert.Empty(t, h.blobs, "object URL released after the download")
	h.mu.Unlock()
}

func TestFileHost_UnwritableDirFallsBackToStdout(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	var stdout, stderr bytes.Buffer
	h := NewFileHost(filepath.Join(blocker, "exports"), &stdout, &stderr)
	c := NewChain(h, FileHostCapabilities(""), WithScheduler(&fakeScheduler{}))

	res := c.Deliver(context.Background(), "payload", "f.json", "application/json")
	assert.Equal(t, StrategyClipboard, res.Strategy)
	assert.True(t, res.Succeeded)
	assert.Equal(t, "payload\n", stdout.String())
	assert.Contains(t, stderr.String(), "save as: f.json")
}
