package delivery

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileHost is the Host used from a terminal. A "download" writes the file
// into Dir, the clipboard is Stdout and alerts go to Stderr. There are no
// windows or share sheets, so those primitives always fail.
type FileHost struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer

	mu    sync.Mutex
	blobs map[string][]byte
	seq   int
	saved []string
}

var _ Host = (*FileHost)(nil)

func NewFileHost(dir string, stdout, stderr io.Writer) *FileHost {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &FileHost{Dir: dir, Stdout: stdout, Stderr: stderr, blobs: map[string][]byte{}}
}

// FileHostCapabilities describes a FileHost whose user agent is ua.
func FileHostCapabilities(ua string) Capabilities {
	return Capabilities{
		Platform:        ClassifyUserAgent(ua),
		HasBlobDownload: true,
		HasClipboard:    true,
	}
}

func (h *FileHost) CreateObjectURL(data []byte, _ string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	url := fmt.Sprintf("blob:fiquest/%d", h.seq)
	h.blobs[url] = append([]byte(nil), data...)
	return url, nil
}

func (h *FileHost) RevokeObjectURL(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.blobs, url)
}

func (h *FileHost) ClickDownload(url, filename string) error {
	h.mu.Lock()
	data, ok := h.blobs[url]
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("object URL %s was revoked", url)
	}

	if err := os.MkdirAll(h.Dir, 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(h.Dir, filepath.Base(filename))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	h.mu.Lock()
	h.saved = append(h.saved, path)
	h.mu.Unlock()
	return nil
}

// Saved lists the paths written by ClickDownload.
func (h *FileHost) Saved() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.saved...)
}

func (h *FileHost) OpenWindow(string) bool { return false }

func (h *FileHost) Share(context.Context, ShareRequest) error { return ErrUnsupported }

func (h *FileHost) WriteClipboard(_ context.Context, text string) error {
	_, err := fmt.Fprintln(h.Stdout, text)
	return err
}

func (h *FileHost) LegacyCopy(text string) error {
	return h.WriteClipboard(context.Background(), text)
}

func (h *FileHost) Alert(message string) {
	fmt.Fprintln(h.Stderr, message)
}
