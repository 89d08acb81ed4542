package node

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// FetchFile downloads url and streams it to dest, never holding the file in
// memory. The write goes through a temp file so a crashed download leaves no
// half-written scene file behind.
func FetchFile(ctx context.Context, fileURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return errors.Wrap(err, "node.FetchFile")
	}
	client := &http.Client{Timeout: 10 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "node.FetchFile")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("fetch %s: HTTP %d", fileURL, resp.StatusCode)
	}

	if err = os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(err, "node.FetchFile.MkdirAll")
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return errors.Wrap(err, "node.FetchFile.CreateTemp")
	}
	defer os.Remove(tmp.Name())
	if _, err = io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrap(err, "node.FetchFile.Copy")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "node.FetchFile.Close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), dest), "node.FetchFile.Rename")
}
