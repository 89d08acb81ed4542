package repository

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/framefarm/framefarm/internal/jobs"
)

type localRepo struct {
	dir string
}

// NewLocalResultsRepo streams accepted result files under dir, one file per
// job/task pair. Used when no S3 bucket is configured.
func NewLocalResultsRepo(dir string) jobs.ResultsRepository {
	return &localRepo{dir: dir}
}

// resultIDPathSafe rejects identifiers that could escape the per-job result
// prefix. Store IDs are UUIDs; anything carrying a path separator or a dot
// segment is hostile, whatever layer let it through.
func resultIDPathSafe(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}

func (l *localRepo) SaveResult(ctx context.Context, jobID, taskID string, body io.Reader) (string, error) {
	if !resultIDPathSafe(jobID) || !resultIDPathSafe(taskID) {
		return "", errors.Errorf("results.SaveResult: unsafe id %q/%q", jobID, taskID)
	}
	dir := filepath.Join(l.dir, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "results.SaveResult.MkdirAll")
	}
	path := filepath.Join(dir, taskID)
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "results.SaveResult.Create")
	}
	defer f.Close()
	if _, err = io.Copy(f, body); err != nil {
		return "", errors.Wrap(err, "results.SaveResult.Copy")
	}
	return path, nil
}
