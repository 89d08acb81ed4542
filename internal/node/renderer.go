package node

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/errors"
)

// Renderer turns one frame of a fetched scene file into a result file. The
// coordinator core only ever sees the opaque paths on either side.
type Renderer interface {
	RenderFrame(ctx context.Context, scenePath string, frame int, resolution [2]int, outDir string) (string, error)
}

// commandRenderer shells out to a render binary in background mode.
type commandRenderer struct {
	bin string
}

func NewCommandRenderer(bin string) Renderer {
	return &commandRenderer{bin: bin}
}

func (r *commandRenderer) RenderFrame(ctx context.Context, scenePath string, frame int, resolution [2]int, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", errors.Wrap(err, "renderer.RenderFrame.MkdirAll")
	}
	outPattern := filepath.Join(outDir, "frame-######")
	cmd := exec.CommandContext(ctx, r.bin,
		"-b", scenePath,
		"-o", outPattern,
		"-f", fmt.Sprintf("%d", frame),
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.Wrapf(err, "renderer.RenderFrame: %s", out)
	}
	outPath := filepath.Join(outDir, fmt.Sprintf("frame-%06d.png", frame))
	if _, err = os.Stat(outPath); err != nil {
		return "", errors.Wrap(err, "renderer.RenderFrame: no output produced")
	}
	return outPath, nil
}
