// Package publish mirrors a finished build output directory to a public
// serving location after each build emission.
package publish

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	lwerrors "github.com/conneroisu/linkwatch/internal/errors"
	"github.com/conneroisu/linkwatch/internal/logging"
)

// Publisher copies a build output tree into a destination directory once per
// emission. The first publish of a process resets the destination so stale
// output from an earlier run cannot linger; after that it is a pure
// overwrite-copy, so entries added to the destination out of band survive.
type Publisher struct {
	buildDir string
	dest     string
	logger   logging.Logger

	mutex sync.Mutex
	reset bool
}

// NewPublisher creates a publisher. An empty dest disables publishing.
func NewPublisher(buildDir, dest string, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Publisher{
		buildDir: buildDir,
		dest:     dest,
		logger:   logger.WithComponent("publish"),
	}
}

// Enabled reports whether a destination is configured.
func (p *Publisher) Enabled() bool {
	return p.dest != ""
}

// Publish runs one emission's publish step. Copy failure aborts the step and
// is returned to the caller; the in-memory build state is unaffected.
func (p *Publisher) Publish(ctx context.Context) error {
	if p.dest == "" {
		return nil
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.reset {
		if _, err := os.Stat(p.dest); err == nil {
			if err := os.RemoveAll(p.dest); err != nil {
				return lwerrors.NewPublishError("publish_reset",
					"removing stale destination", err).WithPath(p.dest)
			}
			p.logger.Info(ctx, "removed stale publish destination", "dest", p.dest)
		}
		p.reset = true
	}

	if err := copyTree(p.buildDir, p.dest); err != nil {
		return lwerrors.NewPublishError("publish_copy",
			"copying build output", err).WithPath(p.dest)
	}

	p.logger.Debug(ctx, "build output published", "build_dir", p.buildDir, "dest", p.dest)

	return nil
}

// copyTree recursively copies src into dst, overwriting same-named entries
// and leaving everything else in dst alone.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode.Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
