// Package contentcache keeps local copies of the media a player renders.
//
// Each content item is stored once under <dir>/<id>_<filename>. A file that
// exists is a hit; nothing is ever compared against the server, so a changed
// remote file under the same id and filename is not fetched again.
package contentcache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

// Downloader opens the byte stream for a content item.
type Downloader interface {
	Download(ctx context.Context, contentID int) (io.ReadCloser, error)
}

type Cache struct {
	fs    afero.Fs
	dir   string
	src   Downloader
	group singleflight.Group
}

func New(fs afero.Fs, dir string, src Downloader) (*Cache, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir %s: %w", dir, err)
	}
	return &Cache{fs: fs, dir: dir, src: src}, nil
}

// Path returns the deterministic cache location for c.
func (c *Cache) Path(content model.Content) string {
	return filepath.Join(c.dir, strconv.Itoa(content.ID)+"_"+fileName(content.Location))
}

// fileName keeps only the last element of a location, which may be a URL, a
// storage key or a bare name.
func fileName(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	name := path.Base(strings.ReplaceAll(location, "\\", "/"))
	switch name {
	case "", ".", "..", "/":
		return "content"
	}
	return name
}

// EnsureLocal returns a renderable reference for content: the cached file path
// for images and videos, the location itself for webpages.
func (c *Cache) EnsureLocal(ctx context.Context, content model.Content) (string, error) {
	if content.Kind == model.KindWebpage {
		return content.Location, nil
	}

	dst := c.Path(content)
	if ok, err := afero.Exists(c.fs, dst); err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", dst, err)
	} else if ok {
		return dst, nil
	}

	_, err, _ := c.group.Do(dst, func() (any, error) {
		// another caller may have finished while we waited on the group
		if ok, _ := afero.Exists(c.fs, dst); ok {
			return nil, nil
		}
		return nil, c.fetch(ctx, content, dst)
	})
	if err != nil {
		return "", err
	}
	return dst, nil
}

func (c *Cache) fetch(ctx context.Context, content model.Content, dst string) (err error) {
	body, err := c.src.Download(ctx, content.ID)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp, err := afero.TempFile(c.fs, c.dir, ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = c.fs.Remove(tmp.Name())
		}
	}()

	n, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("download %d: %w", content.ID, err)
	}
	if err = c.fs.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	log.Info().Int("content_id", content.ID).Int64("bytes", n).Str("path", dst).Msg("cached content")
	return nil
}

// Prune removes leftovers of interrupted downloads.
func (c *Cache) Prune() error {
	matches, err := afero.Glob(c.fs, filepath.Join(c.dir, ".download-*"))
	if err != nil {
		return err
	}
	var errs []error
	for _, m := range matches {
		if err := c.fs.Remove(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
