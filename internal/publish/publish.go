package publish

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"misa/internal/audio"
	"misa/internal/logging"
	"misa/internal/manifest"
	"misa/internal/services"
)

// Publisher uploads a day's manifest and audio.
type Publisher struct {
	uploader  Uploader
	manifests *manifest.Store
	layout    audio.Layout
	prefix    string
	logger    *slog.Logger
}

// NewPublisher wires an uploader to the local manifest store and audio layout.
func NewPublisher(uploader Uploader, manifests *manifest.Store, layout audio.Layout, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Publisher{
		uploader:  uploader,
		manifests: manifests,
		layout:    layout,
		prefix:    strings.Trim(strings.TrimSpace(prefix), "/"),
		logger:    logging.NewComponentLogger(logger, "publish"),
	}
}

// ObjectName is the remote name for a file relative to a day's directory.
func (p *Publisher) ObjectName(date, rel string) string {
	rel = filepath.ToSlash(rel)
	if p.prefix == "" {
		return path.Join(date, rel)
	}
	return path.Join(p.prefix, date, rel)
}

// PublishDay uploads the manifest for date and every file in its by-date
// audio directory. It returns the number of objects written.
func (p *Publisher) PublishDay(ctx context.Context, date string) (int, error) {
	if p == nil || p.uploader == nil {
		return 0, services.Wrap(services.ErrConfiguration, "publish", "publish day", "no uploader configured", nil)
	}
	key, err := manifest.ParseDate(date)
	if err != nil {
		return 0, err
	}
	manifestPath := p.manifests.Path(key)
	if !p.manifests.Exists(key) {
		return 0, services.Wrap(services.ErrNotFound, "publish", "publish day", "no manifest for "+key, nil)
	}

	logger := p.logger.With(logging.String(logging.FieldDate, key))
	if err := p.uploader.Upload(ctx, manifestPath, p.ObjectName(key, filepath.Base(manifestPath))); err != nil {
		return 0, err
	}
	count := 1

	dir := p.layout.DailyDir(key)
	err = filepath.WalkDir(dir, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) && current == dir {
				return fs.SkipDir
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, current)
		if err != nil {
			return err
		}
		if err := p.uploader.Upload(ctx, current, p.ObjectName(key, rel)); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	logger.Info("day published",
		logging.Int("objects", count),
		logging.String("prefix", p.ObjectName(key, "")),
	)
	return count, nil
}
