package publish

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"misa/internal/logging"
	"misa/internal/services"
)

const uploadTimeout = 2 * time.Minute

// Uploader copies a local file to a named object.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectName string) error
}

// GCSUploader writes objects to a single Google Cloud Storage bucket.
type GCSUploader struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

// NewGCSUploader opens a storage client. An empty credentialsFile falls back
// to application default credentials.
func NewGCSUploader(ctx context.Context, bucket, credentialsFile string, logger *slog.Logger) (*GCSUploader, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "open bucket", "publish.bucket is empty", nil)
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if path := strings.TrimSpace(credentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "open bucket", "create storage client", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &GCSUploader{
		client: client,
		bucket: bucket,
		logger: logging.NewComponentLogger(logger, "publish"),
	}, nil
}

// Upload streams localPath into the bucket as objectName.
func (u *GCSUploader) Upload(ctx context.Context, localPath, objectName string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	w := u.client.Bucket(u.bucket).Object(objectName).NewWriter(ctx)
	if ct := ContentType(objectName); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return services.Wrap(services.ErrTransient, "publish", "upload", "write gs://"+u.bucket+"/"+objectName, err)
	}
	if err := w.Close(); err != nil {
		return services.Wrap(services.ErrTransient, "publish", "upload", "close gs://"+u.bucket+"/"+objectName, err)
	}
	u.logger.Debug("object uploaded",
		logging.String("bucket", u.bucket),
		logging.String("object", objectName),
	)
	return nil
}

// Close releases the storage client.
func (u *GCSUploader) Close() error {
	if u == nil || u.client == nil {
		return nil
	}
	return u.client.Close()
}

// ContentType maps an object name to the content type stored with it.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".wav":
		return "audio/wav"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return ""
	}
}
