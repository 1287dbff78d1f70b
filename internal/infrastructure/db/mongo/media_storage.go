package mongo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lof/customer-profile/internal/core/ports"
)

const defaultBucket = "media"

// MediaStorage keeps a remote copy of the media directory in GridFS. Files
// are named by their path relative to the media root.
type MediaStorage struct {
	db     *mongo.Database
	bucket string
	dir    ports.MediaDirectory
}

func NewMediaStorage(db *mongo.Database, bucket string, dir ports.MediaDirectory) *MediaStorage {
	if bucket == "" {
		bucket = defaultBucket
	}
	return &MediaStorage{db: db, bucket: bucket, dir: dir}
}

// openBucket returns a bucket with deadlines taken from ctx. Buckets hold
// their deadlines as state, so one is opened per call.
func (s *MediaStorage) openBucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return nil, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := b.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	if err := b.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	return b, nil
}

// ProcessStorageFile downloads the latest revision of the file at absPath into
// the media directory.
func (s *MediaStorage) ProcessStorageFile(ctx context.Context, absPath string) (bool, error) {
	name, ok := s.dir.RelativePath(absPath)
	if !ok {
		return false, nil
	}

	b, err := s.openBucket(ctx)
	if err != nil {
		return false, fmt.Errorf("open bucket: %w", err)
	}

	var buf bytes.Buffer
	if _, err := b.DownloadToStreamByName(name, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("download %s: %w", name, err)
	}

	if err := s.dir.WriteFile(name, buf.Bytes()); err != nil {
		return false, fmt.Errorf("write %s: %w", name, err)
	}
	return true, nil
}

func (s *MediaStorage) SaveFile(ctx context.Context, name string, data []byte) error {
	b, err := s.openBucket(ctx)
	if err != nil {
		return fmt.Errorf("open bucket: %w", err)
	}
	if _, err := b.UploadFromStream(name, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
