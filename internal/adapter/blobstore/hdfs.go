package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/colinmarc/hdfs/v2"
	"github.com/storekit/catalog/internal/core/port"
	"github.com/storekit/catalog/pkg/retry"
)

var _ port.ImageBlobStore = (*ImageStore)(nil)

type hdfsStorage interface {
	Create(name string) (*hdfs.FileWriter, error)
	Remove(name string) error
}

// An ImageStore keeps product image blobs on HDFS and addresses them
// by hdfs:// URL.
type ImageStore struct {
	hdfs    hdfsStorage
	address string
	baseDir string
}

func New(address, baseDir string) (ImageStore, error) {
	const op = "blobstore.New"

	client, err := hdfs.New(address)
	if err != nil {
		return ImageStore{}, fmt.Errorf("%s: %w", op, err)
	}
	return ImageStore{hdfs: client, address: address, baseDir: baseDir}, nil
}

// Store writes the blob under the given object name and returns its
// URL. The close is retried: the namenode reports ErrReplicating until
// the last block settles.
func (s ImageStore) Store(
	ctx context.Context, name string, r io.Reader,
) (string, error) {
	const op = "ImageStore.Store"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	filepath := path.Join(s.baseDir, name)

	w, err := s.hdfs.Create(filepath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := s.closeWriter(ctx, w); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Sprintf("hdfs://%s%s", s.address, filepath), nil
}

// Delete removes the blob addressed by a URL previously returned by
// Store.
func (s ImageStore) Delete(ctx context.Context, rawURL string) error {
	const op = "ImageStore.Delete"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.hdfs.Remove(u.Path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s ImageStore) closeWriter(ctx context.Context, w io.Closer) error {
	retryCfg := retry.Config{
		MaxAttempts: 5,
		Backoff:     retry.LinearBackoff(50 * time.Millisecond),
		ShouldRetry: func(err error) bool {
			return errors.Is(err, hdfs.ErrReplicating)
		},
	}

	return retry.Do(ctx, retryCfg, w.Close)
}
