// Package mirror copies stored images to a secondary location after they
// have been written locally.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog/log"
)

type Mirror interface {
	Upload(ctx context.Context, name, path string) error
	Delete(ctx context.Context, name string) error
}

// Nop discards every call.
type Nop struct{}

func (Nop) Upload(context.Context, string, string) error { return nil }
func (Nop) Delete(context.Context, string) error         { return nil }

// GCS mirrors images into a Cloud Storage bucket, one object per stored file.
type GCS struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
}

func NewGCS(ctx context.Context, bucket, prefix string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{
		client: client,
		bucket: client.Bucket(bucket),
		prefix: prefix,
	}, nil
}

func (g *GCS) objectName(name string) string {
	return g.prefix + name
}

func (g *GCS) Upload(ctx context.Context, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	objW := g.bucket.Object(g.objectName(name)).NewWriter(ctx)
	n, err := io.Copy(objW, f)
	if err != nil {
		objW.Close()
		return fmt.Errorf("write object: %w", err)
	}
	if err := objW.Close(); err != nil {
		return fmt.Errorf("close object writer: %w", err)
	}

	log.Ctx(ctx).Debug().
		Int64("written_size", n).
		Str("object", fmt.Sprintf("gs://%s/%s", g.bucket.BucketName(), g.objectName(name))).
		Msg("image mirrored")
	return nil
}

// Delete removes the object; a missing object is not an error.
func (g *GCS) Delete(ctx context.Context, name string) error {
	err := g.bucket.Object(g.objectName(name)).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}
