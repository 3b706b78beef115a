package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/target/balancedesk/internal/domain/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GCSStoreOptions configure a GCSStore.
type GCSStoreOptions struct {
	Bucket string
	Prefix string
	// CredentialsJSON selects explicit credentials; empty uses application default credentials.
	CredentialsJSON string
}

// GCSStore keeps artifacts as objects under a bucket prefix.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore connects to Cloud Storage and checks that the bucket is reachable.
func NewGCSStore(ctx context.Context, opts GCSStoreOptions) (*GCSStore, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("gcs artifact store: bucket is required")
	}
	var clientOpts []option.ClientOption
	if creds := strings.TrimSpace(opts.CredentialsJSON); creds != "" {
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(creds)))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(opts.Bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs bucket %q not accessible: %w", opts.Bucket, err)
	}
	return &GCSStore{client: client, bucket: opts.Bucket, prefix: opts.Prefix}, nil
}

func (s *GCSStore) object(name string) (*storage.ObjectHandle, string, error) {
	if err := checkName(name); err != nil {
		return nil, "", err
	}
	key := s.prefix + name
	return s.client.Bucket(s.bucket).Object(key), key, nil
}

// Save uploads r and returns the gs:// URL of the object.
func (s *GCSStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	obj, key, err := s.object(name)
	if err != nil {
		return "", err
	}
	wc := obj.NewWriter(ctx)
	wc.ContentType = xlsxContentType
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("upload artifact %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalize artifact %s: %w", name, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

// Open streams the object. A missing object wraps model.ErrNotFound.
func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	obj, _, err := s.object(name)
	if err != nil {
		return nil, err
	}
	rc, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", name, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact %s: %w", name, err)
	}
	return rc, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (s *GCSStore) Delete(ctx context.Context, name string) error {
	obj, _, err := s.object(name)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete artifact %s: %w", name, err)
	}
	return nil
}

// DeleteOlderThan removes objects under the prefix last updated before cutoff.
func (s *GCSStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	bucket := s.client.Bucket(s.bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: s.prefix})
	removed := 0
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return removed, nil
		}
		if err != nil {
			return removed, fmt.Errorf("list artifacts: %w", err)
		}
		if !attrs.Updated.Before(cutoff) {
			continue
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return removed, fmt.Errorf("delete artifact %s: %w", attrs.Name, err)
		}
		removed++
	}
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
