package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"

	"vistagram.app/internal/ids"
)

// Uploader persists an image reachable at a source URL and returns the URL it
// is served from afterwards.
type Uploader interface {
	Upload(ctx context.Context, sourceURL string) (string, error)
}

// StreamUploader persists an image read directly from the client, as in a
// multipart form upload.
type StreamUploader interface {
	UploadStream(ctx context.Context, r io.Reader, size int64, contentType string) (string, error)
}

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	EndpointURL() *url.URL
}

type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return w.c.BucketExists(ctx, bucket)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucket, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucket, object, reader, size, opts)
}
func (w minioClientWrapper) EndpointURL() *url.URL { return w.c.EndpointURL() }

var (
	_ Uploader       = (*MinioUploader)(nil)
	_ StreamUploader = (*MinioUploader)(nil)
)

// MinioUploader copies images into an object storage bucket. It plays the
// hosted-image-provider role: posts reference the bucket URL, not the
// origin stock URL.
type MinioUploader struct {
	api    minioAPI
	bucket string
	fetch  *http.Client
}

// NewMinioUploader wraps a real *minio.Client.
func NewMinioUploader(ctx context.Context, client *minio.Client, bucket string) (*MinioUploader, error) {
	return newUploaderWithAPI(ctx, minioClientWrapper{c: client}, bucket)
}

func newUploaderWithAPI(ctx context.Context, api minioAPI, bucket string) (*MinioUploader, error) {
	u := &MinioUploader{
		api:    api,
		bucket: bucket,
		fetch:  &http.Client{Timeout: 30 * time.Second},
	}
	if err := u.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket exists: %w", err)
	}
	return u, nil
}

func (u *MinioUploader) ensureBucketExists(ctx context.Context) error {
	exists, err := u.api.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := u.api.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// Upload fetches the image at sourceURL and stores a copy in the bucket.
func (u *MinioUploader) Upload(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := u.fetch.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch source image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch source image: %s", resp.Status)
	}

	return u.UploadStream(ctx, resp.Body, resp.ContentLength, resp.Header.Get("Content-Type"))
}

// UploadStream stores the bytes of r in the bucket under a fresh key and
// returns the object URL.
func (u *MinioUploader) UploadStream(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	key := ids.New() + ".jpg"
	_, err := u.api.PutObject(ctx, u.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}

	endpoint := u.api.EndpointURL()
	return fmt.Sprintf("%s://%s/%s/%s", endpoint.Scheme, endpoint.Host, u.bucket, key), nil
}
