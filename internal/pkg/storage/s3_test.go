package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a path-style S3 endpoint good enough for single-part uploads.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><ListAllMyBucketsResult><Buckets></Buckets></ListAllMyBucketsResult>`)
		return
	}

	bucket, _, hasKey := strings.Cut(path, "/")
	if !hasKey {
		switch r.Method {
		case http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
			}
		case http.MethodPut:
			f.buckets[bucket] = true
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
		w.Header().Set("ETag", `"etag"`)
	case http.MethodHead:
		body, ok := f.objects[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	case http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestProvider(t *testing.T, endpoint string) *S3Provider {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	p, err := NewS3Provider(context.Background(), S3Options{
		Endpoint:   endpoint,
		Region:     "us-east-1",
		AccessKey:  "minio",
		SecretKey:  "minio123",
		Bucket:     "uploads",
		PresignTTL: 15 * time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return p
}

func TestS3Provider_UploadReportsBackendSize(t *testing.T) {
	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, p.EnsureBucket(ctx))
	assert.True(t, fake.buckets["uploads"])

	obj, err := p.Upload(ctx, strings.NewReader("hello world"), "u-1/abc-hello.txt", "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "u-1/abc-hello.txt", obj.Key)
	assert.EqualValues(t, 11, obj.Size)

	require.NoError(t, p.Delete(ctx, "u-1/abc-hello.txt"))
	_, err = p.Stat(ctx, "u-1/abc-hello.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestS3Provider_EnsureBucketExisting(t *testing.T) {
	fake := newFakeS3()
	fake.buckets["uploads"] = true
	srv := httptest.NewServer(fake)
	defer srv.Close()

	assert.NoError(t, newTestProvider(t, srv.URL).EnsureBucket(context.Background()))
}

func TestS3Provider_HealthCheck(t *testing.T) {
	srv := httptest.NewServer(newFakeS3())
	p := newTestProvider(t, srv.URL)
	assert.NoError(t, p.HealthCheck(context.Background()))

	srv.Close()
	assert.Error(t, p.HealthCheck(context.Background()))
}

func TestS3Provider_PresignGet(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:9000")

	url, err := p.PresignGet(context.Background(), "u-1/abc-hello.txt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:9000/uploads/u-1/abc-hello.txt?"), url)
	assert.Contains(t, url, "X-Amz-Expires=900")
}

func TestNewS3Provider_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		return aws.Config{}, errors.New("boom")
	}

	_, err := NewS3Provider(context.Background(), S3Options{Region: "eu-central-1"}, slog.Default())
	assert.ErrorContains(t, err, "boom")
}
