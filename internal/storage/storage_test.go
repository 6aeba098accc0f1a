package storage

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/config"
)

func testPNG(t *testing.T) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func fixedUploader(store Store, suffixes ...string) *Uploader {
	u := NewUploader(store, 1<<20)
	u.now = func() time.Time { return time.Date(2024, 7, 1, 9, 30, 15, 0, time.UTC) }
	u.suffix = func() string {
		s := suffixes[0]
		if len(suffixes) > 1 {
			suffixes = suffixes[1:]
		}
		return s
	}
	return u
}

func TestGenerateKey(t *testing.T) {
	u := fixedUploader(nil, "a1b2c3d4")
	assert.Equal(t, "listings/20240701093015_a1b2c3d4.jpg", u.generateKey(".JPG"))
}

func TestLocalStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost:8080")

	result, err := fixedUploader(store, "a1b2c3d4").UploadPhoto(context.Background(), "lamp.png", testPNG(t))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/uploads/listings/20240701093015_a1b2c3d4.jpg", result.URL)
	assert.Equal(t, "image/jpeg", result.MimeType)

	stored, err := os.ReadFile(filepath.Join(dir, "listings", "20240701093015_a1b2c3d4.jpg"))
	require.NoError(t, err)
	assert.Equal(t, result.Size, int64(len(stored)))
}

func TestLocalStoreRejectsExistingKey(t *testing.T) {
	store := NewLocalStore(t.TempDir(), "http://localhost:8080")
	ctx := context.Background()

	_, err := store.Put(ctx, "listings/a.jpg", "image/jpeg", []byte("one"))
	require.NoError(t, err)

	_, err = store.Put(ctx, "listings/a.jpg", "image/jpeg", []byte("two"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUploaderRetriesOnKeyCollision(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "http://localhost:8080")
	_, err := store.Put(context.Background(), "listings/20240701093015_taken000.jpg", "image/jpeg", []byte("x"))
	require.NoError(t, err)

	result, err := fixedUploader(store, "taken000", "fresh111").UploadPhoto(context.Background(), "a.png", testPNG(t))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.Key, "_fresh111.jpg"))
}

func TestLocalStoreMissingDirectory(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"), "http://localhost:8080")

	_, err := store.Put(context.Background(), "listings/a.jpg", "image/jpeg", []byte("x"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpload))
	assert.Contains(t, err.Error(), "create it")
}

func TestUploaderRejectsOversizedAndInvalid(t *testing.T) {
	u := NewUploader(NewLocalStore(t.TempDir(), ""), 4)
	_, err := u.UploadPhoto(context.Background(), "big.png", []byte("12345"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	u = NewUploader(NewLocalStore(t.TempDir(), ""), 0)
	_, err = u.UploadPhoto(context.Background(), "notes.txt", []byte("plain text"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

type fakeS3 struct {
	s3iface.S3API
	existing map[string]bool
	headErr  error
	putErr   error
	puts     []*s3.PutObjectInput
}

func (f *fakeS3) HeadObjectWithContext(ctx aws.Context, in *s3.HeadObjectInput, opts ...request.Option) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if f.existing[aws.StringValue(in.Key)] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "req")
}

func (f *fakeS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func testAWSConfig() config.AWSConfig {
	return config.AWSConfig{Region: "ap-south-1", S3Bucket: "listing-images"}
}

func TestS3StorePut(t *testing.T) {
	client := &fakeS3{}
	store := newS3Store(client, testAWSConfig())

	url, err := store.Put(context.Background(), "listings/a.jpg", "image/jpeg", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://listing-images.s3.ap-south-1.amazonaws.com/listings/a.jpg", url)
	require.Len(t, client.puts, 1)
	assert.Equal(t, "listing-images", aws.StringValue(client.puts[0].Bucket))
	assert.Equal(t, "image/jpeg", aws.StringValue(client.puts[0].ContentType))
}

func TestS3StoreCloudFrontURL(t *testing.T) {
	cfg := testAWSConfig()
	cfg.CloudFrontURL = "https://cdn.campus.example"
	store := newS3Store(&fakeS3{}, cfg)

	url, err := store.Put(context.Background(), "listings/a.jpg", "image/jpeg", []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.campus.example/listings/a.jpg", url)
}

func TestS3StoreRejectsExistingKey(t *testing.T) {
	client := &fakeS3{existing: map[string]bool{"listings/a.jpg": true}}
	store := newS3Store(client, testAWSConfig())

	_, err := store.Put(context.Background(), "listings/a.jpg", "image/jpeg", []byte("data"))
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Empty(t, client.puts)
}

func TestS3StoreMissingBucketExplainsRemediation(t *testing.T) {
	client := &fakeS3{putErr: awserr.New(s3.ErrCodeNoSuchBucket, "The specified bucket does not exist", nil)}
	store := newS3Store(client, testAWSConfig())

	_, err := store.Put(context.Background(), "listings/a.jpg", "image/jpeg", []byte("data"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpload))
	assert.Contains(t, err.Error(), `create the bucket "listing-images"`)
}

func TestS3StoreHeadFailureIsUploadError(t *testing.T) {
	client := &fakeS3{headErr: awserr.New("AccessDenied", "Access Denied", nil)}
	store := newS3Store(client, testAWSConfig())

	_, err := store.Put(context.Background(), "listings/a.jpg", "image/jpeg", []byte("data"))
	assert.True(t, apperr.Is(err, apperr.KindUpload))
	assert.Empty(t, client.puts)
}
