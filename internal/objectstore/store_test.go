package objectstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabarim/b3quotes/internal/apperr"
	"github.com/sabarim/b3quotes/internal/logging"
)

type fakeS3 struct {
	objects map[string]string
	headErr error
	bodyErr error
	puts    []string
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(b)
	f.puts = append(f.puts, aws.ToString(in.Key))
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	var r io.Reader = strings.NewReader(body)
	if f.bodyErr != nil {
		r = io.MultiReader(r, &errReader{err: f.bodyErr})
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(r)}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	return out, nil
}

type errReader struct{ err error }

func (r *errReader) Read([]byte) (int, error) { return 0, r.err }

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "data.parquet")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestParseLocation(t *testing.T) {
	loc, err := ParseLocation("s3://lake/raw/")
	require.NoError(t, err)
	assert.True(t, loc.IsS3())
	assert.Equal(t, "lake", loc.Bucket)
	assert.Equal(t, "raw", loc.Prefix)

	loc, err = ParseLocation("./data/raw")
	require.NoError(t, err)
	assert.False(t, loc.IsS3())
	assert.Equal(t, "./data/raw", loc.Dir)

	_, err = ParseLocation("gs://bucket/x")
	assert.Error(t, err)
	_, err = ParseLocation("")
	assert.Error(t, err)
}

func TestUploadSkipsExistingUnlessOverwrite(t *testing.T) {
	ctx := context.Background()
	log := logging.Discard()
	fake := &fakeS3{objects: map[string]string{"raw/k": "old"}}
	store := NewS3WithClient(fake, "lake")
	src := writeTemp(t, "new")

	out, err := Upload(ctx, store, "raw/k", src, false, log)
	require.NoError(t, err)
	assert.Equal(t, Skipped, out)
	assert.Equal(t, "old", fake.objects["raw/k"])

	out, err = Upload(ctx, store, "raw/k", src, true, log)
	require.NoError(t, err)
	assert.Equal(t, Uploaded, out)
	assert.Equal(t, "new", fake.objects["raw/k"])

	out, err = Upload(ctx, store, "raw/other", src, false, log)
	require.NoError(t, err)
	assert.Equal(t, Uploaded, out)
	assert.Equal(t, []string{"raw/k", "raw/other"}, fake.puts)
}

func TestUploadHeadFailureIsFatal(t *testing.T) {
	fake := &fakeS3{
		objects: map[string]string{},
		headErr: &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"},
	}
	store := NewS3WithClient(fake, "lake")

	_, err := Upload(context.Background(), store, "raw/k", writeTemp(t, "x"), false, logging.Discard())
	var remote *apperr.RemoteServiceError
	require.True(t, errors.As(err, &remote))
	assert.Equal(t, "s3", remote.Service)
	assert.Empty(t, fake.puts)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&types.NotFound{}))
	assert.True(t, IsNotFound(&smithy.GenericAPIError{Code: "404"}))
	assert.False(t, IsNotFound(&smithy.GenericAPIError{Code: "403"}))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestS3GetAndList(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string]string{"raw/b": "2", "raw/a": "1", "other/c": "3"}}
	store := NewS3WithClient(fake, "lake")

	keys, err := store.List(ctx, "raw/")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/a", "raw/b"}, keys)

	dst := filepath.Join(t.TempDir(), "nested", "a")
	require.NoError(t, store.Get(ctx, "raw/a", dst))
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "1", string(b))
	assert.Equal(t, "s3://lake/raw/a", store.URI("raw/a"))
}

func TestDirStore(t *testing.T) {
	ctx := context.Background()
	store := NewDir(t.TempDir())
	src := writeTemp(t, "payload")

	ok, err := store.Exists(ctx, "refined/dt=2024-01-01/ticker=AAA/data.parquet")
	require.NoError(t, err)
	assert.False(t, ok)

	out, err := Upload(ctx, store, "refined/dt=2024-01-01/ticker=AAA/data.parquet", src, false, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, Uploaded, out)

	out, err = Upload(ctx, store, "refined/dt=2024-01-01/ticker=AAA/data.parquet", src, false, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, Skipped, out)

	keys, err := store.List(ctx, "refined/")
	require.NoError(t, err)
	assert.Equal(t, []string{"refined/dt=2024-01-01/ticker=AAA/data.parquet"}, keys)

	missing := NewDir(filepath.Join(t.TempDir(), "absent"))
	keys, err = missing.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestS3GetInterruptedRemovesPartialFile(t *testing.T) {
	fake := &fakeS3{
		objects: map[string]string{"raw/a": "partial"},
		bodyErr: errors.New("connection reset"),
	}
	store := NewS3WithClient(fake, "lake")

	dst := filepath.Join(t.TempDir(), "a.parquet")
	err := store.Get(context.Background(), "raw/a", dst)
	require.Error(t, err)

	var remote *apperr.RemoteServiceError
	assert.True(t, errors.As(err, &remote))
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}
