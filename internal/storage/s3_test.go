package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	pages   [][]string
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	key := aws.ToString(in.Key)
	if _, exists := f.objects[key]; exists && aws.ToString(in.IfNoneMatch) == "*" {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "At least one of the pre-conditions you specified did not hold"}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	idx := 0
	if in.ContinuationToken != nil {
		idx = int(aws.ToString(in.ContinuationToken)[0] - '0')
	}
	out := &s3.ListObjectsV2Output{}
	for _, k := range f.pages[idx] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if idx+1 < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(string(rune('0' + idx + 1)))
	}
	return out, nil
}

func TestS3StoreUpload(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{}}
	s := NewS3StoreWithClient(fake, nil)

	res, err := s.Upload(ctx, "invoices", "json-output/a.json", []byte(`{}`), "application/json", false)
	require.NoError(t, err)
	assert.Equal(t, Created, res)
	assert.Equal(t, "*", aws.ToString(fake.puts[0].IfNoneMatch))
	assert.Equal(t, "application/json", aws.ToString(fake.puts[0].ContentType))

	res, err = s.Upload(ctx, "invoices", "json-output/a.json", []byte(`{"x":1}`), "application/json", false)
	require.NoError(t, err)
	assert.Equal(t, AlreadyExists, res)

	res, err = s.Upload(ctx, "invoices", "json-output/a.json", []byte(`{"x":1}`), "application/json", true)
	require.NoError(t, err)
	assert.Equal(t, Updated, res)
	assert.Nil(t, fake.puts[2].IfNoneMatch)

	data, err := s.Download(ctx, "invoices", "json-output/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(data))
}

func TestS3StoreDownloadMissing(t *testing.T) {
	s := NewS3StoreWithClient(&fakeS3{objects: map[string][]byte{}}, nil)
	_, err := s.Download(context.Background(), "invoices", "nope.json")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestS3StoreListPaginates(t *testing.T) {
	fake := &fakeS3{pages: [][]string{{"results/a.json", "results/b.json"}, {"results/c.json"}}}
	s := NewS3StoreWithClient(fake, nil)

	keys, err := s.List(context.Background(), "invoices", "results/")
	require.NoError(t, err)
	assert.Equal(t, []string{"results/a.json", "results/b.json", "results/c.json"}, keys)
}
