package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warranty-copilot/internal/shared/storage/object"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = body
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func TestObjectKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "combined_training_data.json", want: "combined_training_data.json"},
		{name: "env prefix", prefix: "dev", key: "TopicIntents.yaml", want: "dev/TopicIntents.yaml"},
		{name: "prefix slashes", prefix: "/copilot/dev/", key: "/TopicIntents.yaml", want: "copilot/dev/TopicIntents.yaml"},
		{name: "empty key", prefix: "dev", key: "", want: "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := NewWithClient(nil, "bucket", tt.prefix)
			assert.Equal(t, tt.want, s.objectKey(tt.key))
		})
	}
}

func TestPutThenOpen(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	store := NewWithClient(fake, "copilot-data", "dev")
	ctx := context.Background()

	n, err := store.Put(ctx, "TopicIntents.yaml", "application/yaml", strings.NewReader("doors: {}\n"))
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)
	require.Len(t, fake.puts, 1)
	assert.Equal(t, "dev/TopicIntents.yaml", aws.ToString(fake.puts[0].Key))
	assert.EqualValues(t, 10, aws.ToInt64(fake.puts[0].ContentLength))
	assert.Equal(t, "application/yaml", aws.ToString(fake.puts[0].ContentType))

	data, err := object.ReadAll(ctx, store, "TopicIntents.yaml")
	require.NoError(t, err)
	assert.Equal(t, "doors: {}\n", string(data))
}

func TestOpenMissingIsNotFound(t *testing.T) {
	store := NewWithClient(&fakeS3{objects: map[string][]byte{}}, "copilot-data", "")
	_, err := store.Open(context.Background(), "combined_training_data.json")
	assert.True(t, errors.Is(err, object.ErrNotFound))
}
