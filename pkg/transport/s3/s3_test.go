package s3

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arfordweb/redux-auto-api/pkg/collection"
	"github.com/arfordweb/redux-auto-api/pkg/transport"
)

// fakeBucket implements Client over an in-memory map. Listing is returned
// in key order, one page per maxKeys, to exercise pagination.
type fakeBucket struct {
	objects map[string][]byte
	maxKeys int
	failPut bool
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, maxKeys: 1000}
}

func (f *fakeBucket) seed(t *testing.T, key string, r collection.Resource) {
	t.Helper()
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	f.objects[key] = raw
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	var keys []string
	for k := range f.objects {
		if in.Prefix == nil || strings.HasPrefix(k, *in.Prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k > *in.ContinuationToken {
				start = i
				break
			}
		}
	}
	end := start + f.maxKeys
	if end > len(keys) {
		end = len(keys)
	}

	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end-1])
	}
	return out, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	raw, ok := f.objects[*in.Key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", *in.Key)
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(raw)))}, nil
}

func (f *fakeBucket) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.failPut {
		return nil, fmt.Errorf("put refused")
	}
	raw, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Key] = raw
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	delete(f.objects, *in.Key)
	return &awss3.DeleteObjectOutput{}, nil
}

func TestS3Get(t *testing.T) {
	bucket := newFakeBucket()
	bucket.seed(t, "todos/1.json", collection.Resource{"id": "1", "done": false})
	bucket.seed(t, "todos/2.json", collection.Resource{"id": "2", "done": true})
	bucket.objects["todos/readme.txt"] = []byte("not a record")

	tr := New(bucket, "b", WithPrefix("todos/"))
	resp, err := tr.Get(context.Background(), "", nil)
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "1", resp.Data[0]["id"])
	assert.Equal(t, "2", resp.Data[1]["id"])
}

func TestS3GetPaginates(t *testing.T) {
	bucket := newFakeBucket()
	bucket.maxKeys = 2
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("%d", i)
		bucket.seed(t, "p/"+id+".json", collection.Resource{"id": id})
	}

	tr := New(bucket, "b", WithPrefix("p/"))
	resp, err := tr.Get(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Len(t, resp.Data, 5)
}

func TestS3GetFiltersByParams(t *testing.T) {
	bucket := newFakeBucket()
	bucket.seed(t, "1.json", collection.Resource{"id": "1", "kind": "a"})
	bucket.seed(t, "2.json", collection.Resource{"id": "2", "kind": "b"})

	tr := New(bucket, "b")
	resp, err := tr.Get(context.Background(), "", transport.Params{"kind": "b"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "2", resp.Data[0]["id"])
}

func TestS3PostAndPatch(t *testing.T) {
	bucket := newFakeBucket()
	tr := New(bucket, "b", WithPrefix("t/"))

	_, err := tr.Post(context.Background(), "", []collection.Resource{{"id": "1", "qty": 5, "name": "widget"}})
	require.NoError(t, err)
	require.Contains(t, bucket.objects, "t/1.json")

	resp, err := tr.Patch(context.Background(), "", []collection.Resource{{"id": "1", "qty": 9}})
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.EqualValues(t, 9, resp.Data[0]["qty"])
	assert.Equal(t, "widget", resp.Data[0]["name"])
}

func TestS3PatchUnknownID(t *testing.T) {
	tr := New(newFakeBucket(), "b")
	_, err := tr.Patch(context.Background(), "", []collection.Resource{{"id": "missing", "x": 1}})
	require.Error(t, err)
}

func TestS3Delete(t *testing.T) {
	bucket := newFakeBucket()
	bucket.seed(t, "1.json", collection.Resource{"id": "1"})

	tr := New(bucket, "b")
	_, err := tr.Delete(context.Background(), "", []collection.Resource{{"id": "1"}})
	require.NoError(t, err)
	assert.Empty(t, bucket.objects)
}

func TestS3PostRequiresID(t *testing.T) {
	tr := New(newFakeBucket(), "b")
	_, err := tr.Post(context.Background(), "", []collection.Resource{{"name": "no id"}})
	require.Error(t, err)
}

func TestS3PostSurfacesPutFailure(t *testing.T) {
	bucket := newFakeBucket()
	bucket.failPut = true
	tr := New(bucket, "b")
	_, err := tr.Post(context.Background(), "", []collection.Resource{{"id": "1"}})
	require.Error(t, err)
}
