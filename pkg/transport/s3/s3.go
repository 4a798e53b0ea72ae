// Package s3 implements a Transport that keeps each resource as one JSON
// object under "<prefix><id>.json" in an S3 bucket. It is useful for small
// collections that need durable storage without running an API server.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(context.Background())
//	tr := s3.New(awss3.NewFromConfig(cfg), "my-bucket", s3.WithPrefix("todos/"))
//	client, _ := autoapi.New(st, "todos", "todos", tr)
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	jsoniter "github.com/json-iterator/go"

	"github.com/arfordweb/redux-auto-api/pkg/collection"
	"github.com/arfordweb/redux-auto-api/pkg/transport"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client is the subset of the AWS S3 client the transport uses.
// *awss3.Client satisfies it; tests supply a fake.
type Client interface {
	ListObjectsV2(ctx context.Context, in *awss3.ListObjectsV2Input, opts ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, opts ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, opts ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

// Transport stores resources as S3 objects.
type Transport struct {
	client Client
	bucket string
	prefix string
	idKey  string
}

// Option configures the transport.
type Option func(*Transport)

// WithPrefix sets the key prefix objects are stored under (e.g. "todos/").
func WithPrefix(prefix string) Option {
	return func(t *Transport) {
		t.prefix = prefix
	}
}

// WithIDKey sets the resource field holding the id (default "id").
func WithIDKey(idKey string) Option {
	return func(t *Transport) {
		t.idKey = idKey
	}
}

// New creates an S3 transport over the given client and bucket.
func New(client Client, bucket string, opts ...Option) *Transport {
	t := &Transport{
		client: client,
		bucket: bucket,
		idKey:  "id",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Get lists every object under the prefix and returns the decoded records.
// Params are applied as exact-match filters on record fields. The endpoint
// argument is unused; the bucket and prefix identify the collection.
func (t *Transport) Get(ctx context.Context, _ string, params transport.Params) (transport.Response, error) {
	var records []collection.Resource
	var token *string
	for {
		out, err := t.client.ListObjectsV2(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(t.bucket),
			Prefix:            aws.String(t.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return transport.Response{}, fmt.Errorf("list %s/%s: %w", t.bucket, t.prefix, err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil || !strings.HasSuffix(*obj.Key, ".json") {
				continue
			}
			r, err := t.fetch(ctx, *obj.Key)
			if err != nil {
				return transport.Response{}, err
			}
			if matches(r, params) {
				records = append(records, r)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}
	return transport.Response{Data: records}, nil
}

// Post writes each record as a new object. Records must already carry an
// id; the sequencer assigns placeholder ids before calling the transport.
func (t *Transport) Post(ctx context.Context, _ string, payload any) (transport.Response, error) {
	records, err := coerce(payload)
	if err != nil {
		return transport.Response{}, err
	}
	for _, r := range records {
		if err := t.put(ctx, r); err != nil {
			return transport.Response{}, err
		}
	}
	return transport.Response{Data: records}, nil
}

// Patch merges each patch record over the stored object and writes it back.
func (t *Transport) Patch(ctx context.Context, _ string, payload any) (transport.Response, error) {
	patches, err := coerce(payload)
	if err != nil {
		return transport.Response{}, err
	}
	merged := make([]collection.Resource, 0, len(patches))
	for _, patch := range patches {
		id, ok := patch.ID(t.idKey)
		if !ok {
			return transport.Response{}, fmt.Errorf("patch record has no %q field", t.idKey)
		}
		existing, err := t.fetch(ctx, t.key(id))
		if err != nil {
			return transport.Response{}, err
		}
		next := existing.Merge(patch)
		if err := t.put(ctx, next); err != nil {
			return transport.Response{}, err
		}
		merged = append(merged, next)
	}
	return transport.Response{Data: merged}, nil
}

// Delete removes each record's object.
func (t *Transport) Delete(ctx context.Context, _ string, payload any) (transport.Response, error) {
	records, err := coerce(payload)
	if err != nil {
		return transport.Response{}, err
	}
	for _, r := range records {
		id, ok := r.ID(t.idKey)
		if !ok {
			return transport.Response{}, fmt.Errorf("delete record has no %q field", t.idKey)
		}
		_, err := t.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
			Bucket: aws.String(t.bucket),
			Key:    aws.String(t.key(id)),
		})
		if err != nil {
			return transport.Response{}, fmt.Errorf("delete %s: %w", id, err)
		}
	}
	return transport.Response{Data: records}, nil
}

func (t *Transport) key(id string) string {
	return t.prefix + id + ".json"
}

func (t *Transport) fetch(ctx context.Context, key string) (collection.Resource, error) {
	out, err := t.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer out.Body.Close()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var r collection.Resource
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return r, nil
}

func (t *Transport) put(ctx context.Context, r collection.Resource) error {
	id, ok := r.ID(t.idKey)
	if !ok {
		return fmt.Errorf("record has no %q field", t.idKey)
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	_, err = t.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(t.key(id)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	return nil
}

func coerce(payload any) ([]collection.Resource, error) {
	switch v := payload.(type) {
	case []collection.Resource:
		return v, nil
	case collection.Resource:
		return []collection.Resource{v}, nil
	case []map[string]any:
		out := make([]collection.Resource, len(v))
		for i, m := range v {
			out[i] = collection.Resource(m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported payload type %T", payload)
	}
}

func matches(r collection.Resource, params transport.Params) bool {
	for k, want := range params {
		got, ok := r[k]
		if !ok || fmt.Sprintf("%v", got) != want {
			return false
		}
	}
	return true
}
