package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsS3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"laundrycore/internal/infra/kv/core"
)

// mockRoundTripper fakes the S3 object API subset the store uses, without
// network access.
type mockRoundTripper struct {
	state map[string][]byte
}

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.state[key] = body
		return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {`"etag"`}}}, nil
	case http.MethodGet:
		if body, ok := m.state[key]; ok {
			return &http.Response{StatusCode: 200, Body: io.NopCloser(bytes.NewReader(body)), Header: http.Header{
				"Content-Length": {fmt.Sprintf("%d", len(body))},
				"Content-Type":   {"application/json"},
			}}, nil
		}
		return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(noSuchKeyBody)), Header: http.Header{
			"Content-Type": {"application/xml"},
		}}, nil
	case http.MethodDelete:
		delete(m.state, key)
		return &http.Response{StatusCode: 204, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	return &http.Response{StatusCode: 501, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
}

// decodeChunked strips aws-chunked transfer framing when the SDK applies it.
func decodeChunked(body []byte) ([]byte, bool) {
	s := string(body)
	idx := strings.Index(s, "\r\n")
	if idx <= 0 {
		return nil, false
	}
	sizeLine := s[:idx]
	if semi := strings.Index(sizeLine, ";"); semi >= 0 {
		sizeLine = sizeLine[:semi]
	}
	var size int
	if _, err := fmt.Sscanf(sizeLine, "%x", &size); err != nil || size <= 0 || idx+2+size > len(s) {
		return nil, false
	}
	return []byte(s[idx+2 : idx+2+size]), true
}

func newMockStore(t *testing.T) (*Store, *mockRoundTripper) {
	t.Helper()
	rt := &mockRoundTripper{state: make(map[string][]byte)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("cfg: %v", err)
	}
	client := awsS3.NewFromConfig(cfg, func(o *awsS3.Options) {
		o.BaseEndpoint = aws.String("https://mock.s3.local")
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
	})
	return &Store{client: client, bucket: "test-bucket"}, rt
}

func TestStoreRoundTrip(t *testing.T) {
	store, _ := newMockStore(t)
	ctx := context.Background()

	if store.Driver() != core.DriverS3 {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
	if store.Bucket() != "test-bucket" {
		t.Fatalf("unexpected bucket %s", store.Bucket())
	}

	if _, found, err := store.Get(ctx, "orders"); err != nil || found {
		t.Fatalf("expected clean miss, found=%v err=%v", found, err)
	}

	if err := store.Set(ctx, "orders", []byte(`{"o1":{}}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, found, err := store.Get(ctx, "orders")
	if err != nil || !found || string(got) != `{"o1":{}}` {
		t.Fatalf("unexpected get %q found=%v err=%v", got, found, err)
	}

	// Overwrite is unconditional.
	if err := store.Set(ctx, "orders", []byte(`{}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, _ = store.Get(ctx, "orders")
	if string(got) != `{}` {
		t.Fatalf("expected overwritten payload, got %q", got)
	}

	if err := store.Delete(ctx, "orders"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := store.Get(ctx, "orders"); found {
		t.Fatalf("expected miss after delete")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket requirement")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("LAUNDRYCORE_KV_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected env bucket requirement")
	}
}
