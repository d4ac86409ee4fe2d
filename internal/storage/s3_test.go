package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	headErr error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = b
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; ok {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NotFound", Message: "not found"}
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "acme/0-John316_a.mp4"},
		{"/batches/", "batches/acme/0-John316_a.mp4"},
		{"a/b", "a/b/acme/0-John316_a.mp4"},
	}
	for _, tt := range tests {
		p := NewPublisher(newFakeS3(), "bucket", tt.prefix, nil)
		if got := p.Key("acme", "/out/acme/0-John316_a.mp4"); got != tt.want {
			t.Errorf("Key() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, n := range names {
		f := filepath.Join(dir, n)
		if err := os.WriteFile(f, []byte(n), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, f)
	}
	return paths
}

func TestPublishFiles_OverwritesByDefault(t *testing.T) {
	files := writeFiles(t, t.TempDir(), "0-John316_a.mp4", "acme.csv")
	fake := newFakeS3()
	fake.objects["out/acme/0-John316_a.mp4"] = []byte("old video")
	fake.objects["out/acme/acme.csv"] = []byte("old")
	p := NewPublisher(fake, "bucket", "out", nil)

	keys, err := p.PublishFiles(context.Background(), "acme", files)
	if err != nil {
		t.Fatalf("PublishFiles() error: %v", err)
	}
	if want := []string{"out/acme/0-John316_a.mp4", "out/acme/acme.csv"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	if got := string(fake.objects["out/acme/0-John316_a.mp4"]); got != "0-John316_a.mp4" {
		t.Errorf("video object = %q, want the new upload", got)
	}
	if fake.types["out/acme/0-John316_a.mp4"] != "video/mp4" || fake.types["out/acme/acme.csv"] != "text/csv" {
		t.Errorf("content types = %v", fake.types)
	}
}

func TestPublishFiles_SkipExistingStillUploadsLedger(t *testing.T) {
	files := writeFiles(t, t.TempDir(), "0-John316_a.mp4", "1-Psalm231_b.mp4", "acme.csv")
	fake := newFakeS3()
	fake.objects["out/acme/0-John316_a.mp4"] = []byte("old video")
	fake.objects["out/acme/acme.csv"] = []byte("old")
	p := NewPublisher(fake, "bucket", "out", nil, WithSkipExisting())

	keys, err := p.PublishFiles(context.Background(), "acme", files)
	if err != nil {
		t.Fatalf("PublishFiles() error: %v", err)
	}
	if want := []string{"out/acme/1-Psalm231_b.mp4", "out/acme/acme.csv"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
	if string(fake.objects["out/acme/0-John316_a.mp4"]) != "old video" {
		t.Error("existing video was overwritten")
	}
	if string(fake.objects["out/acme/acme.csv"]) != "acme.csv" {
		t.Error("ledger was not re-uploaded")
	}
}

func TestPublishFiles_LedgerFollowsAppends(t *testing.T) {
	ledger := filepath.Join(t.TempDir(), "acme.csv")
	fake := newFakeS3()
	ctx := context.Background()

	for _, mode := range [][]PublisherOption{nil, {WithSkipExisting()}} {
		p := NewPublisher(fake, "bucket", "", nil, mode...)
		content := "File Name,Reference,Verse\n0-John316_a.mp4,John 3:16,For God so loved\n"
		if err := os.WriteFile(ledger, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := p.PublishFiles(ctx, "acme", []string{ledger}); err != nil {
			t.Fatalf("first PublishFiles() error: %v", err)
		}
		content += "1-Psalm231_b.mp4,Psalm 23:1,The Lord is my shepherd\n"
		if err := os.WriteFile(ledger, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		keys, err := p.PublishFiles(ctx, "acme", []string{ledger})
		if err != nil {
			t.Fatalf("second PublishFiles() error: %v", err)
		}
		if want := []string{"acme/acme.csv"}; !reflect.DeepEqual(keys, want) {
			t.Errorf("second publish keys = %v, want %v", keys, want)
		}
		if got := string(fake.objects["acme/acme.csv"]); got != content {
			t.Errorf("remote ledger = %q, want %q", got, content)
		}
	}
}

func TestExists_PropagatesOtherErrors(t *testing.T) {
	fake := newFakeS3()
	fake.headErr = &smithy.GenericAPIError{Code: "AccessDenied"}
	p := NewPublisher(fake, "bucket", "", nil)
	ok, err := p.Exists(context.Background(), "k")
	if ok || err == nil {
		t.Fatalf("Exists() = %v, %v; want false and an error", ok, err)
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "AccessDenied" {
		t.Errorf("error = %v", err)
	}
}
