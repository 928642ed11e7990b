package persist

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"

	rxerrors "github.com/vango-dev/rx/internal/errors"
	"github.com/vango-dev/rx/pkg/component"
	"github.com/vango-dev/rx/pkg/state"
)

func newTestStore(initial map[string]any) *state.Store {
	return state.New(state.Config{
		Initial: initial,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func sampleTree() map[string]any {
	return map[string]any{
		"user": map[string]any{
			"name": "Ada",
			"age":  36,
			"tags": []any{"admin", 7, 1.5, true, nil},
		},
		"count": -3,
		"ratio": 0.25,
	}
}

func TestCodecPreservesGoTypes(t *testing.T) {
	taken := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err := Encode(sampleTree(), taken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(sampleTree(), snap.State); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	if !snap.Taken.Equal(taken) {
		t.Errorf("expected taken %v, got %v", taken, snap.Taken)
	}
	if !state.Equal(sampleTree(), snap.State) {
		t.Error("expected decoded tree to be deep-equal for the store")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data, err := Encode(nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.State) != 0 {
		t.Errorf("expected empty state, got %v", snap.State)
	}

	if _, err := Decode([]byte{0xc1}); err == nil {
		t.Error("expected an error for garbage input")
	}
}

// backendContract exercises the Backend behavior every implementation shares.
func backendContract(t *testing.T, b Backend) {
	ctx := context.Background()

	if _, err := b.Load(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := b.Save(ctx, "", []byte("x")); !errors.Is(err, ErrInvalidName) {
		t.Errorf("expected ErrInvalidName, got %v", err)
	}

	for _, name := range []string{"b", "a"} {
		if err := b.Save(ctx, name, []byte(name+"-data")); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}
	if err := b.Save(ctx, "a", []byte("a-data-2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	data, err := b.Load(ctx, "a")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "a-data-2" {
		t.Errorf("expected a-data-2, got %q", data)
	}

	names, err := b.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	if err := b.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := b.Delete(ctx, "a"); err != nil {
		t.Errorf("expected deleting twice to succeed, got %v", err)
	}
	if _, err := b.Load(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryBackend(t *testing.T) {
	backendContract(t, NewMemoryBackend())
}

func TestBoltBackend(t *testing.T) {
	b, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	backendContract(t, b)
}

func TestBoltBackendPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	b, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := b.Save(context.Background(), "s", []byte("data")); err != nil {
		t.Fatalf("save: %v", err)
	}
	b.Close()

	b, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	data, err := b.Load(context.Background(), "s")
	if err != nil || string(data) != "data" {
		t.Errorf("expected data, got %q (%v)", data, err)
	}
}

// fakeS3 is an in-memory S3API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3Backend(t *testing.T) {
	client := newFakeS3()
	client.objects["elsewhere/x"] = []byte("ignored")
	b := NewS3Backend(client, "bucket", "snapshots/")
	backendContract(t, b)

	if _, ok := client.objects["snapshots/b"]; !ok {
		t.Errorf("expected objects under the prefix, got %v", client.objects)
	}
	if ct := client.types["snapshots/b"]; ct != ContentType {
		t.Errorf("expected content type %s, got %s", ContentType, ct)
	}
}

func TestNewS3Client(t *testing.T) {
	c := NewS3Client("us-east-1", "http://localhost:9000", "key", "secret")
	if c == nil {
		t.Fatal("expected a client")
	}
	if c.Options().Region != "us-east-1" {
		t.Errorf("expected region us-east-1, got %s", c.Options().Region)
	}
	if !c.Options().UsePathStyle {
		t.Error("expected path-style addressing for custom endpoints")
	}
}

func TestSnapshotterSaveLoad(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	src := newTestStore(sampleTree())
	if err := NewSnapshotter(src, backend).Save(ctx, "main"); err != nil {
		t.Fatalf("save: %v", err)
	}

	dst := newTestStore(map[string]any{"count": 0, "stale": true})
	var changed []string
	for _, p := range []string{"count", "stale", "user"} {
		p := p
		dst.Subscribe(p, func(state.Change) { changed = append(changed, p) }, false)
	}

	if _, err := NewSnapshotter(dst, backend).Load(ctx, "main"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(sampleTree(), dst.Snapshot()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
	sort.Strings(changed)
	if diff := cmp.Diff([]string{"count", "stale", "user"}, changed); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotterLoadMissing(t *testing.T) {
	s := newTestStore(map[string]any{"a": 1})
	_, err := NewSnapshotter(s, NewMemoryBackend()).Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if rxerrors.CodeOf(err) != rxerrors.CodePersistence {
		t.Errorf("expected code %s, got %q", rxerrors.CodePersistence, rxerrors.CodeOf(err))
	}
	if s.Get("a", nil) != 1 {
		t.Error("expected the store to be untouched")
	}
}

func TestSnapshotterSaveAsync(t *testing.T) {
	s := newTestStore(map[string]any{"a": 1})
	backend := NewMemoryBackend()
	f := NewSnapshotter(s, backend).SaveAsync(context.Background(), "bg")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Loop().RunUntil(ctx, f.Settled); err != nil {
		t.Fatalf("future did not settle: %v", err)
	}
	if _, err := f.Result(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := backend.Load(context.Background(), "bg"); err != nil {
		t.Errorf("expected the snapshot to be stored, got %v", err)
	}
}

func TestAutoSaveCoalescesWrites(t *testing.T) {
	s := newTestStore(nil)
	backend := NewMemoryBackend()
	stop := NewSnapshotter(s, backend).AutoSave(context.Background(), "auto", 10*time.Millisecond, "doc")
	defer stop()

	s.Set("doc.title", "a")
	s.Set("doc.title", "b")
	s.Set("other", 1)

	saved := func() bool {
		_, err := backend.Load(context.Background(), "auto")
		return err == nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Loop().RunUntil(ctx, saved); err != nil {
		t.Fatalf("autosave did not run: %v", err)
	}

	data, _ := backend.Load(context.Background(), "auto")
	snap, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := snap.State["doc"].(map[string]any)["title"]; got != "b" {
		t.Errorf("expected the latest title b, got %v", got)
	}
}

func TestSnapshotterSkipsPrivateState(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	src := newTestStore(map[string]any{
		"title":               "saved",
		component.LocalPrefix: map[string]any{"1": map[string]any{"count": 42}},
	})
	if err := NewSnapshotter(src, backend).Save(ctx, "s"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := backend.Load(ctx, "s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap, err := Decode(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"title": "saved"}, snap.State); diff != "" {
		t.Errorf("saved tree mismatch (-want +got):\n%s", diff)
	}

	// A snapshot written before private state was filtered still must not
	// leak it into a restored store.
	old, err := Encode(map[string]any{
		"title":               "legacy",
		component.LocalPrefix: map[string]any{"1": map[string]any{"count": 42}},
	}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := backend.Save(ctx, "legacy", old); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dst := newTestStore(map[string]any{
		"title":               "live",
		component.LocalPrefix: map[string]any{"2": map[string]any{"open": true}},
	})
	if _, err := NewSnapshotter(dst, backend).Load(ctx, "legacy"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := dst.GetUntracked("title", nil); got != "legacy" {
		t.Errorf("expected title legacy, got %v", got)
	}
	if dst.Has(component.LocalPrefix + ".1") {
		t.Error("expected private state from the snapshot to be ignored")
	}
	if got := dst.GetUntracked(component.LocalPrefix+".2.open", nil); got != true {
		t.Errorf("expected live private state to be kept, got %v", got)
	}
}
