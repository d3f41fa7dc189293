package enrichcache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"quill/internal/checksum"
	"quill/internal/enrichcache"
)

func openCache(t *testing.T) *enrichcache.Cache {
	t.Helper()
	cache, err := enrichcache.Open(filepath.Join(t.TempDir(), "enrichment.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestPutAndGetRoundTrip(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()
	key := checksum.Sum([]byte("voice-note-bytes"))

	if err := cache.Put(ctx, "transcription", key, "hello there"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	output, ok, err := cache.Get(ctx, "transcription", key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || output != "hello there" {
		t.Fatalf("got %q ok=%v", output, ok)
	}
}

func TestGetMissesForDifferentStage(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()
	key := checksum.Sum([]byte("image-bytes"))

	if err := cache.Put(ctx, "ocr", key, "extracted text"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, err := cache.Get(ctx, "transcription", key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()
	key := checksum.Sum([]byte("article"))

	if err := cache.Put(ctx, "summarization", key, "first"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(ctx, "summarization", key, "second"); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	output, ok, err := cache.Get(ctx, "summarization", key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if output != "second" {
		t.Fatalf("output = %q", output)
	}
	count, err := cache.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d", count)
	}
}

func TestPruneRemovesOldEntries(t *testing.T) {
	cache := openCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, "ocr", checksum.Sum([]byte("a")), "text"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	removed, err := cache.Prune(ctx, -time.Minute)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d", removed)
	}
	if _, ok, _ := cache.Get(ctx, "ocr", checksum.Sum([]byte("a"))); ok {
		t.Fatal("entry survived prune")
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	cache, err := enrichcache.Open("", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	key := checksum.Sum([]byte("x"))

	if err := cache.Put(ctx, "ocr", key, "text"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, err := cache.Get(ctx, "ocr", key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
