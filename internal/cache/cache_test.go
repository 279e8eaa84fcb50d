package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestKey_Stable(t *testing.T) {
	a := Key("abc", "python")
	b := Key("abc", "python")
	if a != b {
		t.Errorf("expected identical keys, got %s and %s", a, b)
	}
	if Key("abc", "java") == a {
		t.Error("expected different keys for different languages")
	}
	if Key("ab", "cpython") == a {
		t.Error("expected part boundaries to affect the key")
	}
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	value := []byte("payload")
	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'X'

	got, ok := c.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != "payload" {
		t.Errorf("expected stored copy to be unaffected, got %q", got)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	key := Key("hash", "go")
	if err := c.Set(key, []byte(`[{"line":1}]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if string(got) != `[{"line":1}]` {
		t.Errorf("unexpected value %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one cache file, got %d", len(entries))
	}
}

func TestDiskCache_Expired(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expected expired file to be removed")
	}
}

func TestDiskCache_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := os.WriteFile(filepath.Join(dir, sanitizeKey("k")+".cache"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected corrupt entry to miss")
	}
}

func TestDiskCache_DeleteMissing(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Delete("absent"); err != nil {
		t.Errorf("expected nil error deleting a missing key, got %v", err)
	}
}

func TestLayeredCache_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	disk := NewDiskCache(dir, time.Hour)
	if err := disk.Set("k", []byte("from-disk"), 0); err != nil {
		t.Fatal(err)
	}

	got, ok := c.Get("k")
	if !ok || string(got) != "from-disk" {
		t.Fatalf("expected disk hit, got %q (%v)", got, ok)
	}

	if _, ok := c.memory.Get("k"); !ok {
		t.Error("expected value to be promoted to memory")
	}
}

func TestLayeredCache_Clear(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}
