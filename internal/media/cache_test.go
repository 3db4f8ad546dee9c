package media_test

import (
	"bytes"
	"testing"

	"github.com/jklear/seance/internal/media"
)

func TestCache_FirstWriteWins(t *testing.T) {
	c := media.NewCache()
	c.Put("mxc://x/a", []byte("first"))
	c.Put("mxc://x/a", []byte("second"))

	data, ok := c.Get("mxc://x/a")
	if !ok || !bytes.Equal(data, []byte("first")) {
		t.Errorf("Get() = %q, %v; want first write preserved", data, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCache_MissingKey(t *testing.T) {
	c := media.NewCache()
	if _, ok := c.Get("mxc://x/missing"); ok {
		t.Error("Get() reported a hit for an absent key")
	}
	if c.Has("mxc://x/missing") {
		t.Error("Has() = true for an absent key")
	}
}

func TestCache_StartFetchDeduplicates(t *testing.T) {
	c := media.NewCache()
	if !c.StartFetch("mxc://x/a") {
		t.Fatal("first StartFetch() refused")
	}
	if c.StartFetch("mxc://x/a") {
		t.Error("second StartFetch() allowed while the first is in flight")
	}

	c.Put("mxc://x/a", []byte("data"))
	if c.StartFetch("mxc://x/a") {
		t.Error("StartFetch() allowed for an already cached key")
	}
}

func TestCache_AbortFetchAllowsRetry(t *testing.T) {
	c := media.NewCache()
	c.StartFetch("mxc://x/a")
	c.AbortFetch("mxc://x/a")
	if !c.StartFetch("mxc://x/a") {
		t.Error("StartFetch() refused after an aborted fetch")
	}
}
