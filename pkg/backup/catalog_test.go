package backup

import (
	"context"
	"errors"
	"testing"

	"example.com/HassBackup/pkg/ha"
)

type countingFetcher struct {
	calls  int
	addons []ha.Addon
	err    error
}

func (f *countingFetcher) fetch(ctx context.Context) ([]ha.Addon, error) {
	f.calls++
	return f.addons, f.err
}

func TestCatalog(t *testing.T) {
	addons := []ha.Addon{
		{Slug: "core_ssh", Name: "Terminal & SSH"},
		{Slug: "core_mosquitto", Name: "Mosquitto broker"},
	}

	t.Run("fetches once and caches", func(t *testing.T) {
		f := &countingFetcher{addons: addons}
		c := NewCatalog(f.fetch)

		ctx := context.Background()
		for i := 0; i < 3; i++ {
			installed, err := c.Installed(ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(installed) != 2 {
				t.Fatalf("got %d addons, want 2", len(installed))
			}
		}
		if _, err := c.Sorted(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.calls != 1 {
			t.Errorf("fetch called %d times, want 1", f.calls)
		}
	})

	t.Run("sorted by display name", func(t *testing.T) {
		f := &countingFetcher{addons: addons}
		c := NewCatalog(f.fetch)

		sorted, err := c.Sorted(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sorted[0].Slug != "core_mosquitto" || sorted[1].Slug != "core_ssh" {
			t.Errorf("unexpected order: %v", sorted)
		}
	})

	t.Run("failed fetch is not cached", func(t *testing.T) {
		f := &countingFetcher{err: errors.New("boom")}
		c := NewCatalog(f.fetch)

		ctx := context.Background()
		if _, err := c.Installed(ctx); err == nil {
			t.Fatal("want error")
		}
		f.err = nil
		f.addons = addons
		installed, err := c.Installed(ctx)
		if err != nil {
			t.Fatalf("unexpected error after retry: %v", err)
		}
		if len(installed) != 2 {
			t.Errorf("got %d addons, want 2", len(installed))
		}
		if f.calls != 2 {
			t.Errorf("fetch called %d times, want 2", f.calls)
		}
	})

	t.Run("invalidate forces refetch", func(t *testing.T) {
		f := &countingFetcher{addons: addons}
		c := NewCatalog(f.fetch)

		ctx := context.Background()
		c.Installed(ctx)
		c.Invalidate()
		c.Installed(ctx)
		if f.calls != 2 {
			t.Errorf("fetch called %d times, want 2", f.calls)
		}
	})
}
