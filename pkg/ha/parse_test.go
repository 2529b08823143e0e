package ha

import (
	"errors"
	"math"
	"testing"
)

func TestParseHostInfo(t *testing.T) {
	t.Run("valid output", func(t *testing.T) {
		out := []byte("chassis: embedded\ndisk_free: 18.4\ndisk_total: 30.8\ndisk_used: 12.4\nhostname: homeassistant\n")
		info, err := ParseHostInfo(out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *info.DiskFree != 18.4 || *info.DiskTotal != 30.8 {
			t.Errorf("unexpected disk values: free=%v total=%v", *info.DiskFree, *info.DiskTotal)
		}
		if info.Hostname != "homeassistant" {
			t.Errorf("hostname = %q", info.Hostname)
		}
		wantPct := 18.4 / 30.8 * 100.0
		if math.Abs(info.DiskFreePct()-wantPct) > 1e-9 {
			t.Errorf("pct = %v, want %v", info.DiskFreePct(), wantPct)
		}
	})

	t.Run("missing disk_free", func(t *testing.T) {
		_, err := ParseHostInfo([]byte("disk_total: 30.8\n"))
		var derr *DataError
		if !errors.As(err, &derr) || derr.Field != "disk_free" {
			t.Fatalf("want DataError for disk_free, got %v", err)
		}
	})

	t.Run("missing disk_total", func(t *testing.T) {
		_, err := ParseHostInfo([]byte("disk_free: 18.4\n"))
		var derr *DataError
		if !errors.As(err, &derr) || derr.Field != "disk_total" {
			t.Fatalf("want DataError for disk_total, got %v", err)
		}
	})

	t.Run("zero disk_total", func(t *testing.T) {
		_, err := ParseHostInfo([]byte("disk_free: 18.4\ndisk_total: 0\n"))
		var derr *DataError
		if !errors.As(err, &derr) || derr.Field != "disk_total" {
			t.Fatalf("want DataError for zero disk_total, got %v", err)
		}
	})

	t.Run("unparsable output", func(t *testing.T) {
		_, err := ParseHostInfo([]byte("disk_free: [unclosed\n"))
		var derr *DataError
		if !errors.As(err, &derr) {
			t.Fatalf("want DataError, got %v", err)
		}
	})
}

func TestParseAddons(t *testing.T) {
	t.Run("valid list", func(t *testing.T) {
		out := []byte(`addons:
- name: Terminal & SSH
  slug: core_ssh
  version: 9.14.0
- name: Mosquitto broker
  slug: core_mosquitto
  version: 6.4.1
`)
		addons, err := ParseAddons(out)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(addons) != 2 || addons[0].Slug != "core_ssh" || addons[1].Name != "Mosquitto broker" {
			t.Errorf("unexpected addons: %+v", addons)
		}
	})

	t.Run("empty list is valid", func(t *testing.T) {
		addons, err := ParseAddons([]byte("addons: []\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(addons) != 0 {
			t.Errorf("got %d addons, want 0", len(addons))
		}
	})

	t.Run("missing list", func(t *testing.T) {
		_, err := ParseAddons([]byte("other: stuff\n"))
		var derr *DataError
		if !errors.As(err, &derr) {
			t.Fatalf("want DataError, got %v", err)
		}
	})

	t.Run("entry without slug", func(t *testing.T) {
		_, err := ParseAddons([]byte("addons:\n- name: Broken\n"))
		var derr *DataError
		if !errors.As(err, &derr) {
			t.Fatalf("want DataError, got %v", err)
		}
	})
}

func TestParseBackupSlug(t *testing.T) {
	slug, err := ParseBackupSlug([]byte("slug: a1b2c3d4\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slug != "a1b2c3d4" {
		t.Errorf("slug = %q", slug)
	}

	if _, err := ParseBackupSlug([]byte("message: ok\n")); err == nil {
		t.Fatal("want error for missing slug")
	}
}

func TestParseBackups(t *testing.T) {
	out := []byte(`backups:
- slug: a1b2c3d4
  name: nightly-2026-03-07
  date: "2026-03-07T03:00:00.000000+00:00"
  type: partial
  size: 245.3
`)
	metas, err := ParseBackups(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("got %d backups, want 1", len(metas))
	}
	if metas[0].Slug != "a1b2c3d4" || metas[0].SizeMB != 245.3 {
		t.Errorf("unexpected meta: %+v", metas[0])
	}

	if _, err := ParseBackups([]byte("other: stuff\n")); err == nil {
		t.Fatal("want error for missing backups list")
	}
}

func TestParseBackupInfo(t *testing.T) {
	out := []byte("slug: a1b2c3d4\nname: nightly-2026-03-07\ntype: partial\nsize: 245.3\n")
	meta, err := ParseBackupInfo(out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.SizeMB != 245.3 || meta.Name != "nightly-2026-03-07" {
		t.Errorf("unexpected meta: %+v", meta)
	}

	if _, err := ParseBackupInfo([]byte("size: 1.0\n")); err == nil {
		t.Fatal("want error for missing slug")
	}
}

func TestCommandError(t *testing.T) {
	t.Run("exit status form", func(t *testing.T) {
		err := &CommandError{Args: []string{"ha", "host", "info"}, ExitCode: 1, Output: "error"}
		if err.Error() == "" {
			t.Fatal("empty error string")
		}
	})

	t.Run("transport form unwraps", func(t *testing.T) {
		inner := errors.New("connection reset")
		err := &CommandError{Args: []string{"ha", "backups"}, Err: inner}
		if !errors.Is(err, inner) {
			t.Error("Unwrap should expose the transport error")
		}
	})
}
