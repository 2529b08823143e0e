package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"example.com/HassBackup/pkg/models"
)

const sampleConfig = `home:
  host: 192.168.1.10
  user: root
  key_path: ~/.ssh/id_ed25519
  backups:
  - name: nightly
    folders:
      include: [homeassistant, ssl]
    addons:
      include: ["*"]
      exclude: [core_ssh]
cabin:
  host: 192.168.2.10
  user: hassio
  sshport: 2222
  source_needed: /etc/profile.d/ha.sh
  command_timeout: 45m
  backups:
  - name: weekly
    enabled: "False"
    folders:
      include: [homeassistant]
`

func writeConfig(t *testing.T, content string) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "hassio.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return NewStore(path, filepath.Join(dir, ".habak_key"))
}

func TestStoreLoad(t *testing.T) {
	t.Run("hosts keep declaration order", func(t *testing.T) {
		inv, err := writeConfig(t, sampleConfig).Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(inv.Hosts) != 2 {
			t.Fatalf("got %d hosts, want 2", len(inv.Hosts))
		}
		if inv.Hosts[0].Name != "home" || inv.Hosts[1].Name != "cabin" {
			t.Errorf("order lost: %s, %s", inv.Hosts[0].Name, inv.Hosts[1].Name)
		}
	})

	t.Run("field parsing and defaults", func(t *testing.T) {
		inv, err := writeConfig(t, sampleConfig).Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := inv.Get("home")
		if home.Port() != 22 {
			t.Errorf("default port = %d, want 22", home.Port())
		}
		if home.Timeout() != models.DefaultCommandTimeout {
			t.Errorf("default timeout = %v", home.Timeout())
		}
		if home.Local() {
			t.Error("host with address is not local")
		}

		cabin, _ := inv.Get("cabin")
		if cabin.Port() != 2222 {
			t.Errorf("port = %d, want 2222", cabin.Port())
		}
		if cabin.Timeout() != 45*time.Minute {
			t.Errorf("timeout = %v, want 45m", cabin.Timeout())
		}
		if cabin.SourceProfile != "/etc/profile.d/ha.sh" {
			t.Errorf("source profile = %q", cabin.SourceProfile)
		}
	})

	t.Run("enabled accepts bool and string forms", func(t *testing.T) {
		inv, err := writeConfig(t, sampleConfig).Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cabin, _ := inv.Get("cabin")
		if cabin.Backups[0].IsEnabled() {
			t.Error(`enabled: "False" should disable the backup`)
		}

		home, _ := inv.Get("home")
		if !home.Backups[0].IsEnabled() {
			t.Error("absent enabled field means enabled")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "nope.yaml"), "")
		if _, err := store.Load(); err == nil {
			t.Fatal("want error for missing file")
		}
	})

	t.Run("validation reports all errors at once", func(t *testing.T) {
		bad := `home:
  host: 192.168.1.10
  sshport: 99999
  password: secret
  key_path: ~/.ssh/id_ed25519
  backups:
  - name: a
  - name: a
  - folders:
      include: [ssl]
`
		_, err := writeConfig(t, bad).Load()
		if err == nil {
			t.Fatal("want validation error")
		}
		for _, want := range []string{"invalid sshport", "mutually exclusive", "duplicate backup name", "has no name"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q missing %q", err, want)
			}
		}
	})

	t.Run("empty inventory rejected", func(t *testing.T) {
		_, err := writeConfig(t, "{}\n").Load()
		if err == nil || !strings.Contains(err.Error(), "no hosts") {
			t.Fatalf("want 'no hosts' error, got %v", err)
		}
	})
}

func TestStoreSecretsRoundTrip(t *testing.T) {
	plain := `home:
  host: 192.168.1.10
  user: root
  password: hunter2
  backups:
  - name: nightly
    folders:
      include: [homeassistant]
`
	store := writeConfig(t, plain)

	inv, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := store.Save(inv); err != nil {
		t.Fatalf("save: %v", err)
	}

	// 写回后的文件不能再有明文密码
	data, err := os.ReadFile(store.Path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "hunter2") {
		t.Fatal("plaintext password written back to disk")
	}
	if !strings.Contains(string(data), "ENC:") {
		t.Fatal("password was not encrypted on save")
	}

	// 再次加载要还原出明文
	inv2, err := store.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if inv2.Hosts[0].Password != "hunter2" {
		t.Errorf("password = %q, want hunter2", inv2.Hosts[0].Password)
	}

	// 主机顺序和备份声明在回写后保持不变
	if inv2.Hosts[0].Name != "home" || len(inv2.Hosts[0].Backups) != 1 {
		t.Errorf("structure lost on round trip: %+v", inv2.Hosts[0])
	}
}
