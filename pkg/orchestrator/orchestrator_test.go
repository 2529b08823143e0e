package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"example.com/HassBackup/pkg/executor"
	"example.com/HassBackup/pkg/models"
)

// fakeFleet 给每台主机一个独立的 Fake 执行器
type fakeFleet struct {
	execs map[string]*executor.Fake
	// 连接失败的主机
	unreachable map[string]bool
}

func newFleet(names ...string) *fakeFleet {
	f := &fakeFleet{
		execs:       map[string]*executor.Fake{},
		unreachable: map[string]bool{},
	}
	for _, n := range names {
		fake := executor.NewFake()
		fake.StubOutput("ha host info", healthyHostInfo)
		fake.StubOutput("ha addons", addonsOut)
		fake.StubOutput("ha backups new", "slug: a1b2c3d4\n")
		fake.StubOutput("ha backups info", "slug: a1b2c3d4\nsize: 245.3\n")
		f.execs[n] = fake
	}
	return f
}

func (f *fakeFleet) factory(_ context.Context, cfg *models.HostConfig) (*HostConn, error) {
	if f.unreachable[cfg.Name] {
		return nil, errors.New("dial tcp: connection refused")
	}
	return &HostConn{Exec: f.execs[cfg.Name], Close: func() {}}, nil
}

func twoHostInventory() *models.Inventory {
	return &models.Inventory{Hosts: []*models.HostConfig{
		{Name: "home", Host: "192.168.1.10", Backups: []*models.BackupDecl{nightlyDecl()}},
		{Name: "cabin", Host: "192.168.2.10", Backups: []*models.BackupDecl{nightlyDecl()}},
	}}
}

func newTestOrchestrator(inv *models.Inventory, fleet *fakeFleet, opts Options) *Orchestrator {
	o := New(inv, fleet.factory, testLogger(), opts)
	o.now = func() time.Time { return time.Date(2026, 3, 7, 3, 0, 0, 0, time.UTC) }
	return o
}

func TestOrchestratorRun(t *testing.T) {
	t.Run("dry run issues no backup commands", func(t *testing.T) {
		fleet := newFleet("home", "cabin")
		o := newTestOrchestrator(twoHostInventory(), fleet, Options{DryRun: true, AddDate: true})

		sessions := o.Run(context.Background())
		if len(sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(sessions))
		}
		for name, fake := range fleet.execs {
			if n := fake.CallCount("ha backups new"); n != 0 {
				t.Errorf("host %s: dry run issued %d backup commands", name, n)
			}
		}
	})

	t.Run("full run backs up every host", func(t *testing.T) {
		fleet := newFleet("home", "cabin")
		o := newTestOrchestrator(twoHostInventory(), fleet, Options{AddDate: true})

		sessions := o.Run(context.Background())
		for _, sess := range sessions {
			if !sess.Enabled() {
				t.Errorf("host %s disabled: %s", sess.Name(), sess.DisableReason())
			}
			if sess.Specs()[0].Result == nil {
				t.Errorf("host %s: no result attached", sess.Name())
			}
		}
		for name, fake := range fleet.execs {
			if n := fake.CallCount("ha backups new"); n != 1 {
				t.Errorf("host %s: %d backup commands, want 1", name, n)
			}
			// 运行前后各刷新一次磁盘状态
			if n := fake.CallCount("ha host info"); n != 2 {
				t.Errorf("host %s: %d host info calls, want 2", name, n)
			}
		}
	})

	t.Run("unreachable host does not block the rest", func(t *testing.T) {
		fleet := newFleet("home", "cabin")
		fleet.unreachable["home"] = true
		o := newTestOrchestrator(twoHostInventory(), fleet, Options{AddDate: true})

		sessions := o.Run(context.Background())
		if sessions[0].Enabled() {
			t.Error("unreachable host should be disabled")
		}
		if sessions[0].DisableReason() == "" {
			t.Error("disable reason must be set")
		}
		if !sessions[1].Enabled() {
			t.Errorf("second host should still run: %s", sessions[1].DisableReason())
		}
		if n := fleet.execs["cabin"].CallCount("ha backups new"); n != 1 {
			t.Errorf("cabin: %d backup commands, want 1", n)
		}
	})

	t.Run("misconfigured backup does not block the next one", func(t *testing.T) {
		bad := &models.BackupDecl{
			Name:    "bad",
			Folders: models.Selection{Include: []string{"*"}},
		}
		inv := &models.Inventory{Hosts: []*models.HostConfig{
			{Name: "home", Host: "192.168.1.10", Backups: []*models.BackupDecl{bad, nightlyDecl()}},
		}}
		fleet := newFleet("home")
		o := newTestOrchestrator(inv, fleet, Options{AddDate: true})

		sessions := o.Run(context.Background())
		sess := sessions[0]
		if !sess.Enabled() {
			t.Fatalf("host disabled: %s", sess.DisableReason())
		}
		if sess.Specs()[0].Result != nil {
			t.Error("misconfigured backup must not produce a result")
		}
		if sess.Specs()[1].Result == nil {
			t.Error("second backup should still run")
		}
	})

	t.Run("disabled backup is skipped", func(t *testing.T) {
		off := models.FlexBool(false)
		decl := nightlyDecl()
		decl.Enabled = &off
		inv := &models.Inventory{Hosts: []*models.HostConfig{
			{Name: "home", Host: "192.168.1.10", Backups: []*models.BackupDecl{decl}},
		}}
		fleet := newFleet("home")
		o := newTestOrchestrator(inv, fleet, Options{AddDate: true})

		o.Run(context.Background())
		if n := fleet.execs["home"].CallCount("ha backups new"); n != 0 {
			t.Errorf("disabled backup issued %d commands", n)
		}
	})

	t.Run("low disk stops backups but not info queries", func(t *testing.T) {
		fleet := &fakeFleet{execs: map[string]*executor.Fake{}, unreachable: map[string]bool{}}
		fake := executor.NewFake()
		fake.StubOutput("ha host info", "disk_free: 0.8\ndisk_total: 30.8\n")
		fake.StubOutput("ha addons", addonsOut)
		fleet.execs["home"] = fake
		inv := &models.Inventory{Hosts: []*models.HostConfig{
			{Name: "home", Host: "192.168.1.10", Backups: []*models.BackupDecl{nightlyDecl()}},
		}}
		o := newTestOrchestrator(inv, fleet, Options{AddDate: true})

		sessions := o.Run(context.Background())
		if !sessions[0].Enabled() {
			t.Error("low disk must not disable the host")
		}
		if n := fake.CallCount("ha backups new"); n != 0 {
			t.Errorf("low disk host issued %d backup commands", n)
		}
		// 运行后的刷新仍然允许
		if n := fake.CallCount("ha host info"); n != 2 {
			t.Errorf("%d host info calls, want 2", n)
		}
	})

	t.Run("host filter keeps config order", func(t *testing.T) {
		fleet := newFleet("home", "cabin")
		o := newTestOrchestrator(twoHostInventory(), fleet, Options{DryRun: true, Hosts: []string{"cabin"}})

		sessions := o.Run(context.Background())
		if len(sessions) != 1 || sessions[0].Name() != "cabin" {
			t.Fatalf("unexpected sessions: %d", len(sessions))
		}
		if len(fleet.execs["home"].Calls) != 0 {
			t.Error("filtered-out host was contacted")
		}
	})

	t.Run("parallel run covers every host", func(t *testing.T) {
		fleet := newFleet("home", "cabin")
		o := newTestOrchestrator(twoHostInventory(), fleet, Options{AddDate: true, Parallel: 2})

		sessions := o.Run(context.Background())
		if len(sessions) != 2 {
			t.Fatalf("got %d sessions, want 2", len(sessions))
		}
		for i, sess := range sessions {
			if sess == nil {
				t.Fatalf("session %d missing", i)
			}
			if !sess.Enabled() {
				t.Errorf("host %s disabled: %s", sess.Name(), sess.DisableReason())
			}
		}
	})

	t.Run("disabled host skips post-run refresh", func(t *testing.T) {
		fleet := &fakeFleet{execs: map[string]*executor.Fake{}, unreachable: map[string]bool{}}
		fake := executor.NewFake()
		fake.StubOutput("ha host info", healthyHostInfo)
		fake.StubOutput("ha addons", addonsOut)
		// 备份命令失败,主机被禁用
		fake.StubFail("ha backups new", 1)
		fleet.execs["home"] = fake
		inv := &models.Inventory{Hosts: []*models.HostConfig{
			{Name: "home", Host: "192.168.1.10", Backups: []*models.BackupDecl{nightlyDecl()}},
		}}
		o := newTestOrchestrator(inv, fleet, Options{AddDate: true})

		sessions := o.Run(context.Background())
		if sessions[0].Enabled() {
			t.Fatal("host should be disabled after a failed backup command")
		}
		if n := fake.CallCount("ha host info"); n != 1 {
			t.Errorf("%d host info calls, want 1 (no post-run refresh)", n)
		}
	})
}
