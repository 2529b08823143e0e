package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"example.com/HassBackup/pkg/backup"
	"example.com/HassBackup/pkg/executor"
	"example.com/HassBackup/pkg/ha"
	"example.com/HassBackup/pkg/models"
)

// MinFreeDiskGB 磁盘空闲低于该值(GB)时停止这台主机的备份
const MinFreeDiskGB = 2.0

// hostState 主机在一次运行中的状态机
// 只有 Enabled -> Disabled 一个方向,禁用后本次运行内不再恢复
type hostState int

const (
	stateEnabled hostState = iota
	stateDisabled
)

// Session 一台主机在一次运行中的全部状态
// 持有连接,addon 目录缓存和待执行的备份列表
// 不跨主机共享,单主机内的操作严格串行
type Session struct {
	cfg  *models.HostConfig
	exec executor.Executor
	log  *slog.Logger

	state         hostState
	disableReason string
	// 磁盘空间不足只停备份,信息查询仍然允许
	backupsDisabled bool

	diskFreeGB  float64
	diskTotalGB float64
	diskFreePct float64
	hasDiskInfo bool
	hostname    string

	// 最近一次命令的结果,不保留历史
	lastResult executor.Result

	catalog *backup.Catalog
	specs   []*backup.Spec
}

func NewSession(cfg *models.HostConfig, exec executor.Executor, log *slog.Logger) *Session {
	s := &Session{
		cfg:  cfg,
		exec: exec,
		log:  log,
	}
	s.catalog = backup.NewCatalog(s.fetchAddons)
	for _, d := range cfg.Backups {
		s.specs = append(s.specs, backup.FromDecl(d))
	}
	return s
}

// Name 主机在清单中的实例名
func (s *Session) Name() string { return s.cfg.Name }

// Specs 本主机声明的备份,顺序与配置一致
func (s *Session) Specs() []*backup.Spec { return s.specs }

// Catalog 本主机的 addon 目录缓存
func (s *Session) Catalog() *backup.Catalog { return s.catalog }

// Enabled 主机是否仍可下发命令
func (s *Session) Enabled() bool { return s.state == stateEnabled }

// DisableReason 禁用原因,未禁用时为空串
func (s *Session) DisableReason() string { return s.disableReason }

// BackupsEnabled 是否还允许执行备份(主机可用且磁盘空间充足)
func (s *Session) BackupsEnabled() bool {
	return s.state == stateEnabled && !s.backupsDisabled
}

// DiskInfo 最近一次获取的磁盘快照
func (s *Session) DiskInfo() (freeGB, totalGB, freePct float64, ok bool) {
	return s.diskFreeGB, s.diskTotalGB, s.diskFreePct, s.hasDiskInfo
}

// Hostname 主机自报的主机名,RefreshHostInfo 之前为空串
func (s *Session) Hostname() string { return s.hostname }

// LastResult 最近一次命令的结果
func (s *Session) LastResult() executor.Result { return s.lastResult }

// Disable 单向转换到 Disabled,保留最早的原因
func (s *Session) Disable(reason string) {
	if s.state == stateDisabled {
		return
	}
	s.state = stateDisabled
	s.disableReason = reason
}

// run 下发一条远程命令
// 禁用后的主机直接拒绝;非零退出码和传输错误都会触发禁用
func (s *Session) run(ctx context.Context, args []string) (executor.Result, error) {
	if s.state == stateDisabled {
		return executor.Result{}, fmt.Errorf("host '%s' disabled: %s", s.cfg.Name, s.disableReason)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout())
	defer cancel()

	cmd := strings.Join(args, " ")
	s.log.Debug("执行远程命令", "host", s.cfg.Name, "cmd", cmd)

	res, err := s.exec.Run(ctx, args)
	s.lastResult = res

	if err != nil {
		s.Disable(fmt.Sprintf("'%s' failed: %v", cmd, err))
		return res, &ha.CommandError{Args: args, Err: err}
	}

	s.log.Debug("命令执行完成", "host", s.cfg.Name, "exit", res.ExitCode, "runtime", res.Duration)

	if res.ExitCode != 0 {
		s.Disable(fmt.Sprintf("'%s' exited with status %d", cmd, res.ExitCode))
		return res, &ha.CommandError{Args: args, ExitCode: res.ExitCode, Output: string(res.Stderr)}
	}
	return res, nil
}

// RefreshHostInfo 拉取 `ha host info` 并做磁盘空间闸门
// 数据异常(disk_total 缺失/为零)按主机级故障处理,禁用主机而不是抛算术错误
func (s *Session) RefreshHostInfo(ctx context.Context) error {
	res, err := s.run(ctx, ha.HostInfoArgs())
	if err != nil {
		return err
	}

	info, err := ha.ParseHostInfo(res.Stdout)
	if err != nil {
		s.Disable(fmt.Sprintf("ha host info data invalid: %v", err))
		return err
	}

	s.diskFreeGB = *info.DiskFree
	s.diskTotalGB = *info.DiskTotal
	s.diskFreePct = info.DiskFreePct()
	s.hasDiskInfo = true
	s.hostname = info.Hostname

	s.log.Info("主机磁盘状态",
		"host", s.cfg.Name,
		"free_pct", fmt.Sprintf("%.1f", s.diskFreePct),
		"free_gb", fmt.Sprintf("%.2f", s.diskFreeGB),
		"total_gb", fmt.Sprintf("%.1f", s.diskTotalGB))

	if s.diskFreeGB < MinFreeDiskGB {
		s.backupsDisabled = true
		s.log.Error("磁盘空闲不足,本主机的备份已停用",
			"host", s.cfg.Name, "free_gb", fmt.Sprintf("%.2f", s.diskFreeGB))
	}
	return nil
}

// fetchAddons Catalog 的惰性拉取回调
func (s *Session) fetchAddons(ctx context.Context) ([]ha.Addon, error) {
	res, err := s.run(ctx, ha.AddonsArgs())
	if err != nil {
		return nil, err
	}
	addons, err := ha.ParseAddons(res.Stdout)
	if err != nil {
		s.Disable(fmt.Sprintf("ha addons data invalid: %v", err))
		return nil, err
	}
	return addons, nil
}

// ListBackups 查询主机上现存的备份
func (s *Session) ListBackups(ctx context.Context) ([]ha.BackupMeta, error) {
	res, err := s.run(ctx, ha.BackupsArgs())
	if err != nil {
		return nil, err
	}
	metas, err := ha.ParseBackups(res.Stdout)
	if err != nil {
		s.Disable(fmt.Sprintf("ha backups data invalid: %v", err))
		return nil, err
	}
	return metas, nil
}

// RunSpec 解析并执行单个备份
// 解析错误只代表这一个备份失败;命令失败会经由 run() 禁用整台主机
func (s *Session) RunSpec(ctx context.Context, spec *backup.Spec, now time.Time, dryRun, addDate bool) error {
	folders, err := backup.ResolveFolders(spec.FoldersInclude, spec.FoldersExclude)
	if err != nil {
		return err
	}

	installed, err := s.catalog.Installed(ctx)
	if err != nil {
		return err
	}
	addons, err := backup.ResolveAddons(spec.AddonsInclude, spec.AddonsExclude, installed)
	if err != nil {
		return err
	}

	name := spec.ExecName(now, addDate)
	args := ha.BackupNewArgs(name, backup.CommandArgs(folders, addons))

	s.log.Info("备份命令", "host", s.cfg.Name, "backup", spec.Name, "cmd", strings.Join(args, " "))

	if dryRun {
		return nil
	}

	res, err := s.run(ctx, args)
	if err != nil {
		return err
	}

	slug, err := ha.ParseBackupSlug(res.Stdout)
	if err != nil {
		s.Disable(fmt.Sprintf("ha backups new data invalid: %v", err))
		return err
	}

	result := &backup.Result{
		Slug:      slug,
		Runtime:   res.Duration,
		Succeeded: true,
	}
	spec.Result = result

	// 追查新备份的大小
	infoRes, err := s.run(ctx, ha.BackupInfoArgs(slug))
	if err != nil {
		return err
	}
	meta, err := ha.ParseBackupInfo(infoRes.Stdout)
	if err != nil {
		s.Disable(fmt.Sprintf("ha backups info data invalid: %v", err))
		return err
	}
	result.SizeMB = meta.SizeMB
	result.InfoRaw = infoRes.Stdout

	s.log.Info("备份完成",
		"host", s.cfg.Name,
		"backup", spec.Name,
		"slug", slug,
		"size_mb", result.SizeMB,
		"runtime", fmt.Sprintf("%.1fs", result.Runtime.Seconds()))
	return nil
}
