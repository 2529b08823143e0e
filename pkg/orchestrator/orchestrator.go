package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"example.com/HassBackup/global"
	"example.com/HassBackup/pkg/backup"
	"example.com/HassBackup/pkg/executor"
	"example.com/HassBackup/pkg/models"
	"example.com/HassBackup/pkg/sftp"
	hassh "example.com/HassBackup/pkg/ssh"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// remoteBackupDir ha 创建的备份归档在主机上的存放目录
const remoteBackupDir = "/backup"

// Options 一次运行的参数
type Options struct {
	// DryRun 只打印备份命令不执行,默认行为
	DryRun bool
	// AddDate 备份名追加当天日期
	AddDate bool
	// Parallel 并发处理的主机数, <=1 表示按配置顺序串行
	// 主机之间相互独立,并发是安全的;单主机内部始终串行
	Parallel int
	// Preflight 连接前先做 ICMP 预检
	Preflight bool
	// PreflightTimeout 零值使用 DefaultPreflightTimeout
	PreflightTimeout time.Duration
	// DownloadDir 非空时把新建备份的归档下载到该目录
	DownloadDir string
	// Hosts 只处理这些主机,空表示全部
	Hosts []string
}

func (o *Options) preflightTimeout() time.Duration {
	if o.PreflightTimeout <= 0 {
		return DefaultPreflightTimeout
	}
	return o.PreflightTimeout
}

// HostConn 一台主机的执行通道
// 本地主机没有 SSH 连接, SSH 为 nil 时无法下载归档
type HostConn struct {
	Exec  executor.Executor
	SSH   *hassh.Client
	Close func()
}

// Factory 按主机配置建立执行通道,测试时注入假执行器
type Factory func(ctx context.Context, cfg *models.HostConfig) (*HostConn, error)

// DefaultFactory 生产环境的通道工厂: localhost 走本地进程,其余走 SSH
func DefaultFactory(prompt hassh.PasswordPrompt) Factory {
	return func(ctx context.Context, cfg *models.HostConfig) (*HostConn, error) {
		if cfg.Local() {
			return &HostConn{
				Exec:  executor.NewLocalExecutor(cfg.SourceProfile),
				Close: func() {},
			}, nil
		}
		connector := hassh.NewConnector(prompt)
		client, err := connector.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &HostConn{
			Exec:  executor.NewSSHExecutor(client, cfg.SourceProfile),
			SSH:   client,
			Close: func() { client.Close() },
		}, nil
	}
}

// Orchestrator 遍历清单中的主机并执行各自的备份
// 故障隔离: 任何一台主机或一个备份的失败都不会影响其余的处理
type Orchestrator struct {
	inv     *models.Inventory
	factory Factory
	log     *slog.Logger
	opts    Options

	now func() time.Time
}

func New(inv *models.Inventory, factory Factory, log *slog.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		inv:     inv,
		factory: factory,
		log:     log,
		opts:    opts,
		now:     time.Now,
	}
}

// Run 处理全部(或 Hosts 过滤后的)主机,返回各主机的会话供调用方检视
// 永远跑完整个循环,单主机的失败只体现在会话状态里
func (o *Orchestrator) Run(ctx context.Context) []*Session {
	hosts := o.selectHosts()
	sessions := make([]*Session, len(hosts))

	if o.opts.Parallel > 1 {
		var g errgroup.Group
		g.SetLimit(o.opts.Parallel)
		for i, hc := range hosts {
			i, hc := i, hc
			g.Go(func() error {
				sessions[i] = o.runHost(ctx, hc)
				return nil
			})
		}
		g.Wait()
		return sessions
	}

	for i, hc := range hosts {
		sessions[i] = o.runHost(ctx, hc)
	}
	return sessions
}

// selectHosts 应用 Hosts 过滤,保持配置顺序
func (o *Orchestrator) selectHosts() []*models.HostConfig {
	if len(o.opts.Hosts) == 0 {
		return o.inv.Hosts
	}
	want := map[string]bool{}
	for _, name := range o.opts.Hosts {
		want[name] = true
	}
	var out []*models.HostConfig
	for _, hc := range o.inv.Hosts {
		if want[hc.Name] {
			out = append(out, hc)
		}
	}
	return out
}

// runHost 处理单台主机: 预检 -> 连接 -> 磁盘闸门 -> 逐个备份 -> 运行后快照
func (o *Orchestrator) runHost(ctx context.Context, hc *models.HostConfig) (sess *Session) {
	log := o.log.With("host", hc.Name)

	// 隔离兜底: 单主机的 panic 不能终结整个运行
	defer func() {
		if r := recover(); r != nil {
			log.Error("主机处理过程 panic", "panic", r)
			if sess == nil {
				sess = NewSession(hc, nil, o.log)
			}
			sess.Disable(fmt.Sprintf("panic: %v", r))
		}
	}()

	if o.opts.Preflight && !hc.Local() {
		if err := Reachable(ctx, hc.Host, o.opts.preflightTimeout()); err != nil {
			log.Error("主机不可达,跳过", "error", err)
			sess = NewSession(hc, nil, o.log)
			sess.Disable(fmt.Sprintf("preflight failed: %v", err))
			return sess
		}
	}

	conn, err := o.factory(ctx, hc)
	if err != nil {
		log.Error("连接失败,跳过该主机", "error", err)
		sess = NewSession(hc, nil, o.log)
		sess.Disable(fmt.Sprintf("connect failed: %v", err))
		return sess
	}
	defer conn.Close()

	sess = NewSession(hc, conn.Exec, o.log)

	if err := sess.RefreshHostInfo(ctx); err != nil {
		log.Error("获取主机信息失败", "error", err)
	}

	log.Info("开始执行备份", "count", len(sess.Specs()))
	for _, spec := range sess.Specs() {
		if !spec.Enabled {
			log.Info("跳过已禁用的备份", "backup", spec.Name)
			continue
		}
		if !sess.BackupsEnabled() {
			log.Info("主机备份已停用,跳过", "backup", spec.Name, "reason", sess.DisableReason())
			continue
		}

		if err := sess.RunSpec(ctx, spec, o.now(), o.opts.DryRun, o.opts.AddDate); err != nil {
			// 备份级失败只记录,继续下一个
			log.Error("备份失败", "backup", spec.Name, "error", err)
			continue
		}

		if o.opts.DownloadDir != "" && !o.opts.DryRun && spec.Result != nil {
			if err := o.download(ctx, conn, hc, spec); err != nil {
				log.Warn("备份归档下载失败", "backup", spec.Name, "error", err)
			}
		}
	}

	// 运行后的磁盘快照;主机已禁用时不再下发命令
	if sess.Enabled() {
		if err := sess.RefreshHostInfo(ctx); err != nil {
			log.Error("运行后主机信息刷新失败", "error", err)
		}
	} else {
		log.Info("主机已禁用,跳过运行后状态刷新", "reason", sess.DisableReason())
	}
	return sess
}

// download 把新建备份的归档和元数据拉到本地 <dir>/<host>/ 下
func (o *Orchestrator) download(ctx context.Context, conn *HostConn, hc *models.HostConfig, spec *backup.Spec) error {
	if conn.SSH == nil {
		return fmt.Errorf("download requires an ssh host")
	}

	destDir := filepath.Join(o.opts.DownloadDir, hc.Name)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	sftpCli, err := sftp.NewClient(conn.SSH)
	if err != nil {
		return err
	}
	defer sftpCli.Close()

	archive := spec.Result.Slug + ".tar"
	remote := sftpCli.JoinPath(remoteBackupDir, archive)

	size, err := sftpCli.Stat(remote)
	if err != nil {
		return err
	}

	var progress sftp.ProgressCallback
	var bar *progressbar.ProgressBar
	if global.IsTerminal {
		bar = progressbar.DefaultBytes(size, fmt.Sprintf("下载 %s", archive))
		progress = func(n int) { bar.Add(n) }
	}

	if err := sftpCli.Download(ctx, remote, filepath.Join(destDir, archive), progress); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
	}

	// 备份元数据一并存盘
	if len(spec.Result.InfoRaw) > 0 {
		infoPath := filepath.Join(destDir, spec.Result.Slug+".yaml")
		if err := os.WriteFile(infoPath, spec.Result.InfoRaw, 0644); err != nil {
			return err
		}
	}
	return nil
}
