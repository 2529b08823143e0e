package cmd

import (
	"context"
	"os"
	"strings"

	"example.com/HassBackup/pkg/config"
	"example.com/HassBackup/pkg/models"
	"example.com/HassBackup/pkg/orchestrator"
	"example.com/HassBackup/utils"
	"github.com/spf13/cobra"
)

type RunOptions struct {
	ConfigFile  string
	Yes         bool
	Hosts       string
	Parallel    int
	Download    string
	NoDate      bool
	NoPreflight bool
}

func NewRunOptions() *RunOptions {
	return &RunOptions{
		ConfigFile: config.DefaultConfigFile,
		Parallel:   1,
	}
}

func NewCmdRun() *cobra.Command {
	o := NewRunOptions()
	cmd := &cobra.Command{
		Use:   "run [flags] [config_file]",
		Short: "按清单文件执行计划备份",
		Long: `按清单文件执行计划备份。默认是 dry-run,只打印将要执行的备份命令;
加 --yes 才会真正创建备份。
用法示例:
habak run hassio.yaml
habak run --yes hassio.yaml
habak run --yes --hosts home,cabin --download ./archives hassio.yaml

退出码: 配置文件无法解析时为 2;只要主机循环跑完就是 0,
单台主机或单个备份的失败通过日志体现。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.Complete(args)
			return o.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&o.Yes, "yes", "y", false, "真正执行备份(默认 dry-run)")
	cmd.Flags().StringVar(&o.Hosts, "hosts", "", "只处理这些主机,逗号分隔")
	cmd.Flags().IntVar(&o.Parallel, "parallel", 1, "并发处理的主机数")
	cmd.Flags().StringVar(&o.Download, "download", "", "备份完成后把归档下载到该目录")
	cmd.Flags().BoolVar(&o.NoDate, "no-date", false, "备份名不追加日期后缀")
	cmd.Flags().BoolVar(&o.NoPreflight, "no-preflight", false, "跳过连接前的 ICMP 预检")

	return cmd
}

func (o *RunOptions) Complete(args []string) {
	if len(args) > 0 {
		o.ConfigFile = args[0]
	}
}

func (o *RunOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	inv, err := loadInventory(o.ConfigFile)
	if err != nil {
		// 配置问题是唯一的非零退出场景
		utils.Logger.Error("配置加载失败", "file", o.ConfigFile, "error", err)
		os.Exit(2)
	}

	opts := orchestrator.Options{
		DryRun:      !o.Yes,
		AddDate:     !o.NoDate,
		Parallel:    o.Parallel,
		Preflight:   !o.NoPreflight,
		DownloadDir: o.Download,
		Hosts:       splitHosts(o.Hosts),
	}

	if opts.DryRun {
		utils.Logger.Info("dry-run 模式,不会创建备份 (加 --yes 执行)")
	}

	orch := orchestrator.New(inv, orchestrator.DefaultFactory(utils.PromptPassword), utils.Logger.Logger, opts)
	sessions := orch.Run(ctx)

	for _, sess := range sessions {
		if !sess.Enabled() {
			utils.Logger.Warn("主机处理未完成", "host", sess.Name(), "reason", sess.DisableReason())
		}
	}
	return nil
}

// loadInventory 读取并校验清单文件,密码自动解密
func loadInventory(path string) (*models.Inventory, error) {
	store := config.NewStore(path, config.DefaultKeyPath())
	return store.Load()
}

func splitHosts(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(NewCmdRun())
}
