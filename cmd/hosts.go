package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"example.com/HassBackup/pkg/config"
	"example.com/HassBackup/pkg/models"
	"example.com/HassBackup/pkg/orchestrator"
	"example.com/HassBackup/utils"
	"github.com/spf13/cobra"
)

type HostsOptions struct {
	ConfigFile string
	Check      bool
}

func NewCmdHosts() *cobra.Command {
	o := &HostsOptions{ConfigFile: config.DefaultConfigFile}
	cmd := &cobra.Command{
		Use:   "hosts [flags] [config_file]",
		Short: "列出清单中的主机",
		Long: `列出清单中的主机及其备份计划数。
加 --check 会逐台连接并显示磁盘空间。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.ConfigFile = args[0]
			}
			return o.Run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&o.Check, "check", false, "连接主机并显示磁盘信息")
	return cmd
}

func (o *HostsOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	inv, err := loadInventory(o.ConfigFile)
	if err != nil {
		utils.Logger.Error("配置加载失败", "file", o.ConfigFile, "error", err)
		os.Exit(2)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	defer w.Flush()

	if !o.Check {
		fmt.Fprintln(w, "NAME\tADDRESS\tUSER\tBACKUPS")
		for _, hc := range inv.Hosts {
			addr := hc.Host
			if hc.Local() {
				addr = "(local)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", hc.Name, addr, hc.User, len(hc.Backups))
		}
		return nil
	}

	fmt.Fprintln(w, "NAME\tHOSTNAME\tDISK FREE\tDISK TOTAL\tFREE %\tSTATUS")
	factory := orchestrator.DefaultFactory(utils.PromptPassword)
	for _, hc := range inv.Hosts {
		fmt.Fprint(w, hc.Name, "\t")
		conn, err := factory(ctx, hc)
		if err != nil {
			fmt.Fprintf(w, "-\t-\t-\t-\tunreachable: %v\n", err)
			continue
		}
		printHostRow(ctx, w, hc, conn)
		conn.Close()
	}
	return nil
}

func printHostRow(ctx context.Context, w *tabwriter.Writer, hc *models.HostConfig, conn *orchestrator.HostConn) {
	sess := orchestrator.NewSession(hc, conn.Exec, utils.Logger.Logger)
	sess.RefreshHostInfo(ctx)
	if !sess.Enabled() {
		fmt.Fprintf(w, "-\t-\t-\t-\t%s\n", sess.DisableReason())
		return
	}
	free, total, pct, ok := sess.DiskInfo()
	if !ok {
		fmt.Fprintln(w, "-\t-\t-\t-\tno disk info")
		return
	}
	status := "ok"
	if !sess.BackupsEnabled() {
		status = "low disk"
	}
	fmt.Fprintf(w, "%s\t%.1f GB\t%.1f GB\t%.1f%%\t%s\n", sess.Hostname(), free, total, pct, status)
}

func init() {
	rootCmd.AddCommand(NewCmdHosts())
}
