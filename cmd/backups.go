package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"example.com/HassBackup/pkg/config"
	"example.com/HassBackup/pkg/orchestrator"
	"example.com/HassBackup/utils"
	"github.com/spf13/cobra"
)

type BackupsOptions struct {
	ConfigFile string
	Hosts      string
}

func NewCmdBackups() *cobra.Command {
	o := &BackupsOptions{ConfigFile: config.DefaultConfigFile}
	cmd := &cobra.Command{
		Use:   "backups [flags] [config_file]",
		Short: "列出主机上现存的备份",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.ConfigFile = args[0]
			}
			return o.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&o.Hosts, "hosts", "", "只处理这些主机,逗号分隔")
	return cmd
}

func (o *BackupsOptions) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	inv, err := loadInventory(o.ConfigFile)
	if err != nil {
		utils.Logger.Error("配置加载失败", "file", o.ConfigFile, "error", err)
		os.Exit(2)
	}

	factory := orchestrator.DefaultFactory(utils.PromptPassword)
	want := splitHosts(o.Hosts)

	for _, hc := range inv.Hosts {
		if !hostSelected(want, hc.Name) {
			continue
		}
		conn, err := factory(ctx, hc)
		if err != nil {
			utils.Logger.Error("连接失败,跳过该主机", "host", hc.Name, "error", err)
			continue
		}

		sess := orchestrator.NewSession(hc, conn.Exec, utils.Logger.Logger)
		metas, err := sess.ListBackups(ctx)
		conn.Close()
		if err != nil {
			utils.Logger.Error("获取备份列表失败", "host", hc.Name, "error", err)
			continue
		}

		fmt.Printf("%s (%d backups)\n", hc.Name, len(metas))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SLUG\tNAME\tDATE\tTYPE\tSIZE")
		for _, m := range metas {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f MB\n", m.Slug, m.Name, m.Date, m.Type, m.SizeMB)
		}
		w.Flush()
	}
	return nil
}

func init() {
	rootCmd.AddCommand(NewCmdBackups())
}
