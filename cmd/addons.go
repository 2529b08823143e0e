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

type AddonsOptions struct {
	ConfigFile string
	Hosts      string
}

func NewCmdAddons() *cobra.Command {
	o := &AddonsOptions{ConfigFile: config.DefaultConfigFile}
	cmd := &cobra.Command{
		Use:   "addons [flags] [config_file]",
		Short: "列出主机上已安装的 addon",
		Long: `逐台连接主机并列出已安装的 addon,按显示名排序。
addon 的 slug 可以直接写进备份声明的 include/exclude。`,
		Args: cobra.MaximumNArgs(1),
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

func (o *AddonsOptions) Run(ctx context.Context) error {
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
		addons, err := sess.Catalog().Sorted(ctx)
		conn.Close()
		if err != nil {
			utils.Logger.Error("获取 addon 列表失败", "host", hc.Name, "error", err)
			continue
		}

		fmt.Printf("%s (%d addons)\n", hc.Name, len(addons))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tSLUG\tVERSION")
		for _, a := range addons {
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.Slug, a.Version)
		}
		w.Flush()
	}
	return nil
}

func hostSelected(want []string, name string) bool {
	if len(want) == 0 {
		return true
	}
	for _, w := range want {
		if w == name {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(NewCmdAddons())
}
