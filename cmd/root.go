package cmd

import (
	"os"

	"example.com/HassBackup/cmd/version"
	"example.com/HassBackup/utils"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "habak [command] [flags]",
	Short: "habak 是一个 Home Assistant 自动备份工具",
	Long: `habak 按照 yaml 清单文件对一台或多台 Home Assistant 主机执行计划备份。
它通过 ssh 在主机上驱动 ha 命令行: 检查磁盘空间,展开每个备份声明的
folders/addons 包含与排除规则,创建备份并记录结果。
单台主机或单个备份的失败不会影响其余主机的处理。`,
	Run: func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			version.PrintFullVersion()
			os.Exit(0)
		}
		cmd.Help() // 显示帮助信息
		os.Exit(0)
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debugFlag, _ := cmd.Flags().GetBool("debug")
		if debugFlag {
			utils.Logger.SetLogLevel("debug")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "显示版本信息")
	rootCmd.PersistentFlags().Bool("debug", false, "开启调试日志")
}
