package cmd

import (
	"fmt"
	"os"

	"example.com/HassBackup/pkg/config"
	"example.com/HassBackup/utils"
	"github.com/spf13/cobra"
)

// loadPwdCmd 把清单文件里的明文密码就地加密
var loadPwdCmd = &cobra.Command{
	Use:   "loadpwd [config_file]",
	Short: "加密清单文件中的明文密码",
	Long: `把清单文件中的明文 password/passphrase 就地加密后写回。
密钥保存在 ~/.habak_key,首次运行时自动生成。
已加密的字段保持不变,重复执行是安全的。`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if len(args) > 0 {
			path = args[0]
		}
		return runLoadPwd(path)
	},
}

func runLoadPwd(path string) error {
	store := config.NewStore(path, config.DefaultKeyPath())
	inv, err := store.Load()
	if err != nil {
		utils.Logger.Error("配置加载失败", "file", path, "error", err)
		os.Exit(2)
	}

	count := 0
	for _, hc := range inv.Hosts {
		if hc.Password != "" {
			count++
		}
		if hc.Passphrase != "" {
			count++
		}
	}

	// Load 已解密,Save 会全部重新加密
	if err := store.Save(inv); err != nil {
		return fmt.Errorf("写回配置文件失败: %v", err)
	}

	utils.Logger.Info("密码加密完成", "file", path, "secrets", count)
	return nil
}

func init() {
	rootCmd.AddCommand(loadPwdCmd)
}
