package ha

// 远程 ha 子命令的参数向量构造
// 命令本身不在这里执行,由会话层负责下发

// HostInfoArgs `ha host info`
func HostInfoArgs() []string {
	return []string{"ha", "host", "info"}
}

// AddonsArgs `ha addons`,根子命令直接返回已安装列表
func AddonsArgs() []string {
	return []string{"ha", "addons"}
}

// BackupsArgs `ha backups`,列出主机上现存的备份
func BackupsArgs() []string {
	return []string{"ha", "backups"}
}

// BackupNewArgs `ha backups new --name <name> --no-progress [--folders f]* [--addons a]*`
// extra 为已解析好顺序的 --folders/--addons 参数
func BackupNewArgs(name string, extra []string) []string {
	args := []string{"ha", "backups", "new", "--name", name, "--no-progress"}
	return append(args, extra...)
}

// BackupInfoArgs `ha backups info <slug>`,查询新建备份的大小等信息
func BackupInfoArgs(slug string) []string {
	return []string{"ha", "backups", "info", slug}
}
