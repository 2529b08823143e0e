package sftp

const (
	DefaultThreadsPerFile = 16
	DefaultChunkSize      = 32 * 1024 // SFTP 默认包大小
)

// TransferConfig 下载配置
type TransferConfig struct {
	ThreadsPerFile int   // 单个文件的并发分块数
	ChunkSize      int64 // 分块大小
}

func DefaultConfig() TransferConfig {
	return TransferConfig{
		ThreadsPerFile: DefaultThreadsPerFile,
		ChunkSize:      DefaultChunkSize,
	}
}

// ProgressCallback 进度回调, n 为本次增量传输的字节数
// 会被多个分块协程并发调用,实现必须并发安全
type ProgressCallback func(n int)
