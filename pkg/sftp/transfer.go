package sftp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Download 下载单个远程文件到本地路径
// localPath 是目录时自动拼上远程文件名
func (c *Client) Download(ctx context.Context, remotePath, localPath string, progress ProgressCallback) error {
	info, err := c.sftpClient.Stat(remotePath)
	if err != nil {
		return fmt.Errorf("stat remote path failed: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("'%s' is a directory", remotePath)
	}

	stat, err := os.Stat(localPath)
	if err == nil && stat.IsDir() {
		localPath = filepath.Join(localPath, info.Name())
	}

	return c.downloadFile(ctx, remotePath, localPath, info.Size(), info.Mode(), progress)
}

func (c *Client) downloadFile(ctx context.Context, remotePath, localPath string, size int64, mode os.FileMode, progress ProgressCallback) error {
	srcFile, err := c.sftpClient.Open(remotePath)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	// 单线程或小文件直接流式传输,减少 overhead
	if c.config.ThreadsPerFile <= 1 || size < c.config.ChunkSize {
		return c.streamTransfer(srcFile, dstFile, progress)
	}

	os.Chmod(localPath, mode)

	// 多线程分块下载, ReadAt/WriteAt 都是并发安全的
	g, ctx := errgroup.WithContext(ctx)
	chunkSize := c.config.ChunkSize
	sem := make(chan struct{}, c.config.ThreadsPerFile)

	for offset := int64(0); offset < size; offset += chunkSize {
		offset := offset
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			currentChunkSize := chunkSize
			if offset+currentChunkSize > size {
				currentChunkSize = size - offset
			}

			buf := make([]byte, currentChunkSize)
			n, err := srcFile.ReadAt(buf, offset)
			if err != nil && err != io.EOF {
				return fmt.Errorf("read remote at %d failed: %w", offset, err)
			}
			if n == 0 {
				return nil
			}

			if _, err := dstFile.WriteAt(buf[:n], offset); err != nil {
				return fmt.Errorf("write local at %d failed: %w", offset, err)
			}

			if progress != nil {
				progress(n)
			}
			return nil
		})
	}
	return g.Wait()
}

// streamTransfer 简单的流式传输兜底
func (c *Client) streamTransfer(r io.Reader, w io.Writer, progress ProgressCallback) error {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, wErr := w.Write(buf[:n]); wErr != nil {
				return wErr
			}
			if progress != nil {
				progress(n)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	return nil
}
