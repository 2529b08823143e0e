package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// LocalExecutor 本地执行器, host 配置为 localhost 时使用
type LocalExecutor struct {
	sourceProfile string
}

func NewLocalExecutor(sourceProfile string) *LocalExecutor {
	return &LocalExecutor{sourceProfile: sourceProfile}
}

func (e *LocalExecutor) Run(ctx context.Context, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}

	var cmd *exec.Cmd
	if e.sourceProfile != "" {
		// source 是 shell 内建命令,必须经过 bash -c
		line := "source " + Quote(e.sourceProfile) + " && " + QuoteAll(args)
		cmd = exec.CommandContext(ctx, "bash", "-c", line)
	} else {
		cmd = exec.CommandContext(ctx, args[0], args[1:]...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes(), Duration: elapsed}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("command failed to start: %w", err)
	}
	return res, nil
}
