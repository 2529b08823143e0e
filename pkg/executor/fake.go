package executor

import (
	"context"
	"strings"
)

// Fake 按脚本应答的执行器,单元测试用
// 按命令前缀匹配预设结果,并记录全部调用以便断言
type Fake struct {
	Calls [][]string

	stubs   []fakeStub
	Default Result
	Err     error // 非 nil 时所有未匹配的调用返回该错误
}

type fakeStub struct {
	prefix string
	res    Result
	err    error
}

func NewFake() *Fake {
	return &Fake{}
}

// Stub 注册一条应答: 命令(空格拼接)以 prefix 开头时返回 res/err
// 先注册的优先匹配
func (f *Fake) Stub(prefix string, res Result, err error) {
	f.stubs = append(f.stubs, fakeStub{prefix: prefix, res: res, err: err})
}

// StubOutput 便捷形式: 命令成功并输出 out
func (f *Fake) StubOutput(prefix, out string) {
	f.Stub(prefix, Result{Stdout: []byte(out)}, nil)
}

// StubFail 便捷形式: 命令以 code 退出
func (f *Fake) StubFail(prefix string, code int) {
	f.Stub(prefix, Result{ExitCode: code}, nil)
}

func (f *Fake) Run(_ context.Context, args []string) (Result, error) {
	f.Calls = append(f.Calls, append([]string(nil), args...))

	joined := strings.Join(args, " ")
	for _, s := range f.stubs {
		if strings.HasPrefix(joined, s.prefix) {
			return s.res, s.err
		}
	}
	if f.Err != nil {
		return Result{}, f.Err
	}
	return f.Default, nil
}

// CallCount 统计以 prefix 开头的调用次数
func (f *Fake) CallCount(prefix string) int {
	n := 0
	for _, call := range f.Calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			n++
		}
	}
	return n
}
