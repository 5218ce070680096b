package transport

import (
	"context"
	"time"

	"savebot/internal/logger"
)

// Invoker 为远端调用统一处理限流等待
// 遇到限流信号时挂起恰好信号给出的时长后重试同一调用，不设重试上限
// （限流本身由平台约束）；其余错误原样向上传递。
type Invoker struct {
	sleep func(ctx context.Context, d time.Duration) error
}

// NewInvoker 创建调用包装器
func NewInvoker() *Invoker {
	return &Invoker{sleep: sleepContext}
}

// Invoke 执行 op，限流时等待后重试
func (i *Invoker) Invoke(ctx context.Context, op func(ctx context.Context) error) error {
	for {
		err := op(ctx)
		if err == nil {
			return nil
		}

		wait, ok := FloodWait(err)
		if !ok {
			return err
		}

		logger.L().Warnf("Flood wait for %s, retrying", wait)
		if err := i.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InvokeResult 带返回值的 Invoke
func InvokeResult[T any](ctx context.Context, i *Invoker, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := i.Invoke(ctx, func(ctx context.Context) error {
		var err error
		result, err = op(ctx)
		return err
	})
	return result, err
}

// sleepContext 可被上下文取消的休眠
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
