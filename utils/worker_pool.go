package utils

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ErrPoolClosed 表示工作池已关闭
var ErrPoolClosed = errors.New("worker pool is closed")

// WorkerPool 表示一个工作池
type WorkerPool struct {
	jobs    chan func()
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorkerPool 创建一个新的工作池
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &WorkerPool{
		jobs:    make(chan func(), workers*2), // 缓冲区大小为工作者数量的2倍
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
	}
	pool.Start()
	return pool
}

// Workers 返回工作协程数量
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Start 启动工作池
func (p *WorkerPool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					job()
				}
			}
		}()
	}
}

// Submit 提交一个任务到工作池
// 如果工作池已关闭，返回false，否则返回true
func (p *WorkerPool) Submit(job func()) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Run 将 [0, n) 按块分给工作协程执行 fn，并等待全部完成（阶段屏障）
// 返回下标最小的错误，使结果与串行执行一致
func (p *WorkerPool) Run(n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}

	errs := make([]error, n)
	chunk := (n + p.workers - 1) / p.workers
	var barrier sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		barrier.Add(1)
		ok := p.Submit(func() {
			defer barrier.Done()
			for i := start; i < end; i++ {
				errs[i] = fn(i)
			}
		})
		if !ok {
			barrier.Done()
			barrier.Wait()
			return ErrPoolClosed
		}
	}
	barrier.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop 停止工作池
// 安全地停止所有工作协程并等待它们完成
func (p *WorkerPool) Stop() {
	// 如果已经关闭，直接返回
	if p.closed.Swap(true) {
		return
	}

	// 取消上下文，通知所有工作协程退出
	p.cancel()

	// 关闭通道前确保所有工作协程已退出循环
	close(p.jobs)

	// 等待所有工作协程完成
	p.wg.Wait()
}
