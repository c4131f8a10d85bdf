/**
 * @Author: dingQingHui
 * @Description:
 * @File: workers
 * @Version: 1.0.0
 * @Date: 2025/1/2 10:16
 */

package workers

import (
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

var (
	goCount    atomic.Int64
	panicCount atomic.Uint64
)

// Pool 协程池
type Pool struct {
	pool *ants.Pool
}

// NewPool 创建协程池，size <= 0 时不限制大小
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		size = -1
	}
	p, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: p}, nil
}

// Submit 投递任务，任务 panic 由 recoverFun 处理
func (p *Pool) Submit(fn func(), recoverFun func(err interface{})) error {
	return p.pool.Submit(func() {
		goCount.Add(1)
		defer goCount.Add(-1)
		Try(fn, recoverFun)
	})
}

// Running 正在运行的任务数
func (p *Pool) Running() int {
	return p.pool.Running()
}

func (p *Pool) Release() {
	p.pool.Release()
}

// Try 执行 fn 并捕获 panic
func Try(fn func(), reFun func(err interface{})) {
	defer func() {
		if err := recover(); err != nil {
			panicCount.Add(1)
			if reFun != nil {
				reFun(err)
			}
		}
	}()
	fn()
}

// PanicCount 累计捕获的 panic 次数
func PanicCount() uint64 {
	return panicCount.Load()
}

// GoCount 池中正在执行的任务数
func GoCount() int64 {
	return goCount.Load()
}
