package tensor

import (
	"runtime"
	"sync"
)

// Below this many multiply-adds MatVec runs on the calling goroutine; the
// pool handoff costs more than it saves.
const parallelMinWork = 1 << 15

type matVecTask struct {
	dst    []float32
	w      *Mat
	x      []float32
	rs, re int
	done   chan struct{}
}

type matVecPool struct {
	size      int
	tasks     chan matVecTask
	doneSlots chan chan struct{}
}

var (
	matVecWorkPool *matVecPool
	matVecPoolOnce sync.Once
)

func getMatVecPool() *matVecPool {
	matVecPoolOnce.Do(func() {
		matVecWorkPool = newMatVecPool(runtime.GOMAXPROCS(0))
	})
	return matVecWorkPool
}

func newMatVecPool(size int) *matVecPool {
	size = max(size, 1)
	p := &matVecPool{
		size:      size,
		tasks:     make(chan matVecTask, size*2),
		doneSlots: make(chan chan struct{}, size),
	}
	for range size {
		p.doneSlots <- make(chan struct{}, size)
		go p.worker()
	}
	return p
}

func (p *matVecPool) worker() {
	for task := range p.tasks {
		matVecRange(task.dst, task.w, task.x, task.rs, task.re)
		task.done <- struct{}{}
	}
}

// MatVec computes dst = w * x. Rows are split across a shared worker pool, so
// concurrent callers are safe as long as their dst slices do not overlap.
// Each row is summed sequentially, which keeps results bit-for-bit stable
// regardless of how rows are scheduled.
func MatVec(dst []float32, w *Mat, x []float32) {
	if w.R == 0 || w.C == 0 {
		return
	}
	if len(dst) < w.R || len(x) < w.C {
		panic("matvec shape mismatch")
	}

	pool := getMatVecPool()
	workers := min(pool.size, w.R)
	if workers <= 1 || w.R*w.C < parallelMinWork {
		matVecRange(dst, w, x, 0, w.R)
		return
	}

	chunk := (w.R + workers - 1) / workers
	done := <-pool.doneSlots
	active := 0
	for rs := 0; rs < w.R; rs += chunk {
		pool.tasks <- matVecTask{dst: dst, w: w, x: x, rs: rs, re: min(rs+chunk, w.R), done: done}
		active++
	}
	for range active {
		<-done
	}
	pool.doneSlots <- done
}

func matVecRange(dst []float32, w *Mat, x []float32, rs, re int) {
	x = x[:w.C]
	for i := rs; i < re; i++ {
		row := w.Data[i*w.Stride : i*w.Stride+w.C]
		var sum float32
		j := 0
		for ; j+3 < len(row); j += 4 {
			sum += row[j]*x[j] + row[j+1]*x[j+1] + row[j+2]*x[j+2] + row[j+3]*x[j+3]
		}
		for ; j < len(row); j++ {
			sum += row[j] * x[j]
		}
		dst[i] = sum
	}
}
