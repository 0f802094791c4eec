package renderer

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/atlasdatatech/maprender/tilecache"
	log "github.com/sirupsen/logrus"
)

//ErrPoolClosed 线程池已关闭
var ErrPoolClosed = errors.New("renderer: worker pool closed")

// DefaultWorkers is the number of rendering workers of a pool created with
// a non-positive count.
const DefaultWorkers = 1

// MapWorkerPool renders queued jobs on a fixed number of workers and puts
// the bitmaps into the tile cache. A job already queued or running for
// the same key is not queued again.
type MapWorkerPool struct {
	renderer *DatabaseRenderer
	cache    tilecache.TileCache
	workers  int

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []*RendererJob
	pending  map[tilecache.Key]struct{}
	inFlight int
	started  bool
	closed   atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	rendered atomic.Int64
	failed   atomic.Int64
}

//NewMapWorkerPool 创建渲染线程池
func NewMapWorkerPool(r *DatabaseRenderer, cache tilecache.TileCache, workers int) *MapWorkerPool {
	if workers < 1 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &MapWorkerPool{
		renderer: r,
		cache:    cache,
		workers:  workers,
		pending:  make(map[tilecache.Key]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

//Workers 线程数
func (p *MapWorkerPool) Workers() int {
	return p.workers
}

// Submit queues job. It reports whether the job was queued, false when an
// equal job is already queued or running.
func (p *MapWorkerPool) Submit(job *RendererJob) (bool, error) {
	if p.closed.Load() {
		return false, ErrPoolClosed
	}
	k := job.Key()
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, dup := p.pending[k]; dup {
		return false, nil
	}
	p.pending[k] = struct{}{}
	p.queue = append(p.queue, job)
	p.cond.Broadcast()
	return true, nil
}

//Start 启动线程
func (p *MapWorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	log.Debugf("started %d render workers", p.workers)
}

// Wait blocks until the queue is empty and no job is running.
func (p *MapWorkerPool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for (len(p.queue) > 0 || p.inFlight > 0) && !p.closed.Load() {
		p.cond.Wait()
	}
}

// Close stops the workers. Queued jobs are dropped; running jobs finish but
// their bitmaps are not cached.
func (p *MapWorkerPool) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	p.mu.Lock()
	p.queue = nil
	p.cond.Broadcast()
	p.mu.Unlock()
	p.wg.Wait()
	log.Debugf("render workers stopped, %d rendered, %d failed", p.rendered.Load(), p.failed.Load())
}

//Rendered 已渲染数量
func (p *MapWorkerPool) Rendered() int64 {
	return p.rendered.Load()
}

//Failed 失败数量
func (p *MapWorkerPool) Failed() int64 {
	return p.failed.Load()
}

func (p *MapWorkerPool) next() (*RendererJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.queue) == 0 && !p.closed.Load() {
		p.cond.Wait()
	}
	if p.closed.Load() {
		return nil, false
	}
	job := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	p.inFlight++
	return job, true
}

func (p *MapWorkerPool) done(job *RendererJob) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, job.Key())
	p.inFlight--
	p.cond.Broadcast()
}

func (p *MapWorkerPool) work(id int) {
	defer p.wg.Done()
	for {
		job, ok := p.next()
		if !ok {
			return
		}
		p.run(id, job)
		p.done(job)
	}
}

func (p *MapWorkerPool) run(id int, job *RendererJob) {
	defer func() {
		if r := recover(); r != nil {
			p.failed.Add(1)
			log.Errorf("worker %d: render %s: panic: %v\n%s", id, job, r, debug.Stack())
		}
	}()
	if p.closed.Load() {
		return
	}
	k := job.Key()
	if !job.LabelsOnly && p.cache.Contains(k) {
		return
	}

	// runs after the put below, so neighbours never see the tile as
	// neither cached nor in progress
	defer p.renderer.RemoveTileInProgress(job.Tile)
	b, err := p.renderer.ExecuteJob(p.ctx, job)
	if err != nil {
		p.failed.Add(1)
		log.Errorf("worker %d: render %s: %v", id, job, err)
		return
	}
	if p.closed.Load() {
		log.Debugf("worker %d: pool closed, dropping %s", id, job)
		return
	}
	if err := p.cache.Put(k, b); err != nil {
		p.failed.Add(1)
		log.Errorf("worker %d: cache %s: %v", id, job, err)
		return
	}
	p.rendered.Add(1)
}
