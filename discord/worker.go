package discord

import (
	"context"
	"sync"
	"time"
)

// Outbound messages for one channel flow through a single worker so chunks
// of a segmented response arrive in order even when handlers run
// concurrently.

type sendJob struct {
	ChannelID string
	Send      func()
}

type channelWorker struct {
	Jobs     chan sendJob
	LastUsed time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

type workerPool struct {
	mu      sync.Mutex
	workers map[string]*channelWorker
	idleTTL time.Duration
}

func newWorkerPool(idleTTL time.Duration) *workerPool {
	if idleTTL <= 0 {
		idleTTL = 5 * time.Minute
	}
	return &workerPool{
		workers: make(map[string]*channelWorker),
		idleTTL: idleTTL,
	}
}

// Enqueue hands a job to the channel's worker, starting one when needed.
func (p *workerPool) Enqueue(job sendJob) {
	p.mu.Lock()
	w, ok := p.workers[job.ChannelID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		w = &channelWorker{
			Jobs:   make(chan sendJob, 16),
			ctx:    ctx,
			cancel: cancel,
		}
		p.workers[job.ChannelID] = w
		go w.run()
	}
	w.LastUsed = time.Now()
	p.mu.Unlock()

	select {
	case w.Jobs <- job:
	case <-w.ctx.Done():
	}
}

func (w *channelWorker) run() {
	for {
		select {
		case job := <-w.Jobs:
			job.Send()
		case <-w.ctx.Done():
			return
		}
	}
}

// Sweep cancels workers idle past the TTL. Called periodically by the bot.
func (p *workerPool) Sweep() {
	p.mu.Lock()
	defer p.mu.Unlock()
	cutoff := time.Now().Add(-p.idleTTL)
	for id, w := range p.workers {
		if w.LastUsed.Before(cutoff) && len(w.Jobs) == 0 {
			w.cancel()
			delete(p.workers, id)
		}
	}
}

// Shutdown stops every worker.
func (p *workerPool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, w := range p.workers {
		w.cancel()
		delete(p.workers, id)
	}
}
