package backend

import (
	"context"
	"sync"
	"time"

	"github.com/atomicstack/searchpanes/internal/logging/events"
)

// Fetcher runs source queries on a worker goroutine. Requests submitted while
// a query is in flight, or while the worker waits out the query interval,
// coalesce: only the newest pending one is run.
type Fetcher struct {
	source Source
	pacer  pacer

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending *Request
	wake    chan struct{}

	results chan Result
	wg      sync.WaitGroup
}

// NewFetcher starts a fetcher that waits at least interval between queries.
func NewFetcher(source Source, interval time.Duration) *Fetcher {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Fetcher{
		source:  source,
		pacer:   pacer{interval: interval},
		ctx:     ctx,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		results: make(chan Result, 16),
	}

	f.wg.Add(1)
	go f.run()

	go func() {
		f.wg.Wait()
		close(f.results)
	}()

	return f
}

// Submit queues req, replacing any request that has not started yet. It never
// blocks.
func (f *Fetcher) Submit(req Request) {
	f.mu.Lock()
	if f.pending != nil {
		events.Fetch.Stale(f.pending.Seq, req.Seq)
	}
	f.pending = &req
	f.mu.Unlock()
	events.Fetch.Queue(req.Seq, len(req.Selections))
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// Results returns the channel of query results. It is closed after Stop once
// the worker exits.
func (f *Fetcher) Results() <-chan Result {
	return f.results
}

// Stop cancels the fetcher. An in-flight query is abandoned through its
// context; use Wait if a clean drain is required (e.g. in tests).
func (f *Fetcher) Stop() {
	f.cancel()
}

// Wait blocks until the worker has exited and the results channel is closed.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

func (f *Fetcher) take() (Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return Request{}, false
	}
	req := *f.pending
	f.pending = nil
	return req, true
}

func (f *Fetcher) run() {
	defer f.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-f.wake:
		}
		if !f.pacer.ready(f.ctx) {
			return
		}
		req, ok := f.take()
		if !ok {
			continue
		}
		resp, err := f.source.Query(f.ctx, req)
		if err != nil {
			events.Fetch.Error(req.Seq, err)
		} else {
			resp.Seq = req.Seq
			events.Fetch.Result(req.Seq, len(resp.Rows))
		}
		select {
		case <-f.ctx.Done():
			return
		case f.results <- Result{Seq: req.Seq, Response: resp, Err: err}:
		}
	}
}
