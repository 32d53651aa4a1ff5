package status

import (
	"context"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"nonomi/internal/status/interfaces"
	"nonomi/internal/structures"
	"sync"
	"sync/atomic"
	"time"
)

// StatusPoller keeps a live view of the backend status document. Each
// tick fetches on its own goroutine; results are applied one at a time
// under applyMu, which covers the timestamp check and handler invocation.
type StatusPoller struct {
	fetcher  interfaces.FetcherInterface
	interval time.Duration
	timeout  time.Duration
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface

	lifecycleMu sync.Mutex
	running     bool
	cancel      context.CancelFunc
	loopDone    chan struct{}
	generation  atomic.Uint64

	handlersMu     sync.RWMutex
	updateHandler  []interfaces.UpdateHandler
	errorHandler   []interfaces.ErrorHandler
	recoverHandler []interfaces.RecoverHandler

	applyMu sync.Mutex

	mu            sync.RWMutex
	lastTimestamp int64
	current       *models.StatusRecord
	lastErr       error
}

func NewStatusPoller(conf *structures.Config, fetcher interfaces.FetcherInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) interfaces.PollerInterface {
	return &StatusPoller{
		fetcher:  fetcher,
		interval: conf.Poller.Interval,
		timeout:  conf.Poller.Timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// StartPolling fetches immediately and then once per interval. Calling it
// while already running is a no-op.
func (p *StatusPoller) StartPolling() {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.running {
		return
	}

	gen := p.generation.Add(1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.running = true
	p.cancel = cancel
	p.loopDone = done

	p.logger.Infof(providers.TypePoll, "Start polling %s every %s", p.fetcherName(), p.interval)
	go p.run(ctx, gen, done)
}

// StopPolling cancels the ticker. Requests already in flight may finish,
// but their results are dropped. Once StopPolling returns no handler runs.
// It must not be called from inside an update or error handler.
func (p *StatusPoller) StopPolling() {
	p.lifecycleMu.Lock()
	if !p.running {
		p.lifecycleMu.Unlock()
		return
	}
	p.running = false
	p.generation.Add(1)
	p.cancel()
	done := p.loopDone
	p.lifecycleMu.Unlock()

	<-done

	// wait out an apply that passed its generation check before the bump
	p.applyMu.Lock()
	p.applyMu.Unlock()

	p.logger.Infof(providers.TypePoll, "Polling stopped")
}

func (p *StatusPoller) OnUpdate(handler interfaces.UpdateHandler) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.updateHandler = append(p.updateHandler, handler)
}

func (p *StatusPoller) OnError(handler interfaces.ErrorHandler) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.errorHandler = append(p.errorHandler, handler)
}

func (p *StatusPoller) OnRecover(handler interfaces.RecoverHandler) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.recoverHandler = append(p.recoverHandler, handler)
}

func (p *StatusPoller) Current() *models.StatusRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *StatusPoller) LastError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastErr
}

func (p *StatusPoller) LastTimestamp() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastTimestamp
}

func (p *StatusPoller) Running() bool {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()
	return p.running
}

func (p *StatusPoller) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(gen)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(gen)
		}
	}
}

// tick never waits for the fetch, so a hung request cannot delay the
// next one.
func (p *StatusPoller) tick(gen uint64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		start := time.Now()
		rec, err := p.fetcher.Fetch(ctx)
		p.metrics.ObservePollDuration(time.Since(start))

		p.apply(gen, rec, err)
	}()
}

func (p *StatusPoller) apply(gen uint64, rec *models.StatusRecord, err error) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if p.generation.Load() != gen {
		p.logger.Debugf(providers.TypePoll, "Dropping result from a stopped poll run")
		return
	}

	p.metrics.IncPolls(pollResult(err))

	if err != nil {
		p.setError(err)
		p.logger.Warnf(providers.TypePoll, "Status fetch failed: %s", err)
		for _, h := range p.errorHandlers() {
			h(err)
		}
		return
	}

	last, accepted, recovered := p.accept(rec)
	if recovered {
		p.logger.Infof(providers.TypePoll, "Status source reachable again")
		for _, h := range p.recoverHandlers() {
			h()
		}
	}
	if !accepted {
		p.metrics.IncStaleStatus()
		p.logger.Debugf(providers.TypePoll, "Timestamp %d not newer than %d, ignoring", rec.Timestamp, last)
		return
	}

	p.metrics.IncStatusUpdates()
	p.metrics.SetLastStatusTimestamp(rec.Timestamp)
	p.logger.Infof(providers.TypePoll, "Accepted status ts=%d action=%q", rec.Timestamp, rec.Action)

	for _, h := range p.updateHandlers() {
		h(rec)
	}
}

func (p *StatusPoller) setError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
}

// accept clears the error state for any successful fetch and swaps in
// rec only when its timestamp advances. recovered reports whether an
// error was cleared.
func (p *StatusPoller) accept(rec *models.StatusRecord) (last int64, accepted, recovered bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	recovered = p.lastErr != nil
	p.lastErr = nil
	if !rec.NewerThan(p.lastTimestamp) {
		return p.lastTimestamp, false, recovered
	}
	p.lastTimestamp = rec.Timestamp
	p.current = rec
	return rec.Timestamp, true, recovered
}

func (p *StatusPoller) updateHandlers() []interfaces.UpdateHandler {
	p.handlersMu.RLock()
	defer p.handlersMu.RUnlock()
	return append([]interfaces.UpdateHandler(nil), p.updateHandler...)
}

func (p *StatusPoller) errorHandlers() []interfaces.ErrorHandler {
	p.handlersMu.RLock()
	defer p.handlersMu.RUnlock()
	return append([]interfaces.ErrorHandler(nil), p.errorHandler...)
}

func (p *StatusPoller) recoverHandlers() []interfaces.RecoverHandler {
	p.handlersMu.RLock()
	defer p.handlersMu.RUnlock()
	return append([]interfaces.RecoverHandler(nil), p.recoverHandler...)
}

func (p *StatusPoller) fetcherName() string {
	if f, ok := p.fetcher.(*HTTPFetcher); ok {
		return f.url
	}
	return "status source"
}
