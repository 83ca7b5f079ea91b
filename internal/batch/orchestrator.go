package batch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"bilisum/internal/pipeline"
	"bilisum/internal/services"
)

// Runner processes one video to a terminal status.
type Runner interface {
	Process(ctx context.Context, req pipeline.Request, update pipeline.UpdateFunc) pipeline.Status
}

// Config tunes the worker pool.
type Config struct {
	// Concurrency is the ceiling on simultaneously processed videos.
	// Zero means 12.
	Concurrency int
	// CourtesyDelay is the pause after each finished item before its
	// worker slot frees up, to avoid hammering the platform. Zero means
	// 500ms.
	CourtesyDelay time.Duration
}

// Snapshot is a point-in-time copy of run state.
type Snapshot struct {
	RunID     string
	Items     []pipeline.ProgressItem
	Total     int
	Completed int
	Running   bool
}

// Orchestrator owns the queue, the worker pool, and progress bookkeeping.
type Orchestrator struct {
	runner Runner
	cfg    Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error

	// wake nudges the dispatcher when a worker exits or new work lands,
	// so a queued item starts as soon as a single slot frees.
	wake chan struct{}

	mu        sync.Mutex
	queue     []queued
	items     []*pipeline.ProgressItem
	total     int
	completed int
	inFlight  int
	running   bool
	runID     string
	cancelRun context.CancelFunc
	done      chan struct{}
	subs      map[int]chan Snapshot
	nextSub   int
}

type queued struct {
	req  pipeline.Request
	item *pipeline.ProgressItem
}

// Option adjusts orchestrator construction.
type Option func(*Orchestrator)

// WithSleep replaces the courtesy-delay wait for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// New builds an orchestrator around the runner.
func New(runner Runner, cfg Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 12
	}
	if cfg.CourtesyDelay <= 0 {
		cfg.CourtesyDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	o := &Orchestrator{
		runner: runner,
		cfg:    cfg,
		logger: logger,
		wake:   make(chan struct{}, 1),
		subs:   make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.sleep == nil {
		o.sleep = func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		}
	}
	return o
}

// Submit enqueues videos for processing. When a run is already active the
// new items join it; otherwise a run starts. An empty or id-less
// submission is rejected synchronously.
func (o *Orchestrator) Submit(reqs ...pipeline.Request) error {
	if len(reqs) == 0 {
		return services.Wrap(services.ErrValidation, "batch", "submit", "empty id list", nil)
	}
	for _, req := range reqs {
		if req.BVID == "" {
			return services.Wrap(services.ErrValidation, "batch", "submit", "empty video id", nil)
		}
	}

	o.mu.Lock()
	for _, req := range reqs {
		item := &pipeline.ProgressItem{
			BVID:   req.BVID,
			Title:  req.BVID,
			Status: pipeline.StatusPending,
		}
		o.items = append(o.items, item)
		o.queue = append(o.queue, queued{req: req, item: item})
	}
	o.total += len(reqs)

	start := !o.running
	if start {
		o.running = true
		o.runID = uuid.NewString()
		o.done = make(chan struct{})
		runCtx, cancel := context.WithCancel(context.Background())
		o.cancelRun = cancel
		go o.run(runCtx)
	}
	o.mu.Unlock()

	if !start {
		o.signalWake()
	}
	o.logger.Info("videos submitted",
		slog.Int("count", len(reqs)),
		slog.Bool("joined_live_run", !start))
	o.notify()
	return nil
}

// Wait blocks until the active run drains or ctx is cancelled.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	done := o.done
	running := o.running
	o.mu.Unlock()
	if !running || done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Snapshot returns a copy of the current run state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	items := make([]pipeline.ProgressItem, len(o.items))
	for i, item := range o.items {
		items[i] = *item
	}
	return Snapshot{
		RunID:     o.runID,
		Items:     items,
		Total:     o.total,
		Completed: o.completed,
		Running:   o.running,
	}
}

// Subscribe returns a channel of progress snapshots and a cancel function.
// Slow consumers miss intermediate snapshots rather than blocking the run.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextSub
	o.nextSub++
	ch := make(chan Snapshot, 16)
	o.subs[id] = ch
	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if sub, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(sub)
		}
	}
}

// Reset cancels any active run, waits for its workers to stop, and clears
// every progress record and counter.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	cancel := o.cancelRun
	done := o.done
	running := o.running
	o.queue = nil
	o.mu.Unlock()

	if running && cancel != nil {
		cancel()
		<-done
	}

	o.mu.Lock()
	o.items = nil
	o.total = 0
	o.completed = 0
	o.runID = ""
	o.running = false
	o.cancelRun = nil
	o.done = nil
	o.mu.Unlock()
	o.notify()
}

func (o *Orchestrator) run(ctx context.Context) {
	sem := make(chan struct{}, o.cfg.Concurrency)
	for {
		entry, ok := o.dequeue()
		if !ok {
			// Queue looks empty, but workers may still be running and a
			// submit may land while they finish. The exit decision must
			// happen in the same critical section that checks the
			// in-flight count and flips the running flag, or a late
			// submit could strand its items.
			o.mu.Lock()
			if len(o.queue) > 0 {
				o.mu.Unlock()
				continue
			}
			if o.inFlight == 0 {
				o.running = false
				done := o.done
				o.mu.Unlock()
				o.notify()
				close(done)
				return
			}
			o.mu.Unlock()
			// Block until one worker exits or more work arrives; waiting
			// on the whole in-flight set would keep a late submit from
			// starting as soon as a single slot frees.
			<-o.wake
			continue
		}
		if ctx.Err() != nil {
			o.markCancelled(entry)
			continue
		}
		sem <- struct{}{}
		o.mu.Lock()
		o.inFlight++
		o.mu.Unlock()
		go func(entry queued) {
			defer func() {
				<-sem
				o.mu.Lock()
				o.inFlight--
				o.mu.Unlock()
				o.signalWake()
			}()
			o.processOne(ctx, entry)
		}(entry)
	}
}

// signalWake leaves at most one pending nudge; the dispatcher rechecks
// queue and in-flight state after every wake, so dropped extras are safe.
func (o *Orchestrator) signalWake() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) dequeue() (queued, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.queue) == 0 {
		return queued{}, false
	}
	entry := o.queue[0]
	o.queue = o.queue[1:]
	return entry, true
}

func (o *Orchestrator) processOne(ctx context.Context, entry queued) {
	update := func(title string, status pipeline.Status, message string) {
		o.mu.Lock()
		entry.item.Title = title
		entry.item.Status = status
		entry.item.Message = message
		o.mu.Unlock()
		o.notify()
	}

	status := o.runner.Process(ctx, entry.req, update)

	o.mu.Lock()
	o.completed++
	o.mu.Unlock()
	o.logger.Info("video finished",
		slog.String("bvid", entry.req.BVID),
		slog.String("status", string(status)))
	o.notify()

	// Brief pause before the slot frees up.
	_ = o.sleep(ctx, o.cfg.CourtesyDelay)
}

func (o *Orchestrator) markCancelled(entry queued) {
	o.mu.Lock()
	entry.item.Status = pipeline.StatusFailed
	entry.item.Message = "cancelled"
	o.completed++
	o.mu.Unlock()
	o.notify()
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	snapshot := o.snapshotLocked()
	subs := make([]chan Snapshot, 0, len(o.subs))
	for _, sub := range o.subs {
		subs = append(subs, sub)
	}
	o.mu.Unlock()
	for _, sub := range subs {
		select {
		case sub <- snapshot:
		default:
		}
	}
}
