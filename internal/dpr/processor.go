package dpr

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neinfra/dpr-dashboard/pkg/logger"
)

// DefaultProcessingDelay simulates the evaluation turnaround between
// upload and scored result.
const DefaultProcessingDelay = 5 * time.Second

// Processor schedules DPR evaluation after a fixed delay. Pending
// evaluations are cancellable, individually or wholesale via Close.
type Processor struct {
	service *Service
	delay   time.Duration

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	closed bool
}

// NewProcessor creates a processor over service. delay <= 0 falls back
// to DefaultProcessingDelay.
func NewProcessor(service *Service, delay time.Duration) *Processor {
	if delay <= 0 {
		delay = DefaultProcessingDelay
	}
	return &Processor{
		service: service,
		delay:   delay,
		timers:  make(map[uuid.UUID]*time.Timer),
	}
}

// Schedule marks the DPR in progress and queues its evaluation.
// Scheduling an id twice restarts its delay.
func (p *Processor) Schedule(ctx context.Context, id uuid.UUID) error {
	if err := p.service.MarkInProgress(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if timer, ok := p.timers[id]; ok {
		timer.Stop()
	}
	p.timers[id] = time.AfterFunc(p.delay, func() {
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()

		if _, err := p.service.Evaluate(context.Background(), id); err != nil {
			logger.Error("Scheduled evaluation failed",
				zap.String("id", id.String()),
				zap.Error(err))
		}
	})
	return nil
}

// Cancel stops a pending evaluation, if any.
func (p *Processor) Cancel(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if timer, ok := p.timers[id]; ok {
		timer.Stop()
		delete(p.timers, id)
	}
}

// Close cancels every pending evaluation.
func (p *Processor) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for id, timer := range p.timers {
		timer.Stop()
		delete(p.timers, id)
	}
}
