package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expenses/internal/amqp"
	"expenses/internal/log"
)

// Consumer delivers ledger events to a handler until ctx ends.
// *amqp.Client implements it.
type Consumer interface {
	Consume(ctx context.Context, prefetch int, handler amqp.Handler) error
}

// ProcessorConfig holds configuration for the event processor
type ProcessorConfig struct {
	// Concurrency is the number of parallel consumers (default: 4)
	Concurrency int
}

// DefaultProcessorConfig returns sensible defaults
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{Concurrency: 4}
}

// Processor runs a pool of consumers feeding one handler.
type Processor struct {
	consumer Consumer
	handler  amqp.Handler
	config   ProcessorConfig
	logger   *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

// NewProcessor creates a new event processor
func NewProcessor(consumer Consumer, handler amqp.Handler, config ProcessorConfig, logger *log.Logger) *Processor {
	if config.Concurrency < 1 {
		config.Concurrency = DefaultProcessorConfig().Concurrency
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Processor{
		consumer: consumer,
		handler:  handler,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// Start launches the consumers. Returns an error if already running.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("event processor is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.doneCh = make(chan struct{})
	p.err = nil

	var wg sync.WaitGroup
	for i := range p.config.Concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.consumer.Consume(runCtx, p.config.Concurrency, p.handler)
			if err != nil && !errors.Is(err, context.Canceled) {
				p.logger.ErrorContext(runCtx, "Consumer stopped", "consumer", i, log.FieldError, err.Error())
				p.fail(err)
				// One broken consumer takes the pool down so the process can restart cleanly.
				cancel()
			}
		}()
	}

	go func() {
		wg.Wait()
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		close(p.doneCh)
	}()

	p.logger.InfoContext(ctx, "Event processor started", "concurrency", p.config.Concurrency)
	return nil
}

func (p *Processor) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// Stop gracefully stops the processor and waits for in-flight events.
func (p *Processor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.doneCh == nil {
		p.mu.Unlock()
		return nil
	}
	cancel, done := p.cancel, p.doneCh
	p.mu.Unlock()

	cancel()

	select {
	case <-done:
		p.logger.InfoContext(ctx, "Event processor stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Event processor stop timed out")
		return ctx.Err()
	}
}

// Done is closed once every consumer has returned.
func (p *Processor) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneCh
}

// Err reports the first consumer failure, if any.
func (p *Processor) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// IsRunning returns whether the processor is currently running
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
