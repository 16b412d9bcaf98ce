// Package notify delivers booking confirmations out of band. Delivery is
// best effort: no retries, and a failure never reaches the booking caller.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"doctors-portal-api/internal/metrics"
	"doctors-portal-api/internal/model"
)

// Event is the payload handed to a sink.
type Event struct {
	Treatment    string `json:"treatment"`
	Date         string `json:"date"`
	Slot         string `json:"slot"`
	Patient      string `json:"patient"`
	PatientEmail string `json:"patientEmail"`
}

func EventFrom(b model.Booking) Event {
	return Event{
		Treatment:    b.Treatment,
		Date:         b.Date,
		Slot:         b.Slot,
		Patient:      b.Patient,
		PatientEmail: b.PatientEmail,
	}
}

type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// Dispatcher queues events for a fixed pool of workers.
type Dispatcher struct {
	sink    Sink
	log     *zap.Logger
	timeout time.Duration
	workers int

	mu     sync.RWMutex
	queue  chan Event
	closed bool
	wg     sync.WaitGroup
}

type Config struct {
	Workers int
	Buffer  int
	Timeout time.Duration
}

func NewDispatcher(sink Sink, log *zap.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		sink:    sink,
		log:     log,
		timeout: cfg.Timeout,
		workers: cfg.Workers,
		queue:   make(chan Event, cfg.Buffer),
	}
}

// Start launches the workers. Deliveries use ctx as their parent.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

// Notify enqueues b and returns immediately. A full queue drops the event.
func (d *Dispatcher) Notify(b model.Booking) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.Notifications.WithLabelValues("dropped").Inc()
		return
	}
	select {
	case d.queue <- EventFrom(b):
	default:
		metrics.Notifications.WithLabelValues("dropped").Inc()
		d.log.Warn("notification queue full, dropping",
			zap.String("treatment", b.Treatment), zap.String("patientEmail", b.PatientEmail))
	}
}

// Close stops intake and waits for queued events to be attempted.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for e := range d.queue {
		d.deliver(ctx, e)
	}
}

func (d *Dispatcher) deliver(parent context.Context, e Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
	defer cancel()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("sink panic: %v", r)
			}
		}()
		return d.sink.Deliver(ctx, e)
	}()
	if err != nil {
		metrics.Notifications.WithLabelValues("failed").Inc()
		d.log.Warn("booking notification failed",
			zap.Error(err), zap.String("treatment", e.Treatment), zap.String("patientEmail", e.PatientEmail))
		return
	}
	metrics.Notifications.WithLabelValues("sent").Inc()
}
