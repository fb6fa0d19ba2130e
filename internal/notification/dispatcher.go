package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"maillot-be/internal/logger"
	"maillot-be/internal/metrics"
	"maillot-be/internal/order"

	"go.uber.org/zap"
)

const DefaultTimeout = 10 * time.Second

const (
	MetricSent          = "notifications_sent_total"
	MetricFailed        = "notifications_failed_total"
	MetricPublished     = "order_events_published_total"
	MetricPublishFailed = "order_events_failed_total"
	MetricPanics        = "notification_panics_total"
)

type DispatcherConfig struct {
	AdminEmail string
	Timeout    time.Duration
	// Metrics receives the delivery counters; nil keeps a private registry.
	Metrics *metrics.Registry
}

// Dispatcher fans a placed order out to mail and events in the background.
// Every failure is logged and dropped; nothing is retried.
type Dispatcher struct {
	notifier   Notifier
	publisher  Publisher
	adminEmail string
	timeout    time.Duration
	metrics    *metrics.Registry
	wg         sync.WaitGroup
}

// NewDispatcher accepts a nil publisher when no broker is configured.
func NewDispatcher(notifier Notifier, publisher Publisher, cfg DispatcherConfig) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewRegistry()
	}
	return &Dispatcher{
		notifier:   notifier,
		publisher:  publisher,
		adminEmail: cfg.AdminEmail,
		timeout:    cfg.Timeout,
		metrics:    cfg.Metrics,
	}
}

func (d *Dispatcher) Metrics() *metrics.Registry {
	return d.metrics
}

// Dispatch returns immediately. The sends run under their own deadline,
// detached from the request that created the order.
func (d *Dispatcher) Dispatch(o order.Order) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		d.run(ctx, o)
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, o order.Order) {
	log := logger.L().With(
		zap.String("layer", "notification"),
		zap.String("method", "Dispatch"),
		zap.String("order_id", o.ID),
	)

	defer func() {
		if r := recover(); r != nil {
			d.metrics.Counter(MetricPanics).Inc()
			log.Error("notification panicked", zap.Any("panic", r))
		}
	}()

	if d.notifier != nil {
		d.send(ctx, log, "customer", func() (Message, error) { return CustomerEmail(o) })
		if d.adminEmail == "" {
			log.Warn("admin email not configured, skipping admin notification")
		} else {
			d.send(ctx, log, "admin", func() (Message, error) { return AdminEmail(o, d.adminEmail) })
		}
	}

	if d.publisher != nil {
		if err := d.publisher.PublishOrderCreated(ctx, o); err != nil {
			d.metrics.Counter(MetricPublishFailed).Inc()
			log.Error("failed to publish order event", zap.Error(err))
		} else {
			d.metrics.Counter(MetricPublished).Inc()
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, log *zap.Logger, audience string, build func() (Message, error)) {
	msg, err := build()
	if err != nil {
		d.metrics.Counter(MetricFailed).Inc()
		log.Error("failed to build notification", zap.String("audience", audience), zap.Error(err))
		return
	}

	timer := metrics.StartTimer()
	if err := d.notifier.Send(ctx, msg); err != nil {
		d.metrics.Counter(MetricFailed).Inc()
		log.Error("failed to send notification",
			zap.String("audience", audience),
			zap.Duration("elapsed", timer.Duration()),
			zap.Error(fmt.Errorf("%s: %w", msg.Subject, err)),
		)
		return
	}

	d.metrics.Counter(MetricSent).Inc()
	log.Info("notification sent", zap.String("audience", audience), zap.Duration("elapsed", timer.Duration()))
}
