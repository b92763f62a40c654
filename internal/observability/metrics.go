package observability

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the course engine's instruments. All methods are safe on a
// nil receiver so callers never need to guard.
type Metrics struct {
	apiRequests  metric.Int64Counter
	apiLatency   metric.Float64Histogram
	treeLoads    metric.Int64Counter
	toggles      metric.Int64Counter
	progressSync metric.Int64Counter
	saves        metric.Int64Counter
	saveItems    metric.Int64Counter
	saveLatency  metric.Float64Histogram
	membership   metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// Current returns instruments bound to the global meter provider, which is a
// no-op until InitOTel installs one.
func Current() *Metrics {
	metricsOnce.Do(func() {
		m, err := NewMetrics(otel.GetMeterProvider())
		if err == nil {
			metricsInst = m
		}
	})
	return metricsInst
}

func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(instrumentationName)
	m := &Metrics{}
	var err error
	if m.apiRequests, err = meter.Int64Counter("edutainverse.api.requests",
		metric.WithDescription("HTTP requests by route and status")); err != nil {
		return nil, err
	}
	if m.apiLatency, err = meter.Float64Histogram("edutainverse.api.duration",
		metric.WithUnit("s"), metric.WithDescription("HTTP request latency")); err != nil {
		return nil, err
	}
	if m.treeLoads, err = meter.Int64Counter("edutainverse.hierarchy.loads",
		metric.WithDescription("Course tree loads by query path")); err != nil {
		return nil, err
	}
	if m.toggles, err = meter.Int64Counter("edutainverse.progress.toggles",
		metric.WithDescription("Video completion toggles by resulting state")); err != nil {
		return nil, err
	}
	if m.progressSync, err = meter.Int64Counter("edutainverse.progress.syncs",
		metric.WithDescription("Enrollment progress syncs by result")); err != nil {
		return nil, err
	}
	if m.saves, err = meter.Int64Counter("edutainverse.editor.saves",
		metric.WithDescription("Course tree saves by status")); err != nil {
		return nil, err
	}
	if m.saveItems, err = meter.Int64Counter("edutainverse.editor.items",
		metric.WithDescription("Course tree save items by entity, op and result")); err != nil {
		return nil, err
	}
	if m.saveLatency, err = meter.Float64Histogram("edutainverse.editor.duration",
		metric.WithUnit("s"), metric.WithDescription("Course tree save latency")); err != nil {
		return nil, err
	}
	if m.membership, err = meter.Int64Counter("edutainverse.membership.actions",
		metric.WithDescription("Wishlist and enrollment actions")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) ObserveAPI(ctx context.Context, method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	)
	m.apiRequests.Add(ctx, 1, attrs)
	m.apiLatency.Record(ctx, dur.Seconds(), attrs)
}

// ObserveTreeLoad records which query path served a tree: "embedded",
// "fallback" or "empty".
func (m *Metrics) ObserveTreeLoad(ctx context.Context, path string) {
	if m == nil {
		return
	}
	m.treeLoads.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

func (m *Metrics) IncToggle(ctx context.Context, completed bool) {
	if m == nil {
		return
	}
	m.toggles.Add(ctx, 1, metric.WithAttributes(attribute.Bool("completed", completed)))
}

// IncProgressSync records "written", "skipped" or "failed".
func (m *Metrics) IncProgressSync(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.progressSync.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) ObserveSave(ctx context.Context, status string, dur time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.saves.Add(ctx, 1, attrs)
	m.saveLatency.Record(ctx, dur.Seconds(), attrs)
}

func (m *Metrics) IncSaveItem(ctx context.Context, entity, op, result string) {
	if m == nil {
		return
	}
	m.saveItems.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("op", op),
		attribute.String("result", result),
	))
}

func (m *Metrics) IncMembership(ctx context.Context, action string, changed bool) {
	if m == nil {
		return
	}
	m.membership.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.Bool("changed", changed),
	))
}
