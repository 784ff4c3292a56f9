package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "payroll"

// Collector holds the payroll and HTTP series on its own registry, so tests
// and multiple services in one process never collide on registration.
type Collector struct {
	registry *prometheus.Registry

	BatchesStarted prometheus.Counter
	BatchesSkipped prometheus.Counter
	// Employees is labelled by result: succeeded or failed.
	Employees    *prometheus.CounterVec
	StoreRetries prometheus.Counter
	// SalaryWrites is labelled by result: created or refreshed.
	SalaryWrites *prometheus.CounterVec
	// HTTPRequests is labelled by status class, e.g. 2xx or 5xx.
	HTTPRequests  *prometheus.CounterVec
	BatchDuration prometheus.Histogram
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		BatchesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_started_total",
			Help:      "Tenant batches that acquired the run lock.",
		}),
		BatchesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_skipped_total",
			Help:      "Tenant batches skipped because another run held the lock.",
		}),
		Employees: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "employees_processed_total",
			Help:      "Employees processed by batch runs.",
		}, []string{"result"}),
		StoreRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Store calls retried after a transient failure.",
		}),
		SalaryWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "salary_writes_total",
			Help:      "Salary ledger writes.",
		}, []string{"result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"code"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a full payroll batch.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

func (c *Collector) BatchStarted()                 { c.BatchesStarted.Inc() }
func (c *Collector) BatchSkipped()                 { c.BatchesSkipped.Inc() }
func (c *Collector) EmployeeSucceeded()            { c.Employees.WithLabelValues("succeeded").Inc() }
func (c *Collector) EmployeeFailed()               { c.Employees.WithLabelValues("failed").Inc() }
func (c *Collector) StoreRetried()                 { c.StoreRetries.Inc() }
func (c *Collector) BatchFinished(d time.Duration) { c.BatchDuration.Observe(d.Seconds()) }

// SalaryWritten counts a ledger write as a create or an in-place refresh.
func (c *Collector) SalaryWritten(created bool) {
	if created {
		c.SalaryWrites.WithLabelValues("created").Inc()
		return
	}
	c.SalaryWrites.WithLabelValues("refreshed").Inc()
}

func (c *Collector) HTTPRequest(status int) {
	c.HTTPRequests.WithLabelValues(fmt.Sprintf("%dxx", status/100)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
