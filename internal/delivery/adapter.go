package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/internal/observability/metrics"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// Adapter names used in plans, logs and metrics.
const (
	NameSheetsWebhook = "sheets_webhook"
	NameSheetsAPI     = "sheets_api"
	NameCRM           = "crm"
	NameEmail         = "email"
	NameDatabase      = "database"
	NameAttachments   = "attachments"
	NameQueue         = "queue"
)

// DefaultTimeout bounds a single adapter call.
const DefaultTimeout = 10 * time.Second

// ErrNotAttempted marks steps skipped after a required step failed.
var ErrNotAttempted = errors.New("delivery: not attempted")

var deliveryTracer = otel.Tracer("visitplus.internal.delivery")

// Adapter forwards a submission to one downstream system. The returned
// identifier is optional.
type Adapter interface {
	Name() string
	Deliver(ctx context.Context, sub *leads.Submission) (string, error)
}

// Step pairs an adapter with whether its failure fails the request.
type Step struct {
	Adapter  Adapter
	Required bool
}

// Plan is the ordered list of steps for one variant.
type Plan []Step

// Names lists the adapters in plan order.
func (p Plan) Names() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Adapter.Name()
	}
	return out
}

// Result records one step.
type Result struct {
	Adapter   string
	Required  bool
	ID        string
	Err       error
	Duration  time.Duration
	Attempted bool
}

// Outcome is the aggregate of a run.
type Outcome struct {
	Results       []Result
	Failed        bool
	FailedAdapter string
	ID            string
}

// Result returns the result recorded for the named adapter.
func (o Outcome) Result(name string) (Result, bool) {
	for _, r := range o.Results {
		if r.Adapter == name {
			return r, true
		}
	}
	return Result{}, false
}

// Decide applies the fan-out policy: the run fails only when a required
// step failed; the identifier is taken from the first required step that
// produced one.
func Decide(results []Result) (failed bool, adapter string, id string) {
	for _, r := range results {
		if !r.Required {
			continue
		}
		if r.Err != nil {
			return true, r.Adapter, ""
		}
		if id == "" && r.ID != "" {
			id = r.ID
		}
	}
	return false, "", id
}

// Dispatcher executes plans.
type Dispatcher struct {
	logger  *logging.Logger
	metrics *metrics.LeadMetrics
	timeout time.Duration
}

// NewDispatcher creates a dispatcher. A non-positive timeout uses DefaultTimeout.
func NewDispatcher(logger *logging.Logger, m *metrics.LeadMetrics, timeout time.Duration) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{logger: logger, metrics: m, timeout: timeout}
}

// Run executes steps sequentially in plan order. Every adapter error is
// caught and recorded. A required step's failure stops the run before any
// later step is attempted; optional failures never fail the outcome.
func (d *Dispatcher) Run(ctx context.Context, plan Plan, sub *leads.Submission) Outcome {
	results := make([]Result, 0, len(plan))
	aborted := false
	for _, step := range plan {
		if aborted {
			results = append(results, Result{
				Adapter:  step.Adapter.Name(),
				Required: step.Required,
				Err:      ErrNotAttempted,
			})
			continue
		}
		r := d.attempt(ctx, step, sub)
		results = append(results, r)
		if r.Err != nil && step.Required {
			aborted = true
		}
	}

	failed, adapter, id := Decide(results)
	return Outcome{Results: results, Failed: failed, FailedAdapter: adapter, ID: id}
}

func (d *Dispatcher) attempt(ctx context.Context, step Step, sub *leads.Submission) (r Result) {
	name := step.Adapter.Name()
	r = Result{Adapter: name, Required: step.Required, Attempted: true}

	ctx, span := deliveryTracer.Start(ctx, "delivery."+name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("visitplus.adapter", name),
		attribute.Bool("visitplus.required", step.Required),
		attribute.String("visitplus.lead_id", sub.ID),
	)

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.Err = fmt.Errorf("delivery: %s panicked: %v", name, p)
		}
		r.Duration = time.Since(start)
		d.metrics.ObserveDelivery(name, r.Err == nil, r.Duration.Seconds())
		if r.Err != nil {
			span.RecordError(r.Err)
			span.SetStatus(codes.Error, "delivery failed")
			d.logger.Error("delivery failed",
				"adapter", name,
				"required", step.Required,
				"lead_id", sub.ID,
				"duration_ms", r.Duration.Milliseconds(),
				"error", r.Err,
			)
			return
		}
		d.logger.Info("delivery succeeded",
			"adapter", name,
			"lead_id", sub.ID,
			"id", r.ID,
			"duration_ms", r.Duration.Milliseconds(),
		)
	}()

	r.ID, r.Err = step.Adapter.Deliver(ctx, sub)
	return r
}
