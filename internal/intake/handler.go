package intake

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/visitplus-leads/internal/delivery"
	"github.com/wolfman30/visitplus-leads/internal/leads"
	"github.com/wolfman30/visitplus-leads/internal/observability/metrics"
	"github.com/wolfman30/visitplus-leads/pkg/logging"
)

// User-facing messages.
const (
	MsgAccepted = "문의가 접수되었습니다"
	MsgMissing  = "필수 정보가 누락되었습니다"
	MsgInvalid  = "입력 정보가 올바르지 않습니다"
	MsgFailed   = "처리 중 오류가 발생했습니다"
)

const defaultJSONBodyLimit = 64 << 10

var intakeTracer = otel.Tracer("visitplus.internal.intake")

// Response is the success body.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
	LeadID  string `json:"leadId,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Config wires a Handler.
type Config struct {
	Profile    leads.Profile
	Plan       delivery.Plan
	Dispatcher *delivery.Dispatcher
	Logger     *logging.Logger
	Metrics    *metrics.LeadMetrics

	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time
}

// Handler is the Lead Intake Endpoint. It holds no per-request state and
// is safe for concurrent use.
type Handler struct {
	profile    leads.Profile
	plan       delivery.Plan
	dispatcher *delivery.Dispatcher
	logger     *logging.Logger
	metrics    *metrics.LeadMetrics
	newID      func() string
	now        func() time.Time
	maxBody    int64
}

// NewHandler creates the endpoint for one deployed variant.
func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = delivery.NewDispatcher(cfg.Logger, cfg.Metrics, 0)
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.New().String() }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	maxBody := int64(defaultJSONBodyLimit)
	if cfg.Profile.AcceptsAttachments() {
		maxBody += int64(cfg.Profile.MaxAttachments)*cfg.Profile.MaxAttachmentBytes + 1<<20
	}
	return &Handler{
		profile:    cfg.Profile,
		plan:       cfg.Plan,
		dispatcher: cfg.Dispatcher,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		newID:      cfg.NewID,
		now:        cfg.Now,
		maxBody:    maxBody,
	}
}

// Path is where the endpoint is mounted.
func (h *Handler) Path() string { return h.profile.Path }

// SetCORS writes the endpoint's open CORS headers.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// CORS sets the intake CORS headers before next runs, so responses written
// by middleware in front of the Handler carry them too.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	variant := string(h.profile.Variant)
	ctx, span := intakeTracer.Start(r.Context(), "intake.submit", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	span.SetAttributes(attribute.String("visitplus.variant", variant))

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	in, err := parseInput(r.WithContext(ctx), 32<<20)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("failed to parse lead submission", "error", err, "variant", variant)
		h.metrics.ObserveSubmission(variant, "error")
		jsonError(w, MsgFailed, http.StatusInternalServerError)
		return
	}

	if err := h.profile.Validate(in); err != nil {
		msg := MsgInvalid
		if errors.Is(err, leads.ErrMissingField) {
			msg = MsgMissing
		}
		h.logger.Warn("lead submission rejected", "error", err, "variant", variant)
		h.metrics.ObserveSubmission(variant, "invalid")
		jsonError(w, msg, http.StatusBadRequest)
		return
	}

	sub := leads.NewSubmission(h.profile, in, clientMetadata(r), h.newID(), h.now())
	span.SetAttributes(attribute.String("visitplus.lead_id", sub.ID))

	outcome := h.dispatcher.Run(ctx, h.plan, sub)
	if outcome.Failed {
		h.logger.Error("mandatory delivery failed", "adapter", outcome.FailedAdapter, "lead_id", sub.ID, "variant", variant)
		h.metrics.ObserveSubmission(variant, "failed")
		jsonError(w, MsgFailed, http.StatusInternalServerError)
		return
	}

	resp := Response{Success: true, Message: MsgAccepted, ID: outcome.ID}
	if resp.ID == "" {
		resp.ID = sub.ID
	}
	if res, ok := outcome.Result(delivery.NameDatabase); ok && res.Err == nil && res.ID != "" {
		resp.LeadID = res.ID
	}

	h.logger.Info("lead accepted", "lead_id", sub.ID, "variant", variant, "id", resp.ID, "attachments", len(sub.Attachments))
	h.metrics.ObserveSubmission(variant, "accepted")
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
