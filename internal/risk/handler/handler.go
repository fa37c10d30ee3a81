package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"riskwatch/internal/risk/models"
	"riskwatch/internal/risk/service"
	"riskwatch/internal/screening/providers"
	"riskwatch/pkg/platform/httputil"
	"riskwatch/pkg/requestcontext"
)

// HeaderIdempotencyKey carries the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

// Service defines the interface for risk operations.
type Service interface {
	AssessRisk(ctx context.Context, in service.AssessRiskInput) (*models.RiskAssessment, error)
	ProviderHealth(ctx context.Context) map[providers.Signal]providers.HealthReport
}

// Handler wires risk endpoints to the assessment service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts risk endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/risk/assessments", h.HandleAssessRisk)
	r.Get("/risk/providers/health", h.HandleProviderHealth)
}

// HandleAssessRisk handles POST /risk/assessments requests.
func (h *Handler) HandleAssessRisk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AssessRiskRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	key, err := reconcileKey(req.IdempotencyKey, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	assessment, err := h.service.AssessRisk(ctx, service.AssessRiskInput{
		SubjectName:    req.SubjectName,
		CountryISO:     req.CountryISO,
		SubjectType:    req.SubjectType,
		IdempotencyKey: key,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "risk assessment failed",
			"request_id", requestID,
			"country_iso", req.CountryISO,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, assessment)
}

// HandleProviderHealth handles GET /risk/providers/health requests.
func (h *Handler) HandleProviderHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.ProviderHealth(r.Context()))
}
