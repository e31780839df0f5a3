package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	display   Display
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, display Display) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		display:   display,
	}
}

// serveTables recomputes the derived tables for the requested range and writes
// the part selected by section. With strict=true an unusable range is a 400
// instead of a fallback to the full dataset.
func (h *APIHandlers) serveTables(w http.ResponseWriter, r *http.Request, section func(services.DerivedTables) any) {
	requestID := observability.GetRequestID(r.Context())

	bounds, ok := h.analytics.Bounds()
	if !ok {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("Dataset not loaded"), requestID)
		return
	}

	start, end := rangeParams(r)
	strict, _ := strconv.ParseBool(r.URL.Query().Get("strict"))

	var (
		dr       models.DateRange
		warnings []string
	)
	if strict {
		parsed, err := services.ParseRange(start, end, bounds)
		if err != nil {
			errors.WriteError(w, h.logger, errors.InvalidRange(err), requestID)
			return
		}
		dr = parsed
	} else {
		var warning string
		dr, warning = h.analytics.ResolveRange(start, end)
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}

	tables := h.analytics.Recompute(r.Context(), dr)
	errors.WriteSuccessWithWarnings(w, section(tables), warnings, cacheHeaders)
}

func (h *APIHandlers) HandleBounds(w http.ResponseWriter, r *http.Request) {
	bounds, ok := h.analytics.Bounds()
	if !ok {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("Dataset not loaded"), observability.GetRequestID(r.Context()))
		return
	}
	errors.WriteSuccessWithWarnings(w, bounds, nil, cacheHeaders)
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return buildSummary(t, h.display)
	})
}

func (h *APIHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return t.Monthly
	})
}

func (h *APIHandlers) HandleTopCities(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return t.TopCities
	})
}

func (h *APIHandlers) HandleTopStates(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return t.TopStates
	})
}

func (h *APIHandlers) HandleReviewValues(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return t.ReviewValues
	})
}

func (h *APIHandlers) HandleTimeTrends(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return map[string]any{
			"approval_time_diff": t.ApprovalTrend,
			"delivery_time_diff": t.DeliveryTrend,
		}
	})
}

func (h *APIHandlers) HandleOnTime(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return t.OnTime
	})
}

func (h *APIHandlers) HandleSatisfaction(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return t.Satisfaction
	})
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	h.serveTables(w, r, func(t services.DerivedTables) any {
		return map[string]any{
			"top_satisfied":    t.TopSatisfied,
			"top_dissatisfied": t.TopDissatisfied,
		}
	})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_, loaded := h.analytics.Bounds()

	healthData := map[string]any{
		"status":         "healthy",
		"timestamp":      time.Now().Format(time.RFC3339),
		"version":        "1.0.0",
		"dataset_loaded": loaded,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}

// HandleReload re-reads the dataset source. A source that no longer carries the
// required columns is reported as SCHEMA_ERROR and the previous data is kept.
func (h *APIHandlers) HandleReload(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	err := h.analytics.Reload(r.Context())
	if err != nil {
		var schemaErr *dataset.SchemaError
		switch {
		case stderrors.As(err, &schemaErr):
			errors.WriteError(w, h.logger, errors.Schema(schemaErr), requestID)
		case stderrors.Is(err, services.ErrNoSource):
			errors.WriteError(w, h.logger, errors.ServiceUnavailable("Dataset not loaded"), requestID)
		default:
			errors.WriteError(w, h.logger, errors.Wrap(err, errors.CodeInternal, "Dataset reload failed"), requestID)
		}
		return
	}

	errors.WriteSuccess(w, h.analytics.Stats())
}
