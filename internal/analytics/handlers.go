package analytics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meterline/portal-api/internal/common"
)

// Handler exposes the usage analytics read endpoint.
type Handler struct {
	Svc *Service
}

// Usage returns aggregated usage for the requested window. The window is
// either an explicit RFC3339 from/to pair or a trailing number of days.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "analytics service not configured", nil)
		return
	}
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "customerId is required", nil)
		return
	}
	query := r.URL.Query()
	fromStr := query.Get("from")
	toStr := query.Get("to")
	now := h.Svc.now()
	var (
		from time.Time
		to   time.Time
		err  error
	)
	if fromStr != "" && toStr != "" {
		from, err = time.Parse(time.RFC3339, fromStr)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid from date", nil)
			return
		}
		to, err = time.Parse(time.RFC3339, toStr)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid to date", nil)
			return
		}
	} else {
		days := h.Svc.DefaultRange
		if days <= 0 {
			days = 30
		}
		if raw := query.Get("days"); raw != "" {
			parsed := common.AtoiDefault(raw, days)
			if parsed > 0 {
				days = parsed
			}
		}
		to = now
		from = to.AddDate(0, 0, -days)
	}
	if !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "from must be before to", nil)
		return
	}

	topLimit := common.AtoiDefault(query.Get("top"), 5)
	summary, err := h.Svc.Summary(r.Context(), customerID, from, to, topLimit)
	if err != nil {
		if common.IsAppError(err) {
			common.RespondError(w, err)
			return
		}
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, "usage fetch failed", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}
