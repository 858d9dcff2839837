package integration

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meterline/portal-api/internal/billing"
	"github.com/meterline/portal-api/internal/common"
	"github.com/meterline/portal-api/internal/obs"
)

// QuickBooksHandler relays accounting connection state between the portal
// and the billing API. OAuth token exchange happens upstream; the portal
// only requests authorization URLs and reads back status.
type QuickBooksHandler struct {
	Billing billing.Client
	Log     zerolog.Logger
}

// Status handles GET /api/v1/customers/{customerId}/integrations/quickbooks.
func (h *QuickBooksHandler) Status(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "customerId is required", nil)
		return
	}
	status, err := h.Billing.QuickBooksStatus(r.Context(), customerID)
	if err != nil {
		h.count("status", "error")
		respondUpstream(w, err, "quickbooks status unavailable")
		return
	}
	h.count("status", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": status})
}

type connectRequest struct {
	RedirectURI string `json:"redirect_uri"`
}

// Connect handles POST /api/v1/customers/{customerId}/integrations/quickbooks/connect.
// It mints a fresh anti-forgery state and returns the upstream authorization URL.
func (h *QuickBooksHandler) Connect(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "customerId is required", nil)
		return
	}
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if req.RedirectURI == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "redirect_uri is required", nil)
		return
	}
	if _, err := url.ParseRequestURI(req.RedirectURI); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "redirect_uri must be a valid URL", nil)
		return
	}

	state := uuid.NewString()
	authURL, err := h.Billing.QuickBooksConnectURL(r.Context(), customerID, req.RedirectURI, state)
	if err != nil {
		h.count("connect", "error")
		respondUpstream(w, err, "quickbooks connect unavailable")
		return
	}
	h.count("connect", "ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{
		"url":   authURL,
		"state": state,
	}})
}

// Disconnect handles DELETE /api/v1/customers/{customerId}/integrations/quickbooks.
func (h *QuickBooksHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "customerId is required", nil)
		return
	}
	if err := h.Billing.QuickBooksDisconnect(r.Context(), customerID); err != nil {
		h.count("disconnect", "error")
		respondUpstream(w, err, "quickbooks disconnect failed")
		return
	}
	h.count("disconnect", "ok")
	h.Log.Info().Str("customer_id", customerID).Msg("quickbooks disconnected")
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]bool{"disconnected": true}})
}

func respondUpstream(w http.ResponseWriter, err error, message string) {
	if common.IsAppError(err) {
		common.RespondError(w, err)
		return
	}
	common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, message, nil)
}

func (h *QuickBooksHandler) count(operation, result string) {
	if obs.QuickBooksRequestsTotal != nil {
		obs.QuickBooksRequestsTotal.WithLabelValues(operation, result).Inc()
	}
}
