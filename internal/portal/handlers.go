package portal

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meterline/portal-api/internal/billing"
	"github.com/meterline/portal-api/internal/common"
	"github.com/meterline/portal-api/internal/obs"
	"github.com/meterline/portal-api/internal/pricing"
	"github.com/meterline/portal-api/internal/resilience"
)

// Handler exposes the portal view endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler wires a handler with its request validator.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc, Validate: validator.New()}
}

// Subscriptions handles GET /api/v1/customers/{customerId}/subscriptions.
func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "customerId is required", nil)
		return
	}
	views, err := h.Svc.Subscriptions(r.Context(), customerID)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Invoices handles GET /api/v1/customers/{customerId}/invoices.
func (h *Handler) Invoices(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "customerId is required", nil)
		return
	}
	views, err := h.Svc.Invoices(r.Context(), customerID)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	paged, total := paginate(views, page, perPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       paged,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// Payments handles GET /api/v1/customers/{customerId}/payments.
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if customerID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "customerId is required", nil)
		return
	}
	views, err := h.Svc.Payments(r.Context(), customerID)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 50)
	paged, total := paginate(views, page, perPage)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       paged,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// PreviewRequest is the body for POST /api/v1/pricing/preview: a price plus
// optional override, coupon and pricing unit, rendered without persisting.
type PreviewRequest struct {
	Price       *pricing.Price         `json:"price" validate:"required"`
	Override    *pricing.PriceOverride `json:"override"`
	Coupon      *pricing.Coupon        `json:"coupon"`
	PricingUnit *pricing.PricingUnit   `json:"pricing_unit"`
}

// PreviewResponse mirrors ChargeSummary for an ad-hoc price.
type PreviewResponse struct {
	Symbol     string    `json:"symbol"`
	Charge     string    `json:"charge"`
	TierMode   string    `json:"tier_mode,omitempty"`
	TierRanges []string  `json:"tier_ranges,omitempty"`
	Changes    []string  `json:"changes,omitempty"`
	Discount   *Discount `json:"discount,omitempty"`
}

// Preview handles POST /api/v1/pricing/preview. It renders an arbitrary
// price payload through the same pipeline the subscription views use.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		previewResult("invalid")
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid JSON body", nil)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		previewResult("invalid")
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, "validation failed", validationDetails(err))
		return
	}
	if err := pricing.ValidateTiers(req.Price.Tiers); err != nil {
		previewResult("invalid")
		common.JSONError(w, http.StatusUnprocessableEntity, common.CodeBadRequest, "malformed tier list", nil)
		return
	}

	display := pricing.ResolveDisplay(*req.Price, req.PricingUnit)
	summary := BuildChargeSummary(previewLineItem(req))

	resp := PreviewResponse{
		Symbol:     display.Symbol,
		Charge:     summary.Charge,
		TierMode:   summary.TierMode,
		TierRanges: summary.TierRanges,
		Changes:    summary.Changes,
		Discount:   summary.Discount,
	}
	previewResult("ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": resp})
}

func previewLineItem(req PreviewRequest) billing.LineItem {
	return billing.LineItem{
		Price:       *req.Price,
		PricingUnit: req.PricingUnit,
		Override:    req.Override,
		Coupon:      req.Coupon,
	}
}

func previewResult(result string) {
	if obs.PreviewTotal != nil {
		obs.PreviewTotal.WithLabelValues(result).Inc()
	}
}

func respondUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case common.IsAppError(err):
		common.RespondError(w, err)
	case errors.Is(err, resilience.ErrOpenCircuit):
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeUpstreamError, "billing API temporarily unavailable", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, common.CodeUpstreamError, "billing API request failed", nil)
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return map[string]any{"fields": fields}
}

func paginate[T any](items []T, page, perPage int) ([]T, int) {
	total := len(items)
	start := (page - 1) * perPage
	if start >= total {
		return []T{}, total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return items[start:end], total
}
