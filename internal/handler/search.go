// Package handler exposes the HTTP API.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xin285109136/AutoTicket/internal/ai"
	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/internal/search"
	"github.com/xin285109136/AutoTicket/internal/selector"
)

type SearchHandler struct {
	service   *search.Service
	explainer *ai.Explainer
	selectors *selector.Store
}

func NewSearchHandler(svc *search.Service, explainer *ai.Explainer, selectors *selector.Store) *SearchHandler {
	return &SearchHandler{
		service:   svc,
		explainer: explainer,
		selectors: selectors,
	}
}

func (h *SearchHandler) Register(e *echo.Echo) {
	e.POST("/search", h.Search)
	e.POST("/explain", h.Explain)
	e.POST("/analyze", h.Analyze)
	e.GET("/scraper/config", h.GetScraperConfig)
	e.POST("/scraper/config", h.PromoteScraperConfig)
	e.GET("/health", HealthHandler)
}

func (h *SearchHandler) Search(c echo.Context) error {
	var req models.SearchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	resp, err := h.service.Search(c.Request().Context(), req)
	if err != nil {
		var verr models.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: verr.Error(),
				Code:    http.StatusBadRequest,
			})
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "search_error",
			Message: "Failed to search flights: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// Explain compares two offers (or restates one) in plain language. 503 when
// no AI backend is configured.
func (h *SearchHandler) Explain(c echo.Context) error {
	if !h.explainer.Enabled() {
		return aiDisabled(c)
	}

	var req models.ExplainRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if req.TargetOffer.ID == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "target_offer is required",
			Code:    http.StatusBadRequest,
		})
	}

	completion, err := h.explainer.ExplainChoice(c.Request().Context(), req.TargetOffer, req.ComparisonOffer)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "ai_error",
			Message: "Explanation failed: " + err.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"explanation": completion.Text,
		"usage":       completion.Usage,
	})
}

// Analyze summarizes the top offers of a result set. 503 when no AI backend
// is configured.
func (h *SearchHandler) Analyze(c echo.Context) error {
	if !h.explainer.Enabled() {
		return aiDisabled(c)
	}

	var req models.AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}
	if len(req.Offers) == 0 {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "offers must not be empty",
			Code:    http.StatusBadRequest,
		})
	}

	completion, err := h.explainer.AnalyzeTopOffers(c.Request().Context(), req.Offers)
	if err != nil {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "ai_error",
			Message: "Analysis failed: " + err.Error(),
			Code:    http.StatusBadGateway,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"analysis": completion.Text,
		"usage":    completion.Usage,
	})
}

// GetScraperConfig returns the active selector set plus any pending AI
// suggestion for operator review.
func (h *SearchHandler) GetScraperConfig(c echo.Context) error {
	site := c.QueryParam("site")
	if site == "" {
		site = "ana"
	}

	cfg := h.selectors.ActiveConfig(site)
	if len(cfg) == 0 {
		// no persisted file yet, show the effective defaults
		cfg = map[string]any{"selectors": h.selectors.Active(site)}
	}

	resp := models.ScraperConfigResponse{Config: cfg}
	if suggestion, ok := h.selectors.LoadSuggestion(site); ok {
		resp.Suggestion = suggestion
	}
	return c.JSON(http.StatusOK, resp)
}

// PromoteScraperConfig applies the pending suggestion as the active
// selector set. Promotion is explicit; suggestions never self-apply.
func (h *SearchHandler) PromoteScraperConfig(c echo.Context) error {
	site := c.QueryParam("site")
	if site == "" {
		site = "ana"
	}

	suggestion, ok := h.selectors.LoadSuggestion(site)
	if !ok {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "no_suggestion",
			Message: "No pending selector suggestion for site " + site,
			Code:    http.StatusNotFound,
		})
	}

	if err := h.selectors.Promote(site, suggestion); err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "promote_error",
			Message: "Failed to promote selectors: " + err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}

	return c.JSON(http.StatusOK, models.StatusResponse{
		Status:  "ok",
		Message: "Selector suggestion promoted for site " + site,
	})
}

func aiDisabled(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error:   "ai_disabled",
		Message: "No AI backend is configured",
		Code:    http.StatusServiceUnavailable,
	})
}

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
