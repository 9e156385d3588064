package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/jkihlstad/weapons-admin-hooks/internal/service"
	"github.com/jkihlstad/weapons-admin-hooks/types"
)

// Handler exposes the webhook service over HTTP for the admin UI.
type Handler struct {
	svc *service.WebhookService
}

func NewHandler(svc *service.WebhookService) *Handler {
	return &Handler{svc: svc}
}

// webhookRequest is the shared create/update body.
type webhookRequest struct {
	Name         string   `json:"name"`
	URL          string   `json:"url"`
	Events       []string `json:"events"`
	Active       *bool    `json:"active"`
	RetryEnabled *bool    `json:"retry_enabled"`
	MaxRetries   *int     `json:"max_retries"`
}

func (r webhookRequest) toConfiguration() *types.WebhookConfiguration {
	cfg := &types.WebhookConfiguration{
		Name:         r.Name,
		URL:          r.URL,
		Active:       true,
		RetryEnabled: true,
		MaxRetries:   3,
	}
	for _, e := range r.Events {
		cfg.Events = append(cfg.Events, types.WebhookEvent(e))
	}
	if r.Active != nil {
		cfg.Active = *r.Active
	}
	if r.RetryEnabled != nil {
		cfg.RetryEnabled = *r.RetryEnabled
	}
	if r.MaxRetries != nil {
		cfg.MaxRetries = *r.MaxRetries
	}
	return cfg
}

// webhookResponse is the outward shape of a configuration. The secret only
// ever appears masked.
type webhookResponse struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	URL             string               `json:"url"`
	Events          []types.WebhookEvent `json:"events"`
	Active          bool                 `json:"active"`
	MaskedSecret    string               `json:"masked_secret"`
	RetryEnabled    bool                 `json:"retry_enabled"`
	MaxRetries      int                  `json:"max_retries"`
	FailureCount    int                  `json:"failure_count"`
	Status          types.WebhookStatus  `json:"status"`
	LastTriggeredAt *time.Time           `json:"last_triggered_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
}

func toResponse(cfg types.WebhookConfiguration) webhookResponse {
	return webhookResponse{
		ID:              cfg.ID,
		Name:            cfg.Name,
		URL:             cfg.URL,
		Events:          cfg.Events,
		Active:          cfg.Active,
		MaskedSecret:    cfg.MaskedSecret(),
		RetryEnabled:    cfg.RetryEnabled,
		MaxRetries:      cfg.MaxRetries,
		FailureCount:    cfg.FailureCount,
		Status:          cfg.Status,
		LastTriggeredAt: cfg.LastTriggeredAt,
		CreatedAt:       cfg.CreatedAt,
	}
}

func (h *Handler) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) createWebhook(c echo.Context) error {
	var req webhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	cfg, err := h.svc.CreateWebhook(c.Request().Context(), req.toConfiguration())
	if err != nil {
		return mapError(err)
	}

	// The only time the full secret leaves the service.
	return c.JSON(http.StatusCreated, map[string]any{
		"webhook": toResponse(*cfg),
		"secret":  cfg.Secret,
	})
}

func (h *Handler) listWebhooks(c echo.Context) error {
	configs, err := h.svc.ListWebhooks(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	out := make([]webhookResponse, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, toResponse(cfg))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) getWebhook(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	cfg, err := h.svc.GetWebhook(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toResponse(*cfg))
}

func (h *Handler) updateWebhook(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req webhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	cfg := req.toConfiguration()
	cfg.ID = id
	updated, err := h.svc.UpdateWebhook(c.Request().Context(), cfg)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toResponse(*updated))
}

func (h *Handler) deleteWebhook(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteWebhook(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "webhook deleted"})
}

func (h *Handler) toggleWebhook(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	cfg, err := h.svc.ToggleWebhook(c.Request().Context(), id, req.Active)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, toResponse(*cfg))
}

func (h *Handler) rotateSecret(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	secret, err := h.svc.RegenerateSecret(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"secret": secret})
}

func (h *Handler) testWebhook(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	result, err := h.svc.TestWebhook(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) deliveryHistory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}
	deliveries, err := h.svc.GetDeliveryHistory(c.Request().Context(), id, limit)
	if err != nil {
		return mapError(err)
	}
	if deliveries == nil {
		deliveries = []types.WebhookDelivery{}
	}
	return c.JSON(http.StatusOK, deliveries)
}

func (h *Handler) statistics(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.GetStatistics(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) validateURL(c echo.Context) error {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}
	valid, message := h.svc.ValidateURL(c.Request().Context(), req.URL)
	return c.JSON(http.StatusOK, map[string]any{
		"valid":   valid,
		"message": message,
	})
}

func (h *Handler) eventCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.EventCatalog())
}

// dispatchEvent is the upstream trigger surface. It queues delivery sequences
// and returns immediately; the producer never waits on subscriber endpoints.
func (h *Handler) dispatchEvent(c echo.Context) error {
	var req struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request payload")
	}

	queued, err := h.svc.Dispatch(c.Request().Context(), types.WebhookEvent(req.Event), req.Data)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"message": "event dispatched",
		"queued":  queued,
	})
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid webhook id")
	}
	return id, nil
}

func mapError(err error) error {
	if ve, ok := types.AsValidationError(err); ok {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": ve.Violations,
		})
	}
	if errors.Is(err, types.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "webhook not found")
	}
	if errors.Is(err, types.ErrInvalidURL) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
