package api

import (
	"github.com/labstack/echo/v4"

	"github.com/jkihlstad/weapons-admin-hooks/internal/service"
)

// RegisterRoutes wires the webhook admin API onto the echo instance.
func RegisterRoutes(e *echo.Echo, svc *service.WebhookService) {
	h := NewHandler(svc)

	e.GET("/healthz", h.healthz)

	e.GET("/api/webhooks", h.listWebhooks)
	e.POST("/api/webhooks", h.createWebhook)
	e.GET("/api/webhooks/events", h.eventCatalog)
	e.POST("/api/webhooks/validate-url", h.validateURL)
	e.GET("/api/webhooks/:id", h.getWebhook)
	e.PUT("/api/webhooks/:id", h.updateWebhook)
	e.DELETE("/api/webhooks/:id", h.deleteWebhook)
	e.POST("/api/webhooks/:id/toggle", h.toggleWebhook)
	e.POST("/api/webhooks/:id/rotate-secret", h.rotateSecret)
	e.POST("/api/webhooks/:id/test", h.testWebhook)
	e.GET("/api/webhooks/:id/deliveries", h.deliveryHistory)
	e.GET("/api/webhooks/:id/stats", h.statistics)

	// Upstream trigger surface for the event-producing side.
	e.POST("/api/events/dispatch", h.dispatchEvent)
}
