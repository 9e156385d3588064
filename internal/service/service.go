package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jkihlstad/weapons-admin-hooks/internal/registry"
	"github.com/jkihlstad/weapons-admin-hooks/internal/stats"
	"github.com/jkihlstad/weapons-admin-hooks/internal/validate"
	"github.com/jkihlstad/weapons-admin-hooks/internal/worker"
	"github.com/jkihlstad/weapons-admin-hooks/types"
)

// WebhookService is the single entry point the API layer consumes. It is
// explicitly constructed and injected; there is no package-level instance.
type WebhookService struct {
	registry   *registry.Registry
	dispatcher *worker.Dispatcher
	stats      *stats.Aggregator
	validator  *validate.Validator
}

// New composes the webhook service from its parts.
func New(reg *registry.Registry, dispatcher *worker.Dispatcher, aggregator *stats.Aggregator, validator *validate.Validator) *WebhookService {
	return &WebhookService{
		registry:   reg,
		dispatcher: dispatcher,
		stats:      aggregator,
		validator:  validator,
	}
}

func (s *WebhookService) CreateWebhook(ctx context.Context, cfg *types.WebhookConfiguration) (*types.WebhookConfiguration, error) {
	return s.registry.Create(ctx, cfg)
}

func (s *WebhookService) UpdateWebhook(ctx context.Context, cfg *types.WebhookConfiguration) (*types.WebhookConfiguration, error) {
	return s.registry.Update(ctx, cfg)
}

func (s *WebhookService) DeleteWebhook(ctx context.Context, id uuid.UUID) error {
	return s.registry.Delete(ctx, id)
}

func (s *WebhookService) GetWebhook(ctx context.Context, id uuid.UUID) (*types.WebhookConfiguration, error) {
	return s.registry.Get(ctx, id)
}

func (s *WebhookService) ListWebhooks(ctx context.Context) ([]types.WebhookConfiguration, error) {
	return s.registry.List(ctx)
}

func (s *WebhookService) ToggleWebhook(ctx context.Context, id uuid.UUID, active bool) (*types.WebhookConfiguration, error) {
	return s.registry.Toggle(ctx, id, active)
}

// RegenerateSecret rotates the signing secret and returns the new one. This
// is the only place after creation where the full secret is visible.
func (s *WebhookService) RegenerateSecret(ctx context.Context, id uuid.UUID) (string, error) {
	return s.registry.RotateSecret(ctx, id)
}

// ValidateURL checks syntax and then probes the endpoint. A syntactically
// valid but unreachable URL yields (false, message) without an error, since
// reachability is advisory.
func (s *WebhookService) ValidateURL(ctx context.Context, url string) (bool, string) {
	warning, err := s.validator.ValidateSyntax(url)
	if err != nil {
		return false, err.Error()
	}
	if ok, msg := s.validator.ValidateReachability(ctx, url); !ok {
		return false, msg
	}
	return true, warning
}

// TestWebhook sends a single manual test delivery to the stored endpoint. It
// never retries and never touches the configuration's counters or history.
func (s *WebhookService) TestWebhook(ctx context.Context, id uuid.UUID) (*types.WebhookTestResult, error) {
	cfg, err := s.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.dispatcher.Test(ctx, *cfg), nil
}

func (s *WebhookService) GetDeliveryHistory(ctx context.Context, id uuid.UUID, limit int) ([]types.WebhookDelivery, error) {
	return s.stats.History(ctx, id, limit)
}

func (s *WebhookService) GetStatistics(ctx context.Context, id uuid.UUID) (*types.WebhookStatistics, error) {
	return s.stats.Statistics(ctx, id)
}

// Dispatch fans the event out to all subscribed active configurations.
// Fire-and-forget: it returns the number of queued sequences without waiting
// for any delivery to complete.
func (s *WebhookService) Dispatch(ctx context.Context, event types.WebhookEvent, payload json.RawMessage) (int, error) {
	return s.dispatcher.Dispatch(ctx, event, payload)
}

// EventCatalog returns the closed set of known events with display metadata.
func (s *WebhookService) EventCatalog() []types.EventInfo {
	return types.EventCatalog()
}
