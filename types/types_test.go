package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveStatusDisabledAlwaysWins(t *testing.T) {
	for _, count := range []int{0, 1, 2, 3, 10} {
		assert.Equal(t, StatusDisabled, DeriveStatus(false, count, DefaultFailingThreshold),
			"inactive configuration must be disabled at failure_count=%d", count)
	}
}

func TestDeriveStatusPartitionsCounts(t *testing.T) {
	cases := []struct {
		count int
		want  WebhookStatus
	}{
		{0, StatusHealthy},
		{1, StatusWarning},
		{2, StatusWarning},
		{3, StatusFailing},
		{4, StatusFailing},
		{100, StatusFailing},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveStatus(true, tc.count, DefaultFailingThreshold),
			"failure_count=%d", tc.count)
	}
}

func TestDeriveStatusCustomThreshold(t *testing.T) {
	assert.Equal(t, StatusWarning, DeriveStatus(true, 4, 5))
	assert.Equal(t, StatusFailing, DeriveStatus(true, 5, 5))

	// Non-positive thresholds fall back to the default.
	assert.Equal(t, StatusFailing, DeriveStatus(true, 3, 0))
}

func TestMaskedSecret(t *testing.T) {
	cfg := WebhookConfiguration{Secret: "whsec_abcdefghijklmnopqrstuvwxyz0123456789"}
	masked := cfg.MaskedSecret()

	assert.Equal(t, "whsec_ab...6789", masked)
	assert.NotContains(t, masked, "cdefghijklmnop")

	short := WebhookConfiguration{Secret: "tiny"}
	assert.Equal(t, "********", short.MaskedSecret())
}

func TestSubscribed(t *testing.T) {
	cfg := WebhookConfiguration{Events: []WebhookEvent{EventOrderCreated, EventOrderPaid}}

	assert.True(t, cfg.Subscribed(EventOrderCreated))
	assert.False(t, cfg.Subscribed(EventVendorSignup))
}

func TestEventCatalog(t *testing.T) {
	catalog := EventCatalog()
	assert.NotEmpty(t, catalog)

	for _, info := range catalog {
		assert.True(t, KnownEvent(info.Key))
		assert.NotEmpty(t, info.Name)
		assert.NotEmpty(t, info.Category)
	}

	assert.False(t, KnownEvent("order.nonexistent"))

	info, ok := EventDisplay(EventOrderCreated)
	assert.True(t, ok)
	assert.Equal(t, CategoryOrders, info.Category)
}
