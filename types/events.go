package types

// WebhookEvent is the canonical key of a business event that can trigger
// webhook notifications, e.g. "order.created".
type WebhookEvent string

// EventCategory groups events for display in the admin UI event picker.
type EventCategory string

const (
	CategorySubmissions EventCategory = "submissions"
	CategoryOrders      EventCategory = "orders"
	CategoryVendors     EventCategory = "vendors"
	CategoryInventory   EventCategory = "inventory"
	CategoryUsers       EventCategory = "users"
	CategoryMarketing   EventCategory = "marketing"
	CategorySystem      EventCategory = "system"
)

const (
	EventSubmissionCreated  WebhookEvent = "submission.created"
	EventSubmissionApproved WebhookEvent = "submission.approved"
	EventOrderCreated       WebhookEvent = "order.created"
	EventOrderPaid          WebhookEvent = "order.paid"
	EventOrderShipped       WebhookEvent = "order.shipped"
	EventOrderRefunded      WebhookEvent = "order.refunded"
	EventPaymentFailed      WebhookEvent = "payment.failed"
	EventVendorSignup       WebhookEvent = "vendor.signup"
	EventVendorApproved     WebhookEvent = "vendor.approved"
	EventInventoryUpdated   WebhookEvent = "inventory.updated"
	EventInventoryLowStock  WebhookEvent = "inventory.low_stock"
	EventUserRegistered     WebhookEvent = "user.registered"
	EventUserDeleted        WebhookEvent = "user.deleted"
	EventCampaignSent       WebhookEvent = "campaign.sent"
	EventSystemAlert        WebhookEvent = "system.alert"
)

// EventInfo is the display metadata for one event. Adding an event type is a
// data change here, not a type change anywhere else.
type EventInfo struct {
	Key      WebhookEvent  `json:"key"`
	Name     string        `json:"name"`
	Category EventCategory `json:"category"`
}

var eventCatalog = []EventInfo{
	{EventSubmissionCreated, "New Submission", CategorySubmissions},
	{EventSubmissionApproved, "Submission Approved", CategorySubmissions},
	{EventOrderCreated, "New Order", CategoryOrders},
	{EventOrderPaid, "Order Paid", CategoryOrders},
	{EventOrderShipped, "Order Shipped", CategoryOrders},
	{EventOrderRefunded, "Order Refunded", CategoryOrders},
	{EventPaymentFailed, "Payment Failed", CategoryOrders},
	{EventVendorSignup, "Vendor Signup", CategoryVendors},
	{EventVendorApproved, "Vendor Approved", CategoryVendors},
	{EventInventoryUpdated, "Inventory Updated", CategoryInventory},
	{EventInventoryLowStock, "Low Stock Alert", CategoryInventory},
	{EventUserRegistered, "User Registered", CategoryUsers},
	{EventUserDeleted, "User Deleted", CategoryUsers},
	{EventCampaignSent, "Campaign Sent", CategoryMarketing},
	{EventSystemAlert, "System Alert", CategorySystem},
}

var eventIndex = func() map[WebhookEvent]EventInfo {
	m := make(map[WebhookEvent]EventInfo, len(eventCatalog))
	for _, e := range eventCatalog {
		m[e.Key] = e
	}
	return m
}()

// EventCatalog returns the full closed set of known events in display order.
func EventCatalog() []EventInfo {
	out := make([]EventInfo, len(eventCatalog))
	copy(out, eventCatalog)
	return out
}

// KnownEvent reports whether key is part of the event catalog.
func KnownEvent(key WebhookEvent) bool {
	_, ok := eventIndex[key]
	return ok
}

// EventDisplay returns the display metadata for a known event key.
func EventDisplay(key WebhookEvent) (EventInfo, bool) {
	info, ok := eventIndex[key]
	return info, ok
}
