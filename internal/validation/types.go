package validation

// LineItemRequest is a single requested product at checkout.
type LineItemRequest struct {
	ProductID             string  `json:"productId" validate:"required"`
	ProductName           string  `json:"productName" validate:"required"`
	Quantity              int     `json:"quantity" validate:"required,min=1"`
	PricePerUnit          float64 `json:"pricePerUnit" validate:"required,gt=0"`
	ReplacementPreference string  `json:"replacementPreference" validate:"omitempty,oneof=call refund cancel"`
}

// CreateOrderRequest is the payload for POST /orders, supplied by checkout.
type CreateOrderRequest struct {
	CustomerName       string            `json:"customerName" validate:"required"`
	CustomerPhone      string            `json:"customerPhone" validate:"omitempty,e164"`
	CustomerEmail      string            `json:"customerEmail" validate:"omitempty,email"`
	NotificationMethod string            `json:"notificationMethod" validate:"required,oneof=sms email"`
	StoreLocation      string            `json:"storeLocation"` // defaults to the configured store
	Items              []LineItemRequest `json:"items" validate:"required,min=1,dive"`
	Total              float64           `json:"total" validate:"required,gt=0"` // total the client claims
}

// SuggestReplacementRequest is the staff payload proposing a substitute item.
// The replacement name comes from the staff UI, which owns catalog lookups.
type SuggestReplacementRequest struct {
	OriginalProductID      string `json:"originalProductId" validate:"required"`
	ReplacementProductID   string `json:"replacementProductId" validate:"required"`
	ReplacementProductName string `json:"replacementProductName" validate:"required"`
	Note                   string `json:"note"`
}

// InboundReplyRequest is what either channel's provider posts to the reply webhook.
type InboundReplyRequest struct {
	From string `json:"from" validate:"required"`
	Body string `json:"body" validate:"required"`
}
