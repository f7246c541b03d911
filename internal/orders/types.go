package orders

import "time"

// Order statuses. picked-up, no-show and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusReady     Status = "ready"
	StatusPickedUp  Status = "picked-up"
	StatusNoShow    Status = "no-show"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s Status) Terminal() bool {
	return s == StatusPickedUp || s == StatusNoShow || s == StatusCancelled
}

// NotificationMethod selects the channel for lifecycle notifications.
type NotificationMethod string

const (
	MethodSMS   NotificationMethod = "sms"
	MethodEmail NotificationMethod = "email"
)

// Direction of a logged communication.
type Direction string

const (
	DirToCustomer   Direction = "to-customer"
	DirFromCustomer Direction = "from-customer"
	DirToStore      Direction = "to-store"
	DirFromStore    Direction = "from-store"
)

// CommStatus is the channel-level outcome of one message attempt.
type CommStatus string

const (
	CommSent      CommStatus = "sent"
	CommDelivered CommStatus = "delivered"
	CommFailed    CommStatus = "failed"
)

// ReplacementPreference is the customer's stated fallback when an item is unavailable.
type ReplacementPreference string

const (
	PreferCall   ReplacementPreference = "call"
	PreferRefund ReplacementPreference = "refund"
	PreferCancel ReplacementPreference = "cancel"
)

// Communication is one attempted inbound or outbound message on an order.
// Records are append-only; corrections are new records, never edits.
type Communication struct {
	ID          string             `dynamodbav:"id" json:"id"`
	Timestamp   time.Time          `dynamodbav:"timestamp" json:"timestamp"`
	Direction   Direction          `dynamodbav:"direction" json:"direction"`
	Method      NotificationMethod `dynamodbav:"method" json:"method"`
	Message     string             `dynamodbav:"message" json:"message"`
	Status      CommStatus         `dynamodbav:"status" json:"status"`
	ProviderRef string             `dynamodbav:"provider_ref,omitempty" json:"providerRef,omitempty"`
	// FailureReason holds the channel-level error for failed sends, shown
	// inline in the order's communication history for staff follow-up.
	FailureReason string `dynamodbav:"failure_reason,omitempty" json:"failureReason,omitempty"`
}

// LineItem is one product within an order. A line item can be replaced at most once.
type LineItem struct {
	ProductID             string                `dynamodbav:"product_id" json:"productId"`
	ProductName           string                `dynamodbav:"product_name" json:"productName"`
	Quantity              int                   `dynamodbav:"quantity" json:"quantity"`
	PricePerUnit          float64               `dynamodbav:"price_per_unit" json:"pricePerUnit"`
	TotalPrice            float64               `dynamodbav:"total_price" json:"totalPrice"`
	ReplacementPreference ReplacementPreference `dynamodbav:"replacement_preference,omitempty" json:"replacementPreference,omitempty"`

	WasReplaced            bool       `dynamodbav:"was_replaced" json:"wasReplaced"`
	ReplacementProductID   string     `dynamodbav:"replacement_product_id,omitempty" json:"replacementProductId,omitempty"`
	ReplacementProductName string     `dynamodbav:"replacement_product_name,omitempty" json:"replacementProductName,omitempty"`
	ReplacementApprovedAt  *time.Time `dynamodbav:"replacement_approved_at,omitempty" json:"replacementApprovedAt,omitempty"`
}

// Timeline records when the order passed through each state. Exactly the
// timestamps for states the order has reached are set; once written they
// never change, ready_at included even after a later no-show.
type Timeline struct {
	PlacedAt    time.Time  `dynamodbav:"placed_at" json:"placedAt"`
	ConfirmedAt *time.Time `dynamodbav:"confirmed_at,omitempty" json:"confirmedAt,omitempty"`
	ReadyAt     *time.Time `dynamodbav:"ready_at,omitempty" json:"readyAt,omitempty"`
	CompletedAt *time.Time `dynamodbav:"completed_at,omitempty" json:"completedAt,omitempty"`
	CancelledAt *time.Time `dynamodbav:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
}

// Timeline attribute names usable as transition stamps.
const (
	StampConfirmedAt = "confirmed_at"
	StampReadyAt     = "ready_at"
	StampCompletedAt = "completed_at"
	StampCancelledAt = "cancelled_at"
)

// PendingSubstitution is a staff-proposed replacement awaiting the customer's
// text reply. The line item itself stays untouched until approval.
type PendingSubstitution struct {
	OriginalProductID      string    `dynamodbav:"original_product_id" json:"originalProductId"`
	ReplacementProductID   string    `dynamodbav:"replacement_product_id" json:"replacementProductId"`
	ReplacementProductName string    `dynamodbav:"replacement_product_name" json:"replacementProductName"`
	Note                   string    `dynamodbav:"note,omitempty" json:"note,omitempty"`
	SuggestedAt            time.Time `dynamodbav:"suggested_at" json:"suggestedAt"`
}

// Order is the item stored in the pickup orders DynamoDB table, one document
// per order. Status changes go through the lifecycle service only.
type Order struct {
	OrderID     string `dynamodbav:"order_id" json:"orderId"` // PK
	OrderNumber string `dynamodbav:"order_number" json:"orderNumber"`

	Status Status `dynamodbav:"status" json:"status"`

	CustomerName  string `dynamodbav:"customer_name" json:"customerName"`
	CustomerPhone string `dynamodbav:"customer_phone,omitempty" json:"customerPhone,omitempty"`
	CustomerEmail string `dynamodbav:"customer_email,omitempty" json:"customerEmail,omitempty"`
	// Contact is the reply-matching key: the phone for sms orders, the email
	// otherwise. Partition key of the contact-index GSI.
	Contact string `dynamodbav:"contact" json:"-"`

	NotificationMethod NotificationMethod `dynamodbav:"notification_method" json:"notificationMethod"`
	StoreLocation      string             `dynamodbav:"store_location" json:"storeLocation"`
	PickupCode         string             `dynamodbav:"pickup_code" json:"pickupCode"`
	Total              float64            `dynamodbav:"total" json:"total"`

	Items          []LineItem      `dynamodbav:"items" json:"items"`
	Timeline       Timeline        `dynamodbav:"timeline" json:"timeline"`
	Communications []Communication `dynamodbav:"communications,omitempty" json:"communications,omitempty"`

	PendingSubstitution *PendingSubstitution `dynamodbav:"pending_substitution,omitempty" json:"pendingSubstitution,omitempty"`
	ReminderSentAt      *time.Time           `dynamodbav:"reminder_sent_at,omitempty" json:"reminderSentAt,omitempty"`

	CreatedAt time.Time `dynamodbav:"created_at" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updatedAt"`
}

// ContactMatches reports whether the supplied contact credential matches the
// order's phone or email. Used by the tracking query's compound key check.
func (o *Order) ContactMatches(contact string) bool {
	if contact == "" {
		return false
	}
	return contact == o.CustomerPhone || contact == o.CustomerEmail
}

// ItemIndex returns the position of the line item for productID, or -1.
func (o *Order) ItemIndex(productID string) int {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
