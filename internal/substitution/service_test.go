package substitution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shanthaneddula/zsmokeshop-sub001/internal/apperr"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/notify"
	"github.com/shanthaneddula/zsmokeshop-sub001/internal/orders"
)

type fakeStore struct {
	orders map[string]*orders.Order
	comms  map[string][]orders.Communication
}

func newFakeStore(os ...*orders.Order) *fakeStore {
	f := &fakeStore{
		orders: map[string]*orders.Order{},
		comms:  map[string][]orders.Communication{},
	}
	for _, o := range os {
		f.orders[o.OrderID] = o
	}
	return f
}

func (f *fakeStore) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	o, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ListByContact(ctx context.Context, contact string) ([]*orders.Order, error) {
	var out []*orders.Order
	for _, o := range f.orders {
		if o.Contact == contact {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) SetPendingSubstitution(ctx context.Context, orderID string, ps orders.PendingSubstitution) error {
	o := f.orders[orderID]
	if o == nil || o.Status != orders.StatusConfirmed {
		return orders.ErrStatusMismatch
	}
	o.PendingSubstitution = &ps
	return nil
}

func (f *fakeStore) ClearPendingSubstitution(ctx context.Context, orderID string) error {
	if o := f.orders[orderID]; o != nil {
		o.PendingSubstitution = nil
	}
	return nil
}

func (f *fakeStore) ApplyReplacement(ctx context.Context, orderID string, itemIndex int, ps orders.PendingSubstitution, approvedAt time.Time) error {
	o := f.orders[orderID]
	if o == nil || itemIndex < 0 || itemIndex >= len(o.Items) {
		return errors.New("bad item index")
	}
	if o.Items[itemIndex].WasReplaced {
		return orders.ErrStatusMismatch
	}
	at := approvedAt
	o.Items[itemIndex].WasReplaced = true
	o.Items[itemIndex].ReplacementProductID = ps.ReplacementProductID
	o.Items[itemIndex].ReplacementProductName = ps.ReplacementProductName
	o.Items[itemIndex].ReplacementApprovedAt = &at
	o.PendingSubstitution = nil
	return nil
}

func (f *fakeStore) AppendCommunication(ctx context.Context, orderID string, comm orders.Communication) error {
	if _, ok := f.orders[orderID]; !ok {
		return errors.New("order not found")
	}
	f.comms[orderID] = append(f.comms[orderID], comm)
	return nil
}

type fakeSMS struct {
	sent []notify.Message
}

func (f *fakeSMS) SendSMSToCustomer(ctx context.Context, o *orders.Order, msg notify.Message) orders.Communication {
	f.sent = append(f.sent, msg)
	return orders.Communication{
		ID:        "comm-test",
		Timestamp: time.Now().UTC(),
		Direction: orders.DirToCustomer,
		Method:    orders.MethodSMS,
		Message:   msg.Body,
		Status:    orders.CommSent,
	}
}

func confirmedOrder(id, contact string) *orders.Order {
	return &orders.Order{
		OrderID:            id,
		OrderNumber:        "ZS-000010",
		Status:             orders.StatusConfirmed,
		CustomerName:       "Jamie Rivera",
		CustomerPhone:      contact,
		Contact:            contact,
		NotificationMethod: orders.MethodSMS,
		Items: []orders.LineItem{
			{ProductID: "prod-1", ProductName: "Blue Lighter", Quantity: 1, PricePerUnit: 12.99, TotalPrice: 12.99, ReplacementPreference: orders.PreferCall},
			{ProductID: "prod-2", ProductName: "Rolling Papers", Quantity: 3, PricePerUnit: 2.50, TotalPrice: 7.50},
		},
	}
}

func suggestInput(orderID string) SuggestInput {
	return SuggestInput{
		OrderID:                orderID,
		OriginalProductID:      "prod-1",
		ReplacementProductID:   "prod-9",
		ReplacementProductName: "Red Lighter",
		Note:                   "same brand, different color",
	}
}

func TestSuggest(t *testing.T) {
	store := newFakeStore(confirmedOrder("order-1", "+12125550100"))
	sms := &fakeSMS{}
	svc := New(store, sms)

	got, err := svc.Suggest(context.Background(), suggestInput("order-1"))
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if got.PendingSubstitution == nil {
		t.Fatal("no pending substitution recorded")
	}
	if got.PendingSubstitution.ReplacementProductName != "Red Lighter" {
		t.Errorf("ReplacementProductName = %q", got.PendingSubstitution.ReplacementProductName)
	}
	if len(sms.sent) != 1 {
		t.Fatalf("len(sms.sent) = %d, want 1", len(sms.sent))
	}
	if len(store.comms["order-1"]) != 1 {
		t.Errorf("len(comms) = %d, want 1 approval request logged", len(store.comms["order-1"]))
	}
	// Line item untouched until the customer answers.
	if got.Items[0].WasReplaced {
		t.Error("line item replaced before approval")
	}
}

func TestSuggestGuards(t *testing.T) {
	ready := confirmedOrder("order-ready", "+12125550101")
	ready.Status = orders.StatusReady

	replaced := confirmedOrder("order-replaced", "+12125550102")
	replaced.Items[0].WasReplaced = true

	store := newFakeStore(ready, replaced)
	svc := New(store, &fakeSMS{})
	ctx := context.Background()

	if _, err := svc.Suggest(ctx, suggestInput("missing")); !errors.Is(err, apperr.ErrOrderNotFound) {
		t.Errorf("missing order: err = %v, want ErrOrderNotFound", err)
	}
	if _, err := svc.Suggest(ctx, suggestInput("order-ready")); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Errorf("ready order: err = %v, want ErrInvalidTransition", err)
	}
	if _, err := svc.Suggest(ctx, suggestInput("order-replaced")); !errors.Is(err, apperr.ErrAlreadyReplaced) {
		t.Errorf("already replaced: err = %v, want ErrAlreadyReplaced", err)
	}

	in := suggestInput("order-ready")
	in.OriginalProductID = "prod-404"
	in.OrderID = "order-replaced"
	if _, err := svc.Suggest(ctx, in); !errors.Is(err, apperr.ErrItemNotFound) {
		t.Errorf("unknown product: err = %v, want ErrItemNotFound", err)
	}
}

func TestHandleReplyApprove(t *testing.T) {
	o := confirmedOrder("order-1", "+12125550100")
	o.PendingSubstitution = &orders.PendingSubstitution{
		OriginalProductID:      "prod-1",
		ReplacementProductID:   "prod-9",
		ReplacementProductName: "Red Lighter",
		SuggestedAt:            time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	store := newFakeStore(o)
	svc := New(store, &fakeSMS{})

	got, reply, err := svc.HandleReply(context.Background(), "+12125550100", "Yes!")
	if err != nil {
		t.Fatalf("HandleReply: %v", err)
	}
	if reply != ReplyApprove {
		t.Errorf("reply = %v, want approve", reply)
	}
	if !got.Items[0].WasReplaced {
		t.Error("line item not replaced after approval")
	}
	if got.Items[0].ReplacementProductID != "prod-9" {
		t.Errorf("ReplacementProductID = %q", got.Items[0].ReplacementProductID)
	}
	if got.PendingSubstitution != nil {
		t.Error("pending substitution not cleared after approval")
	}

	comms := store.comms["order-1"]
	if len(comms) != 1 {
		t.Fatalf("len(comms) = %d, want 1 inbound record", len(comms))
	}
	if comms[0].Direction != orders.DirFromCustomer || comms[0].Message != "Yes!" {
		t.Errorf("inbound record wrong: %+v", comms[0])
	}
}

func TestHandleReplyReject(t *testing.T) {
	o := confirmedOrder("order-1", "+12125550100")
	o.PendingSubstitution = &orders.PendingSubstitution{
		OriginalProductID: "prod-1",
		SuggestedAt:       time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	store := newFakeStore(o)
	svc := New(store, &fakeSMS{})

	got, reply, err := svc.HandleReply(context.Background(), "+12125550100", "no")
	if err != nil {
		t.Fatalf("HandleReply: %v", err)
	}
	if reply != ReplyReject {
		t.Errorf("reply = %v, want reject", reply)
	}
	if got.Items[0].WasReplaced {
		t.Error("rejection replaced the line item")
	}
	if got.PendingSubstitution != nil {
		t.Error("pending substitution not cleared after rejection")
	}
}

func TestHandleReplyUnrecognized(t *testing.T) {
	o := confirmedOrder("order-1", "+12125550100")
	o.PendingSubstitution = &orders.PendingSubstitution{
		OriginalProductID: "prod-1",
		SuggestedAt:       time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	store := newFakeStore(o)
	svc := New(store, &fakeSMS{})

	got, reply, err := svc.HandleReply(context.Background(), "+12125550100", "can I come tomorrow instead?")
	if err != nil {
		t.Fatalf("HandleReply: %v", err)
	}
	if reply != ReplyUnrecognized {
		t.Errorf("reply = %v, want unrecognized", reply)
	}
	// Recorded, but nothing decided.
	if got.PendingSubstitution == nil {
		t.Error("pending substitution dropped by an unrecognized reply")
	}
	if got.Items[0].WasReplaced {
		t.Error("unrecognized reply mutated the line item")
	}
	if len(store.comms["order-1"]) != 1 {
		t.Errorf("len(comms) = %d, want 1", len(store.comms["order-1"]))
	}
}

func TestHandleReplyAfterOrderReady(t *testing.T) {
	// Staff marked the order ready while the customer was still deciding; the
	// answer must not fall on the floor.
	o := confirmedOrder("order-1", "+12125550100")
	o.Status = orders.StatusReady
	o.PendingSubstitution = &orders.PendingSubstitution{
		OriginalProductID:      "prod-1",
		ReplacementProductID:   "prod-9",
		ReplacementProductName: "Red Lighter",
		SuggestedAt:            time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	store := newFakeStore(o)
	svc := New(store, &fakeSMS{})

	got, reply, err := svc.HandleReply(context.Background(), "+12125550100", "yes")
	if err != nil {
		t.Fatalf("HandleReply: %v", err)
	}
	if reply != ReplyApprove {
		t.Errorf("reply = %v, want approve", reply)
	}
	if !got.Items[0].WasReplaced {
		t.Error("approval on a ready order not applied")
	}
	if len(store.comms["order-1"]) != 1 {
		t.Errorf("len(comms) = %d, want the inbound reply recorded", len(store.comms["order-1"]))
	}
}

func TestHandleReplyTerminalOrderIgnored(t *testing.T) {
	o := confirmedOrder("order-1", "+12125550100")
	o.Status = orders.StatusPickedUp
	o.PendingSubstitution = &orders.PendingSubstitution{
		OriginalProductID: "prod-1",
		SuggestedAt:       time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}
	store := newFakeStore(o)
	svc := New(store, &fakeSMS{})

	_, _, err := svc.HandleReply(context.Background(), "+12125550100", "yes")
	if !errors.Is(err, apperr.ErrNoPendingReply) {
		t.Fatalf("err = %v, want ErrNoPendingReply for a picked-up order", err)
	}
}

func TestHandleReplyNoPending(t *testing.T) {
	store := newFakeStore(confirmedOrder("order-1", "+12125550100"))
	svc := New(store, &fakeSMS{})

	_, _, err := svc.HandleReply(context.Background(), "+12125550100", "yes")
	if !errors.Is(err, apperr.ErrNoPendingReply) {
		t.Fatalf("err = %v, want ErrNoPendingReply", err)
	}

	_, _, err = svc.HandleReply(context.Background(), "+19998887777", "yes")
	if !errors.Is(err, apperr.ErrNoPendingReply) {
		t.Fatalf("unknown contact: err = %v, want ErrNoPendingReply", err)
	}
}

func TestHandleReplyNewestSuggestionWins(t *testing.T) {
	older := confirmedOrder("order-old", "+12125550100")
	older.OrderNumber = "ZS-000010"
	older.PendingSubstitution = &orders.PendingSubstitution{
		OriginalProductID: "prod-1",
		SuggestedAt:       time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
	}

	newer := confirmedOrder("order-new", "+12125550100")
	newer.OrderNumber = "ZS-000011"
	newer.PendingSubstitution = &orders.PendingSubstitution{
		OriginalProductID:    "prod-1",
		ReplacementProductID: "prod-9",
		SuggestedAt:          time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
	}

	store := newFakeStore(older, newer)
	svc := New(store, &fakeSMS{})

	got, reply, err := svc.HandleReply(context.Background(), "+12125550100", "yes")
	if err != nil {
		t.Fatalf("HandleReply: %v", err)
	}
	if reply != ReplyApprove {
		t.Errorf("reply = %v, want approve", reply)
	}
	if got.OrderID != "order-new" {
		t.Errorf("reply applied to %s, want the newest suggestion order-new", got.OrderID)
	}
	if !got.Items[0].WasReplaced {
		t.Error("newest order's line item not replaced")
	}
	if old, _ := store.Get(context.Background(), "order-old"); old.Items[0].WasReplaced || old.PendingSubstitution == nil {
		t.Error("older awaiting order was touched")
	}
}
