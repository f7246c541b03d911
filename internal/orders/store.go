package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	internalaws "github.com/shanthaneddula/zsmokeshop-sub001/internal/aws"
)

// GSI names on the orders table.
const (
	StatusIndex      = "status-index"
	OrderNumberIndex = "order-number-index"
	ContactIndex     = "contact-index"
)

// counterKey is the synthetic item holding the sequential order-number counter.
const counterKey = "order-number-counter"

// ErrStatusMismatch means a conditional update observed a different status
// than expected: the order was transitioned by someone else first.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// ErrAlreadyExists means a create hit an existing order_id.
var ErrAlreadyExists = errors.New("order already exists")

// Store encapsulates operations on the pickup orders table.
type Store struct {
	client    internalaws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new orders Store.
func NewStore(client internalaws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create persists a new order, guarded so a duplicate order_id can never
// overwrite an existing document.
func (s *Store) Create(ctx context.Context, o *Order) error {
	now := s.nowFunc().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// NextOrderNumber atomically increments the shared counter item and formats
// the human-facing order number.
func (s *Store) NextOrderNumber(ctx context.Context) (string, error) {
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: counterKey},
		},
		UpdateExpression: awsString("ADD counter_value :inc"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":inc": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return "", fmt.Errorf("increment order number counter: %w", err)
	}

	var counter struct {
		Value int64 `dynamodbav:"counter_value"`
	}
	if err := attributevalue.UnmarshalMap(out.Attributes, &counter); err != nil {
		return "", fmt.Errorf("unmarshal counter: %w", err)
	}
	return fmt.Sprintf("ZS-%06d", counter.Value), nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// GetByNumber fetches an order by its human-facing number via the
// order-number-index. Returns (nil, nil) if not found.
func (s *Store) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	out, err := s.query(ctx, OrderNumberIndex, "order_number", orderNumber)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ListByStatus returns every order currently in the given status.
func (s *Store) ListByStatus(ctx context.Context, status Status) ([]*Order, error) {
	return s.query(ctx, StatusIndex, "status", string(status))
}

// ListByContact returns every order whose reply-matching contact equals contact.
func (s *Store) ListByContact(ctx context.Context, contact string) ([]*Order, error) {
	return s.query(ctx, ContactIndex, "contact", contact)
}

func (s *Store) query(ctx context.Context, index, keyAttr, keyValue string) ([]*Order, error) {
	var result []*Order
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:              &s.tableName,
			IndexName:              &index,
			KeyConditionExpression: awsString("#k = :v"),
			ExpressionAttributeNames: map[string]string{
				"#k": keyAttr,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberS{Value: keyValue},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", index, err)
		}
		for _, item := range out.Items {
			var o Order
			if err := attributevalue.UnmarshalMap(item, &o); err != nil {
				return nil, fmt.Errorf("unmarshal order: %w", err)
			}
			result = append(result, &o)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return result, nil
}

// TransitionStatus conditionally moves the order from expected -> next and
// writes the matching timeline stamp in the same update. The condition makes
// concurrent sweepers and staff actions race-safe without a lock: the loser
// gets ErrStatusMismatch and the order is transitioned exactly once.
func (s *Store) TransitionStatus(ctx context.Context, orderID string, expected, next Status, stamp string, at time.Time) error {
	exprValues := map[string]types.AttributeValue{
		":new":      &types.AttributeValueMemberS{Value: string(next)},
		":expected": &types.AttributeValueMemberS{Value: string(expected)},
		":ua":       &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339Nano)},
	}
	exprNames := map[string]string{"#s": "status"}
	updateExpr := "SET #s = :new, updated_at = :ua"

	if stamp != "" {
		exprNames["#tl"] = "timeline"
		exprNames["#f"] = stamp
		exprValues[":ts"] = &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)}
		updateExpr += ", #tl.#f = :ts"
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
		ConditionExpression:       awsString("#s = :expected"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// AppendCommunication appends one record to the order's communication log.
// The list is append-only; nothing in this codebase edits an existing entry.
func (s *Store) AppendCommunication(ctx context.Context, orderID string, comm Communication) error {
	commMap, err := attributevalue.MarshalMap(comm)
	if err != nil {
		return fmt.Errorf("marshal communication: %w", err)
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("SET communications = list_append(if_not_exists(communications, :empty), :c), updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":c":     &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberM{Value: commMap}}},
			":ua":    &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: awsString("attribute_exists(order_id)"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("append communication: %w", err)
	}
	return nil
}

// SetPendingSubstitution records a proposed replacement awaiting the customer's
// reply. Guarded to confirmed orders so a substitution can never land on an
// order already out for pickup.
func (s *Store) SetPendingSubstitution(ctx context.Context, orderID string, ps PendingSubstitution) error {
	psMap, err := attributevalue.MarshalMap(ps)
	if err != nil {
		return fmt.Errorf("marshal pending substitution: %w", err)
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET pending_substitution = :ps, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ps":       &types.AttributeValueMemberM{Value: psMap},
			":ua":       &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339Nano)},
			":expected": &types.AttributeValueMemberS{Value: string(StatusConfirmed)},
		},
		ConditionExpression: awsString("#s = :expected"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("set pending substitution: %w", err)
	}
	return nil
}

// ClearPendingSubstitution removes the awaiting-reply marker, e.g. after a rejection.
func (s *Store) ClearPendingSubstitution(ctx context.Context, orderID string) error {
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression: awsString("REMOVE pending_substitution SET updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ua": &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339Nano)},
		},
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("clear pending substitution: %w", err)
	}
	return nil
}

// ApplyReplacement marks line item itemIndex replaced and clears the pending
// marker in one update. The was_replaced condition enforces at-most-once.
func (s *Store) ApplyReplacement(ctx context.Context, orderID string, itemIndex int, ps PendingSubstitution, approvedAt time.Time) error {
	updateExpr := fmt.Sprintf(
		"SET #items[%d].was_replaced = :true, #items[%d].replacement_product_id = :rid, #items[%d].replacement_product_name = :rname, #items[%d].replacement_approved_at = :at, updated_at = :ua REMOVE pending_substitution",
		itemIndex, itemIndex, itemIndex, itemIndex,
	)
	conditionExpr := fmt.Sprintf("#items[%d].was_replaced = :false", itemIndex)

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         &updateExpr,
		ExpressionAttributeNames: map[string]string{"#items": "items"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
			":rid":   &types.AttributeValueMemberS{Value: ps.ReplacementProductID},
			":rname": &types.AttributeValueMemberS{Value: ps.ReplacementProductName},
			":at":    &types.AttributeValueMemberS{Value: approvedAt.UTC().Format(time.RFC3339Nano)},
			":ua":    &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339Nano)},
		},
		ConditionExpression: &conditionExpr,
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("apply replacement: %w", err)
	}
	return nil
}

// MarkReminderSent stamps the expiring-soon reminder, at most once per order.
// The status condition keeps a racing pickup from receiving a stale reminder stamp.
func (s *Store) MarkReminderSent(ctx context.Context, orderID string, at time.Time) error {
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:         awsString("SET reminder_sent_at = :at, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":at":       &types.AttributeValueMemberS{Value: at.UTC().Format(time.RFC3339Nano)},
			":ua":       &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339Nano)},
			":expected": &types.AttributeValueMemberS{Value: string(StatusReady)},
		},
		ConditionExpression: awsString("#s = :expected AND attribute_not_exists(reminder_sent_at)"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		if isConditionalFailure(err) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}

// isConditionalFailure detects a conditional check failure in either its typed
// or wrapped smithy form.
func isConditionalFailure(err error) bool {
	var cc *types.ConditionalCheckFailedException
	if errors.As(err, &cc) {
		return true
	}
	var api smithy.APIError
	return errors.As(err, &api) && api.ErrorCode() == "ConditionalCheckFailedException"
}

func awsString(s string) *string { return &s }
