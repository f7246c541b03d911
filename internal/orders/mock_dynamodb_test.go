package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory stand-in for the orders table. It interprets
// exactly the expressions the Store emits, nothing more.
type mockDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	putCalls    int
	updateCalls int
	queryCalls  int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		items: map[string]map[string]types.AttributeValue{},
	}
}

func pkOf(attrs map[string]types.AttributeValue) (string, error) {
	v, ok := attrs["order_id"]
	if !ok {
		return "", errors.New("no order_id attribute")
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("order_id is not a string")
	}
	return s.Value, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	pk, err := pkOf(params.Item)
	if err != nil {
		return nil, err
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(order_id)" {
		if _, exists := m.items[pk]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.items[pk] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[pk]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) Query(ctx context.Context, params *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryCalls++

	attr := params.ExpressionAttributeNames["#k"]
	want, ok := params.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberS)
	if attr == "" || !ok {
		return nil, errors.New("unsupported query expression")
	}

	out := &dyn.QueryOutput{}
	for _, item := range m.items {
		v, ok := item[attr].(*types.AttributeValueMemberS)
		if ok && v.Value == want.Value {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	pk, err := pkOf(params.Key)
	if err != nil {
		return nil, err
	}

	expr := ""
	if params.UpdateExpression != nil {
		expr = *params.UpdateExpression
	}

	item, exists := m.items[pk]

	// Counter increment creates its item on first use, mirroring ADD semantics.
	if strings.HasPrefix(expr, "ADD counter_value") {
		if !exists {
			item = map[string]types.AttributeValue{
				"order_id": &types.AttributeValueMemberS{Value: pk},
			}
			m.items[pk] = item
		}
		current := int64(0)
		if n, ok := item["counter_value"].(*types.AttributeValueMemberN); ok {
			fmt.Sscanf(n.Value, "%d", &current)
		}
		current++
		item["counter_value"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", current)}
		return &dyn.UpdateItemOutput{Attributes: item}, nil
	}

	if !exists {
		if params.ConditionExpression != nil {
			return nil, &types.ConditionalCheckFailedException{}
		}
		return nil, errors.New("item not found")
	}

	if err := m.checkCondition(item, params); err != nil {
		return nil, err
	}
	m.applyUpdate(item, expr, params)

	return &dyn.UpdateItemOutput{Attributes: item}, nil
}

func (m *mockDynamo) checkCondition(item map[string]types.AttributeValue, params *dyn.UpdateItemInput) error {
	if params.ConditionExpression == nil {
		return nil
	}
	cond := *params.ConditionExpression

	if strings.Contains(cond, "#s = :expected") {
		expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberS).Value
		curr, ok := item["status"].(*types.AttributeValueMemberS)
		if !ok || curr.Value != expected {
			return &types.ConditionalCheckFailedException{}
		}
	}
	if strings.Contains(cond, "attribute_not_exists(reminder_sent_at)") {
		if _, set := item["reminder_sent_at"]; set {
			return &types.ConditionalCheckFailedException{}
		}
	}
	if strings.Contains(cond, ".was_replaced = :false") {
		var idx int
		if _, err := fmt.Sscanf(cond, "#items[%d]", &idx); err != nil {
			return fmt.Errorf("bad item condition %q", cond)
		}
		line, err := itemAt(item, idx)
		if err != nil {
			return err
		}
		if b, ok := line["was_replaced"].(*types.AttributeValueMemberBOOL); ok && b.Value {
			return &types.ConditionalCheckFailedException{}
		}
	}
	return nil
}

func (m *mockDynamo) applyUpdate(item map[string]types.AttributeValue, expr string, params *dyn.UpdateItemInput) {
	vals := params.ExpressionAttributeValues

	if v, ok := vals[":new"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}
	if v, ok := vals[":ts"]; ok {
		// timeline stamp: #tl is the timeline map, #f the attribute
		field := params.ExpressionAttributeNames["#f"]
		tl, _ := item["timeline"].(*types.AttributeValueMemberM)
		if tl != nil && field != "" {
			tl.Value[field] = v
		}
	}
	if v, ok := vals[":c"]; ok {
		appended := v.(*types.AttributeValueMemberL)
		existing, _ := item["communications"].(*types.AttributeValueMemberL)
		if existing == nil {
			existing = &types.AttributeValueMemberL{}
		}
		existing.Value = append(existing.Value, appended.Value...)
		item["communications"] = existing
	}
	if v, ok := vals[":ps"]; ok {
		item["pending_substitution"] = v
	}
	if strings.Contains(expr, "REMOVE pending_substitution") {
		delete(item, "pending_substitution")
	}
	if v, ok := vals[":at"]; ok && strings.Contains(expr, "reminder_sent_at = :at") {
		item["reminder_sent_at"] = v
	}
	if strings.Contains(expr, ".was_replaced = :true") {
		var idx int
		fmt.Sscanf(expr, "SET #items[%d]", &idx)
		if line, err := itemAt(item, idx); err == nil {
			line["was_replaced"] = &types.AttributeValueMemberBOOL{Value: true}
			line["replacement_product_id"] = vals[":rid"]
			line["replacement_product_name"] = vals[":rname"]
			line["replacement_approved_at"] = vals[":at"]
		}
	}
}

func itemAt(item map[string]types.AttributeValue, idx int) (map[string]types.AttributeValue, error) {
	list, ok := item["items"].(*types.AttributeValueMemberL)
	if !ok || idx < 0 || idx >= len(list.Value) {
		return nil, errors.New("line item index out of range")
	}
	line, ok := list.Value[idx].(*types.AttributeValueMemberM)
	if !ok {
		return nil, errors.New("line item is not a map")
	}
	return line.Value, nil
}
