package store

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDDBClient is an in-memory DynamoDB mock supporting the ADD update and
// the attribute_exists delete condition used by RemoteStore.
type mockDDBClient struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]struct{} // table -> key -> set
	err    error                                     // returned by every data call when set

	updates []*dynamodb.UpdateItemInput
	creates int
}

func newMockDDBClient(tables ...string) *mockDDBClient {
	m := &mockDDBClient{tables: make(map[string]map[string]map[string]struct{})}
	for _, t := range tables {
		m.tables[t] = make(map[string]map[string]struct{})
	}
	return m
}

func (m *mockDDBClient) table(name *string) (map[string]map[string]struct{}, error) {
	t, ok := m.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found")}
	}
	return t, nil
}

func keyOf(key map[string]types.AttributeValue) string {
	return key[attrKey].(*types.AttributeValueMemberS).Value
}

func (m *mockDDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	k := keyOf(params.Key)
	set, ok := t[k]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrKey:    &types.AttributeValueMemberS{Value: k},
		attrValues: &types.AttributeValueMemberSS{Value: values},
	}}, nil
}

func (m *mockDDBClient) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updates = append(m.updates, params)
	if m.err != nil {
		return nil, m.err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	k := keyOf(params.Key)
	set, ok := t[k]
	if !ok {
		set = make(map[string]struct{})
		t[k] = set
	}
	for _, v := range params.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberSS).Value {
		set[v] = struct{}{}
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}

	k := keyOf(params.Key)
	if _, ok := t[k]; !ok && aws.ToString(params.ConditionExpression) == "attribute_exists(kvs_key)" {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	delete(t, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *mockDDBClient) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.table(params.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   params.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (m *mockDDBClient) CreateTable(_ context.Context, params *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := aws.ToString(params.TableName)
	if _, ok := m.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists")}
	}
	m.tables[name] = make(map[string]map[string]struct{})
	m.creates++
	return &dynamodb.CreateTableOutput{TableDescription: &types.TableDescription{
		TableName:   params.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}
