package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Aman-CERP/wikimg/internal/errors"
)

// DynamoDB item layout shared by every namespace table.
const (
	attrKey    = "kvs_key"
	attrValues = "kvs_values"
)

// tableActiveTimeout bounds the wait for a newly created table.
const tableActiveTimeout = 2 * time.Minute

// DynamoDBClient is the subset of the DynamoDB API used by RemoteStore.
// *dynamodb.Client satisfies it.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// DynamoDBOptions configures the DynamoDB client.
type DynamoDBOptions struct {
	Region string
	// Endpoint overrides the resolved service endpoint (DynamoDB Local, LocalStack).
	Endpoint string
}

// NewDynamoDBClient builds a client from the default AWS credential chain.
// The SDK retryer is limited to a single attempt: failures surface to the caller.
func NewDynamoDBClient(ctx context.Context, opts DynamoDBOptions) (*dynamodb.Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryMaxAttempts(1),
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.BackendUnavailable("failed to load AWS configuration", err)
	}

	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	}), nil
}

// RemoteStore keeps entries in a DynamoDB table, one item per key with the
// values in a string set. Put is a server-side atomic set add, so concurrent
// writers to one namespace never lose values.
type RemoteStore struct {
	name   string
	table  string
	client DynamoDBClient
}

// Verify interface implementation at compile time
var _ Store = (*RemoteStore)(nil)

// NewRemoteStore binds a store named name to table.
func NewRemoteStore(client DynamoDBClient, name, table string) *RemoteStore {
	return &RemoteStore{
		name:   name,
		table:  table,
		client: client,
	}
}

// Name returns the namespace of the store.
func (s *RemoteStore) Name() string {
	return s.name
}

// Table returns the DynamoDB table name.
func (s *RemoteStore) Table() string {
	return s.table
}

// Contains reports whether key is present. Network failures read as false.
func (s *RemoteStore) Contains(ctx context.Context, key string) bool {
	_, err := s.Get(ctx, key)
	return err == nil
}

// Get reads key with a strongly consistent read.
func (s *RemoteStore) Get(ctx context.Context, key string) ([]string, error) {
	if key == "" {
		return nil, errors.NotFound(s.name, key)
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, s.unavailable(ctx, "get", key, err)
	}
	if len(out.Item) == 0 {
		return nil, errors.NotFound(s.name, key)
	}

	set, ok := out.Item[attrValues].(*types.AttributeValueMemberSS)
	if !ok || len(set.Value) == 0 {
		return nil, errors.NotFound(s.name, key)
	}

	values := append([]string(nil), set.Value...)
	sort.Strings(values)
	return values, nil
}

// Put adds value to the string set under key.
func (s *RemoteStore) Put(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.ValidationError("dynamodb keys must not be empty", nil).WithDetail("store", s.name)
	}
	if value == "" {
		return errors.ValidationError("dynamodb set values must not be empty", nil).
			WithDetail("store", s.name).
			WithDetail("key", key)
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              s.itemKey(key),
		UpdateExpression: aws.String("ADD #v :v"),
		ExpressionAttributeNames: map[string]string{
			"#v": attrValues,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberSS{Value: []string{value}},
		},
	})
	if err != nil {
		return s.unavailable(ctx, "put", key, err)
	}
	return nil
}

// Delete removes key, failing with NotFound when it does not exist.
func (s *RemoteStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.NotFound(s.name, key)
	}

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 s.itemKey(key),
		ConditionExpression: aws.String("attribute_exists(" + attrKey + ")"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if stderrors.As(err, &condErr) {
			return errors.NotFound(s.name, key)
		}
		return s.unavailable(ctx, "delete", key, err)
	}
	return nil
}

// Close is a no-op: every write is already durable on the server.
func (s *RemoteStore) Close() error {
	return nil
}

// EnsureTable creates the table when it does not exist and waits until it is active.
func (s *RemoteStore) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !stderrors.As(err, &notFound) {
		return s.unavailable(ctx, "describe table", "", err)
	}

	slog.Info("dynamodb_table_creating", slog.String("table", s.table))

	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrKey), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !stderrors.As(err, &inUse) {
			return s.unavailable(ctx, "create table", "", err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}, tableActiveTimeout); err != nil {
		return s.unavailable(ctx, "wait for table", "", err)
	}

	slog.Info("dynamodb_table_created", slog.String("table", s.table))
	return nil
}

func (s *RemoteStore) itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrKey: &types.AttributeValueMemberS{Value: key},
	}
}

// unavailable maps an SDK failure to BackendUnavailable. A cancelled caller
// context is returned unchanged.
func (s *RemoteStore) unavailable(ctx context.Context, op, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	e := errors.BackendUnavailable(fmt.Sprintf("dynamodb %s failed on table %s", op, s.table), err).
		WithDetail("store", s.name).
		WithDetail("table", s.table)
	if key != "" {
		e = e.WithDetail("key", key)
	}
	return e
}
