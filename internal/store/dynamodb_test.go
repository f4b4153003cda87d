package store

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/wikimg/internal/errors"
)

func TestRemoteStore_PutUsesAtomicAdd(t *testing.T) {
	client := newMockDDBClient("wikimg-terms")
	s := NewRemoteStore(client, "terms", "wikimg-terms")

	require.NoError(t, s.Put(context.Background(), "rock", "Category:Rock"))

	require.Len(t, client.updates, 1)
	in := client.updates[0]
	assert.Equal(t, "wikimg-terms", aws.ToString(in.TableName))
	assert.Equal(t, "ADD #v :v", aws.ToString(in.UpdateExpression))
	assert.Equal(t, "kvs_values", in.ExpressionAttributeNames["#v"])
	set, ok := in.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberSS)
	require.True(t, ok)
	assert.Equal(t, []string{"Category:Rock"}, set.Value)
}

func TestRemoteStore_ConcurrentWritersKeepEveryValue(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient("wikimg-images")
	a := NewRemoteStore(client, "images", "wikimg-images")
	b := NewRemoteStore(client, "images", "wikimg-images")

	done := make(chan error, 2)
	go func() { done <- a.Put(ctx, "Category:Rock", "http://img/a.jpg") }()
	go func() { done <- b.Put(ctx, "Category:Rock", "http://img/b.jpg") }()
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	values, err := a.Get(ctx, "Category:Rock")
	require.NoError(t, err)
	assert.Equal(t, []string{"http://img/a.jpg", "http://img/b.jpg"}, values)
}

func TestRemoteStore_BackendFailure(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient("wikimg-terms")
	client.err = assert.AnError
	s := NewRemoteStore(client, "terms", "wikimg-terms")

	tests := []struct {
		name string
		call func() error
	}{
		{"get", func() error { _, err := s.Get(ctx, "rock"); return err }},
		{"put", func() error { return s.Put(ctx, "rock", "Category:Rock") }},
		{"delete", func() error { return s.Delete(ctx, "rock") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()

			require.Error(t, err)
			assert.True(t, errors.IsBackendUnavailable(err))
			assert.False(t, errors.IsNotFound(err))
			assert.Equal(t, errors.ErrCodeBackendUnavailable, errors.GetCode(err))
		})
	}

	assert.False(t, s.Contains(ctx, "rock"))
}

func TestRemoteStore_CancelledContextIsNotBackendFailure(t *testing.T) {
	client := newMockDDBClient("wikimg-terms")
	client.err = context.Canceled
	s := NewRemoteStore(client, "terms", "wikimg-terms")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Get(ctx, "rock")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.IsBackendUnavailable(err))
}

func TestRemoteStore_MissingTable_IsBackendFailure(t *testing.T) {
	s := NewRemoteStore(newMockDDBClient(), "terms", "wikimg-terms")

	_, err := s.Get(context.Background(), "rock")

	assert.True(t, errors.IsBackendUnavailable(err))
}

func TestRemoteStore_EmptyKey(t *testing.T) {
	ctx := context.Background()
	s := NewRemoteStore(newMockDDBClient("t"), "terms", "t")

	assert.True(t, errors.IsNotFound(func() error { _, err := s.Get(ctx, ""); return err }()))
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(s.Put(ctx, "", "v")))
}

func TestRemoteStore_EmptyValueIsRejectedBeforeTheCall(t *testing.T) {
	// Given: a reachable table
	client := newMockDDBClient("wikimg-terms")
	s := NewRemoteStore(client, "terms", "wikimg-terms")

	// When: adding an empty value to a set
	err := s.Put(context.Background(), "rock", "")

	// Then: it is an input error and DynamoDB is never asked
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
	assert.False(t, errors.IsBackendUnavailable(err))
	assert.Empty(t, client.updates)
}

func TestRemoteStore_EnsureTable_CreatesMissingTable(t *testing.T) {
	// Given: no table exists
	client := newMockDDBClient()
	s := NewRemoteStore(client, "images", "wikimg-images")

	// When: ensuring the table twice
	require.NoError(t, s.EnsureTable(context.Background()))
	require.NoError(t, s.EnsureTable(context.Background()))

	// Then: it was created once and is usable
	assert.Equal(t, 1, client.creates)
	require.NoError(t, s.Put(context.Background(), "k", "v"))
	assert.True(t, s.Contains(context.Background(), "k"))
	assert.Equal(t, "wikimg-images", s.Table())
}
