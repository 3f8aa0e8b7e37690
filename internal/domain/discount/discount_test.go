package discount

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	rules map[string]*Rule
	err   error
}

func (m *mockRepo) FindByProduct(_ context.Context, productName string) (*Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	rule, ok := m.rules[productName]
	if !ok {
		return nil, ErrNoDiscount
	}
	return rule, nil
}

func TestApply(t *testing.T) {
	repo := &mockRepo{rules: map[string]*Rule{
		"IPhone X":   {ProductName: "IPhone X", Amount: decimal.NewFromInt(150), Description: "IPhone discount"},
		"Samsung 10": {ProductName: "Samsung 10", Amount: decimal.NewFromInt(100), Description: "Samsung discount"},
	}}
	applier := NewRepoApplier(repo)

	prices, err := applier.Apply(context.Background(), []Item{
		{ProductName: "IPhone X", Price: decimal.NewFromInt(650)},
		{ProductName: "Samsung 10", Price: decimal.NewFromInt(500)},
		{ProductName: "Huawei Plus", Price: decimal.NewFromInt(300)},
	})
	require.NoError(t, err)
	require.Len(t, prices, 3)

	assert.True(t, prices[0].Equal(decimal.NewFromInt(500)), "expected 500, got %s", prices[0])
	assert.True(t, prices[1].Equal(decimal.NewFromInt(400)))
	// No rule: price unchanged.
	assert.True(t, prices[2].Equal(decimal.NewFromInt(300)))
}

func TestApplyNeverGoesNegative(t *testing.T) {
	repo := &mockRepo{rules: map[string]*Rule{
		"Cheap Case": {ProductName: "Cheap Case", Amount: decimal.NewFromInt(150)},
	}}
	applier := NewRepoApplier(repo)

	prices, err := applier.Apply(context.Background(), []Item{
		{ProductName: "Cheap Case", Price: decimal.NewFromInt(20)},
	})
	require.NoError(t, err)
	assert.True(t, prices[0].IsZero())
}

func TestApplyEmptyItems(t *testing.T) {
	applier := NewRepoApplier(&mockRepo{})

	prices, err := applier.Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestApplyRepositoryFailure(t *testing.T) {
	repo := &mockRepo{err: errors.New("connection refused")}
	applier := NewRepoApplier(repo)

	_, err := applier.Apply(context.Background(), []Item{
		{ProductName: "IPhone X", Price: decimal.NewFromInt(650)},
	})
	assert.Error(t, err)
}
