package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ticketdash/internal/store"
)

// MockStore is a testify mock of store.Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, d *store.Dataset) (bool, error) {
	args := m.Called(ctx, d)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, id string) (*store.Dataset, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*store.Dataset)
	return d, args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Close() error {
	return m.Called().Error(0)
}
