// Package mocks provides test doubles for the rcsb client.
package mocks

import (
	"context"

	rcsb "github.com/sells-group/bestres/pkg/rcsb"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// FetchEntries provides a mock function with given fields: ctx, ids
func (_m *MockClient) FetchEntries(ctx context.Context, ids []string) (map[string]rcsb.Entry, error) {
	ret := _m.Called(ctx, ids)

	if len(ret) == 0 {
		panic("no return value specified for FetchEntries")
	}

	var r0 map[string]rcsb.Entry
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []string) (map[string]rcsb.Entry, error)); ok {
		return rf(ctx, ids)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []string) map[string]rcsb.Entry); ok {
		r0 = rf(ctx, ids)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(map[string]rcsb.Entry)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, []string) error); ok {
		r1 = rf(ctx, ids)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// StructureURL provides a mock function with given fields: id
func (_m *MockClient) StructureURL(id string) string {
	ret := _m.Called(id)

	if len(ret) == 0 {
		panic("no return value specified for StructureURL")
	}

	var r0 string
	if rf, ok := ret.Get(0).(func(string) string); ok {
		r0 = rf(id)
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
