// Package mocks provides test doubles for the uniprot client.
package mocks

import (
	"context"

	uniprot "github.com/sells-group/bestres/pkg/uniprot"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Entry provides a mock function with given fields: ctx, accession
func (_m *MockClient) Entry(ctx context.Context, accession string) (*uniprot.Entry, error) {
	ret := _m.Called(ctx, accession)

	if len(ret) == 0 {
		panic("no return value specified for Entry")
	}

	var r0 *uniprot.Entry
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*uniprot.Entry, error)); ok {
		return rf(ctx, accession)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *uniprot.Entry); ok {
		r0 = rf(ctx, accession)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*uniprot.Entry)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, accession)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
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
