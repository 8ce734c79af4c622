package services

import (
	"context"
	"database/sql/driver"
	"strings"

	"github.com/novelnest/backend/internal/paystack"
	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paystack.InitializeResult), args.Error(1)
}

// prefixArg matches a string SQL argument by prefix.
type prefixArg string

func (p prefixArg) Match(v driver.Value) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, string(p)) && len(s) > len(p)
}
