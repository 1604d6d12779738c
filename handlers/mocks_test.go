package handlers

import (
	"context"

	"github.com/devfolio/portfolio-backend/services"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/stretchr/testify/mock"
)

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendContactEmail(ctx context.Context, msg *types.ContactMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

type MockContactStore struct {
	mock.Mock
}

func (m *MockContactStore) SaveMessage(ctx context.Context, msg *types.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockContactStore) GetMessage(ctx context.Context, id string) (*types.ContactMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ContactMessage), args.Error(1)
}

func (m *MockContactStore) ListMessages(ctx context.Context, limit, offset int) ([]*types.ContactMessage, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.ContactMessage), args.Error(1)
}

// inlineJobs runs jobs synchronously so archive effects are visible as
// soon as the handler returns.
type inlineJobs struct {
	reject    bool
	submitted []string
}

func (j *inlineJobs) Submit(job services.Job) bool {
	if j.reject {
		return false
	}
	j.submitted = append(j.submitted, job.Name)
	_ = job.Execute(context.Background())
	return true
}

type stubHealth struct {
	check types.HealthCheck
}

func (s stubHealth) CheckHealth(ctx context.Context) types.HealthCheck {
	return s.check
}
