// Package mocks provides shared test doubles for gateway and event bus.
package mocks

import (
	"context"
	"sync"

	"github.com/prodflow/prodflow/pkg/eventbus"
	"github.com/prodflow/prodflow/pkg/events"
	"github.com/prodflow/prodflow/pkg/gateway"
	"github.com/stretchr/testify/mock"
)

// StubGateway returns scripted responses in order. When the script is
// exhausted the last response repeats, which lets tests simulate a model that
// never stops requesting tools.
type StubGateway struct {
	mu        sync.Mutex
	responses []*gateway.ChatResponse
	err       error

	Calls    int
	Requests []gateway.ChatRequest
}

func NewStubGateway(responses ...*gateway.ChatResponse) *StubGateway {
	return &StubGateway{responses: responses}
}

// Fail makes every Complete call return err instead of a response.
func (s *StubGateway) Fail(err error) *StubGateway {
	s.err = err

	return s
}

func (s *StubGateway) Complete(_ context.Context, request gateway.ChatRequest) (*gateway.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, request)
	s.Calls++

	if s.err != nil {
		return nil, s.err
	}

	index := s.Calls - 1
	if index >= len(s.responses) {
		index = len(s.responses) - 1
	}

	return s.responses[index], nil
}

// MockEventBus is a testify mock of eventbus.EventBus.
type MockEventBus struct {
	mock.Mock
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	args := m.Called(ctx, key, event)

	return args.Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	args := m.Called(eventType, handler)

	return args.Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockEventBus) Close() error {
	args := m.Called()

	return args.Error(0)
}

func (m *MockEventBus) GenerateID() string {
	args := m.Called()

	return args.String(0)
}
