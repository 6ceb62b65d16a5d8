package chathub_test

import (
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/models"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) FindMembership(userID string, room models.RoomRef) (bool, error) {
	args := m.Called(userID, room)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) ListUndelivered(userID string) ([]models.Message, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) UpdateMessageStatus(ids []string, status models.MessageStatus, ts time.Time) ([]models.Message, error) {
	args := m.Called(ids, status, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) UpdateLastRead(userID string, room models.RoomRef, ts time.Time) error {
	args := m.Called(userID, room, ts)
	return args.Error(0)
}

func (m *MockStorage) SetUserOnline(userID string, online bool, ts time.Time) error {
	args := m.Called(userID, online, ts)
	return args.Error(0)
}

func (m *MockStorage) PublishPresence(payload []byte) error {
	args := m.Called(payload)
	return args.Error(0)
}

func (m *MockStorage) SubscribePresence() <-chan *redis.Message {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(<-chan *redis.Message)
}

// newQuietStorage returns a mock that tolerates the connect/disconnect
// side effects most tests do not care about.
func newQuietStorage() *MockStorage {
	s := new(MockStorage)
	s.On("SetUserOnline", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	s.On("PublishPresence", mock.Anything).Return(nil).Maybe()
	s.On("ListUndelivered", mock.Anything).Return([]models.Message{}, nil).Maybe()
	return s
}

// mockClient is an in-memory Client that records every event sent to it.
type mockClient struct {
	id string

	mu     sync.Mutex
	events []chathub.Event
	closed bool
}

func newMockClient(id string) *mockClient {
	return &mockClient{id: id}
}

func (c *mockClient) UserID() string { return c.id }

func (c *mockClient) TrySend(evt chathub.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return chathub.ErrClientClosed
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *mockClient) Run() {}

func (c *mockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *mockClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// eventsNamed returns all recorded events with the given name.
func (c *mockClient) eventsNamed(name string) []chathub.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []chathub.Event
	for _, evt := range c.events {
		if evt.Name == name {
			out = append(out, evt)
		}
	}
	return out
}

func (c *mockClient) countNamed(name string) int {
	return len(c.eventsNamed(name))
}
