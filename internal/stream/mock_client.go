package stream

import (
	"fmt"
	"sync"
	"time"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockStreamClient is a mock implementation of StreamClientInterface for testing.
// It allows configuring responses per method and tracks all calls for assertions.
type MockStreamClient struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides - set these to customize behavior
	CreateUserFunc            func(userID, username string) error
	CreateTokenFunc           func(userID string, expiration time.Time) (string, error)
	AddShareActivityFunc      func(actorID string, activity *ShareActivity) error
	AddRepostActivityFunc     func(actorID string, activity *RepostActivity) error
	DeleteShareActivityFunc   func(actorID, activityID string) error
	NotifyShareFunc           func(actorUserID, targetUserID, contentID, shareKind string) error
	GetNotificationsFunc      func(userID string, limit, offset int) (*NotificationResponse, error)
	GetNotificationCountsFunc func(userID string) (unseen, unread int, err error)
	MarkNotificationsReadFunc func(userID string) error
	MarkNotificationsSeenFunc func(userID string) error
	GetUserSharesFunc         func(userID string, limit, offset int) ([]*ShareActivity, error)
	GetGlobalSharesFunc       func(limit, offset int) ([]*ShareActivity, error)

	// Default responses for simple cases
	DefaultError error
}

// NewMockStreamClient creates a new mock client with sensible defaults
func NewMockStreamClient() *MockStreamClient {
	return &MockStreamClient{
		Calls: make([]MockCall, 0),
	}
}

// recordCall records a method call for later assertion
func (m *MockStreamClient) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls (thread-safe)
func (m *MockStreamClient) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// GetCallsForMethod returns calls for a specific method
func (m *MockStreamClient) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// Reset clears all recorded calls
func (m *MockStreamClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// AssertCalled checks if a method was called at least once
func (m *MockStreamClient) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

// AssertNotCalled checks if a method was never called
func (m *MockStreamClient) AssertNotCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) == 0
}

// AssertCallCount checks if a method was called exactly n times
func (m *MockStreamClient) AssertCallCount(method string, count int) bool {
	return len(m.GetCallsForMethod(method)) == count
}

// ============================================================================
// User operations
// ============================================================================

func (m *MockStreamClient) CreateUser(userID, username string) error {
	m.recordCall("CreateUser", userID, username)
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(userID, username)
	}
	return m.DefaultError
}

func (m *MockStreamClient) CreateToken(userID string, expiration time.Time) (string, error) {
	m.recordCall("CreateToken", userID, expiration)
	if m.CreateTokenFunc != nil {
		return m.CreateTokenFunc(userID, expiration)
	}
	if m.DefaultError != nil {
		return "", m.DefaultError
	}
	return fmt.Sprintf("mock-token-%s", userID), nil
}

// ============================================================================
// Share activity operations
// ============================================================================

func (m *MockStreamClient) AddShareActivity(actorID string, activity *ShareActivity) error {
	m.recordCall("AddShareActivity", actorID, activity)
	if m.AddShareActivityFunc != nil {
		return m.AddShareActivityFunc(actorID, activity)
	}
	if m.DefaultError != nil {
		return m.DefaultError
	}
	if activity.ID == "" {
		activity.ID = fmt.Sprintf("mock-activity-%s", activity.ShareID)
	}
	return nil
}

func (m *MockStreamClient) AddRepostActivity(actorID string, activity *RepostActivity) error {
	m.recordCall("AddRepostActivity", actorID, activity)
	if m.AddRepostActivityFunc != nil {
		return m.AddRepostActivityFunc(actorID, activity)
	}
	if m.DefaultError != nil {
		return m.DefaultError
	}
	if activity.ID == "" {
		activity.ID = fmt.Sprintf("mock-repost-%s", activity.ShareID)
	}
	return nil
}

func (m *MockStreamClient) DeleteShareActivity(actorID, activityID string) error {
	m.recordCall("DeleteShareActivity", actorID, activityID)
	if m.DeleteShareActivityFunc != nil {
		return m.DeleteShareActivityFunc(actorID, activityID)
	}
	return m.DefaultError
}

// ============================================================================
// Notification operations
// ============================================================================

func (m *MockStreamClient) NotifyShare(actorUserID, targetUserID, contentID, shareKind string) error {
	m.recordCall("NotifyShare", actorUserID, targetUserID, contentID, shareKind)
	if m.NotifyShareFunc != nil {
		return m.NotifyShareFunc(actorUserID, targetUserID, contentID, shareKind)
	}
	return m.DefaultError
}

func (m *MockStreamClient) GetNotifications(userID string, limit, offset int) (*NotificationResponse, error) {
	m.recordCall("GetNotifications", userID, limit, offset)
	if m.GetNotificationsFunc != nil {
		return m.GetNotificationsFunc(userID, limit, offset)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return &NotificationResponse{Groups: []*NotificationGroup{}, Unseen: 0, Unread: 0}, nil
}

func (m *MockStreamClient) GetNotificationCounts(userID string) (unseen, unread int, err error) {
	m.recordCall("GetNotificationCounts", userID)
	if m.GetNotificationCountsFunc != nil {
		return m.GetNotificationCountsFunc(userID)
	}
	return 0, 0, m.DefaultError
}

func (m *MockStreamClient) MarkNotificationsRead(userID string) error {
	m.recordCall("MarkNotificationsRead", userID)
	if m.MarkNotificationsReadFunc != nil {
		return m.MarkNotificationsReadFunc(userID)
	}
	return m.DefaultError
}

func (m *MockStreamClient) MarkNotificationsSeen(userID string) error {
	m.recordCall("MarkNotificationsSeen", userID)
	if m.MarkNotificationsSeenFunc != nil {
		return m.MarkNotificationsSeenFunc(userID)
	}
	return m.DefaultError
}

// ============================================================================
// Feed reads
// ============================================================================

func (m *MockStreamClient) GetUserShares(userID string, limit, offset int) ([]*ShareActivity, error) {
	m.recordCall("GetUserShares", userID, limit, offset)
	if m.GetUserSharesFunc != nil {
		return m.GetUserSharesFunc(userID, limit, offset)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return []*ShareActivity{}, nil
}

func (m *MockStreamClient) GetGlobalShares(limit, offset int) ([]*ShareActivity, error) {
	m.recordCall("GetGlobalShares", limit, offset)
	if m.GetGlobalSharesFunc != nil {
		return m.GetGlobalSharesFunc(limit, offset)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return []*ShareActivity{}, nil
}

// Ensure MockStreamClient implements StreamClientInterface
var _ StreamClientInterface = (*MockStreamClient)(nil)
