package testutil

import (
	"fmt"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"nonomi/internal/status/interfaces"
	"strings"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Contains reports whether any message at level contains substr.
func (m *MockLogger) Contains(level, substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Logs {
		if e.Level == level && strings.Contains(fmt.Sprintf(e.Format, e.Args...), substr) {
			return true
		}
	}
	return false
}

// MockMetrics implements providers.MetricsProviderInterface with counters.
type MockMetrics struct {
	mu            sync.Mutex
	Polls         map[string]int
	StatusUpdates int
	StaleStatus   int
	LastTimestamp int64
	Effects       map[string]int
	Subscribers   int
	CacheHits     map[string]int
	CacheMisses   map[string]int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) ObservePollDuration(_ time.Duration)              {}

func (m *MockMetrics) IncCacheHits(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CacheHits == nil {
		m.CacheHits = make(map[string]int)
	}
	m.CacheHits[namespace]++
}

func (m *MockMetrics) IncCacheMisses(namespace string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CacheMisses == nil {
		m.CacheMisses = make(map[string]int)
	}
	m.CacheMisses[namespace]++
}

func (m *MockMetrics) IncPolls(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Polls == nil {
		m.Polls = make(map[string]int)
	}
	m.Polls[result]++
}

func (m *MockMetrics) IncStatusUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusUpdates++
}

func (m *MockMetrics) IncStaleStatus() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaleStatus++
}

func (m *MockMetrics) SetLastStatusTimestamp(ts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastTimestamp = ts
}

func (m *MockMetrics) IncDispatchEffect(effect string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Effects == nil {
		m.Effects = make(map[string]int)
	}
	m.Effects[effect]++
}

func (m *MockMetrics) SetFeedSubscribers(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscribers = count
}

func (m *MockMetrics) PollCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Polls[result]
}

func (m *MockMetrics) EffectCount(effect string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Effects[effect]
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockPublisher collects published feed events.
type MockPublisher struct {
	mu     sync.Mutex
	Events []models.FeedEvent
}

func (m *MockPublisher) Publish(ev models.FeedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
}

func (m *MockPublisher) Subscribers() int { return 0 }

func (m *MockPublisher) OfType(t models.FeedEventType) []models.FeedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FeedEvent
	for _, ev := range m.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (m *MockMetrics) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Subscribers
}

// MockPoller implements interfaces.PollerInterface with settable state.
type MockPoller struct {
	mu        sync.Mutex
	Rec       *models.StatusRecord
	Err       error
	Ts        int64
	IsRunning bool
	Starts    int
	Stops     int
	Updates   []interfaces.UpdateHandler
	Errors    []interfaces.ErrorHandler
	Recovers  []interfaces.RecoverHandler
}

func (m *MockPoller) StartPolling() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts++
	m.IsRunning = true
}

func (m *MockPoller) StopPolling() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stops++
	m.IsRunning = false
}

func (m *MockPoller) OnUpdate(h interfaces.UpdateHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates = append(m.Updates, h)
}

func (m *MockPoller) OnError(h interfaces.ErrorHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, h)
}

func (m *MockPoller) OnRecover(h interfaces.RecoverHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Recovers = append(m.Recovers, h)
}

func (m *MockPoller) Current() *models.StatusRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Rec
}

func (m *MockPoller) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}

func (m *MockPoller) LastTimestamp() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Ts
}

func (m *MockPoller) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.IsRunning
}

// Emit runs the registered update handlers with rec.
func (m *MockPoller) Emit(rec *models.StatusRecord) {
	m.mu.Lock()
	handlers := append([]interfaces.UpdateHandler(nil), m.Updates...)
	m.mu.Unlock()
	for _, h := range handlers {
		h(rec)
	}
}

// Fail runs the registered error handlers with err.
func (m *MockPoller) Fail(err error) {
	m.mu.Lock()
	handlers := append([]interfaces.ErrorHandler(nil), m.Errors...)
	m.mu.Unlock()
	for _, h := range handlers {
		h(err)
	}
}

// Recover runs the registered recover handlers.
func (m *MockPoller) Recover() {
	m.mu.Lock()
	handlers := append([]interfaces.RecoverHandler(nil), m.Recovers...)
	m.mu.Unlock()
	for _, h := range handlers {
		h()
	}
}
