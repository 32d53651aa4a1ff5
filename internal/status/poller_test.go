package status

import (
	"context"
	"errors"
	"nonomi/internal/models"
	"nonomi/internal/providers"
	"nonomi/internal/services"
	"nonomi/internal/structures"
	"nonomi/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetchResult struct {
	rec   *models.StatusRecord
	err   error
	delay time.Duration
	// gate, when set, blocks the fetch until it is closed
	gate chan struct{}
}

// scriptedFetcher returns queued results in order and repeats the last one.
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (f *scriptedFetcher) Fetch(ctx context.Context) (*models.StatusRecord, error) {
	f.mu.Lock()
	var r fetchResult
	if len(f.results) > 0 {
		idx := min(f.calls, len(f.results)-1)
		r = f.results[idx]
	}
	f.calls++
	f.mu.Unlock()

	if r.gate != nil {
		<-r.gate
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.rec == nil {
		return nil, networkError("test://status", errors.New("no scripted result"))
	}
	copied := *r.rec
	return &copied, nil
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func pollerConfig(interval time.Duration) *structures.Config {
	return &structures.Config{
		Poller: structures.PollerConfig{
			Url:      "test://status",
			Interval: interval,
			Timeout:  time.Second,
		},
	}
}

type recorder struct {
	mu      sync.Mutex
	updates []*models.StatusRecord
	errs    []error
}

func (r *recorder) onUpdate(rec *models.StatusRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, rec)
}

func (r *recorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) Updates() []*models.StatusRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.StatusRecord(nil), r.updates...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func newTestPoller(fetcher *scriptedFetcher, interval time.Duration) (*StatusPoller, *recorder, *testutil.MockMetrics) {
	metrics := &testutil.MockMetrics{}
	p := NewStatusPoller(pollerConfig(interval), fetcher, &testutil.MockLogger{}, metrics).(*StatusPoller)
	rec := &recorder{}
	p.OnUpdate(rec.onUpdate)
	p.OnError(rec.onError)
	return p, rec, metrics
}

func TestStatusPoller_DuplicateTimestampFiresOnce(t *testing.T) {
	first := &models.StatusRecord{Timestamp: 100, Action: models.ActionRender, Voice: "http://x/a.mp3", HTML: "<div>1</div>"}
	fetcher := &scriptedFetcher{results: []fetchResult{{rec: first}, {rec: first}}}
	p, rec, metrics := newTestPoller(fetcher, 10*time.Millisecond)

	p.StartPolling()
	require.Eventually(t, func() bool { return fetcher.Calls() >= 3 }, time.Second, 5*time.Millisecond)
	p.StopPolling()

	updates := rec.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, int64(100), updates[0].Timestamp)
	assert.Equal(t, "<div>1</div>", p.Current().HTML)
	assert.GreaterOrEqual(t, metrics.StaleStatus, 1)
	assert.Equal(t, 1, metrics.StatusUpdates)
}

func TestStatusPoller_TimestampsStrictlyIncrease(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{rec: &models.StatusRecord{Timestamp: 5}},
		{rec: &models.StatusRecord{Timestamp: 3}},
		{rec: &models.StatusRecord{Timestamp: 5}},
		{rec: &models.StatusRecord{Timestamp: 9}},
		{rec: &models.StatusRecord{Timestamp: 7}},
		{rec: &models.StatusRecord{Timestamp: 12}},
	}}
	p, rec, _ := newTestPoller(fetcher, 5*time.Millisecond)

	p.StartPolling()
	require.Eventually(t, func() bool { return len(rec.Updates()) == 3 }, time.Second, 5*time.Millisecond)
	p.StopPolling()

	var got []int64
	for _, u := range rec.Updates() {
		got = append(got, u.Timestamp)
	}
	assert.Equal(t, []int64{5, 9, 12}, got)
	assert.Equal(t, int64(12), p.LastTimestamp())
}

func TestStatusPoller_StartTwiceKeepsSingleTimer(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{rec: &models.StatusRecord{Timestamp: 1}}}}
	p, _, _ := newTestPoller(fetcher, time.Hour)

	p.StartPolling()
	p.StartPolling()
	require.Eventually(t, func() bool { return fetcher.Calls() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fetcher.Calls())
	assert.True(t, p.Running())

	p.StopPolling()
	assert.False(t, p.Running())
}

func TestStatusPoller_StopDropsInFlightResult(t *testing.T) {
	gate := make(chan struct{})
	fetcher := &scriptedFetcher{results: []fetchResult{{rec: &models.StatusRecord{Timestamp: 50}, gate: gate}}}
	p, rec, _ := newTestPoller(fetcher, time.Hour)

	p.StartPolling()
	require.Eventually(t, func() bool { return fetcher.Calls() == 1 }, time.Second, 5*time.Millisecond)

	p.StopPolling()
	close(gate)
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, rec.Updates())
	assert.Nil(t, p.Current())
	assert.Equal(t, int64(0), p.LastTimestamp())
}

func TestStatusPoller_LateResponseCannotRegress(t *testing.T) {
	slowGate := make(chan struct{})
	fetcher := &scriptedFetcher{results: []fetchResult{
		{rec: &models.StatusRecord{Timestamp: 10}, gate: slowGate},
		{rec: &models.StatusRecord{Timestamp: 20}},
	}}
	p, rec, _ := newTestPoller(fetcher, 10*time.Millisecond)

	p.StartPolling()
	require.Eventually(t, func() bool { return len(rec.Updates()) == 1 }, time.Second, 5*time.Millisecond)
	close(slowGate)
	time.Sleep(30 * time.Millisecond)
	p.StopPolling()

	updates := rec.Updates()
	require.Len(t, updates, 1)
	assert.Equal(t, int64(20), updates[0].Timestamp)
	assert.Equal(t, int64(20), p.Current().Timestamp)
}

func TestStatusPoller_NetworkErrorSurfacedThenRecovers(t *testing.T) {
	timeout := networkError("test://status", context.DeadlineExceeded)
	fetcher := &scriptedFetcher{results: []fetchResult{
		{err: timeout},
		{rec: &models.StatusRecord{Timestamp: 1}},
	}}
	p, rec, metrics := newTestPoller(fetcher, 20*time.Millisecond)

	p.StartPolling()
	require.Eventually(t, func() bool { return len(rec.Updates()) == 1 }, time.Second, 5*time.Millisecond)
	p.StopPolling()

	errs := rec.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrNetwork)
	assert.ErrorIs(t, errs[0], context.DeadlineExceeded)

	assert.NoError(t, p.LastError())
	assert.Equal(t, 1, metrics.PollCount(providers.PollResultNetworkError))
}

func TestStatusPoller_DecodeErrorKeepsPolling(t *testing.T) {
	_, decodeErr := models.DecodeStatusRecord([]byte("{not json"))
	require.Error(t, decodeErr)

	fetcher := &scriptedFetcher{results: []fetchResult{
		{err: decodeError("test://status", decodeErr)},
		{rec: &models.StatusRecord{Timestamp: 2}},
	}}
	p, rec, metrics := newTestPoller(fetcher, 10*time.Millisecond)

	p.StartPolling()
	require.Eventually(t, func() bool { return len(rec.Updates()) == 1 }, time.Second, 5*time.Millisecond)
	p.StopPolling()

	errs := rec.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrDecode)
	assert.Equal(t, 1, metrics.PollCount(providers.PollResultDecodeError))
}

func TestStatusPoller_HandlersRunInRegistrationOrder(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{rec: &models.StatusRecord{Timestamp: 1}}}}
	p, _, _ := newTestPoller(fetcher, time.Hour)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		p.OnUpdate(func(_ *models.StatusRecord) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
		})
	}

	p.StartPolling()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, 5*time.Millisecond)
	p.StopPolling()

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestStatusPoller_HandlerMayReadState(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{rec: &models.StatusRecord{Timestamp: 4}}}}
	p, _, _ := newTestPoller(fetcher, time.Hour)

	seen := make(chan int64, 1)
	p.OnUpdate(func(_ *models.StatusRecord) {
		seen <- p.Current().Timestamp
	})

	p.StartPolling()
	defer p.StopPolling()

	select {
	case ts := <-seen:
		assert.Equal(t, int64(4), ts)
	case <-time.After(time.Second):
		t.Fatal("handler did not run")
	}
}

func TestStatusPoller_RestartKeepsLastTimestamp(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{rec: &models.StatusRecord{Timestamp: 8}}}}
	p, rec, _ := newTestPoller(fetcher, time.Hour)

	p.StartPolling()
	require.Eventually(t, func() bool { return len(rec.Updates()) == 1 }, time.Second, 5*time.Millisecond)
	p.StopPolling()

	p.StartPolling()
	require.Eventually(t, func() bool { return fetcher.Calls() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	p.StopPolling()

	assert.Len(t, rec.Updates(), 1)
}

func TestStatusPoller_StopWhenIdle(t *testing.T) {
	p, _, _ := newTestPoller(&scriptedFetcher{}, time.Second)
	p.StopPolling()
	assert.False(t, p.Running())
}

func TestStatusPoller_ZeroTimestampNeverAccepted(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{rec: &models.StatusRecord{Timestamp: 0, HTML: "x"}}}}
	p, rec, _ := newTestPoller(fetcher, time.Hour)

	p.StartPolling()
	require.Eventually(t, func() bool { return fetcher.Calls() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	p.StopPolling()

	assert.Empty(t, rec.Updates())
}

func TestStatusPoller_RecoverFiresOnceAfterError(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{rec: &models.StatusRecord{Timestamp: 100}},
		{err: networkError("test://status", context.DeadlineExceeded)},
		{rec: &models.StatusRecord{Timestamp: 100}},
	}}
	p, rec, _ := newTestPoller(fetcher, 5*time.Millisecond)

	var mu sync.Mutex
	recovers := 0
	p.OnRecover(func() {
		mu.Lock()
		defer mu.Unlock()
		recovers++
	})

	p.StartPolling()
	require.Eventually(t, func() bool { return fetcher.Calls() >= 5 }, time.Second, 5*time.Millisecond)
	p.StopPolling()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, recovers)
	assert.Len(t, rec.Updates(), 1)
	assert.Len(t, rec.Errors(), 1)
}

func TestStatusPoller_StaleSuccessClearsServiceError(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{rec: &models.StatusRecord{Timestamp: 100}},
		{err: networkError("test://status", context.DeadlineExceeded)},
		{rec: &models.StatusRecord{Timestamp: 100}},
	}}
	p := NewStatusPoller(pollerConfig(5*time.Millisecond), fetcher, &testutil.MockLogger{}, &testutil.MockMetrics{}).(*StatusPoller)
	service := services.NewStatusService(&testutil.MockPublisher{})
	p.OnUpdate(service.HandleUpdate)
	p.OnError(service.HandleError)
	p.OnRecover(service.HandleRecovered)

	p.StartPolling()
	require.Eventually(t, func() bool { return fetcher.Calls() >= 5 }, time.Second, 5*time.Millisecond)
	p.StopPolling()

	snap := service.Snapshot()
	assert.NoError(t, p.LastError())
	assert.Empty(t, snap.Error)
	assert.Equal(t, uint64(1), snap.Errors)
	assert.Equal(t, int64(100), snap.Status.Timestamp)
}
