package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pix-service/internal/dtos"
	"pix-service/internal/entities"
	internalErrors "pix-service/internal/errors"
	"pix-service/internal/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	statuses map[string]string
	failing  map[string]bool
	calls    map[string]int
	delay    time.Duration
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		statuses: map[string]string{},
		failing:  map[string]bool{},
		calls:    map[string]int{},
	}
}

func (f *fakeGateway) set(id, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
}

func (f *fakeGateway) callsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeGateway) QueryStatus(ctx context.Context, id string) (*gateway.StatusResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[id]++
	if f.failing[id] {
		return nil, internalErrors.New(internalErrors.KindTransientNetwork, "boom")
	}
	status, ok := f.statuses[id]
	if !ok {
		status = "PENDING"
	}
	return &gateway.StatusResult{TransactionID: id, Status: status}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []dtos.ChargeEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, e dtos.ChargeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) all() []dtos.ChargeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dtos.ChargeEvent(nil), p.events...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMonitor(gw StatusQuerier, maxAttempts int) (*Monitor, *recordingPublisher) {
	pub := &recordingPublisher{}
	m := New(gw, pub, Options{Interval: time.Second, MaxAttempts: maxAttempts, Concurrency: 4}, testLogger())
	return m, pub
}

func charge(id string) *entities.Charge {
	return &entities.Charge{
		TransactionID: id,
		Amount:        12.90,
		LeadNumber:    "5511",
		CreatedAt:     time.Now(),
		Status:        entities.StatusCreated,
	}
}

func TestRegister(t *testing.T) {
	m, _ := newTestMonitor(newFakeGateway(), 10)

	require.NoError(t, m.Register(charge("tx-1")))

	c, ok := m.Pending("tx-1")
	require.True(t, ok)
	assert.Equal(t, entities.StatusCreated, c.Status)
	assert.Equal(t, 0, c.PollAttempts)

	err := m.Register(charge("tx-1"))
	assert.ErrorIs(t, err, internalErrors.ErrChargeAlreadyPending)
	assert.Equal(t, 1, m.Status().Pending)
}

func TestTick_ConfirmsPaidCharge(t *testing.T) {
	gw := newFakeGateway()
	m, pub := newTestMonitor(gw, 10)
	require.NoError(t, m.Register(charge("tx-1")))

	m.Tick(context.Background())
	c, ok := m.Pending("tx-1")
	require.True(t, ok)
	assert.Equal(t, 1, c.PollAttempts)
	assert.Empty(t, pub.all())

	gw.set("tx-1", "COMPLETED")
	m.Tick(context.Background())

	_, ok = m.Pending("tx-1")
	assert.False(t, ok)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, dtos.EventChargeConfirmed, events[0].Type)
	assert.Equal(t, "tx-1", events[0].TransactionID)
	assert.Equal(t, string(entities.StatusConfirmed), events[0].Status)
	assert.False(t, events[0].ConfirmedAt.IsZero())

	m.Tick(context.Background())
	assert.Len(t, pub.all(), 1)
}

func TestTick_ExpiresWithoutNotification(t *testing.T) {
	gw := newFakeGateway()
	m, pub := newTestMonitor(gw, 2)
	require.NoError(t, m.Register(charge("tx-1")))

	m.Tick(context.Background())
	m.Tick(context.Background())
	_, ok := m.Pending("tx-1")
	require.True(t, ok)

	m.Tick(context.Background())
	_, ok = m.Pending("tx-1")
	assert.False(t, ok)
	assert.Empty(t, pub.all())
	assert.Equal(t, 2, gw.callsFor("tx-1"))
}

func TestTick_QueryErrorDoesNotAffectOthers(t *testing.T) {
	gw := newFakeGateway()
	gw.failing["tx-bad"] = true
	gw.set("tx-good", "COMPLETED")

	m, pub := newTestMonitor(gw, 10)
	require.NoError(t, m.Register(charge("tx-bad")))
	require.NoError(t, m.Register(charge("tx-good")))

	m.Tick(context.Background())

	_, ok := m.Pending("tx-bad")
	assert.True(t, ok)
	_, ok = m.Pending("tx-good")
	assert.False(t, ok)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, "tx-good", events[0].TransactionID)
}

func TestConfirm_OnlyOnce(t *testing.T) {
	gw := newFakeGateway()
	gw.set("tx-1", "COMPLETED")
	m, pub := newTestMonitor(gw, 10)
	require.NoError(t, m.Register(charge("tx-1")))

	var confirmed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if m.Confirm(context.Background(), "tx-1") {
				confirmed.Add(1)
			}
		}()
		go func() {
			defer wg.Done()
			m.Tick(context.Background())
		}()
	}
	wg.Wait()

	assert.Len(t, pub.all(), 1)
	assert.LessOrEqual(t, confirmed.Load(), int32(1))
	assert.Equal(t, 0, m.Status().Pending)
}

func TestConfirm_UnknownTransaction(t *testing.T) {
	m, pub := newTestMonitor(newFakeGateway(), 10)
	assert.False(t, m.Confirm(context.Background(), "missing"))
	assert.Empty(t, pub.all())
}

func TestTick_SkipsWhenPreviousStillRunning(t *testing.T) {
	gw := newFakeGateway()
	gw.delay = 100 * time.Millisecond
	m, _ := newTestMonitor(gw, 10)
	require.NoError(t, m.Register(charge("tx-1")))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); m.Tick(context.Background()) }()
	time.Sleep(20 * time.Millisecond)
	go func() { defer wg.Done(); m.Tick(context.Background()) }()
	wg.Wait()

	c, ok := m.Pending("tx-1")
	require.True(t, ok)
	assert.Equal(t, 1, c.PollAttempts)
	assert.Equal(t, 1, gw.callsFor("tx-1"))
}

func TestStatus(t *testing.T) {
	m, _ := newTestMonitor(newFakeGateway(), 10)

	first := charge("tx-1")
	first.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, m.Register(charge("tx-2")))
	require.NoError(t, m.Register(first))

	status := m.Status()
	assert.False(t, status.Active)
	assert.Equal(t, 2, status.Pending)
	assert.Equal(t, time.Second, status.Interval)
	assert.Equal(t, 10, status.MaxAttempts)
	require.Len(t, status.PendingItems, 2)
	assert.Equal(t, "tx-1", status.PendingItems[0].TransactionID)
}

func TestNew_DerivesMaxAttemptsFromHorizon(t *testing.T) {
	m := New(newFakeGateway(), &recordingPublisher{}, Options{Interval: 15 * time.Second}, testLogger())
	assert.Equal(t, 5760, m.opts.MaxAttempts)
}

func TestScheduler_TicksUntilStopped(t *testing.T) {
	gw := newFakeGateway()
	gw.set("tx-1", "COMPLETED")
	m, pub := newTestMonitor(gw, 10)
	require.NoError(t, m.Register(charge("tx-1")))

	s := NewScheduler(m, testLogger())
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, m.Status().Active)

	assert.Eventually(t, func() bool {
		return len(pub.all()) == 1
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.False(t, m.Status().Active)
}

func TestScheduler_StopBeforeStart(t *testing.T) {
	m, _ := newTestMonitor(newFakeGateway(), 10)
	s := NewScheduler(m, testLogger())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopTimeoutCancelsTick(t *testing.T) {
	m, _ := newTestMonitor(blockingGateway{}, 10)
	require.NoError(t, m.Register(charge("tx-1")))

	s := NewScheduler(m, testLogger())
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return m.ticking.Load()
	}, 3*time.Second, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := s.Stop(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type blockingGateway struct{}

func (blockingGateway) QueryStatus(ctx context.Context, id string) (*gateway.StatusResult, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
