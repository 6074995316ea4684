package monitor

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"pix-service/internal/config"
	"pix-service/internal/dtos"
	"pix-service/internal/entities"
	internalErrors "pix-service/internal/errors"
	"pix-service/internal/gateway"

	"golang.org/x/sync/errgroup"
)

type StatusQuerier interface {
	QueryStatus(ctx context.Context, transactionID string) (*gateway.StatusResult, error)
}

type Publisher interface {
	Publish(ctx context.Context, e dtos.ChargeEvent)
}

type Options struct {
	Interval    time.Duration
	MaxAttempts int
	Concurrency int
}

// Monitor owns the charges still waiting for payment. Each Tick polls the
// gateway for every pending charge, confirming paid ones and expiring those
// that ran out of attempts. Removal from the registry is the only path to a
// terminal state, so a charge is confirmed or expired at most once.
type Monitor struct {
	mu      sync.Mutex
	pending map[string]*entities.Charge

	gateway   StatusQuerier
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	now       func() time.Time

	ticking atomic.Bool
	active  atomic.Bool
}

func New(gw StatusQuerier, publisher Publisher, opts Options, logger *slog.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = int(config.MonitorHorizon / opts.Interval)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	return &Monitor{
		pending:   make(map[string]*entities.Charge),
		gateway:   gw,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Register starts monitoring charge. The registry keeps its own copy.
func (m *Monitor) Register(charge *entities.Charge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.pending[charge.TransactionID]; exists {
		return internalErrors.ErrChargeAlreadyPending
	}

	c := *charge
	c.Status = entities.StatusCreated
	c.PollAttempts = 0
	m.pending[c.TransactionID] = &c

	m.logger.Info("charge registered for monitoring",
		"transaction_id", c.TransactionID,
		"lead", c.LeadNumber,
		"pending", len(m.pending),
	)
	return nil
}

// Pending returns a copy of the pending charge, if any.
func (m *Monitor) Pending(transactionID string) (entities.Charge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.pending[transactionID]
	if !ok {
		return entities.Charge{}, false
	}
	return *c, true
}

// Tick runs one scan over the registry. A Tick started while another is
// still running returns immediately.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.ticking.CompareAndSwap(false, true) {
		m.logger.Warn("previous monitor tick still running, skipping")
		return
	}
	defer m.ticking.Store(false)

	toQuery, expired := m.advanceAttempts()

	for _, c := range expired {
		m.logger.Info("charge expired after max attempts",
			"transaction_id", c.TransactionID,
			"lead", c.LeadNumber,
			"attempts", c.PollAttempts,
		)
	}

	if len(toQuery) == 0 {
		return
	}
	m.logger.Debug("checking pending charges", "count", len(toQuery))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for _, c := range toQuery {
		g.Go(func() error {
			m.check(gctx, c)
			return nil
		})
	}
	_ = g.Wait()
}

// advanceAttempts bumps every pending charge's poll counter under the lock,
// removing the ones over budget. It returns snapshots of the charges still
// worth querying and of the expired ones.
func (m *Monitor) advanceAttempts() (toQuery []entities.Charge, expired []entities.Charge) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, c := range m.pending {
		c.PollAttempts++
		if c.PollAttempts > m.opts.MaxAttempts {
			delete(m.pending, id)
			c.Status = entities.StatusExpired
			expired = append(expired, *c)
			continue
		}
		toQuery = append(toQuery, *c)
	}
	return toQuery, expired
}

func (m *Monitor) check(ctx context.Context, c entities.Charge) {
	status, err := m.gateway.QueryStatus(ctx, c.TransactionID)
	if err != nil {
		m.logger.Error("failed to query charge status",
			"transaction_id", c.TransactionID,
			"attempt", c.PollAttempts,
			"error", err,
		)
		return
	}

	if status.Status != config.StatusPaid {
		if c.PollAttempts%config.MonitorProgressEvery == 0 {
			m.logger.Info("charge still waiting for payment",
				"transaction_id", c.TransactionID,
				"lead", c.LeadNumber,
				"attempt", c.PollAttempts,
				"gateway_status", status.Status,
			)
		}
		return
	}

	m.confirm(ctx, c.TransactionID, status.Status)
}

// Confirm marks a pending charge as paid, typically from a gateway callback.
// It reports whether this call performed the confirmation.
func (m *Monitor) Confirm(ctx context.Context, transactionID string) bool {
	return m.confirm(ctx, transactionID, config.StatusPaid)
}

func (m *Monitor) confirm(ctx context.Context, transactionID, gatewayStatus string) bool {
	charge, ok := m.remove(transactionID)
	if !ok {
		return false
	}

	charge.Status = entities.StatusConfirmed
	charge.GatewayStatus = gatewayStatus
	charge.ConfirmedAt = m.now().UTC()

	m.logger.Info("payment confirmed",
		"transaction_id", charge.TransactionID,
		"lead", charge.LeadNumber,
		"amount", charge.Amount,
		"attempts", charge.PollAttempts,
	)

	m.publisher.Publish(ctx, ConfirmedEvent(charge))
	return true
}

func (m *Monitor) remove(transactionID string) (entities.Charge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.pending[transactionID]
	if !ok {
		return entities.Charge{}, false
	}
	delete(m.pending, transactionID)
	return *c, true
}

func (m *Monitor) setActive(active bool) {
	m.active.Store(active)
}

// Status is a read-only snapshot of the registry.
func (m *Monitor) Status() entities.MonitorStatus {
	m.mu.Lock()
	items := make([]entities.PendingCharge, 0, len(m.pending))
	for _, c := range m.pending {
		items = append(items, entities.PendingCharge{
			TransactionID: c.TransactionID,
			LeadNumber:    c.LeadNumber,
			Amount:        c.Amount,
			CreatedAt:     c.CreatedAt,
			PollAttempts:  c.PollAttempts,
		})
	}
	m.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	return entities.MonitorStatus{
		Active:       m.active.Load(),
		Pending:      len(items),
		Interval:     m.opts.Interval,
		MaxAttempts:  m.opts.MaxAttempts,
		PendingItems: items,
	}
}

func ConfirmedEvent(c entities.Charge) dtos.ChargeEvent {
	return dtos.ChargeEvent{
		Type:           dtos.EventChargeConfirmed,
		Status:         string(c.Status),
		TransactionID:  c.TransactionID,
		CorrelationRef: c.CorrelationRef,
		LeadNumber:     c.LeadNumber,
		Amount:         c.Amount,
		PaymentCode:    c.PaymentCode,
		QRCodeURL:      c.QRCodeURL,
		CustomerName:   c.CustomerName,
		CustomerEmail:  c.CustomerEmail,
		CreatedAt:      c.CreatedAt,
		ExpiresAt:      c.ExpiresAt,
		ConfirmedAt:    c.ConfirmedAt,
	}
}
