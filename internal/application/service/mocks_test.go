package service

import (
	"context"
	"sync"
	"time"

	"github.com/medcenter/hms-vouchers/internal/application/port"
	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/event"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// memoryVoucherRepo keeps vouchers in a map and honours the status guard
type memoryVoucherRepo struct {
	vouchers  map[int64]*entity.Voucher
	nextID    int64
	sequences map[string]int

	listFunc    func(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error)
	summaryFunc func(ctx context.Context) (*entity.VoucherSummary, error)
	updates     []port.StatusChange
}

func newMemoryVoucherRepo(vouchers ...*entity.Voucher) *memoryVoucherRepo {
	repo := &memoryVoucherRepo{
		vouchers:  make(map[int64]*entity.Voucher),
		sequences: make(map[string]int),
	}
	for _, v := range vouchers {
		copied := *v
		repo.vouchers[v.ID] = &copied
		if v.ID > repo.nextID {
			repo.nextID = v.ID
		}
	}
	return repo
}

func (m *memoryVoucherRepo) Create(ctx context.Context, voucher *entity.Voucher) error {
	m.nextID++
	voucher.ID = m.nextID
	copied := *voucher
	m.vouchers[voucher.ID] = &copied
	return nil
}

func (m *memoryVoucherRepo) GetByID(ctx context.Context, id int64) (*entity.Voucher, error) {
	v, ok := m.vouchers[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (m *memoryVoucherRepo) List(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	var out []*entity.Voucher
	for _, v := range m.vouchers {
		out = append(out, v)
	}
	return out, nil
}

func (m *memoryVoucherRepo) Summary(ctx context.Context) (*entity.VoucherSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx)
	}
	return &entity.VoucherSummary{TotalVouchers: len(m.vouchers)}, nil
}

func (m *memoryVoucherRepo) UpdateStatus(ctx context.Context, change port.StatusChange) error {
	v, ok := m.vouchers[change.VoucherID]
	if !ok {
		return entity.ErrNotFound
	}
	if v.Status != change.From {
		return workflow.ErrInvalidTransition
	}
	v.Status = change.To
	m.updates = append(m.updates, change)
	return nil
}

func (m *memoryVoucherRepo) Delete(ctx context.Context, id int64, from workflow.State) error {
	v, ok := m.vouchers[id]
	if !ok {
		return entity.ErrNotFound
	}
	if v.Status != from {
		return workflow.ErrInvalidTransition
	}
	delete(m.vouchers, id)
	return nil
}

func (m *memoryVoucherRepo) NextSequence(ctx context.Context, day entity.Date) (int, error) {
	m.sequences[day.String()]++
	return m.sequences[day.String()], nil
}

type mockDoctorRepo struct {
	doctors map[string]*entity.Doctor
}

func (m *mockDoctorRepo) GetByID(ctx context.Context, doctorID string) (*entity.Doctor, error) {
	d, ok := m.doctors[doctorID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return d, nil
}

func (m *mockDoctorRepo) List(ctx context.Context) ([]*entity.Doctor, error) {
	var out []*entity.Doctor
	for _, d := range m.doctors {
		out = append(out, d)
	}
	return out, nil
}

type mockHistoryRepo struct {
	entries   []*entity.VoucherHistory
	createErr error
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.VoucherHistory) error {
	if m.createErr != nil {
		return m.createErr
	}
	history.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, history)
	return nil
}

func (m *mockHistoryRepo) ListByVoucherID(ctx context.Context, voucherID int64) ([]*entity.VoucherHistory, error) {
	var out []*entity.VoucherHistory
	for _, h := range m.entries {
		if h.VoucherID == voucherID {
			out = append(out, h)
		}
	}
	return out, nil
}

// mockTxManager runs fn directly; it does not roll anything back
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (p *recordingPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type mockRenderer struct {
	renderFunc func(ctx context.Context, vouchers []*entity.Voucher, generatedAt time.Time) ([]byte, error)
}

func (m *mockRenderer) Render(ctx context.Context, vouchers []*entity.Voucher, generatedAt time.Time) ([]byte, error) {
	return m.renderFunc(ctx, vouchers, generatedAt)
}

type mockMessenger struct {
	sendFunc func(ctx context.Context, chatID, text string) error
	sent     map[string][]string
}

func (m *mockMessenger) SendText(ctx context.Context, chatID, text string) error {
	if m.sendFunc != nil {
		if err := m.sendFunc(ctx, chatID, text); err != nil {
			return err
		}
	}
	if m.sent == nil {
		m.sent = make(map[string][]string)
	}
	m.sent[chatID] = append(m.sent[chatID], text)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
