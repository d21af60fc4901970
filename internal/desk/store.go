// Package desk is the client side of the voucher workflow: a cache of the
// voucher list and summary, and the actions a clerk performs against the
// voucher service.
package desk

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/medcenter/hms-vouchers/internal/domain/entity"
	"github.com/medcenter/hms-vouchers/internal/domain/workflow"
)

// VoucherAPI is the remote voucher service. *hmsclient.Client implements it.
type VoucherAPI interface {
	ListVouchers(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error)
	VoucherSummary(ctx context.Context) (*entity.VoucherSummary, error)
	GetVoucher(ctx context.Context, id int64) (*entity.Voucher, error)
	CreateVoucher(ctx context.Context, draft entity.VoucherDraft) (*entity.Voucher, error)
	TransitionVoucher(ctx context.Context, id int64, trigger workflow.Trigger) (string, error)
}

// Store caches the last voucher listing and summary fetched from the service
type Store struct {
	api    VoucherAPI
	logger *zap.Logger

	mu       sync.RWMutex
	filter   entity.VoucherFilter
	vouchers []*entity.Voucher
	summary  *entity.VoucherSummary
}

// NewStore creates an empty store
func NewStore(api VoucherAPI, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{api: api, logger: logger}
}

// List fetches the vouchers matching filter, caches them and remembers the
// filter for Refresh. The cache is left alone on failure.
func (s *Store) List(ctx context.Context, filter entity.VoucherFilter) ([]*entity.Voucher, error) {
	vouchers, err := s.api.ListVouchers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}

	s.mu.Lock()
	s.filter = filter
	s.vouchers = vouchers
	s.mu.Unlock()

	return copyVouchers(vouchers), nil
}

// Summary fetches and caches the voucher summary
func (s *Store) Summary(ctx context.Context) (*entity.VoucherSummary, error) {
	summary, err := s.api.VoucherSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("voucher summary: %w", err)
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	copied := *summary
	return &copied, nil
}

// Refresh re-runs the last listing and the summary, replacing both or neither
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	filter := s.filter
	s.mu.RUnlock()

	vouchers, err := s.api.ListVouchers(ctx, filter)
	if err != nil {
		return fmt.Errorf("refresh vouchers: %w", err)
	}
	summary, err := s.api.VoucherSummary(ctx)
	if err != nil {
		return fmt.Errorf("refresh summary: %w", err)
	}

	s.mu.Lock()
	s.vouchers = vouchers
	s.summary = summary
	s.mu.Unlock()

	s.logger.Debug("Voucher cache refreshed", zap.Int("vouchers", len(vouchers)))
	return nil
}

// Vouchers returns the cached listing
func (s *Store) Vouchers() []*entity.Voucher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyVouchers(s.vouchers)
}

// LastSummary returns the cached summary, or nil before the first fetch
func (s *Store) LastSummary() *entity.VoucherSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil
	}
	copied := *s.summary
	return &copied
}

// Filter returns the filter Refresh will use
func (s *Store) Filter() entity.VoucherFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

func copyVouchers(vouchers []*entity.Voucher) []*entity.Voucher {
	out := make([]*entity.Voucher, len(vouchers))
	for i, v := range vouchers {
		copied := *v
		out[i] = &copied
	}
	return out
}
