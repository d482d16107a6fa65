package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/pagination"
)

// RecentlyAddedWindow is how far back Stats counts newly created items.
const RecentlyAddedWindow = 30 * 24 * time.Hour

// Stats is the dashboard summary.
type Stats struct {
	TotalItems    int64 `json:"totalItems"`
	LowStockCount int64 `json:"lowStockCount"`
	RecentlyAdded int64 `json:"recentlyAdded"`
	OutOfStock    int64 `json:"outOfStock"`
	ExpiringSoon  int64 `json:"expiringSoon"`
}

// ExpiringItemDTO is an item plus the number of days left before it expires.
type ExpiringItemDTO struct {
	inventory.ItemDTO
	DaysUntilExpiration int `json:"daysUntilExpiration"`
}

// ExpiringList is the envelope for unpaginated expiration alerts.
type ExpiringList struct {
	Items []ExpiringItemDTO `json:"items"`
	Total int               `json:"total"`
}

// Service aggregates read-only inventory views.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	LowStockItems(ctx context.Context, page, limit int) (*inventory.ItemListResult, error)
	OutOfStockItems(ctx context.Context, page, limit int) (*inventory.ItemListResult, error)
	SoonToExpireItems(ctx context.Context) (*ExpiringList, error)
	CriticalExpirationItems(ctx context.Context) (*ExpiringList, error)
}

type itemReader interface {
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status enums.StockStatus) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountExpiringIn(ctx context.Context, w inventory.DateWindow) (int64, error)
	List(ctx context.Context, filters inventory.ListFilters, params pagination.Params, asOf time.Time) ([]models.InventoryItem, int64, error)
	ListExpiringIn(ctx context.Context, w inventory.DateWindow) ([]models.InventoryItem, error)
}

type service struct {
	repo itemReader
	now  func() time.Time
}

// NewService builds the aggregator over the inventory repository. now may be nil.
func NewService(repo itemReader, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	var (
		stats Stats
		err   error
	)
	if stats.TotalItems, err = s.repo.CountAll(ctx); err != nil {
		return nil, pkgerrors.Storage(err, "db: count items")
	}
	if stats.LowStockCount, err = s.repo.CountByStatus(ctx, enums.StockStatusLowStock); err != nil {
		return nil, pkgerrors.Storage(err, "db: count low stock")
	}
	if stats.OutOfStock, err = s.repo.CountByStatus(ctx, enums.StockStatusOutOfStock); err != nil {
		return nil, pkgerrors.Storage(err, "db: count out of stock")
	}
	if stats.RecentlyAdded, err = s.repo.CountCreatedSince(ctx, now.Add(-RecentlyAddedWindow)); err != nil {
		return nil, pkgerrors.Storage(err, "db: count recently added")
	}
	if stats.ExpiringSoon, err = s.repo.CountExpiringIn(ctx, inventory.ExpiringWindow(now)); err != nil {
		return nil, pkgerrors.Storage(err, "db: count expiring")
	}
	return &stats, nil
}

func (s *service) LowStockItems(ctx context.Context, page, limit int) (*inventory.ItemListResult, error) {
	return s.byStatus(ctx, enums.StockStatusLowStock, page, limit)
}

func (s *service) OutOfStockItems(ctx context.Context, page, limit int) (*inventory.ItemListResult, error) {
	return s.byStatus(ctx, enums.StockStatusOutOfStock, page, limit)
}

func (s *service) byStatus(ctx context.Context, status enums.StockStatus, page, limit int) (*inventory.ItemListResult, error) {
	now := s.now()
	params := pagination.Params{Page: page, Limit: limit}.Normalize()
	rows, total, err := s.repo.List(ctx, inventory.ListFilters{Status: &status}, params, now)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list items by status")
	}
	return &inventory.ItemListResult{
		Items: inventory.NewItemDTOs(rows, now),
		Meta:  pagination.NewMeta(params, total),
	}, nil
}

func (s *service) SoonToExpireItems(ctx context.Context) (*ExpiringList, error) {
	return s.expiring(ctx, inventory.ExpiringWindow)
}

func (s *service) CriticalExpirationItems(ctx context.Context) (*ExpiringList, error) {
	return s.expiring(ctx, inventory.CriticalWindow)
}

func (s *service) expiring(ctx context.Context, window func(time.Time) inventory.DateWindow) (*ExpiringList, error) {
	now := s.now()
	rows, err := s.repo.ListExpiringIn(ctx, window(now))
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list expiring items")
	}
	items := make([]ExpiringItemDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, ExpiringItemDTO{
			ItemDTO:             inventory.NewItemDTO(row, now),
			DaysUntilExpiration: inventory.DaysUntil(*row.ExpirationDate, now),
		})
	}
	return &ExpiringList{Items: items, Total: len(items)}, nil
}
