package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/pkg/db/dbtest"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
)

var now = time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)

type row struct {
	code      string
	stock     int
	threshold int
	age       time.Duration
	expiresIn *int
}

func seed(t *testing.T, conn *gorm.DB, rows []row) {
	t.Helper()
	for _, r := range rows {
		created := now.Add(-r.age)
		item := models.InventoryItem{
			ID:           uuid.New(),
			ItemCode:     r.code,
			Name:         "Item " + r.code,
			DepartmentID: uuid.New(),
			CategoryID:   uuid.New(),
			CurrentStock: r.stock,
			Unit:         "each",
			Threshold:    r.threshold,
			Status:       inventory.DeriveStatus(r.stock, r.threshold),
			CreatedAt:    created,
			UpdatedAt:    created,
		}
		if r.expiresIn != nil {
			exp := inventory.DateOnly(now).AddDate(0, 0, *r.expiresIn)
			item.ExpirationDate = &exp
		}
		require.NoError(t, conn.Create(&item).Error)
	}
}

func in(days int) *int { return &days }

func newService(t *testing.T, rows []row) Service {
	t.Helper()
	conn := dbtest.Open(t, &models.InventoryItem{})
	seed(t, conn, rows)
	svc, err := NewService(inventory.NewRepository(conn), func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestStatsCounts(t *testing.T) {
	day := 24 * time.Hour
	svc := newService(t, []row{
		{code: "A", stock: 0, threshold: 5, age: 2 * day},
		{code: "B", stock: 3, threshold: 5, age: 40 * day, expiresIn: in(5)},
		{code: "C", stock: 5, threshold: 5, age: 29 * day, expiresIn: in(30)},
		{code: "D", stock: 50, threshold: 5, age: 31 * day, expiresIn: in(31)},
		{code: "E", stock: 50, threshold: 5, age: day, expiresIn: in(0)},
	})

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{
		TotalItems:    5,
		LowStockCount: 2,
		RecentlyAdded: 3,
		OutOfStock:    1,
		ExpiringSoon:  2,
	}, *stats)
}

func TestLowAndOutOfStockLists(t *testing.T) {
	rows := make([]row, 0, 15)
	for i := 0; i < 12; i++ {
		rows = append(rows, row{code: fmt.Sprintf("LOW-%02d", i), stock: 1, threshold: 5, age: time.Duration(i) * time.Hour})
	}
	rows = append(rows,
		row{code: "OUT-1", stock: 0, threshold: 5},
		row{code: "OK-1", stock: 10, threshold: 5},
	)
	svc := newService(t, rows)

	low, err := svc.LowStockItems(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 12, low.Total)
	assert.Equal(t, 2, low.TotalPages)
	require.Len(t, low.Items, 2)
	for _, item := range low.Items {
		assert.Equal(t, enums.StockStatusLowStock, item.Status)
	}

	out, err := svc.OutOfStockItems(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, out.Total)
	assert.Equal(t, 1, out.Page)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "OUT-1", out.Items[0].ItemID)
}

func TestExpirationListsSortedAscending(t *testing.T) {
	svc := newService(t, []row{
		{code: "SOON", stock: 9, threshold: 1, expiresIn: in(20)},
		{code: "CRIT-LATE", stock: 9, threshold: 1, expiresIn: in(14)},
		{code: "CRIT-EARLY", stock: 9, threshold: 1, expiresIn: in(1)},
		{code: "EXPIRED", stock: 9, threshold: 1, expiresIn: in(0)},
		{code: "FAR", stock: 9, threshold: 1, expiresIn: in(90)},
		{code: "NEVER", stock: 9, threshold: 1},
	})

	soon, err := svc.SoonToExpireItems(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, soon.Total)
	assert.Equal(t, "CRIT-EARLY", soon.Items[0].ItemID)
	assert.Equal(t, 1, soon.Items[0].DaysUntilExpiration)
	assert.Equal(t, enums.ExpirationCritical, soon.Items[0].ExpirationStatus)
	assert.Equal(t, "CRIT-LATE", soon.Items[1].ItemID)
	assert.Equal(t, "SOON", soon.Items[2].ItemID)
	assert.Equal(t, enums.ExpirationSoon, soon.Items[2].ExpirationStatus)

	critical, err := svc.CriticalExpirationItems(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, critical.Total)
	assert.Equal(t, "CRIT-EARLY", critical.Items[0].ItemID)
	assert.Equal(t, "CRIT-LATE", critical.Items[1].ItemID)
}
