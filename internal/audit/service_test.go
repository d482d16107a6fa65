package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/carelane/medstock-backend/pkg/db"
	"github.com/carelane/medstock-backend/pkg/db/dbtest"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
)

type stepClock struct {
	current time.Time
}

func (c *stepClock) now() time.Time {
	return c.current
}

func (c *stepClock) advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type fixture struct {
	svc   Recorder
	conn  *gorm.DB
	clock *stepClock
	user  models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.Open(t, &models.User{}, &models.AuditLog{})
	user := models.User{
		ID:           uuid.New(),
		Username:     "nurse.joy",
		PasswordHash: "x",
		FullName:     "Joy",
		Role:         enums.UserRoleStaff,
		IsActive:     true,
	}
	require.NoError(t, conn.Create(&user).Error)

	clock := &stepClock{current: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), clock.now)
	require.NoError(t, err)
	return &fixture{svc: svc, conn: conn, clock: clock, user: user}
}

func (f *fixture) append(t *testing.T, activity enums.ActivityType, itemID *uuid.UUID, details string) *LogDTO {
	t.Helper()
	log, err := f.svc.Append(context.Background(), Entry{
		UserID:       f.user.ID,
		ActivityType: activity,
		ItemID:       itemID,
		Details:      details,
	})
	require.NoError(t, err)
	f.clock.advance(time.Hour)
	return log
}

func TestAppendAssignsIdentityAndTimestamp(t *testing.T) {
	f := newFixture(t)
	itemID := uuid.New()

	log, err := f.svc.Append(context.Background(), Entry{
		UserID:       f.user.ID,
		ActivityType: enums.ActivityStockAdded,
		ItemID:       &itemID,
		Details:      StockAdjustedDetails(10, "N95 Masks"),
		After:        map[string]int{"currentStock": 10},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, log.ID)
	assert.Equal(t, f.clock.current, log.CreatedAt)
	assert.Equal(t, "Added 10 units of N95 Masks", log.Details)
	assert.JSONEq(t, `{"currentStock":10}`, string(log.AfterData))
	assert.Nil(t, log.BeforeData)
}

func TestAppendValidatesEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Append(context.Background(), Entry{ActivityType: "viewed", Details: " "})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "userId")
	assert.Contains(t, details, "activityType")
	assert.Contains(t, details, "details")
}

func TestRecordTxRollsBackWithCaller(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("mutation failed")

	err := db.Wrap(f.conn).WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := f.svc.RecordTx(context.Background(), tx, Entry{
			UserID:       f.user.ID,
			ActivityType: enums.ActivityCreated,
			Details:      "Created Gauze (GZ-1)",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	res, err := f.svc.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Logs)
}

func TestQueryOrdersNewestFirstAndPaginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.append(t, enums.ActivityUpdated, nil, "Updated item")
	}

	res, err := f.svc.Query(context.Background(), QueryInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Total)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.Page)
	require.Len(t, res.Logs, 2)
	assert.True(t, res.Logs[0].CreatedAt.After(res.Logs[1].CreatedAt))

	first, err := f.svc.Query(context.Background(), QueryInput{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.True(t, first.Logs[1].CreatedAt.After(res.Logs[0].CreatedAt))
	require.NotNil(t, first.Logs[0].Username)
	assert.Equal(t, "nurse.joy", *first.Logs[0].Username)
}

func TestQueryFilters(t *testing.T) {
	f := newFixture(t)
	itemA, itemB := uuid.New(), uuid.New()

	start := f.clock.current
	f.append(t, enums.ActivityCreated, &itemA, "Created A")  // 09:00
	f.append(t, enums.ActivityStockAdded, &itemA, "Added")   // 10:00
	f.append(t, enums.ActivityStockRemoved, &itemB, "Taken") // 11:00
	f.append(t, enums.ActivityDeleted, &itemB, "Deleted B")  // 12:00

	byItem, err := f.svc.Query(context.Background(), QueryInput{Filters: QueryFilters{ItemID: &itemA}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byItem.Total)

	activity := enums.ActivityStockRemoved
	byActivity, err := f.svc.Query(context.Background(), QueryInput{Filters: QueryFilters{ActivityType: &activity}})
	require.NoError(t, err)
	require.Len(t, byActivity.Logs, 1)
	assert.Equal(t, itemB, *byActivity.Logs[0].ItemID)

	other := uuid.New()
	byUser, err := f.svc.Query(context.Background(), QueryInput{Filters: QueryFilters{UserID: &other}})
	require.NoError(t, err)
	assert.Zero(t, byUser.Total)
	assert.Zero(t, byUser.TotalPages)

	from := start.Add(time.Hour)
	to := start.Add(2 * time.Hour)
	byRange, err := f.svc.Query(context.Background(), QueryInput{Filters: QueryFilters{StartDate: &from, EndDate: &to}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byRange.Total, "both bounds are inclusive")

	combined, err := f.svc.Query(context.Background(), QueryInput{Filters: QueryFilters{ItemID: &itemB, StartDate: &from, EndDate: &to}})
	require.NoError(t, err)
	require.Len(t, combined.Logs, 1)
	assert.Equal(t, "Taken", combined.Logs[0].Details)
}

func TestQueryRejectsInvertedRange(t *testing.T) {
	f := newFixture(t)
	from := f.clock.current
	to := from.Add(-time.Hour)
	_, err := f.svc.Query(context.Background(), QueryInput{Filters: QueryFilters{StartDate: &from, EndDate: &to}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestRecentDefaultsLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < DefaultRecentLimit+2; i++ {
		f.append(t, enums.ActivityUpdated, nil, "Updated item")
	}
	res, err := f.svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, res.Logs, DefaultRecentLimit)
	assert.Equal(t, int64(DefaultRecentLimit+2), res.Total)
}

func TestStockAdjustedDetails(t *testing.T) {
	assert.Equal(t, "Added 10 units of N95 Masks", StockAdjustedDetails(10, "N95 Masks"))
	assert.Equal(t, "Removed 3 units of Saline", StockAdjustedDetails(-3, "Saline"))
	assert.Equal(t, "Removed 1 unit of Saline", StockAdjustedDetails(-1, "Saline"))
	assert.Equal(t, "Updated Gauze: threshold, unit", UpdatedDetails("Gauze", []string{"threshold", "unit"}))
	assert.Equal(t, "Updated Gauze", UpdatedDetails("Gauze", nil))
}
