package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/carelane/medstock-backend/pkg/db"
	dbtypes "github.com/carelane/medstock-backend/pkg/db/types"
	"github.com/carelane/medstock-backend/pkg/db/models"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRecentLimit is used by Recent when the caller passes no limit.
const DefaultRecentLimit = 10

// Recorder appends and queries the audit trail. There is no update or delete.
type Recorder interface {
	Append(ctx context.Context, entry Entry) (*LogDTO, error)
	RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error
	Query(ctx context.Context, input QueryInput) (*LogListResult, error)
	Recent(ctx context.Context, limit int) (*LogListResult, error)
}

type service struct {
	repo     *Repository
	dbClient db.TxRunner
	now      func() time.Time
}

// NewService constructs the audit recorder. now may be nil.
func NewService(repo *Repository, dbClient db.TxRunner, now func() time.Time) (Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, dbClient: dbClient, now: now}, nil
}

func (s *service) Append(ctx context.Context, entry Entry) (*LogDTO, error) {
	var row *models.AuditLog
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		built, err := s.insert(ctx, s.repo.WithTx(tx), entry)
		row = built
		return err
	})
	if err != nil {
		return nil, err
	}
	dto := toDTO(logRow{AuditLog: *row})
	return &dto, nil
}

// RecordTx writes entry with the caller's transaction so it commits with the mutation.
func (s *service) RecordTx(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	_, err := s.insert(ctx, s.repo.WithTx(tx), entry)
	return err
}

func (s *service) insert(ctx context.Context, repo *Repository, entry Entry) (*models.AuditLog, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}
	before, err := dbtypes.MarshalJSONValue(entry.Before)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit before snapshot")
	}
	after, err := dbtypes.MarshalJSONValue(entry.After)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode audit after snapshot")
	}

	row := &models.AuditLog{
		ID:           uuid.New(),
		UserID:       entry.UserID,
		ActivityType: entry.ActivityType,
		ItemID:       entry.ItemID,
		Details:      strings.TrimSpace(entry.Details),
		BeforeData:   before,
		AfterData:    after,
		CreatedAt:    s.now().UTC(),
	}
	if err := repo.Insert(ctx, row); err != nil {
		return nil, pkgerrors.Storage(err, "db: insert audit log")
	}
	return row, nil
}

func (s *service) Query(ctx context.Context, input QueryInput) (*LogListResult, error) {
	f := input.Filters
	if f.ActivityType != nil && !f.ActivityType.IsValid() {
		return nil, pkgerrors.Validation("invalid activityType %q", *f.ActivityType)
	}
	if f.StartDate != nil && f.EndDate != nil && f.StartDate.After(*f.EndDate) {
		return nil, pkgerrors.Validation("startDate must not be after endDate")
	}

	params := pagination.Params{Page: input.Page, Limit: input.Limit}.Normalize()
	rows, total, err := s.repo.List(ctx, f, params)
	if err != nil {
		return nil, pkgerrors.Storage(err, "db: list audit logs")
	}

	logs := make([]LogDTO, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, toDTO(row))
	}
	return &LogListResult{Logs: logs, Meta: pagination.NewMeta(params, total)}, nil
}

func (s *service) Recent(ctx context.Context, limit int) (*LogListResult, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return s.Query(ctx, QueryInput{Page: 1, Limit: limit})
}

func validateEntry(entry Entry) error {
	details := map[string]string{}
	if entry.UserID == uuid.Nil {
		details["userId"] = "is required"
	}
	if !entry.ActivityType.IsValid() {
		details["activityType"] = "is invalid"
	}
	if strings.TrimSpace(entry.Details) == "" {
		details["details"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid audit entry").WithDetails(details)
	}
	return nil
}
