package inventory

import (
	"math"
	"strings"
	"time"

	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/google/uuid"
)

// MaxStock is the largest stock level the integer column holds.
const MaxStock = math.MaxInt32

// CreateItemInput holds the validated payload to create an item.
type CreateItemInput struct {
	ItemCode       string
	Name           string
	Description    *string
	DepartmentID   uuid.UUID
	CategoryID     uuid.UUID
	CurrentStock   *int
	Unit           string
	Threshold      int
	ExpirationDate *time.Time
}

// UpdateItemInput is a partial patch; nil fields are left unchanged. An empty
// Description clears it, as does ClearExpirationDate for the expiration date.
type UpdateItemInput struct {
	ItemCode            *string
	Name                *string
	Description         *string
	DepartmentID        *uuid.UUID
	CategoryID          *uuid.UUID
	CurrentStock        *int
	Unit                *string
	Threshold           *int
	ExpirationDate      *time.Time
	ClearExpirationDate bool
}

// IsEmpty reports whether the patch sets nothing.
func (in UpdateItemInput) IsEmpty() bool {
	return in.ItemCode == nil && in.Name == nil && in.Description == nil &&
		in.DepartmentID == nil && in.CategoryID == nil && in.CurrentStock == nil &&
		in.Unit == nil && in.Threshold == nil && in.ExpirationDate == nil && !in.ClearExpirationDate
}

func (in CreateItemInput) normalize() CreateItemInput {
	in.ItemCode = strings.TrimSpace(in.ItemCode)
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Description = trimOptional(in.Description)
	if in.ExpirationDate != nil {
		d := DateOnly(*in.ExpirationDate)
		in.ExpirationDate = &d
	}
	return in
}

func (in CreateItemInput) validate() error {
	details := map[string]string{}
	if in.ItemCode == "" {
		details["itemId"] = "is required"
	}
	if in.Name == "" {
		details["name"] = "is required"
	}
	if in.Unit == "" {
		details["unit"] = "is required"
	}
	if in.DepartmentID == uuid.Nil {
		details["departmentId"] = "is required"
	}
	if in.CategoryID == uuid.Nil {
		details["categoryId"] = "is required"
	}
	checkThreshold(details, in.Threshold)
	if in.CurrentStock != nil {
		checkStock(details, *in.CurrentStock)
	}
	return detailsError("invalid inventory item", details)
}

func (in UpdateItemInput) normalize() UpdateItemInput {
	in.ItemCode = trimPtr(in.ItemCode)
	in.Name = trimPtr(in.Name)
	in.Unit = trimPtr(in.Unit)
	in.Description = trimPtr(in.Description)
	if in.ExpirationDate != nil {
		d := DateOnly(*in.ExpirationDate)
		in.ExpirationDate = &d
	}
	return in
}

func (in UpdateItemInput) validate() error {
	details := map[string]string{}
	if in.ItemCode != nil && *in.ItemCode == "" {
		details["itemId"] = "must not be empty"
	}
	if in.Name != nil && *in.Name == "" {
		details["name"] = "must not be empty"
	}
	if in.Unit != nil && *in.Unit == "" {
		details["unit"] = "must not be empty"
	}
	if in.DepartmentID != nil && *in.DepartmentID == uuid.Nil {
		details["departmentId"] = "must be a valid id"
	}
	if in.CategoryID != nil && *in.CategoryID == uuid.Nil {
		details["categoryId"] = "must be a valid id"
	}
	if in.Threshold != nil {
		checkThreshold(details, *in.Threshold)
	}
	if in.CurrentStock != nil {
		checkStock(details, *in.CurrentStock)
	}
	if in.ExpirationDate != nil && in.ClearExpirationDate {
		details["expirationDate"] = "cannot be set and cleared together"
	}
	return detailsError("invalid inventory item update", details)
}

func checkThreshold(details map[string]string, threshold int) {
	switch {
	case threshold < MinThreshold:
		details["threshold"] = "must be at least 1"
	case threshold > MaxStock:
		details["threshold"] = "is too large"
	}
}

func checkStock(details map[string]string, stock int) {
	switch {
	case stock < 0:
		details["currentStock"] = "must not be negative"
	case stock > MaxStock:
		details["currentStock"] = "is too large"
	}
}

func detailsError(message string, details map[string]string) error {
	if len(details) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func trimOptional(v *string) *string {
	t := trimPtr(v)
	if t == nil || *t == "" {
		return nil
	}
	return t
}
