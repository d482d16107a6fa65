package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/carelane/medstock-backend/api/middleware"
	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/pkg/enums"
	pkgerrors "github.com/carelane/medstock-backend/pkg/errors"
	"github.com/carelane/medstock-backend/pkg/pagination"
)

type stubInventoryService struct {
	createInput inventory.CreateItemInput
	updateInput inventory.UpdateItemInput
	listInput   inventory.ListItemsInput
	delta       int
	actor       inventory.Actor

	item        *inventory.ItemDTO
	auditFailed bool
	deleted     bool
	err         error
}

func (s *stubInventoryService) Create(_ context.Context, actor inventory.Actor, input inventory.CreateItemInput) (*inventory.MutationResult, error) {
	s.actor = actor
	s.createInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.MutationResult{Item: s.item, AuditFailed: s.auditFailed}, nil
}

func (s *stubInventoryService) Get(_ context.Context, _ uuid.UUID) (*inventory.ItemDTO, error) {
	return s.item, s.err
}

func (s *stubInventoryService) List(_ context.Context, input inventory.ListItemsInput) (*inventory.ItemListResult, error) {
	s.listInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.ItemListResult{Items: []inventory.ItemDTO{}, Meta: pagination.Meta{Page: input.Page, Limit: input.Limit}}, nil
}

func (s *stubInventoryService) Update(_ context.Context, actor inventory.Actor, _ uuid.UUID, input inventory.UpdateItemInput) (*inventory.MutationResult, error) {
	s.actor = actor
	s.updateInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.MutationResult{Item: s.item, AuditFailed: s.auditFailed}, nil
}

func (s *stubInventoryService) AdjustStock(_ context.Context, actor inventory.Actor, _ uuid.UUID, delta int) (*inventory.MutationResult, error) {
	s.actor = actor
	s.delta = delta
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.MutationResult{Item: s.item, AuditFailed: s.auditFailed}, nil
}

func (s *stubInventoryService) Delete(_ context.Context, actor inventory.Actor, _ uuid.UUID) (*inventory.DeleteResult, error) {
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &inventory.DeleteResult{Deleted: s.deleted, AuditFailed: s.auditFailed}, nil
}

var testUserID = uuid.MustParse("9a4f3e2d-1c0b-4a98-8765-43210fedcba9")

func authed(r *http.Request, role enums.UserRole) *http.Request {
	return r.WithContext(middleware.WithPrincipal(r.Context(), middleware.Principal{UserID: testUserID, Role: role, AccessID: "access"}))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}

func TestCreateInventoryItemSuccess(t *testing.T) {
	dept, cat := uuid.New(), uuid.New()
	svc := &stubInventoryService{item: &inventory.ItemDTO{ID: uuid.New(), ItemID: "PPE-001", Status: enums.StockStatusLowStock}}
	body := `{"itemId":"PPE-001","name":"N95 Masks","departmentId":"` + dept.String() + `","categoryId":"` + cat.String() + `","currentStock":5,"unit":"box","threshold":10,"expirationDate":"2027-03-01"}`

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body)), enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	CreateInventoryItem(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(AuditStatusHeader) != "" {
		t.Fatalf("unexpected audit header")
	}
	in := svc.createInput
	if in.ItemCode != "PPE-001" || in.DepartmentID != dept || in.CategoryID != cat || in.Threshold != 10 {
		t.Fatalf("unexpected input: %+v", in)
	}
	if in.CurrentStock == nil || *in.CurrentStock != 5 {
		t.Fatalf("expected stock 5, got %v", in.CurrentStock)
	}
	if in.ExpirationDate == nil || in.ExpirationDate.Format("2006-01-02") != "2027-03-01" {
		t.Fatalf("unexpected expiration: %v", in.ExpirationDate)
	}
	if svc.actor.UserID != testUserID {
		t.Fatalf("actor not propagated")
	}
}

func TestCreateInventoryItemRejectsStatusField(t *testing.T) {
	svc := &stubInventoryService{}
	body := `{"itemId":"PPE-001","name":"N95","departmentId":"` + uuid.NewString() + `","categoryId":"` + uuid.NewString() + `","unit":"box","threshold":1,"status":"in_stock"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body)), enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	CreateInventoryItem(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestCreateInventoryItemRejectsZeroThreshold(t *testing.T) {
	body := `{"itemId":"PPE-001","name":"N95","departmentId":"` + uuid.NewString() + `","categoryId":"` + uuid.NewString() + `","unit":"box","threshold":0}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body)), enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	CreateInventoryItem(&stubInventoryService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCreateInventoryItemRejectsOversizedThreshold(t *testing.T) {
	body := `{"itemId":"PPE-001","name":"N95","departmentId":"` + uuid.NewString() + `","categoryId":"` + uuid.NewString() + `","unit":"box","threshold":10000000000}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body)), enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	CreateInventoryItem(&stubInventoryService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "threshold") {
		t.Fatalf("expected threshold detail, got %s", rec.Body.String())
	}
}

func TestCreateInventoryItemAuditFailureHeader(t *testing.T) {
	svc := &stubInventoryService{item: &inventory.ItemDTO{ID: uuid.New()}, auditFailed: true}
	body := `{"itemId":"X-1","name":"Gauze","departmentId":"` + uuid.NewString() + `","categoryId":"` + uuid.NewString() + `","unit":"roll","threshold":2}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(body)), enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	CreateInventoryItem(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if got := rec.Header().Get(AuditStatusHeader); got != "failed" {
		t.Fatalf("expected audit header failed, got %q", got)
	}
}

func TestCreateInventoryItemRequiresPrincipal(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	CreateInventoryItem(&stubInventoryService{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestListInventoryParsesFilters(t *testing.T) {
	dept := uuid.New()
	svc := &stubInventoryService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory?page=2&limit=5&status=low_stock&departmentId="+dept.String()+"&search=%20mask%20&expiring=true", nil)
	rec := httptest.NewRecorder()
	ListInventory(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.listInput
	if in.Page != 2 || in.Limit != 5 {
		t.Fatalf("unexpected paging: %+v", in)
	}
	f := in.Filters
	if f.Status == nil || *f.Status != enums.StockStatusLowStock {
		t.Fatalf("unexpected status filter: %v", f.Status)
	}
	if f.DepartmentID == nil || *f.DepartmentID != dept {
		t.Fatalf("unexpected department filter")
	}
	if f.CategoryID != nil {
		t.Fatalf("category filter should be unset")
	}
	if f.Search != "mask" || !f.Expiring {
		t.Fatalf("unexpected search/expiring: %+v", f)
	}
}

func TestListInventoryDefaults(t *testing.T) {
	svc := &stubInventoryService{}
	rec := httptest.NewRecorder()
	ListInventory(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.listInput.Page != 1 || svc.listInput.Limit != pagination.DefaultLimit {
		t.Fatalf("unexpected defaults: %+v", svc.listInput)
	}
}

func TestListInventoryRejectsBadParams(t *testing.T) {
	for _, query := range []string{"status=expired", "limit=101", "page=0", "departmentId=nope", "expiring=maybe"} {
		rec := httptest.NewRecorder()
		ListInventory(&stubInventoryService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/inventory?"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", query, rec.Code)
		}
	}
}

func TestGetInventoryItemNotFound(t *testing.T) {
	svc := &stubInventoryService{err: pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")}
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/inventory/x", nil), "id", uuid.NewString())
	rec := httptest.NewRecorder()
	GetInventoryItem(svc, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestGetInventoryItemInvalidID(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/inventory/x", nil), "id", "not-a-uuid")
	rec := httptest.NewRecorder()
	GetInventoryItem(&stubInventoryService{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUpdateInventoryItemClearsOptionalFields(t *testing.T) {
	svc := &stubInventoryService{item: &inventory.ItemDTO{}}
	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/api/v1/inventory/x", strings.NewReader(`{"description":null,"expirationDate":"","threshold":3}`)), "id", uuid.NewString())
	req = authed(req, enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	UpdateInventoryItem(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.updateInput
	if in.Description == nil || *in.Description != "" {
		t.Fatalf("expected description cleared, got %v", in.Description)
	}
	if !in.ClearExpirationDate || in.ExpirationDate != nil {
		t.Fatalf("expected expiration cleared: %+v", in)
	}
	if in.Threshold == nil || *in.Threshold != 3 {
		t.Fatalf("expected threshold 3")
	}
	if in.Name != nil || in.CurrentStock != nil {
		t.Fatalf("absent fields must stay nil: %+v", in)
	}
}

func TestUpdateInventoryItemEmptyPatch(t *testing.T) {
	svc := &stubInventoryService{item: &inventory.ItemDTO{}}
	req := withURLParam(httptest.NewRequest(http.MethodPatch, "/api/v1/inventory/x", strings.NewReader(`{}`)), "id", uuid.NewString())
	req = authed(req, enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	UpdateInventoryItem(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !svc.updateInput.IsEmpty() {
		t.Fatalf("expected empty patch, got %+v", svc.updateInput)
	}
}

func TestAdjustInventoryStock(t *testing.T) {
	svc := &stubInventoryService{item: &inventory.ItemDTO{}}
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/inventory/x/adjust", strings.NewReader(`{"quantity":-4}`)), "id", uuid.NewString())
	req = authed(req, enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	AdjustInventoryStock(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if svc.delta != -4 {
		t.Fatalf("expected delta -4, got %d", svc.delta)
	}
}

func TestAdjustInventoryStockRequiresQuantity(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/inventory/x/adjust", strings.NewReader(`{}`)), "id", uuid.NewString())
	req = authed(req, enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	AdjustInventoryStock(&stubInventoryService{}, nil).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdjustInventoryStockBelowZero(t *testing.T) {
	svc := &stubInventoryService{err: pkgerrors.InvalidOperation("cannot reduce stock below zero")}
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/inventory/x/adjust", strings.NewReader(`{"quantity":-100}`)), "id", uuid.NewString())
	req = authed(req, enums.UserRoleStaff)
	rec := httptest.NewRecorder()
	AdjustInventoryStock(svc, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeInvalidOperation) {
		t.Fatalf("unexpected code %s", code)
	}
}

func TestDeleteInventoryItem(t *testing.T) {
	cases := []struct {
		name    string
		deleted bool
		status  int
	}{
		{"removed", true, http.StatusNoContent},
		{"missing", false, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubInventoryService{deleted: tc.deleted}
			req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/inventory/x", nil), "id", uuid.NewString())
			req = authed(req, enums.UserRoleAdmin)
			rec := httptest.NewRecorder()
			DeleteInventoryItem(svc, nil).ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}
