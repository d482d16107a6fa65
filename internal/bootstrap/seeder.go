package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/carelane/medstock-backend/internal/catalog"
	"github.com/carelane/medstock-backend/internal/inventory"
	"github.com/carelane/medstock-backend/internal/users"
	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/carelane/medstock-backend/pkg/db/models"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/carelane/medstock-backend/pkg/logger"
)

type namedEntry struct {
	name        string
	description string
}

var defaultDepartments = []namedEntry{
	{"Emergency", "Emergency department"},
	{"ICU", "Intensive care unit"},
	{"Pharmacy", "Central pharmacy"},
	{"Surgery", "Operating rooms"},
	{"Pediatrics", ""},
	{"Laboratory", ""},
}

var defaultCategories = []namedEntry{
	{"PPE", "Personal protective equipment"},
	{"Medications", ""},
	{"Surgical Supplies", ""},
	{"Diagnostics", ""},
	{"Wound Care", ""},
}

type demoItem struct {
	code        string
	name        string
	department  string
	category    string
	stock       int
	threshold   int
	unit        string
	expiresDays int
}

var demoItems = []demoItem{
	{"PPE-001", "N95 Masks", "Emergency", "PPE", 5, 50, "boxes", 0},
	{"PPE-002", "Nitrile Gloves", "ICU", "PPE", 240, 100, "boxes", 0},
	{"MED-001", "Saline 0.9% 1L", "Pharmacy", "Medications", 80, 40, "bags", 10},
	{"MED-002", "Epinephrine 1mg", "Emergency", "Medications", 0, 10, "ampoules", 25},
	{"SUR-001", "Suture Kit 3-0", "Surgery", "Surgical Supplies", 30, 20, "kits", 180},
}

type hasher interface {
	Hash(password string) (string, error)
}

type userStore interface {
	Count(ctx context.Context) (int64, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, input users.CreateUserInput) (*models.User, error)
}

type catalogStore interface {
	CountDepartments(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)
	CreateDepartment(ctx context.Context, d *models.Department) error
	CreateCategory(ctx context.Context, c *models.Category) error
	ListDepartments(ctx context.Context) ([]models.Department, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

type itemCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// Params wires the seeder. Inventory and Items are only needed for demo data.
type Params struct {
	Config    config.BootstrapConfig
	Users     userStore
	Catalog   catalogStore
	Hasher    hasher
	Inventory inventory.Service
	Items     itemCounter
	Logger    *logger.Logger
	Now       func() time.Time
}

// Seeder fills an empty database with reference data and accounts. Each step is
// skipped when its table already has rows, so running it twice changes nothing.
type Seeder struct {
	p Params
}

func NewSeeder(p Params) (*Seeder, error) {
	if p.Users == nil || p.Catalog == nil || p.Hasher == nil {
		return nil, fmt.Errorf("users, catalog and hasher are required")
	}
	if p.Config.DemoInventory && (p.Inventory == nil || p.Items == nil) {
		return nil, fmt.Errorf("inventory service required for demo inventory")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Seeder{p: p}, nil
}

// Run executes every step and returns the combined errors.
func (s *Seeder) Run(ctx context.Context) error {
	var err error
	err = multierr.Append(err, s.seedDepartments(ctx))
	err = multierr.Append(err, s.seedCategories(ctx))
	err = multierr.Append(err, s.seedUsers(ctx))
	if err != nil {
		return err
	}
	if s.p.Config.DemoInventory {
		return s.seedDemoInventory(ctx)
	}
	return nil
}

func (s *Seeder) seedDepartments(ctx context.Context) error {
	count, err := s.p.Catalog.CountDepartments(ctx)
	if err != nil {
		return fmt.Errorf("count departments: %w", err)
	}
	if count > 0 {
		s.skip(ctx, "departments", count)
		return nil
	}
	var errs error
	for _, d := range defaultDepartments {
		if err := s.p.Catalog.CreateDepartment(ctx, catalog.NewDepartment(d.name, d.description, s.p.Now())); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("department %s: %w", d.name, err))
		}
	}
	s.p.Logger.Info(s.p.Logger.WithField(ctx, "count", len(defaultDepartments)), "bootstrap.departments_seeded")
	return errs
}

func (s *Seeder) seedCategories(ctx context.Context) error {
	count, err := s.p.Catalog.CountCategories(ctx)
	if err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		s.skip(ctx, "categories", count)
		return nil
	}
	var errs error
	for _, c := range defaultCategories {
		if err := s.p.Catalog.CreateCategory(ctx, catalog.NewCategory(c.name, c.description, s.p.Now())); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("category %s: %w", c.name, err))
		}
	}
	s.p.Logger.Info(s.p.Logger.WithField(ctx, "count", len(defaultCategories)), "bootstrap.categories_seeded")
	return errs
}

func (s *Seeder) seedUsers(ctx context.Context) error {
	count, err := s.p.Users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		s.skip(ctx, "users", count)
		return nil
	}
	accounts := []struct {
		username, password, fullName string
		role                         enums.UserRole
	}{
		{s.p.Config.AdminUsername, s.p.Config.AdminPassword, "Administrator", enums.UserRoleAdmin},
		{s.p.Config.StaffUsername, s.p.Config.StaffPassword, "Staff", enums.UserRoleStaff},
	}
	var errs error
	for _, acc := range accounts {
		if acc.username == "" || acc.password == "" {
			s.p.Logger.Warn(s.p.Logger.WithField(ctx, "role", string(acc.role)), "bootstrap.account_skipped_without_credentials")
			continue
		}
		hash, err := s.p.Hasher.Hash(acc.password)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("hash %s password: %w", acc.role, err))
			continue
		}
		if _, err := s.p.Users.Create(ctx, users.CreateUserInput{
			Username:     acc.username,
			PasswordHash: hash,
			FullName:     acc.fullName,
			Role:         acc.role,
		}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("create %s user: %w", acc.role, err))
			continue
		}
		s.p.Logger.Info(s.p.Logger.WithFields(ctx, map[string]any{
			"username": users.NormalizeUsername(acc.username),
			"role":     string(acc.role),
		}), "bootstrap.user_seeded")
	}
	return errs
}

func (s *Seeder) seedDemoInventory(ctx context.Context) error {
	count, err := s.p.Items.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("count inventory: %w", err)
	}
	if count > 0 {
		s.skip(ctx, "inventory_items", count)
		return nil
	}
	admin, err := s.p.Users.FindByUsername(ctx, users.NormalizeUsername(s.p.Config.AdminUsername))
	if err != nil {
		return fmt.Errorf("demo inventory needs the admin account: %w", err)
	}
	departments, err := s.p.Catalog.ListDepartments(ctx)
	if err != nil {
		return fmt.Errorf("list departments: %w", err)
	}
	categories, err := s.p.Catalog.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	deptByName := make(map[string]models.Department, len(departments))
	for _, d := range departments {
		deptByName[d.Name] = d
	}
	catByName := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		catByName[c.Name] = c
	}

	actor := inventory.Actor{UserID: admin.ID, Role: admin.Role}
	var errs error
	for _, item := range demoItems {
		dept, okDept := deptByName[item.department]
		cat, okCat := catByName[item.category]
		if !okDept || !okCat {
			errs = multierr.Append(errs, fmt.Errorf("demo item %s: missing department or category", item.code))
			continue
		}
		stock := item.stock
		input := inventory.CreateItemInput{
			ItemCode:     item.code,
			Name:         item.name,
			DepartmentID: dept.ID,
			CategoryID:   cat.ID,
			CurrentStock: &stock,
			Unit:         item.unit,
			Threshold:    item.threshold,
		}
		if item.expiresDays > 0 {
			exp := inventory.DateOnly(s.p.Now()).AddDate(0, 0, item.expiresDays)
			input.ExpirationDate = &exp
		}
		if _, err := s.p.Inventory.Create(ctx, actor, input); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("demo item %s: %w", item.code, err))
		}
	}
	s.p.Logger.Info(s.p.Logger.WithField(ctx, "count", len(demoItems)), "bootstrap.demo_inventory_seeded")
	return errs
}

func (s *Seeder) skip(ctx context.Context, table string, existing int64) {
	s.p.Logger.Info(s.p.Logger.WithFields(ctx, map[string]any{
		"table":    table,
		"existing": existing,
	}), "bootstrap.step_skipped")
}
