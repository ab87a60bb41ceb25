package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/validation"
)

// entityStore is the persistence contract shared by every CRUD entity.
type entityStore[T any] interface {
	Descriptor() models.Descriptor
	FindOne(ctx context.Context, identifier string) (*T, error)
	FindOneAny(ctx context.Context, identifier string) (*T, error)
	FindAll(ctx context.Context, opts models.ListOptions) ([]T, error)
	FindPage(ctx context.Context, opts models.ListOptions) ([]T, int, error)
	ExistsBy(ctx context.Context, column, value, excludeIdentifier string) (bool, error)
	Insert(ctx context.Context, record *T) error
	Update(ctx context.Context, record *T) error
	Remove(ctx context.Context, identifier string) error
}

type keyed interface {
	Key() string
}

// CRUDHooks customise how payloads become rows.
type CRUDHooks[T any, C any, U any] struct {
	// Build turns a validated create payload into a new row.
	Build func(ctx context.Context, req C) (*T, error)
	// Apply merges a validated update payload into the current row.
	Apply func(ctx context.Context, current *T, req U) error
	// AfterWrite runs after every successful create, update or remove.
	AfterWrite func(ctx context.Context)
}

// CRUDService implements create, list, get, update and remove once for every entity.
type CRUDService[T any, C models.UniqueSource, U models.UniqueSource] struct {
	store     entityStore[T]
	desc      models.Descriptor
	hooks     CRUDHooks[T, C, U]
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCRUDService wires the generic engine to a store.
func NewCRUDService[T any, C models.UniqueSource, U models.UniqueSource](store entityStore[T], hooks CRUDHooks[T, C, U], validate *validator.Validate, logger *zap.Logger) *CRUDService[T, C, U] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &CRUDService[T, C, U]{store: store, desc: store.Descriptor(), hooks: hooks, validator: validate, logger: logger}
}

// Descriptor returns the entity configuration.
func (s *CRUDService[T, C, U]) Descriptor() models.Descriptor {
	return s.desc
}

// Create validates the payload, enforces unique fields and inserts the row.
func (s *CRUDService[T, C, U]) Create(ctx context.Context, req C) (*T, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, fmt.Sprintf("invalid %s payload", s.desc.Name))
	}
	if err := s.checkUnique(ctx, req.UniqueValues(), ""); err != nil {
		return nil, err
	}
	if s.hooks.Build == nil {
		return nil, appErrors.Internal(errors.New("missing build hook"), fmt.Sprintf("failed to create %s", s.desc.Name))
	}
	record, err := s.hooks.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, record); err != nil {
		return nil, s.translate(err, "create")
	}
	s.afterWrite(ctx)
	return s.reload(ctx, record), nil
}

// List returns every active row, or one page when both page and limit are set.
// The pagination block is nil for unpaginated listings.
func (s *CRUDService[T, C, U]) List(ctx context.Context, opts models.ListOptions) ([]T, *models.Pagination, error) {
	opts = opts.Normalize()
	if !opts.Paginated() {
		records, err := s.store.FindAll(ctx, opts)
		if err != nil {
			return nil, nil, s.translate(err, "list")
		}
		return records, nil, nil
	}

	records, total, err := s.store.FindPage(ctx, opts)
	if err != nil {
		return nil, nil, s.translate(err, "list")
	}
	page := models.NewPage(records, total, opts.Page, opts.Limit)
	return page.Data, page.Meta(), nil
}

// Get returns the active row carrying identifier.
func (s *CRUDService[T, C, U]) Get(ctx context.Context, identifier string) (*T, error) {
	record, err := s.store.FindOne(ctx, identifier)
	if err != nil {
		return nil, s.translate(err, "get")
	}
	return record, nil
}

// Update applies a partial change after re-checking unique fields against other rows.
func (s *CRUDService[T, C, U]) Update(ctx context.Context, identifier string, req U) (*T, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, fmt.Sprintf("invalid %s payload", s.desc.Name))
	}
	current, err := s.Get(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, req.UniqueValues(), identifier); err != nil {
		return nil, err
	}
	if s.hooks.Apply != nil {
		if err := s.hooks.Apply(ctx, current, req); err != nil {
			return nil, err
		}
	}
	if err := s.store.Update(ctx, current); err != nil {
		return nil, s.translate(err, "update")
	}
	s.afterWrite(ctx)
	return s.reload(ctx, current), nil
}

// Remove deactivates soft-deleted entities and deletes the others. It returns the row as it was removed.
func (s *CRUDService[T, C, U]) Remove(ctx context.Context, identifier string) (*T, error) {
	current, err := s.Get(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := s.store.Remove(ctx, identifier); err != nil {
		return nil, s.translate(err, "remove")
	}
	s.afterWrite(ctx)
	if s.desc.SoftDelete {
		return s.reload(ctx, current), nil
	}
	return current, nil
}

func (s *CRUDService[T, C, U]) checkUnique(ctx context.Context, values map[string]string, excludeIdentifier string) error {
	for _, field := range s.desc.Unique {
		value := values[field.Field]
		if value == "" {
			continue
		}
		exists, err := s.store.ExistsBy(ctx, field.Column, value, excludeIdentifier)
		if err != nil {
			return s.translate(err, "check "+field.Field)
		}
		if exists {
			return appErrors.Conflict(fmt.Sprintf("%s already exists", field.Field))
		}
	}
	return nil
}

// reload re-reads the row so joined relations are populated. The written record is returned on failure.
func (s *CRUDService[T, C, U]) reload(ctx context.Context, record *T) *T {
	k, ok := any(*record).(keyed)
	if !ok || k.Key() == "" {
		return record
	}
	fresh, err := s.store.FindOneAny(ctx, k.Key())
	if err != nil {
		s.logger.Warn("reload after write failed", zap.String("entity", s.desc.Name), zap.String("identifier", k.Key()), zap.Error(err))
		return record
	}
	return fresh
}

func (s *CRUDService[T, C, U]) afterWrite(ctx context.Context) {
	if s.hooks.AfterWrite != nil {
		s.hooks.AfterWrite(ctx)
	}
}

func (s *CRUDService[T, C, U]) translate(err error, action string) error {
	return translate(err, s.desc.Name, action)
}

// translate maps repository failures onto the error taxonomy.
func translate(err error, entity, action string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NotFound(entity + " not found")
	}
	if dbErr := appErrors.FromDatabase(err); dbErr != nil {
		return dbErr
	}
	return appErrors.Internal(err, fmt.Sprintf("failed to %s %s", action, entity))
}
