package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Base carries the columns shared by every table.
type Base struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Stamp assigns an id on first write and refreshes the timestamps.
func (b *Base) Stamp(now time.Time) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// UniqueField pairs a payload field name with the column that must stay unique.
type UniqueField struct {
	Field  string
	Column string
}

// Descriptor declares how the generic CRUD engine treats an entity.
type Descriptor struct {
	Name         string
	Identifier   string
	Unique       []UniqueField
	SoftDelete   bool
	DefaultSort  string
	DefaultOrder string
}

// UniqueSource is implemented by payloads that carry values for unique columns.
// Keys are payload field names; absent or empty values are skipped.
type UniqueSource interface {
	UniqueValues() map[string]string
}

// ListOptions captures the optional pagination and ordering query.
type ListOptions struct {
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
	OrderBy        string `form:"orderBy"`
	OrderDirection string `form:"orderDirection"`
}

// MaxPageSize caps the limit accepted from clients.
const MaxPageSize = 100

// Paginated reports whether both page and limit were supplied.
func (o ListOptions) Paginated() bool {
	return o.Page > 0 && o.Limit > 0
}

// Normalize clamps the limit and canonicalises the direction.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	switch strings.ToLower(o.OrderDirection) {
	case "asc":
		o.OrderDirection = "ASC"
	case "desc":
		o.OrderDirection = "DESC"
	default:
		o.OrderDirection = ""
	}
	return o
}

// Offset returns the number of rows to skip.
func (o ListOptions) Offset() int {
	if o.Page <= 1 {
		return 0
	}
	return (o.Page - 1) * o.Limit
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPage computes totalPages as ceil(total/limit).
func NewPage[T any](data []T, total, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return Page[T]{Data: data, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// Meta returns the envelope pagination block for the page.
func (p Page[T]) Meta() *Pagination {
	return &Pagination{Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: p.TotalPages}
}

// MessageResponse is returned by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}
