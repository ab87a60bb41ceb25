package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

// crudService is the contract shared by every entity service.
type crudService[T any, C any, U any] interface {
	Create(ctx context.Context, req C) (*T, error)
	List(ctx context.Context, opts models.ListOptions) ([]T, *models.Pagination, error)
	Get(ctx context.Context, identifier string) (*T, error)
	Update(ctx context.Context, identifier string, req U) (*T, error)
	Remove(ctx context.Context, identifier string) (*T, error)
}

// CRUDHandler serves create, list, get, update and remove for one entity.
type CRUDHandler[T any, C any, U any] struct {
	service crudService[T, C, U]
	param   string

	// BeforeCreate and BeforeUpdate may copy request-scoped data, such as the caller, into the payload.
	BeforeCreate func(c *gin.Context, req *C)
	BeforeUpdate func(c *gin.Context, req *U)
	// Context derives the service context from the request.
	Context func(c *gin.Context) context.Context
}

// NewCRUDHandler builds a handler reading the identifier from the path parameter param.
func NewCRUDHandler[T any, C any, U any](svc crudService[T, C, U], param string) *CRUDHandler[T, C, U] {
	return &CRUDHandler[T, C, U]{service: svc, param: param}
}

func (h *CRUDHandler[T, C, U]) ctx(c *gin.Context) context.Context {
	if h.Context != nil {
		return h.Context(c)
	}
	return c.Request.Context()
}

// Create binds the JSON payload and responds 201 with the stored row.
func (h *CRUDHandler[T, C, U]) Create(c *gin.Context) {
	var req C
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if h.BeforeCreate != nil {
		h.BeforeCreate(c, &req)
	}
	record, err := h.service.Create(h.ctx(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// List returns every row, or one page when page and limit are both given.
func (h *CRUDHandler[T, C, U]) List(c *gin.Context) {
	opts, err := bindListOptions(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	records, pagination, err := h.service.List(h.ctx(c), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Get returns one row.
func (h *CRUDHandler[T, C, U]) Get(c *gin.Context) {
	record, err := h.service.Get(h.ctx(c), c.Param(h.param))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Update applies a partial change.
func (h *CRUDHandler[T, C, U]) Update(c *gin.Context) {
	var req U
	if err := bindJSON(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if h.BeforeUpdate != nil {
		h.BeforeUpdate(c, &req)
	}
	record, err := h.service.Update(h.ctx(c), c.Param(h.param), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Remove deletes or deactivates the row and returns it.
func (h *CRUDHandler[T, C, U]) Remove(c *gin.Context) {
	record, err := h.service.Remove(h.ctx(c), c.Param(h.param))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
