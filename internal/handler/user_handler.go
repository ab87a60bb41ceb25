package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
)

// UserHandler exposes admin user management.
type UserHandler struct {
	*CRUDHandler[models.User, models.CreateUserRequest, models.UpdateUserRequest]
}

// NewUserHandler constructs a user handler.
func NewUserHandler(svc crudService[models.User, models.CreateUserRequest, models.UpdateUserRequest]) *UserHandler {
	return &UserHandler{CRUDHandler: NewCRUDHandler[models.User, models.CreateUserRequest, models.UpdateUserRequest](svc, "matricNO")}
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateUserRequest true "User payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.ErrorBody
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) { h.CRUDHandler.Create(c) }

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param orderBy query string false "Sort column"
// @Param orderDirection query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) { h.CRUDHandler.List(c) }

// Get godoc
// @Summary Get user by matric number
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param matricNO path string true "Matric number"
// @Success 200 {object} response.Envelope
// @Router /users/{matricNO} [get]
func (h *UserHandler) Get(c *gin.Context) { h.CRUDHandler.Get(c) }

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param matricNO path string true "Matric number"
// @Param payload body models.UpdateUserRequest true "User payload"
// @Success 200 {object} response.Envelope
// @Router /users/{matricNO} [patch]
func (h *UserHandler) Update(c *gin.Context) { h.CRUDHandler.Update(c) }

// Remove godoc
// @Summary Deactivate user
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param matricNO path string true "Matric number"
// @Success 200 {object} response.Envelope
// @Router /users/{matricNO} [delete]
func (h *UserHandler) Remove(c *gin.Context) { h.CRUDHandler.Remove(c) }
