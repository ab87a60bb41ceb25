package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

type complaintService interface {
	crudService[models.Complaint, models.CreateComplaintRequest, models.UpdateComplaintRequest]
	ForUser(ctx context.Context, userID string) ([]models.Complaint, error)
	Pending(ctx context.Context) ([]models.Complaint, error)
	Resolved(ctx context.Context) ([]models.Complaint, error)
}

// ComplaintHandler handles complaint endpoints.
type ComplaintHandler struct {
	*CRUDHandler[models.Complaint, models.CreateComplaintRequest, models.UpdateComplaintRequest]
	service complaintService
}

// NewComplaintHandler constructs a complaint handler. The caller is stamped on new
// complaints and recorded as resolver on status changes.
func NewComplaintHandler(svc complaintService) *ComplaintHandler {
	crud := NewCRUDHandler[models.Complaint, models.CreateComplaintRequest, models.UpdateComplaintRequest](svc, "id")
	crud.BeforeCreate = func(c *gin.Context, req *models.CreateComplaintRequest) {
		req.UserID = claimsFromContext(c).UserID()
	}
	crud.BeforeUpdate = func(c *gin.Context, req *models.UpdateComplaintRequest) {
		if claims := claimsFromContext(c); claims != nil {
			req.ActorEmail = claims.Email
		}
	}
	return &ComplaintHandler{CRUDHandler: crud, service: svc}
}

// Create godoc
// @Summary Submit a complaint
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateComplaintRequest true "Complaint payload"
// @Success 201 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) Create(c *gin.Context) { h.CRUDHandler.Create(c) }

// List godoc
// @Summary List complaints
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /complaints [get]
func (h *ComplaintHandler) List(c *gin.Context) { h.CRUDHandler.List(c) }

// Get godoc
// @Summary Get complaint by id
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id} [get]
func (h *ComplaintHandler) Get(c *gin.Context) { h.CRUDHandler.Get(c) }

// Update godoc
// @Summary Change complaint status
// @Description Moving to RESOLVED stamps resolvedAt and resolvedBy; leaving RESOLVED clears them.
// @Tags Complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Param payload body models.UpdateComplaintRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id} [patch]
func (h *ComplaintHandler) Update(c *gin.Context) { h.CRUDHandler.Update(c) }

// Remove godoc
// @Summary Delete complaint
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Param id path string true "Complaint ID"
// @Success 200 {object} response.Envelope
// @Router /complaints/{id} [delete]
func (h *ComplaintHandler) Remove(c *gin.Context) { h.CRUDHandler.Remove(c) }

// Mine godoc
// @Summary Complaints submitted by the caller
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /complaints/my-complaints [get]
func (h *ComplaintHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	respond(c)(h.service.ForUser(c.Request.Context(), claims.UserID()))
}

// Pending godoc
// @Summary Complaints awaiting handling
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /complaints/pending [get]
func (h *ComplaintHandler) Pending(c *gin.Context) {
	respond(c)(h.service.Pending(c.Request.Context()))
}

// Resolved godoc
// @Summary Resolved complaints
// @Tags Complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /complaints/resolved [get]
func (h *ComplaintHandler) Resolved(c *gin.Context) {
	respond(c)(h.service.Resolved(c.Request.Context()))
}
