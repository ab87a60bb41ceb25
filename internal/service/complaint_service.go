package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/courseflow-api/internal/models"
)

type complaintRepository interface {
	entityStore[models.Complaint]
	FindByUser(ctx context.Context, userID string) ([]models.Complaint, error)
	FindByStatus(ctx context.Context, status models.ComplaintStatus) ([]models.Complaint, error)
}

// ComplaintService records complaints and tracks their resolution.
type ComplaintService struct {
	*CRUDService[models.Complaint, models.CreateComplaintRequest, models.UpdateComplaintRequest]
	repo   complaintRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewComplaintService creates an instance of ComplaintService.
func NewComplaintService(repo complaintRepository, validate *validator.Validate, logger *zap.Logger) *ComplaintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ComplaintService{repo: repo, logger: logger, now: time.Now}
	s.CRUDService = NewCRUDService[models.Complaint, models.CreateComplaintRequest, models.UpdateComplaintRequest](repo, CRUDHooks[models.Complaint, models.CreateComplaintRequest, models.UpdateComplaintRequest]{
		Build: s.build,
		Apply: s.apply,
	}, validate, logger)
	return s
}

// Create trims the submitter name and lowercases the email before validation and insert.
func (s *ComplaintService) Create(ctx context.Context, req models.CreateComplaintRequest) (*models.Complaint, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	return s.CRUDService.Create(ctx, req)
}

func (s *ComplaintService) build(_ context.Context, req models.CreateComplaintRequest) (*models.Complaint, error) {
	complaint := &models.Complaint{
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
		Subject:    req.Subject,
		Message:    req.Message,
		Status:     req.Status,
	}
	if complaint.Status == "" {
		complaint.Status = models.ComplaintPending
	}
	if req.UserID != "" {
		userID := req.UserID
		complaint.UserID = &userID
	}
	if complaint.Status == models.ComplaintResolved {
		now := s.now().UTC()
		complaint.ResolvedAt = &now
	}
	return complaint, nil
}

// apply stamps resolution data when the status becomes RESOLVED and clears it when it leaves.
func (s *ComplaintService) apply(_ context.Context, complaint *models.Complaint, req models.UpdateComplaintRequest) error {
	previous := complaint.Status
	complaint.Status = req.Status
	switch {
	case req.Status == models.ComplaintResolved && previous != models.ComplaintResolved:
		now := s.now().UTC()
		complaint.ResolvedAt = &now
		resolver := req.ActorEmail
		if req.ResolvedBy != nil && *req.ResolvedBy != "" {
			resolver = *req.ResolvedBy
		}
		if resolver != "" {
			complaint.ResolvedBy = &resolver
		}
	case req.Status == models.ComplaintResolved:
		if req.ResolvedBy != nil && *req.ResolvedBy != "" {
			resolver := *req.ResolvedBy
			complaint.ResolvedBy = &resolver
		}
	default:
		complaint.ResolvedAt = nil
		complaint.ResolvedBy = nil
	}
	s.logger.Info("complaint status changed",
		zap.String("complaint_id", complaint.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(complaint.Status)))
	return nil
}

// ForUser returns the complaints submitted by userID.
func (s *ComplaintService) ForUser(ctx context.Context, userID string) ([]models.Complaint, error) {
	out, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, translate(err, "complaint", "list")
	}
	return out, nil
}

// Pending returns complaints awaiting action.
func (s *ComplaintService) Pending(ctx context.Context) ([]models.Complaint, error) {
	return s.byStatus(ctx, models.ComplaintPending)
}

// Resolved returns resolved complaints, most recently resolved first.
func (s *ComplaintService) Resolved(ctx context.Context) ([]models.Complaint, error) {
	return s.byStatus(ctx, models.ComplaintResolved)
}

func (s *ComplaintService) byStatus(ctx context.Context, status models.ComplaintStatus) ([]models.Complaint, error) {
	out, err := s.repo.FindByStatus(ctx, status)
	if err != nil {
		return nil, translate(err, "complaint", "list")
	}
	return out, nil
}
