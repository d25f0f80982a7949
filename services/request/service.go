package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bloodsync/database"
	requestRepo "bloodsync/database/repository/request"
	"bloodsync/models"
	"bloodsync/services/geocell"
	"bloodsync/services/proximity"
	"bloodsync/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidRequest  = utils.NewAppError(utils.CodeValidation, "invalid blood request")
	ErrRequestNotFound = utils.NewAppError(utils.CodeNotFound, "blood request not found")
)

// CreateInput is what a patient submits when asking for blood.
type CreateInput struct {
	PatientName   string           `json:"patientName"`
	BloodType     string           `json:"bloodType"`
	Location      string           `json:"location"`
	Coordinates   *models.GeoPoint `json:"coordinates"`
	Urgency       string           `json:"urgency"`
	ContactPerson string           `json:"contactPerson"`
	ContactPhone  string           `json:"contactPhone"`
	ContactEmail  string           `json:"contactEmail"`
	Notes         string           `json:"notes"`
}

type RequestService interface {
	Create(ctx context.Context, caller models.Caller, input CreateInput) (*models.BloodRequest, error)
	Get(ctx context.Context, id string) (*models.BloodRequest, error)
	ListMine(ctx context.Context, caller models.Caller) ([]models.BloodRequest, error)
}

type DefaultRequestService struct {
	Repo requestRepo.RequestRepository
	// Cache, when set, is invalidated after a request is created.
	Cache proximity.CacheInvalidator
}

func NewRequestService(repo requestRepo.RequestRepository) *DefaultRequestService {
	return &DefaultRequestService{Repo: repo}
}

// Create opens a Pending request owned by the caller.
func (s *DefaultRequestService) Create(ctx context.Context, caller models.Caller, input CreateInput) (*models.BloodRequest, error) {
	req, err := buildRequest(caller, input)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, req); err != nil {
		utils.GetLogger().Error("Failed to create blood request", zap.String("userID", caller.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to create blood request: %w", err)
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, proximity.SourceRequests)
	}
	utils.GetLogger().Info("Blood request created",
		zap.String("requestID", req.ID),
		zap.String("bloodType", string(req.BloodType)),
		zap.String("urgency", string(req.Urgency)))
	return req, nil
}

func buildRequest(caller models.Caller, in CreateInput) (*models.BloodRequest, error) {
	if caller.UserID == "" {
		return nil, ErrInvalidRequest.Withf("caller id is required")
	}
	if len(strings.TrimSpace(in.PatientName)) < 2 {
		return nil, ErrInvalidRequest.Withf("patient name must be at least 2 characters")
	}
	if len(strings.TrimSpace(in.Location)) < 2 {
		return nil, ErrInvalidRequest.Withf("location is required")
	}
	if len(strings.TrimSpace(in.ContactPerson)) < 2 {
		return nil, ErrInvalidRequest.Withf("contact person is required")
	}
	if len(strings.TrimSpace(in.ContactPhone)) < 10 {
		return nil, ErrInvalidRequest.Withf("a valid contact phone number is required")
	}
	bt, err := models.ParseBloodType(in.BloodType)
	if err != nil {
		return nil, ErrInvalidRequest.Withf("%v", err)
	}
	urgency, ok := models.ParseUrgency(in.Urgency)
	if !ok {
		return nil, ErrInvalidRequest.Withf("urgency must be Low, Medium or High")
	}

	now := time.Now()
	req := &models.BloodRequest{
		ID:            uuid.New().String(),
		UserID:        caller.UserID,
		PatientName:   strings.TrimSpace(in.PatientName),
		BloodType:     bt,
		Location:      strings.TrimSpace(in.Location),
		Urgency:       urgency,
		Status:        models.RequestPending,
		Notes:         in.Notes,
		ContactPerson: strings.TrimSpace(in.ContactPerson),
		ContactPhone:  strings.TrimSpace(in.ContactPhone),
		ContactEmail:  in.ContactEmail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.ContactEmail == "" {
		req.ContactEmail = caller.Email
	}
	if in.Coordinates != nil {
		if err := in.Coordinates.Validate(); err != nil {
			return nil, ErrInvalidRequest.Withf("%v", err)
		}
		point := *in.Coordinates
		req.Coordinates = &point
		req.Geohash = geocell.Encode(point)
	}
	return req, nil
}

func (s *DefaultRequestService) Get(ctx context.Context, id string) (*models.BloodRequest, error) {
	req, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blood request: %w", err)
	}
	return req, nil
}

// ListMine returns the caller's requests, newest first.
func (s *DefaultRequestService) ListMine(ctx context.Context, caller models.Caller) ([]models.BloodRequest, error) {
	reqs, err := s.Repo.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blood requests: %w", err)
	}
	if reqs == nil {
		reqs = []models.BloodRequest{}
	}
	return reqs, nil
}
