package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloodsync/database"
	"bloodsync/database/repository"
	"bloodsync/models"
	"bloodsync/services/notification"
	"bloodsync/services/proximity"
	"bloodsync/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const anonymousDonor = "Anonymous Donor"

// Notifier is the part of the notification service the workflow needs.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
	Dispatch(ctx context.Context, notifications ...models.Notification) notification.DispatchReport
}

// Outcome is the committed result of a workflow operation. Delivery carries
// external send failures; they never undo the transition.
type Outcome struct {
	Offer         *models.Offer               `json:"offer,omitempty"`
	Request       *models.BloodRequest        `json:"request,omitempty"`
	Donation      *models.Donation            `json:"donation,omitempty"`
	AutoRejected  []string                    `json:"autoRejected,omitempty"`
	Notifications []models.Notification       `json:"-"`
	Delivery      notification.DispatchReport `json:"delivery"`
}

// OfferService drives the offer lifecycle between donors and request owners.
type OfferService interface {
	CreateOffer(ctx context.Context, caller models.Caller, requestID string) (*Outcome, error)
	RespondToOffer(ctx context.Context, caller models.Caller, offerID string, decision models.Decision) (*Outcome, error)
	CancelRequest(ctx context.Context, caller models.Caller, requestID string) (*Outcome, error)
	ListOffersForRequest(ctx context.Context, caller models.Caller, requestID string) ([]models.Offer, error)
	ListOffersByDonor(ctx context.Context, caller models.Caller) ([]models.Offer, error)
}

type DefaultOfferService struct {
	Repos    *repository.Repositories
	Notifier Notifier
	Logger   *zap.Logger
	// Cache, when set, is invalidated after transitions that change search results.
	Cache proximity.CacheInvalidator

	now func() time.Time
}

func NewOfferService(repos *repository.Repositories, notifier Notifier, logger *zap.Logger) *DefaultOfferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultOfferService{Repos: repos, Notifier: notifier, Logger: logger, now: time.Now}
}

// CreateOffer records the caller's pending offer on a request and notifies its owner.
func (s *DefaultOfferService) CreateOffer(ctx context.Context, caller models.Caller, requestID string) (*Outcome, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID == caller.UserID {
		return nil, s.fail("create", ErrSelfDonation)
	}
	if req.Status != models.RequestPending {
		return nil, s.fail("create", ErrRequestNotPending)
	}

	snapshot, err := s.donorSnapshot(ctx, caller)
	if err != nil {
		return nil, err
	}

	out := &Outcome{}
	err = s.Repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		out.Notifications = nil

		// A same-status transition pins the request for the rest of the transaction.
		open, err := s.Repos.Requests.TransitionStatus(ctx, req.ID, models.RequestPending, models.RequestPending)
		if err != nil {
			return fmt.Errorf("failed to lock request: %w", err)
		}
		if !open {
			return ErrRequestNotPending
		}

		exists, err := s.Repos.Offers.HasPendingOffer(ctx, req.ID, caller.UserID)
		if err != nil {
			return fmt.Errorf("failed to check existing offers: %w", err)
		}
		if exists {
			return ErrDuplicateOffer
		}

		o := snapshot
		o.ID = uuid.New().String()
		o.RequestID = req.ID
		o.RequestUserID = req.UserID
		o.BloodType = req.BloodType
		o.Status = models.OfferPending
		o.MatchDate = s.now()
		if err := s.Repos.Offers.Create(ctx, &o); err != nil {
			if errors.Is(err, database.ErrDuplicateKey) {
				return ErrDuplicateOffer
			}
			return fmt.Errorf("failed to create offer: %w", err)
		}
		out.Offer = &o

		return s.notify(ctx, out, req.UserID, notification.RequestMatchMessage(req.BloodType), models.NotificationRequestMatch, req.ID)
	})
	if err != nil {
		return nil, s.fail("create", err)
	}

	out.Request = req
	s.succeed(ctx, "create", out)
	s.Logger.Info("donation offer created",
		zap.String("offerId", out.Offer.ID),
		zap.String("requestId", req.ID),
		zap.String("donorId", caller.UserID))
	return out, nil
}

// RespondToOffer lets the request owner accept or reject a pending offer.
func (s *DefaultOfferService) RespondToOffer(ctx context.Context, caller models.Caller, offerID string, decision models.Decision) (*Outcome, error) {
	if decision != models.DecisionAccept && decision != models.DecisionReject {
		return nil, ErrInvalidDecision
	}
	op := string(decision)

	o, err := s.Repos.Offers.GetByID(ctx, offerID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, s.fail(op, ErrOfferNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	req, err := s.loadRequest(ctx, o.RequestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != caller.UserID {
		return nil, s.fail(op, ErrNotRequestOwner)
	}

	out := &Outcome{}
	err = s.Repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		*out = Outcome{}

		current, err := s.Repos.Offers.GetByID(ctx, offerID)
		if err != nil {
			return fmt.Errorf("failed to reload offer: %w", err)
		}
		if current.Status != models.OfferPending {
			return terminalOfferError(current)
		}

		if decision == models.DecisionAccept {
			return s.accept(ctx, out, req, current)
		}
		return s.reject(ctx, out, req, current)
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.succeed(ctx, op, out)
	s.Logger.Info("donation offer answered",
		zap.String("offerId", offerID),
		zap.String("requestId", req.ID),
		zap.String("decision", op),
		zap.Int("autoRejected", len(out.AutoRejected)))
	return out, nil
}

func (s *DefaultOfferService) accept(ctx context.Context, out *Outcome, req *models.BloodRequest, o *models.Offer) error {
	now := s.now()

	fulfilled, err := s.Repos.Requests.TransitionStatus(ctx, req.ID, models.RequestPending, models.RequestFulfilled)
	if err != nil {
		return fmt.Errorf("failed to fulfil request: %w", err)
	}
	if !fulfilled {
		return ErrRequestNotPending
	}

	accepted, err := s.Repos.Offers.TransitionStatus(ctx, o.ID, models.OfferPending, models.OfferAccepted, now)
	if err != nil {
		return fmt.Errorf("failed to accept offer: %w", err)
	}
	if !accepted {
		return ErrOfferNotPending
	}
	o.Status = models.OfferAccepted
	o.RespondedAt = &now

	donation := models.Donation{
		ID:           uuid.New().String(),
		DonorID:      o.DonorID,
		DonorName:    o.DonorName,
		RequestID:    req.ID,
		BloodType:    req.BloodType,
		Location:     req.Location,
		DonationDate: now,
	}
	if err := s.Repos.Donations.Create(ctx, &donation); err != nil {
		return fmt.Errorf("failed to record donation: %w", err)
	}
	if err := s.Repos.Users.SetLastDonationDate(ctx, o.DonorID, now); err != nil && !errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("failed to update donor: %w", err)
	}

	if err := s.notify(ctx, out, o.DonorID, notification.OfferAcceptedMessage(req.BloodType), models.NotificationOfferAccepted, o.ID); err != nil {
		return err
	}
	if err := s.rejectSiblings(ctx, out, req, now); err != nil {
		return err
	}

	fulfilledReq := *req
	fulfilledReq.Status = models.RequestFulfilled
	out.Request = &fulfilledReq
	out.Offer = o
	out.Donation = &donation
	return nil
}

func (s *DefaultOfferService) reject(ctx context.Context, out *Outcome, req *models.BloodRequest, o *models.Offer) error {
	now := s.now()
	rejected, err := s.Repos.Offers.TransitionStatus(ctx, o.ID, models.OfferPending, models.OfferRejected, now)
	if err != nil {
		return fmt.Errorf("failed to reject offer: %w", err)
	}
	if !rejected {
		return ErrOfferNotPending
	}
	o.Status = models.OfferRejected
	o.RespondedAt = &now

	out.Offer = o
	out.Request = req
	return s.notify(ctx, out, o.DonorID, notification.OfferRejectedMessage(req.ID), models.NotificationOfferRejected, o.ID)
}

// CancelRequest withdraws a pending request and rejects its open offers.
func (s *DefaultOfferService) CancelRequest(ctx context.Context, caller models.Caller, requestID string) (*Outcome, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != caller.UserID {
		return nil, s.fail("cancel", ErrNotRequestOwner)
	}

	out := &Outcome{}
	err = s.Repos.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		*out = Outcome{}

		cancelled, err := s.Repos.Requests.TransitionStatus(ctx, req.ID, models.RequestPending, models.RequestCancelled)
		if err != nil {
			return fmt.Errorf("failed to cancel request: %w", err)
		}
		if !cancelled {
			return ErrRequestNotPending
		}
		return s.rejectSiblings(ctx, out, req, s.now())
	})
	if err != nil {
		return nil, s.fail("cancel", err)
	}

	cancelledReq := *req
	cancelledReq.Status = models.RequestCancelled
	out.Request = &cancelledReq
	s.succeed(ctx, "cancel", out)
	return out, nil
}

// ListOffersForRequest is the request owner's view of the offers received.
func (s *DefaultOfferService) ListOffersForRequest(ctx context.Context, caller models.Caller, requestID string) ([]models.Offer, error) {
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrNotRequestOwner
	}
	offers, err := s.Repos.Offers.ListByRequest(ctx, requestID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return nonNil(offers), nil
}

// ListOffersByDonor returns the caller's own offers.
func (s *DefaultOfferService) ListOffersByDonor(ctx context.Context, caller models.Caller) ([]models.Offer, error) {
	offers, err := s.Repos.Offers.ListByDonor(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return nonNil(offers), nil
}

// rejectSiblings moves every remaining pending offer on req to rejected.
func (s *DefaultOfferService) rejectSiblings(ctx context.Context, out *Outcome, req *models.BloodRequest, at time.Time) error {
	pending, err := s.Repos.Offers.ListByRequest(ctx, req.ID, models.OfferPending)
	if err != nil {
		return fmt.Errorf("failed to list pending offers: %w", err)
	}
	for _, sibling := range pending {
		rejected, err := s.Repos.Offers.AutoReject(ctx, sibling.ID, at)
		if err != nil {
			return fmt.Errorf("failed to reject offer %s: %w", sibling.ID, err)
		}
		if !rejected {
			continue
		}
		out.AutoRejected = append(out.AutoRejected, sibling.ID)
		if err := s.notify(ctx, out, sibling.DonorID, notification.OfferRejectedMessage(req.ID), models.NotificationOfferRejected, sibling.ID); err != nil {
			return err
		}
	}
	return nil
}

// terminalOfferError explains why an answered offer cannot be answered again.
// An offer closed because its request left Pending reports the request state.
func terminalOfferError(o *models.Offer) error {
	if o.Status == models.OfferRejected && o.AutoRejected {
		return ErrRequestNotPending
	}
	return ErrOfferNotPending
}

func (s *DefaultOfferService) notify(ctx context.Context, out *Outcome, userID, message string, kind models.NotificationType, relatedID string) error {
	n := models.Notification{
		UserID:    userID,
		Message:   message,
		Type:      kind,
		RelatedID: relatedID,
		CreatedAt: s.now(),
	}
	if err := s.Notifier.Notify(ctx, &n); err != nil {
		return err
	}
	out.Notifications = append(out.Notifications, n)
	return nil
}

// donorSnapshot copies the donor's contact details onto a new offer. Callers
// without a profile are recorded anonymously.
func (s *DefaultOfferService) donorSnapshot(ctx context.Context, caller models.Caller) (models.Offer, error) {
	donor, err := s.Repos.Users.GetByID(ctx, caller.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return models.Offer{DonorID: caller.UserID, DonorName: anonymousDonor, DonorEmail: caller.Email}, nil
	}
	if err != nil {
		return models.Offer{}, fmt.Errorf("failed to load donor profile: %w", err)
	}

	name := donor.DisplayName()
	if name == "" {
		name = anonymousDonor
	}
	email := donor.Email
	if email == "" {
		email = caller.Email
	}
	return models.Offer{
		DonorID:          caller.UserID,
		DonorName:        name,
		DonorBloodType:   donor.BloodType,
		DonorLocation:    donor.Location,
		DonorEmail:       email,
		DonorPhoneNumber: donor.PhoneNumber,
	}, nil
}

func (s *DefaultOfferService) loadRequest(ctx context.Context, id string) (*models.BloodRequest, error) {
	req, err := s.Repos.Requests.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return req, nil
}

// succeed counts the transition and runs the post-commit fan-out.
func (s *DefaultOfferService) succeed(ctx context.Context, op string, out *Outcome) {
	transitionsTotal.WithLabelValues(op, "ok").Inc()
	autoRejectedTotal.Add(float64(len(out.AutoRejected)))
	if s.Cache != nil {
		switch op {
		case string(models.DecisionAccept):
			s.Cache.Invalidate(context.WithoutCancel(ctx), proximity.SourceRequests, proximity.SourceDonors)
		case "cancel":
			s.Cache.Invalidate(context.WithoutCancel(ctx), proximity.SourceRequests)
		}
	}
	if len(out.Notifications) == 0 {
		return
	}
	// The transition is committed; fan-out ignores the caller's deadline.
	out.Delivery = s.Notifier.Dispatch(context.WithoutCancel(ctx), out.Notifications...)
	if err := out.Delivery.Err(); err != nil {
		s.Logger.Warn("workflow committed with delivery warnings", zap.Error(err))
	}
}

func (s *DefaultOfferService) fail(op string, err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		transitionsTotal.WithLabelValues(op, appErr.Code).Inc()
	} else {
		transitionsTotal.WithLabelValues(op, "error").Inc()
	}
	return err
}

func nonNil(offers []models.Offer) []models.Offer {
	if offers == nil {
		return []models.Offer{}
	}
	return offers
}
