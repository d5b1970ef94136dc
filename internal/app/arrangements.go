package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"howsitter/internal/adapters/observability"
	"howsitter/internal/domain"
)

// ArrangementService owns the booking lifecycle: creation (through the
// repository's single-transaction write path) and status transitions with
// their property side effects.
type ArrangementService struct {
	arrs  domain.ArrangementRepository
	props domain.PropertyRepository
	msgs  domain.MessageRepository
	cache domain.Cache
}

func NewArrangementService(arrs domain.ArrangementRepository, props domain.PropertyRepository, msgs domain.MessageRepository, cache domain.Cache) *ArrangementService {
	return &ArrangementService{arrs: arrs, props: props, msgs: msgs, cache: cache}
}

type BookingInput struct {
	PropertyID          string
	StartDate           time.Time
	EndDate             time.Time
	Message             string
	HouseRules          *string
	SpecialInstructions *string
}

// CreateBooking creates a pending arrangement for the sitter identified by
// the claims. The availability check, arrangement insert and initial thread
// message commit atomically; two racing overlapping requests serialize on the
// property row and exactly one wins.
func (s *ArrangementService) CreateBooking(ctx context.Context, claims domain.Claims, in BookingInput) (domain.Arrangement, error) {
	if claims.Role != domain.RoleSitter {
		return domain.Arrangement{}, fmt.Errorf("only sitters can create bookings: %w", domain.ErrForbidden)
	}
	if !in.StartDate.Before(in.EndDate) {
		return domain.Arrangement{}, domain.Validationf("startDate must be before endDate")
	}

	msg := in.Message
	if msg == "" {
		msg = "Hi, I would like to arrange house sitting for your property."
	}

	arr, err := s.arrs.CreateArrangement(ctx, domain.BookingRequest{
		PropertyID:          in.PropertyID,
		SitterUserID:        claims.UserID,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		Message:             msg,
		HouseRules:          in.HouseRules,
		SpecialInstructions: in.SpecialInstructions,
	})
	switch {
	case err == nil:
		observability.ObserveBooking("created")
	case errors.Is(err, domain.ErrConflict):
		observability.ObserveBooking("conflict")
	case domain.IsValidation(err), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrForbidden):
		observability.ObserveBooking("rejected")
	default:
		observability.ObserveBooking("error")
	}
	return arr, err
}

func (s *ArrangementService) ListForUser(ctx context.Context, claims domain.Claims) ([]domain.ArrangementView, error) {
	switch claims.Role {
	case domain.RoleHomeowner, domain.RoleAdmin:
		return s.arrs.ListForHomeowner(ctx, claims.UserID)
	case domain.RoleSitter:
		return s.arrs.ListForSitterUser(ctx, claims.UserID)
	}
	return nil, fmt.Errorf("invalid role: %w", domain.ErrForbidden)
}

// Transition moves an arrangement to the requested status. Only the owning
// homeowner (or an admin) may transition; the state machine rejects
// everything outside pending→confirmed→active→completed with cancellation
// from pending or confirmed.
func (s *ArrangementService) Transition(ctx context.Context, claims domain.Claims, id string, next domain.ArrangementStatus) error {
	if !next.Valid() {
		return domain.Validationf("unknown status %q", next)
	}

	arr, err := s.arrs.GetArrangement(ctx, id)
	if err != nil {
		return err
	}
	owner, err := s.arrs.GetPropertyOwner(ctx, id)
	if err != nil {
		return err
	}
	if claims.UserID != owner && claims.Role != domain.RoleAdmin {
		return fmt.Errorf("only the property owner may update this arrangement: %w", domain.ErrForbidden)
	}
	if !arr.Status.CanTransitionTo(next) {
		return domain.Validationf("cannot transition arrangement from %s to %s", arr.Status, next)
	}

	if err := s.arrs.Transition(ctx, id, arr.Status, next); err != nil {
		return err
	}

	// the confirm/cancel side effects change the property view
	if s.cache != nil {
		_ = s.cache.Del(ctx, propertyCacheKey(arr.PropertyID))
	}
	return nil
}
