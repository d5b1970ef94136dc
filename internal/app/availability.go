package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"howsitter/internal/domain"
)

// CheckAvailability is the read-only predicate behind
// POST /api/properties/{id}/check-availability. It holds no locks and writes
// nothing; the authoritative re-check runs inside the booking transaction.
func (s *ArrangementService) CheckAvailability(ctx context.Context, propertyID string, start, end time.Time) (domain.AvailabilityResult, error) {
	if !start.Before(end) {
		return domain.AvailabilityResult{}, domain.Validationf("start_date must be before end_date")
	}

	p, err := s.props.GetProperty(ctx, propertyID)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	if p.Status != domain.PropertyAvailable {
		return domain.AvailabilityResult{
			Available: false,
			Message:   "Property is not available for new arrangements",
		}, nil
	}

	stayDays := domain.StayDays(start, end)
	if stayDays < p.MinStayDays {
		return domain.AvailabilityResult{
			Available: false,
			Message:   fmt.Sprintf("Minimum stay is %d days", p.MinStayDays),
		}, nil
	}
	if stayDays > p.MaxStayDays {
		return domain.AvailabilityResult{
			Available: false,
			Message:   fmt.Sprintf("Maximum stay is %d days", p.MaxStayDays),
		}, nil
	}

	conflicts, err := s.arrs.FindConflicts(ctx, propertyID, start, end)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.AvailabilityResult{}, err
	}
	if len(conflicts) > 0 {
		return domain.AvailabilityResult{
			Available: false,
			Message:   "Property is not available for the selected dates",
		}, nil
	}

	return domain.AvailabilityResult{
		Available: true,
		Message:   "Property is available for the selected dates",
		StayDays:  stayDays,
	}, nil
}
