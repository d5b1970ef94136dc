package domain

import "time"

type ArrangementStatus string

const (
	ArrangementPending   ArrangementStatus = "pending"
	ArrangementConfirmed ArrangementStatus = "confirmed"
	ArrangementActive    ArrangementStatus = "active"
	ArrangementCompleted ArrangementStatus = "completed"
	ArrangementCancelled ArrangementStatus = "cancelled"
)

func (s ArrangementStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Blocking statuses hold the property's date range: they participate in
// overlap checks and forbid deleting the property.
func (s ArrangementStatus) Blocking() bool {
	switch s {
	case ArrangementPending, ArrangementConfirmed, ArrangementActive:
		return true
	}
	return false
}

// transitions encodes the lifecycle: pending -> confirmed -> active ->
// completed, with cancellation as the alternate exit from pending and
// confirmed. Completed and cancelled are terminal.
var transitions = map[ArrangementStatus][]ArrangementStatus{
	ArrangementPending:   {ArrangementConfirmed, ArrangementCancelled},
	ArrangementConfirmed: {ArrangementActive, ArrangementCancelled},
	ArrangementActive:    {ArrangementCompleted},
	ArrangementCompleted: {},
	ArrangementCancelled: {},
}

func (s ArrangementStatus) CanTransitionTo(next ArrangementStatus) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Arrangement links a sitter profile to a property for a half-open date
// range. SecurityDeposit is snapshotted from the property at creation time;
// the date range is immutable once created.
type Arrangement struct {
	ID                  string            `json:"id"`
	PropertyID          string            `json:"property_id"`
	SitterID            string            `json:"sitter_id"` // sitters.id, not the user id
	StartDate           time.Time         `json:"start_date"`
	EndDate             time.Time         `json:"end_date"`
	Status              ArrangementStatus `json:"status"`
	TotalAmount         float64           `json:"total_amount"`
	SecurityDeposit     float64           `json:"security_deposit"`
	HouseRules          *string           `json:"house_rules,omitempty"`
	SpecialInstructions *string           `json:"special_instructions,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// StayDays is the ceiling of the range length in days.
func StayDays(start, end time.Time) int {
	d := end.Sub(start)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}

// TotalAmount bills whole 30-day months: price_per_month * ceil(days/30).
// Calendar-month proration is deliberately not implemented.
func TotalAmount(pricePerMonth float64, stayDays int) float64 {
	months := stayDays / 30
	if stayDays%30 != 0 {
		months++
	}
	return pricePerMonth * float64(months)
}

// Overlaps reports whether [aStart, aEnd] conflicts with [bStart, bEnd].
// Ranges that merely touch on a boundary day conflict too; the single-day
// turnover buffer is intentional.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// ArrangementView is an arrangement joined with property and counterparty
// info, shaped for whichever side of the marketplace is asking.
type ArrangementView struct {
	Arrangement
	PropertyTitle    string  `json:"property_title"`
	PropertyLocation string  `json:"location"`
	PropertyCity     string  `json:"city"`
	PropertyCountry  string  `json:"country"`
	PricePerMonth    float64 `json:"price_per_month"`

	// Counterparty: the sitter when a homeowner asks, the homeowner when a
	// sitter asks.
	CounterpartyID     string  `json:"counterparty_id"`
	CounterpartyName   string  `json:"counterparty_name"`
	CounterpartyEmail  string  `json:"counterparty_email"`
	CounterpartyAvatar *string `json:"counterparty_avatar"`

	MessageCount int `json:"message_count"`
}

// AvailabilityResult is the outcome of the read-only availability check.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
	StayDays  int    `json:"stay_days,omitempty"`
}

// BookingRequest is the input to arrangement creation.
type BookingRequest struct {
	PropertyID          string
	SitterUserID        string
	StartDate           time.Time
	EndDate             time.Time
	Message             string
	HouseRules          *string
	SpecialInstructions *string
}
