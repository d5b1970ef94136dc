package domain

import (
	"context"
	"io"
	"time"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u User) error
	CreateSitterProfile(ctx context.Context, p SitterProfile) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	GetSitterByUserID(ctx context.Context, userID string) (SitterProfile, error)
	ListSitters(ctx context.Context, pg PageQuery) (SittersPage, error)
	CountPropertiesByOwner(ctx context.Context, homeownerID string) (int, error)
	GetSitterStats(ctx context.Context, userID string) (SitterStats, error)
}

type PropertyRepository interface {
	CreateProperty(ctx context.Context, p Property, amenities []string, images []PropertyImage) error
	GetProperty(ctx context.Context, id string) (PropertyDetail, error)
	ListProperties(ctx context.Context, f PropertyFilter) (PropertiesPage, error)
	ListByOwner(ctx context.Context, homeownerID string, status *PropertyStatus, pg PageQuery) (PropertiesPage, error)
	UpdateProperty(ctx context.Context, id string, patch PropertyPatch) error
	// DeleteProperty removes the property with its amenities, images and
	// saved rows in one transaction. Fails with ErrConflict while any
	// blocking-status arrangement exists.
	DeleteProperty(ctx context.Context, id string) error
	SearchByLocation(ctx context.Context, lat, lng, radiusKm float64) ([]PropertySummary, error)
	GetStats(ctx context.Context, id string) (PropertyStats, error)

	AddImages(ctx context.Context, propertyID string, images []PropertyImage) error
	ListImages(ctx context.Context, propertyID string) ([]PropertyImage, error)
	GetImage(ctx context.Context, propertyID, imageID string) (PropertyImage, error)
	DeleteImage(ctx context.Context, propertyID, imageID string) error
	SetPrimaryImage(ctx context.Context, propertyID, imageID string) error
	ReorderImages(ctx context.Context, propertyID string, order []string) error

	SaveProperty(ctx context.Context, userID, propertyID string) error
	UnsaveProperty(ctx context.Context, userID, propertyID string) error
	ListSaved(ctx context.Context, userID string) ([]PropertySummary, error)
}

type ArrangementRepository interface {
	// CreateArrangement runs the whole booking write atomically: it locks the
	// property row, re-validates the status gate, stay bounds and overlap
	// check against a consistent snapshot, then inserts the arrangement and
	// the initial message. Exactly one of two racing overlapping requests
	// can succeed.
	CreateArrangement(ctx context.Context, req BookingRequest) (Arrangement, error)
	GetArrangement(ctx context.Context, id string) (Arrangement, error)
	// GetPropertyOwner returns the homeowner user id for the arrangement's
	// property, for authorization checks.
	GetPropertyOwner(ctx context.Context, arrangementID string) (string, error)
	ListForHomeowner(ctx context.Context, userID string) ([]ArrangementView, error)
	ListForSitterUser(ctx context.Context, userID string) ([]ArrangementView, error)
	// FindConflicts returns blocking-status arrangements whose ranges
	// intersect [start, end], boundary touches included. Read-only; the
	// authoritative check reruns inside CreateArrangement's transaction.
	FindConflicts(ctx context.Context, propertyID string, start, end time.Time) ([]Arrangement, error)
	// Transition compares-and-swaps the status and applies the property
	// side effect (occupied on confirm, available again on cancel when no
	// other confirmed/active arrangement remains) in one transaction.
	Transition(ctx context.Context, id string, from, to ArrangementStatus) error
}

type MessageRepository interface {
	Append(ctx context.Context, m Message) error
	ListByArrangement(ctx context.Context, arrangementID string) ([]MessageView, error)
	GetParticipants(ctx context.Context, arrangementID string) (Participants, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// ImageStore persists uploaded binaries and returns a serving URL path.
type ImageStore interface {
	Save(ctx context.Context, originalName string, r io.Reader, size int64) (string, error)
	Remove(ctx context.Context, url string) error
}

// Claims is the authenticated identity extracted from a bearer credential.
type Claims struct {
	UserID string
	Email  string
	Role   Role
}

type TokenIssuer interface {
	Issue(u User) (string, error)
	Verify(token string) (Claims, error)
}

type PageQuery struct {
	Page  int
	Limit int
}

func (p PageQuery) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
