package domain

import "time"

type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyOccupied    PropertyStatus = "occupied"
	PropertyMaintenance PropertyStatus = "maintenance"
	PropertyPending     PropertyStatus = "pending"
	PropertyUnavailable PropertyStatus = "unavailable"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyAvailable, PropertyOccupied, PropertyMaintenance, PropertyPending, PropertyUnavailable:
		return true
	}
	return false
}

type Property struct {
	ID                string         `json:"id"`
	HomeownerID       string         `json:"homeowner_id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Type              string         `json:"type"`
	Bedrooms          int            `json:"bedrooms"`
	Bathrooms         int            `json:"bathrooms"`
	Location          string         `json:"location"`
	City              string         `json:"city"`
	Country           string         `json:"country"`
	PricePerMonth     float64        `json:"price_per_month"`
	SecurityDeposit   float64        `json:"security_deposit"`
	SquareFeet        *int           `json:"square_feet,omitempty"`
	MinStayDays       int            `json:"min_stay_days"`
	MaxStayDays       int            `json:"max_stay_days"`
	Rules             string         `json:"rules"`
	WebsiteURL        *string        `json:"website_url,omitempty"`
	VirtualTourURL    *string        `json:"virtual_tour_url,omitempty"`
	Latitude          *float64       `json:"latitude,omitempty"`
	Longitude         *float64       `json:"longitude,omitempty"`
	AvailabilityStart *time.Time     `json:"availability_start,omitempty"`
	AvailabilityEnd   *time.Time     `json:"availability_end,omitempty"`
	Status            PropertyStatus `json:"status"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type PropertyImage struct {
	ID           string    `json:"id"`
	PropertyID   string    `json:"property_id"`
	ImageURL     string    `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// PropertySummary is the listing-card read model.
type PropertySummary struct {
	Property
	HomeownerName    string   `json:"homeowner_name"`
	HomeownerCountry *string  `json:"homeowner_country"`
	Amenities        []string `json:"amenities"`
	PrimaryImage     *string  `json:"primary_image"`
	ImageCount       int      `json:"image_count"`
	ReviewCount      int      `json:"review_count"`
	AverageRating    float64  `json:"average_rating"`
	DistanceKm       *float64 `json:"distance,omitempty"`
}

// PropertyDetail is the single-property read model.
type PropertyDetail struct {
	Property
	HomeownerName   string          `json:"homeowner_name"`
	HomeownerEmail  string          `json:"homeowner_email"`
	HomeownerBio    *string         `json:"homeowner_bio"`
	HomeownerAvatar *string         `json:"homeowner_avatar"`
	HomeownerPhone  *string         `json:"homeowner_phone"`
	Amenities       []string        `json:"amenities"`
	Images          []PropertyImage `json:"images"`
}

// PropertyFilter is the recognized-options listing query. Every set field
// compiles to one parameterized predicate; Amenities is a subset match
// applied after the SQL query.
type PropertyFilter struct {
	Status       PropertyStatus
	City         *string
	Country      *string
	MinPrice     *float64
	MaxPrice     *float64
	MinBedrooms  *int
	MaxBedrooms  *int
	PropertyType *string
	MinStay      *int
	MaxStay      *int
	Search       *string
	Amenities    []string
	Page         int
	Limit        int
}

type PropertiesPage struct {
	Items []PropertySummary `json:"properties"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PropertyPatch holds the updatable fields; nil means "leave unchanged".
// Amenities non-nil replaces the whole set.
type PropertyPatch struct {
	Title           *string
	Description     *string
	Type            *string
	Bedrooms        *int
	Bathrooms       *int
	Location        *string
	City            *string
	Country         *string
	PricePerMonth   *float64
	SecurityDeposit *float64
	SquareFeet      *int
	MinStayDays     *int
	MaxStayDays     *int
	Rules           *string
	WebsiteURL      *string
	VirtualTourURL  *string
	Latitude        *float64
	Longitude       *float64
	Status          *PropertyStatus
	Amenities       []string
}

type StatusCount struct {
	Status      ArrangementStatus `json:"status"`
	Count       int               `json:"count"`
	AvgDuration *float64          `json:"avg_duration"`
}

type PropertyStats struct {
	ArrangementStats []StatusCount `json:"arrangement_stats"`
}
