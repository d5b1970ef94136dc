package domain

import "time"

type Role string

const (
	RoleHomeowner Role = "homeowner"
	RoleSitter    Role = "sitter"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHomeowner, RoleSitter, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	Phone        *string
	Country      *string
	Bio          *string
	AvatarURL    *string
	Verified     bool
	CreatedAt    time.Time
}

// SitterProfile is the sitter-specific record keyed separately from users;
// arrangements reference this id, not the user id.
type SitterProfile struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	Rating          float64  `json:"rating"`
	TotalReviews    int      `json:"total_reviews"`
	ExperienceYears int      `json:"experience_years"`
	Credentials     []string `json:"credentials"`
	Languages       []string `json:"languages"`
	IsAvailable     bool     `json:"is_available"`
}

// SitterView is the directory read model (profile joined with user info).
type SitterView struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Country         *string `json:"country"`
	Bio             *string `json:"bio"`
	AvatarURL       *string `json:"avatar_url"`
	Rating          float64 `json:"rating"`
	TotalReviews    int     `json:"total_reviews"`
	ExperienceYears int     `json:"experience_years"`
	IsAvailable     bool    `json:"is_available"`
}

type SittersPage struct {
	Items []SitterView `json:"sitters"`
	Total int          `json:"total"`
}

// Profile aggregates shown on GET /api/profile, role dependent.
type SitterStats struct {
	ArrangementCount int      `json:"arrangement_count"`
	AvgRating        *float64 `json:"avg_rating"`
	ReviewCount      int      `json:"review_count"`
}
