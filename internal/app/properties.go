package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"howsitter/internal/domain"
)

// PropertyService owns the property write paths plus the uncached listing
// and search reads. Writes invalidate the detail cache QueryService reads
// through.
type PropertyService struct {
	repo   domain.PropertyRepository
	images domain.ImageStore
	cache  domain.Cache
}

func NewPropertyService(repo domain.PropertyRepository, images domain.ImageStore, cache domain.Cache) *PropertyService {
	return &PropertyService{repo: repo, images: images, cache: cache}
}

type CreatePropertyInput struct {
	Title             string
	Description       string
	Type              string
	Bedrooms          int
	Bathrooms         int
	Location          string
	City              string
	Country           string
	PricePerMonth     float64
	SecurityDeposit   float64
	SquareFeet        *int
	MinStayDays       int
	MaxStayDays       int
	Rules             string
	WebsiteURL        *string
	VirtualTourURL    *string
	Latitude          *float64
	Longitude         *float64
	AvailabilityStart *time.Time
	AvailabilityEnd   *time.Time
	Amenities         []string
	Uploads           []Upload
}

// Upload is one multipart image file as the handler hands it over.
type Upload struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Create inserts the property, its amenities and any uploaded images in one
// transaction. New listings start pending until verified.
func (s *PropertyService) Create(ctx context.Context, claims domain.Claims, in CreatePropertyInput) (domain.Property, error) {
	if claims.Role != domain.RoleHomeowner {
		return domain.Property{}, fmt.Errorf("only homeowners can list properties: %w", domain.ErrForbidden)
	}
	if in.Type == "" {
		in.Type = "house"
	}
	if in.Bedrooms <= 0 {
		in.Bedrooms = 1
	}
	if in.Bathrooms <= 0 {
		in.Bathrooms = 1
	}
	if in.MinStayDays <= 0 {
		in.MinStayDays = 30
	}
	if in.MaxStayDays <= 0 {
		in.MaxStayDays = 365
	}
	if in.MinStayDays > in.MaxStayDays {
		return domain.Property{}, domain.Validationf("min_stay_days cannot exceed max_stay_days")
	}

	p := domain.Property{
		ID:                uuid.NewString(),
		HomeownerID:       claims.UserID,
		Title:             in.Title,
		Description:       in.Description,
		Type:              in.Type,
		Bedrooms:          in.Bedrooms,
		Bathrooms:         in.Bathrooms,
		Location:          in.Location,
		City:              in.City,
		Country:           in.Country,
		PricePerMonth:     in.PricePerMonth,
		SecurityDeposit:   in.SecurityDeposit,
		SquareFeet:        in.SquareFeet,
		MinStayDays:       in.MinStayDays,
		MaxStayDays:       in.MaxStayDays,
		Rules:             in.Rules,
		WebsiteURL:        in.WebsiteURL,
		VirtualTourURL:    in.VirtualTourURL,
		Latitude:          in.Latitude,
		Longitude:         in.Longitude,
		AvailabilityStart: in.AvailabilityStart,
		AvailabilityEnd:   in.AvailabilityEnd,
		Status:            domain.PropertyPending,
	}

	imgs, err := s.storeUploads(ctx, p.ID, in.Uploads, 0)
	if err != nil {
		return domain.Property{}, err
	}
	if err := s.repo.CreateProperty(ctx, p, dedupe(in.Amenities), imgs); err != nil {
		s.removeStored(ctx, imgs)
		return domain.Property{}, err
	}
	return p, nil
}

func (s *PropertyService) List(ctx context.Context, f domain.PropertyFilter) (domain.PropertiesPage, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 12
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Status == "" {
		f.Status = domain.PropertyAvailable
	}
	page, err := s.repo.ListProperties(ctx, f)
	if err != nil {
		return domain.PropertiesPage{}, err
	}
	// amenity filter is a subset match applied after the SQL query
	if len(f.Amenities) > 0 {
		kept := page.Items[:0]
		for _, p := range page.Items {
			if hasAllAmenities(p.Amenities, f.Amenities) {
				kept = append(kept, p)
			}
		}
		page.Items = kept
		page.Total = len(kept)
	}
	return page, nil
}

func (s *PropertyService) ListByOwner(ctx context.Context, claims domain.Claims, status *domain.PropertyStatus, pg domain.PageQuery) (domain.PropertiesPage, error) {
	if pg.Limit <= 0 || pg.Limit > 100 {
		pg.Limit = 10
	}
	if pg.Page < 1 {
		pg.Page = 1
	}
	return s.repo.ListByOwner(ctx, claims.UserID, status, pg)
}

func (s *PropertyService) Update(ctx context.Context, claims domain.Claims, id string, patch domain.PropertyPatch) error {
	if err := s.authorizeOwner(ctx, claims, id); err != nil {
		return err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Validationf("unknown property status %q", *patch.Status)
	}
	if err := s.repo.UpdateProperty(ctx, id, patch); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// Delete refuses while any pending/confirmed/active arrangement exists; the
// repository enforces that inside the delete transaction and returns
// ErrConflict.
func (s *PropertyService) Delete(ctx context.Context, claims domain.Claims, id string) error {
	if err := s.authorizeOwner(ctx, claims, id); err != nil {
		return err
	}
	imgs, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteProperty(ctx, id); err != nil {
		return err
	}
	s.removeStored(ctx, imgs)
	s.invalidate(ctx, id)
	return nil
}

func (s *PropertyService) SearchByLocation(ctx context.Context, lat, lng, radiusKm float64) ([]domain.PropertySummary, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, domain.Validationf("latitude/longitude out of range")
	}
	if radiusKm <= 0 {
		radiusKm = 10
	}
	return s.repo.SearchByLocation(ctx, lat, lng, radiusKm)
}

func (s *PropertyService) Stats(ctx context.Context, claims domain.Claims, id string) (domain.PropertyStats, error) {
	if err := s.authorizeOwner(ctx, claims, id); err != nil {
		return domain.PropertyStats{}, err
	}
	return s.repo.GetStats(ctx, id)
}

// ---- saved properties ----

func (s *PropertyService) Save(ctx context.Context, claims domain.Claims, propertyID string) error {
	return s.repo.SaveProperty(ctx, claims.UserID, propertyID)
}

func (s *PropertyService) Unsave(ctx context.Context, claims domain.Claims, propertyID string) error {
	return s.repo.UnsaveProperty(ctx, claims.UserID, propertyID)
}

func (s *PropertyService) ListSaved(ctx context.Context, claims domain.Claims) ([]domain.PropertySummary, error) {
	return s.repo.ListSaved(ctx, claims.UserID)
}

// ---- images ----

func (s *PropertyService) AddImages(ctx context.Context, claims domain.Claims, propertyID string, uploads []Upload) ([]domain.PropertyImage, error) {
	if err := s.authorizeOwner(ctx, claims, propertyID); err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, domain.Validationf("no images provided")
	}
	if len(uploads) > 10 {
		return nil, domain.Validationf("at most 10 images per upload")
	}

	existing, err := s.repo.ListImages(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	nextOrder := 0
	for _, im := range existing {
		if im.DisplayOrder >= nextOrder {
			nextOrder = im.DisplayOrder + 1
		}
	}

	// startOrder 0 means the property has no images yet, so the first
	// upload becomes primary inside storeUploads
	imgs, err := s.storeUploads(ctx, propertyID, uploads, nextOrder)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddImages(ctx, propertyID, imgs); err != nil {
		s.removeStored(ctx, imgs)
		return nil, err
	}
	s.invalidate(ctx, propertyID)
	return imgs, nil
}

func (s *PropertyService) ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error) {
	return s.repo.ListImages(ctx, propertyID)
}

func (s *PropertyService) DeleteImage(ctx context.Context, claims domain.Claims, propertyID, imageID string) error {
	if err := s.authorizeOwner(ctx, claims, propertyID); err != nil {
		return err
	}
	img, err := s.repo.GetImage(ctx, propertyID, imageID)
	if err != nil {
		return err
	}
	if img.IsPrimary {
		return domain.Validationf("cannot delete the primary image; set another image as primary first")
	}
	if err := s.repo.DeleteImage(ctx, propertyID, imageID); err != nil {
		return err
	}
	if err := s.images.Remove(ctx, img.ImageURL); err != nil {
		log.Warn().Err(err).Str("url", img.ImageURL).Msg("image file removal failed")
	}
	s.invalidate(ctx, propertyID)
	return nil
}

func (s *PropertyService) SetPrimaryImage(ctx context.Context, claims domain.Claims, propertyID, imageID string) error {
	if err := s.authorizeOwner(ctx, claims, propertyID); err != nil {
		return err
	}
	if err := s.repo.SetPrimaryImage(ctx, propertyID, imageID); err != nil {
		return err
	}
	s.invalidate(ctx, propertyID)
	return nil
}

func (s *PropertyService) ReorderImages(ctx context.Context, claims domain.Claims, propertyID string, order []string) error {
	if err := s.authorizeOwner(ctx, claims, propertyID); err != nil {
		return err
	}
	if len(order) == 0 {
		return domain.Validationf("imageOrder must be a non-empty array of image ids")
	}
	if err := s.repo.ReorderImages(ctx, propertyID, order); err != nil {
		return err
	}
	s.invalidate(ctx, propertyID)
	return nil
}

// ---- helpers ----

func (s *PropertyService) authorizeOwner(ctx context.Context, claims domain.Claims, propertyID string) error {
	p, err := s.repo.GetProperty(ctx, propertyID)
	if err != nil {
		return err
	}
	if p.HomeownerID != claims.UserID && claims.Role != domain.RoleAdmin {
		return fmt.Errorf("not the owner of this property: %w", domain.ErrForbidden)
	}
	return nil
}

func (s *PropertyService) storeUploads(ctx context.Context, propertyID string, uploads []Upload, startOrder int) ([]domain.PropertyImage, error) {
	var imgs []domain.PropertyImage
	for i, up := range uploads {
		url, err := s.images.Save(ctx, up.Name, up.Reader, up.Size)
		if err != nil {
			s.removeStored(ctx, imgs)
			return nil, err
		}
		imgs = append(imgs, domain.PropertyImage{
			ID:           uuid.NewString(),
			PropertyID:   propertyID,
			ImageURL:     url,
			DisplayOrder: startOrder + i,
			IsPrimary:    startOrder == 0 && i == 0,
		})
	}
	return imgs, nil
}

func (s *PropertyService) removeStored(ctx context.Context, imgs []domain.PropertyImage) {
	for _, im := range imgs {
		if err := s.images.Remove(ctx, im.ImageURL); err != nil {
			log.Warn().Err(err).Str("url", im.ImageURL).Msg("orphaned image cleanup failed")
		}
	}
}

func (s *PropertyService) invalidate(ctx context.Context, propertyID string) {
	if s.cache != nil {
		_ = s.cache.Del(ctx, propertyCacheKey(propertyID))
	}
}

func hasAllAmenities(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, a := range have {
		set[a] = true
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
