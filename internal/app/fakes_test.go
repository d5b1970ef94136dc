package app_test

import (
	"context"
	"io"
	"time"

	"howsitter/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// ---- fakes ----

type fakeProps struct {
	detail    domain.PropertyDetail
	detailErr error
	page      domain.PropertiesPage
	images    []domain.PropertyImage
	saved     []domain.PropertySummary

	created   []domain.Property
	updated   map[string]domain.PropertyPatch
	deleted   []string
	deleteErr error
}

func (f *fakeProps) CreateProperty(ctx context.Context, p domain.Property, amenities []string, images []domain.PropertyImage) error {
	f.created = append(f.created, p)
	return nil
}
func (f *fakeProps) GetProperty(ctx context.Context, id string) (domain.PropertyDetail, error) {
	if f.detailErr != nil {
		return domain.PropertyDetail{}, f.detailErr
	}
	return f.detail, nil
}
func (f *fakeProps) ListProperties(ctx context.Context, q domain.PropertyFilter) (domain.PropertiesPage, error) {
	return f.page, nil
}
func (f *fakeProps) ListByOwner(ctx context.Context, homeownerID string, status *domain.PropertyStatus, pg domain.PageQuery) (domain.PropertiesPage, error) {
	return f.page, nil
}
func (f *fakeProps) UpdateProperty(ctx context.Context, id string, patch domain.PropertyPatch) error {
	if f.updated == nil {
		f.updated = map[string]domain.PropertyPatch{}
	}
	f.updated[id] = patch
	return nil
}
func (f *fakeProps) DeleteProperty(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}
func (f *fakeProps) SearchByLocation(ctx context.Context, lat, lng, radiusKm float64) ([]domain.PropertySummary, error) {
	return f.page.Items, nil
}
func (f *fakeProps) GetStats(ctx context.Context, id string) (domain.PropertyStats, error) {
	return domain.PropertyStats{}, nil
}
func (f *fakeProps) AddImages(ctx context.Context, propertyID string, images []domain.PropertyImage) error {
	f.images = append(f.images, images...)
	return nil
}
func (f *fakeProps) ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error) {
	return f.images, nil
}
func (f *fakeProps) GetImage(ctx context.Context, propertyID, imageID string) (domain.PropertyImage, error) {
	for _, im := range f.images {
		if im.ID == imageID {
			return im, nil
		}
	}
	return domain.PropertyImage{}, domain.ErrNotFound
}
func (f *fakeProps) DeleteImage(ctx context.Context, propertyID, imageID string) error {
	kept := f.images[:0]
	for _, im := range f.images {
		if im.ID != imageID {
			kept = append(kept, im)
		}
	}
	f.images = kept
	return nil
}
func (f *fakeProps) SetPrimaryImage(ctx context.Context, propertyID, imageID string) error { return nil }
func (f *fakeProps) ReorderImages(ctx context.Context, propertyID string, order []string) error {
	return nil
}
func (f *fakeProps) SaveProperty(ctx context.Context, userID, propertyID string) error   { return nil }
func (f *fakeProps) UnsaveProperty(ctx context.Context, userID, propertyID string) error { return nil }
func (f *fakeProps) ListSaved(ctx context.Context, userID string) ([]domain.PropertySummary, error) {
	return f.saved, nil
}

type fakeArrs struct {
	arr       domain.Arrangement
	arrErr    error
	owner     string
	conflicts []domain.Arrangement
	views     []domain.ArrangementView

	createdReq  *domain.BookingRequest
	createErr   error
	transitions []string
}

func (f *fakeArrs) CreateArrangement(ctx context.Context, req domain.BookingRequest) (domain.Arrangement, error) {
	f.createdReq = &req
	if f.createErr != nil {
		return domain.Arrangement{}, f.createErr
	}
	return f.arr, nil
}
func (f *fakeArrs) GetArrangement(ctx context.Context, id string) (domain.Arrangement, error) {
	if f.arrErr != nil {
		return domain.Arrangement{}, f.arrErr
	}
	return f.arr, nil
}
func (f *fakeArrs) GetPropertyOwner(ctx context.Context, arrangementID string) (string, error) {
	return f.owner, nil
}
func (f *fakeArrs) ListForHomeowner(ctx context.Context, userID string) ([]domain.ArrangementView, error) {
	return f.views, nil
}
func (f *fakeArrs) ListForSitterUser(ctx context.Context, userID string) ([]domain.ArrangementView, error) {
	return f.views, nil
}
func (f *fakeArrs) FindConflicts(ctx context.Context, propertyID string, start, end time.Time) ([]domain.Arrangement, error) {
	var out []domain.Arrangement
	for _, a := range f.conflicts {
		if a.Status.Blocking() && domain.Overlaps(start, end, a.StartDate, a.EndDate) {
			out = append(out, a)
		}
	}
	return out, nil
}
func (f *fakeArrs) Transition(ctx context.Context, id string, from, to domain.ArrangementStatus) error {
	f.transitions = append(f.transitions, string(from)+"->"+string(to))
	f.arr.Status = to
	return nil
}

type fakeMsgs struct {
	parts    domain.Participants
	partsErr error
	views    []domain.MessageView
	appended []domain.Message
}

func (f *fakeMsgs) Append(ctx context.Context, m domain.Message) error {
	f.appended = append(f.appended, m)
	return nil
}
func (f *fakeMsgs) ListByArrangement(ctx context.Context, arrangementID string) ([]domain.MessageView, error) {
	return f.views, nil
}
func (f *fakeMsgs) GetParticipants(ctx context.Context, arrangementID string) (domain.Participants, error) {
	if f.partsErr != nil {
		return domain.Participants{}, f.partsErr
	}
	return f.parts, nil
}

type fakeUsers struct {
	user    domain.User
	userErr error
	sitters domain.SittersPage
	profile domain.SitterProfile
	stats   domain.SitterStats

	createdUsers    []domain.User
	createdProfiles []domain.SitterProfile
}

func (f *fakeUsers) CreateUser(ctx context.Context, u domain.User) error {
	f.createdUsers = append(f.createdUsers, u)
	return nil
}
func (f *fakeUsers) CreateSitterProfile(ctx context.Context, p domain.SitterProfile) error {
	f.createdProfiles = append(f.createdProfiles, p)
	return nil
}
func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	if f.userErr != nil {
		return domain.User{}, f.userErr
	}
	return f.user, nil
}
func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if f.userErr != nil {
		return domain.User{}, f.userErr
	}
	return f.user, nil
}
func (f *fakeUsers) GetSitterByUserID(ctx context.Context, userID string) (domain.SitterProfile, error) {
	return f.profile, nil
}
func (f *fakeUsers) ListSitters(ctx context.Context, pg domain.PageQuery) (domain.SittersPage, error) {
	return f.sitters, nil
}
func (f *fakeUsers) CountPropertiesByOwner(ctx context.Context, homeownerID string) (int, error) {
	return 3, nil
}
func (f *fakeUsers) GetSitterStats(ctx context.Context, userID string) (domain.SitterStats, error) {
	return f.stats, nil
}

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if c.store == nil {
		return false, nil
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.PropertyDetail:
		*d = v.(domain.PropertyDetail)
	case *domain.SittersPage:
		*d = v.(domain.SittersPage)
	}
	return true, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}
func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

type fakeImages struct {
	saved   []string
	removed []string
	saveErr error
}

func (f *fakeImages) Save(ctx context.Context, originalName string, r io.Reader, size int64) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	url := "/uploads/properties/" + originalName
	f.saved = append(f.saved, url)
	return url, nil
}

func (f *fakeImages) Remove(ctx context.Context, url string) error {
	f.removed = append(f.removed, url)
	return nil
}
