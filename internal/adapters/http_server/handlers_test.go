package httpserver_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpserver "howsitter/internal/adapters/http_server"
	"howsitter/internal/adapters/token"
	"howsitter/internal/app"
	"howsitter/internal/domain"
)

// ---- fakes ----

type stubUsers struct {
	byEmail map[string]domain.User
	created []domain.User
}

func (s *stubUsers) CreateUser(ctx context.Context, u domain.User) error {
	s.created = append(s.created, u)
	if s.byEmail == nil {
		s.byEmail = map[string]domain.User{}
	}
	s.byEmail[u.Email] = u
	return nil
}
func (s *stubUsers) CreateSitterProfile(ctx context.Context, p domain.SitterProfile) error {
	return nil
}
func (s *stubUsers) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return domain.User{}, domain.ErrNotFound
}
func (s *stubUsers) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound
}
func (s *stubUsers) GetSitterByUserID(ctx context.Context, userID string) (domain.SitterProfile, error) {
	return domain.SitterProfile{}, domain.ErrNotFound
}
func (s *stubUsers) ListSitters(ctx context.Context, pg domain.PageQuery) (domain.SittersPage, error) {
	return domain.SittersPage{Items: []domain.SitterView{{ID: "s1", Name: "Ana"}}, Total: 1}, nil
}
func (s *stubUsers) CountPropertiesByOwner(ctx context.Context, homeownerID string) (int, error) {
	return 0, nil
}
func (s *stubUsers) GetSitterStats(ctx context.Context, userID string) (domain.SitterStats, error) {
	return domain.SitterStats{}, nil
}

type stubProps struct{ detail domain.PropertyDetail }

func (s *stubProps) CreateProperty(ctx context.Context, p domain.Property, a []string, i []domain.PropertyImage) error {
	return nil
}
func (s *stubProps) GetProperty(ctx context.Context, id string) (domain.PropertyDetail, error) {
	if id != s.detail.ID {
		return domain.PropertyDetail{}, domain.ErrNotFound
	}
	return s.detail, nil
}
func (s *stubProps) ListProperties(ctx context.Context, f domain.PropertyFilter) (domain.PropertiesPage, error) {
	return domain.PropertiesPage{Items: []domain.PropertySummary{{Property: s.detail.Property}}, Total: 1, Page: f.Page, Limit: f.Limit}, nil
}
func (s *stubProps) ListByOwner(ctx context.Context, id string, st *domain.PropertyStatus, pg domain.PageQuery) (domain.PropertiesPage, error) {
	return domain.PropertiesPage{}, nil
}
func (s *stubProps) UpdateProperty(ctx context.Context, id string, p domain.PropertyPatch) error {
	return nil
}
func (s *stubProps) DeleteProperty(ctx context.Context, id string) error { return nil }
func (s *stubProps) SearchByLocation(ctx context.Context, lat, lng, r float64) ([]domain.PropertySummary, error) {
	return nil, nil
}
func (s *stubProps) GetStats(ctx context.Context, id string) (domain.PropertyStats, error) {
	return domain.PropertyStats{}, nil
}
func (s *stubProps) AddImages(ctx context.Context, id string, im []domain.PropertyImage) error {
	return nil
}
func (s *stubProps) ListImages(ctx context.Context, id string) ([]domain.PropertyImage, error) {
	return nil, nil
}
func (s *stubProps) GetImage(ctx context.Context, id, imageID string) (domain.PropertyImage, error) {
	return domain.PropertyImage{}, domain.ErrNotFound
}
func (s *stubProps) DeleteImage(ctx context.Context, id, imageID string) error     { return nil }
func (s *stubProps) SetPrimaryImage(ctx context.Context, id, imageID string) error { return nil }
func (s *stubProps) ReorderImages(ctx context.Context, id string, o []string) error {
	return nil
}
func (s *stubProps) SaveProperty(ctx context.Context, uid, pid string) error   { return nil }
func (s *stubProps) UnsaveProperty(ctx context.Context, uid, pid string) error { return nil }
func (s *stubProps) ListSaved(ctx context.Context, uid string) ([]domain.PropertySummary, error) {
	return nil, nil
}

type stubArrs struct {
	arr       domain.Arrangement
	createErr error
	owner     string
}

func (s *stubArrs) CreateArrangement(ctx context.Context, req domain.BookingRequest) (domain.Arrangement, error) {
	if s.createErr != nil {
		return domain.Arrangement{}, s.createErr
	}
	return s.arr, nil
}
func (s *stubArrs) GetArrangement(ctx context.Context, id string) (domain.Arrangement, error) {
	return s.arr, nil
}
func (s *stubArrs) GetPropertyOwner(ctx context.Context, id string) (string, error) {
	return s.owner, nil
}
func (s *stubArrs) ListForHomeowner(ctx context.Context, uid string) ([]domain.ArrangementView, error) {
	return nil, nil
}
func (s *stubArrs) ListForSitterUser(ctx context.Context, uid string) ([]domain.ArrangementView, error) {
	return nil, nil
}
func (s *stubArrs) FindConflicts(ctx context.Context, pid string, start, end time.Time) ([]domain.Arrangement, error) {
	return nil, nil
}
func (s *stubArrs) Transition(ctx context.Context, id string, from, to domain.ArrangementStatus) error {
	return nil
}

type stubMsgs struct{}

func (stubMsgs) Append(ctx context.Context, m domain.Message) error { return nil }
func (stubMsgs) ListByArrangement(ctx context.Context, id string) ([]domain.MessageView, error) {
	return nil, nil
}
func (stubMsgs) GetParticipants(ctx context.Context, id string) (domain.Participants, error) {
	return domain.Participants{}, domain.ErrNotFound
}

type memCache struct{ store map[string][]byte }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, _ := json.Marshal(v)
	c.store[key] = b
	return nil
}
func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

type nopStore struct{}

func (nopStore) Save(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	return "/uploads/properties/" + name, nil
}
func (nopStore) Remove(ctx context.Context, url string) error { return nil }

// ---- harness ----

type env struct {
	srv    *httptest.Server
	tokens *token.Issuer
	arrs   *stubArrs
	props  *stubProps
}

func newEnv(t *testing.T) *env {
	t.Helper()

	props := &stubProps{detail: domain.PropertyDetail{
		Property: domain.Property{
			ID: "prop-1", HomeownerID: "owner-1", Title: "Canal house",
			Status: domain.PropertyAvailable, MinStayDays: 30, MaxStayDays: 180, PricePerMonth: 1000,
		},
		HomeownerName: "Jo",
	}}
	arrs := &stubArrs{
		arr:   domain.Arrangement{ID: "arr-1", PropertyID: "prop-1", Status: domain.ArrangementPending, TotalAmount: 2000},
		owner: "owner-1",
	}
	users := &stubUsers{}
	tokens := token.New("test-secret", time.Hour)
	cache := &memCache{}

	s := httpserver.New()
	s.MountHandlers(&httpserver.Handlers{
		Auth:           app.NewAuthService(users, tokens),
		Props:          app.NewPropertyService(props, nopStore{}, cache),
		Arrs:           app.NewArrangementService(arrs, props, stubMsgs{}, cache),
		Msgs:           app.NewMessageService(stubMsgs{}),
		Q:              app.NewQueryService(props, users, cache, time.Minute),
		Tokens:         tokens,
		MaxUploadBytes: 10 << 20,
		LoginLimiter:   httpserver.NewLoginLimiter(100, 100),
	})

	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return &env{srv: ts, tokens: tokens, arrs: arrs, props: props}
}

func (e *env) bearer(t *testing.T, id string, role domain.Role) string {
	t.Helper()
	tok, err := e.tokens.Issue(domain.User{ID: id, Email: id + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return "Bearer " + tok
}

func (e *env) do(t *testing.T, method, path, auth, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return m
}

// ---- tests ----

func TestAPIIndex(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "GET", "/", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["message"] != "How Sitter Backend API" {
		t.Fatalf("message = %v", body["message"])
	}
	eps, _ := body["endpoints"].(map[string]any)
	if _, ok := eps["properties"]; !ok {
		t.Fatalf("endpoints catalog missing properties: %v", body["endpoints"])
	}
}

func TestProfile_RequiresToken(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "GET", "/api/profile", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/problem+json") {
		t.Fatalf("content type = %q", ct)
	}
	resp.Body.Close()
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/auth/register", "",
		`{"email":"not-an-email","password":"short","name":"","role":"admin"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/auth/register", "",
		`{"email":"ana@example.com","password":"password123","name":"Ana","role":"sitter"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if tok, _ := body["token"].(string); tok == "" {
		t.Fatal("no token in register response")
	}

	resp = e.do(t, "POST", "/api/auth/login", "",
		`{"email":"ana@example.com","password":"password123"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = e.do(t, "POST", "/api/auth/login", "",
		`{"email":"ana@example.com","password":"wrong-password"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGetProperty_ETagRoundTrip(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "GET", "/api/properties/prop-1", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	resp.Body.Close()

	req, _ := http.NewRequest("GET", e.srv.URL+"/api/properties/prop-1", nil)
	req.Header.Set("If-None-Match", etag)
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if resp2.StatusCode != http.StatusNotModified {
		t.Fatalf("status = %d, want 304", resp2.StatusCode)
	}
	resp2.Body.Close()
}

func TestGetProperty_NotFound(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "GET", "/api/properties/nope", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateBooking(t *testing.T) {
	e := newEnv(t)
	auth := e.bearer(t, "sitter-user-1", domain.RoleSitter)

	resp := e.do(t, "POST", "/api/bookings", auth,
		`{"propertyId":"prop-1","startDate":"2026-03-01","endDate":"2026-04-15"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["arrangementId"] != "arr-1" || body["status"] != "pending" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCreateBooking_HomeownerForbidden(t *testing.T) {
	e := newEnv(t)
	auth := e.bearer(t, "owner-1", domain.RoleHomeowner)

	resp := e.do(t, "POST", "/api/bookings", auth,
		`{"propertyId":"prop-1","startDate":"2026-03-01","endDate":"2026-04-15"}`)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCreateBooking_Conflict(t *testing.T) {
	e := newEnv(t)
	e.arrs.createErr = domain.ErrConflict
	auth := e.bearer(t, "sitter-user-1", domain.RoleSitter)

	resp := e.do(t, "POST", "/api/bookings", auth,
		`{"propertyId":"prop-1","startDate":"2026-03-01","endDate":"2026-04-15"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCheckAvailability(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/properties/prop-1/check-availability", "",
		`{"start_date":"2026-03-01","end_date":"2026-04-15"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["available"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	if body["stay_days"] != float64(45) {
		t.Fatalf("stay_days = %v, want 45", body["stay_days"])
	}
}

func TestUpdateArrangementStatus_IllegalTransition(t *testing.T) {
	e := newEnv(t)
	e.arrs.arr.Status = domain.ArrangementCompleted
	auth := e.bearer(t, "owner-1", domain.RoleHomeowner)

	resp := e.do(t, "PUT", "/api/arrangements/arr-1/status", auth, `{"status":"active"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginRateLimit(t *testing.T) {
	e := newEnv(t)

	// swap in a tiny bucket
	s := httpserver.New()
	s.MountHandlers(&httpserver.Handlers{
		Auth:         app.NewAuthService(&stubUsers{}, e.tokens),
		Q:            app.NewQueryService(e.props, &stubUsers{}, &memCache{}, time.Minute),
		Tokens:       e.tokens,
		LoginLimiter: httpserver.NewLoginLimiter(1, 2),
	})
	ts := httptest.NewServer(s.Mux())
	defer ts.Close()

	var last int
	for i := 0; i < 5; i++ {
		resp, err := http.Post(ts.URL+"/api/auth/login", "application/json",
			strings.NewReader(`{"email":"a@b.com","password":"x"}`))
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		last = resp.StatusCode
		resp.Body.Close()
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("final status = %d, want 429", last)
	}
}
