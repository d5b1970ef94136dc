package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"howsitter/internal/app"
	"howsitter/internal/domain"
)

var validate = validator.New()

type Handlers struct {
	Auth  *app.AuthService
	Props *app.PropertyService
	Arrs  *app.ArrangementService
	Msgs  *app.MessageService
	Q     *app.QueryService

	Tokens         domain.TokenIssuer
	MaxUploadBytes int64
	LoginLimiter   *LoginLimiter
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/", h.apiIndex)
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	})

	s.mux.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", RateLimit(h.LoginLimiter)(h.login))

		r.Get("/properties", h.listProperties)
		r.Get("/properties/search/location", h.searchLocation)
		r.Get("/properties/{id}", h.getProperty)
		r.Get("/properties/{id}/images", h.listImages)
		r.Post("/properties/{id}/check-availability", h.checkAvailability)
		r.Get("/sitters", h.listSitters)

		r.Group(func(r chi.Router) {
			r.Use(Auth(h.Tokens))

			r.Get("/profile", h.profile)

			r.Post("/properties", h.createProperty)
			r.Get("/properties/user/my-properties", h.myProperties)
			r.Put("/properties/{id}", h.updateProperty)
			r.Delete("/properties/{id}", h.deleteProperty)
			r.Get("/properties/{id}/stats", h.propertyStats)

			r.Post("/properties/{id}/images", h.uploadImages)
			r.Put("/properties/{id}/images/reorder", h.reorderImages)
			r.Put("/properties/{id}/images/{imageID}/primary", h.setPrimaryImage)
			r.Delete("/properties/{id}/images/{imageID}", h.deleteImage)

			r.Get("/saved-properties", h.listSaved)
			r.Post("/properties/{id}/save", h.saveProperty)
			r.Delete("/properties/{id}/save", h.unsaveProperty)

			r.Post("/bookings", h.createBooking)
			r.Get("/arrangements", h.listArrangements)
			r.Put("/arrangements/{id}/status", h.updateArrangementStatus)
			r.Get("/arrangements/{id}/messages", h.listMessages)
			r.Post("/arrangements/{id}/messages", h.sendMessage)
		})
	})
}

func (h *Handlers) apiIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "How Sitter Backend API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": map[string]string{
			"auth":       "/api/auth/register, /api/auth/login",
			"properties": "/api/properties, /api/properties/{id}",
			"sitters":    "/api/sitters",
			"bookings":   "/api/bookings, /api/arrangements",
			"health":     "/healthz",
		},
	})
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validationf("invalid JSON body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return domain.Validationf("%v", err)
	}
	return nil
}

// parseDate accepts the wire format YYYY-MM-DD, with RFC 3339 as fallback.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, domain.Validationf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func pageQuery(r *http.Request) domain.PageQuery {
	pg := domain.PageQuery{Page: 1, Limit: 12}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		pg.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		pg.Limit = v
	}
	return pg
}

// ---- auth ----

type registerReq struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     string  `json:"name" validate:"required"`
	Role     string  `json:"role" validate:"required,oneof=homeowner sitter"`
	Country  *string `json:"country"`
}

type userResp struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Role    string  `json:"role"`
	Country *string `json:"country,omitempty"`
}

func toUserResp(u domain.User) userResp {
	return userResp{ID: u.ID, Email: u.Email, Name: u.Name, Role: string(u.Role), Country: u.Country}
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, tok, err := h.Auth.Register(r.Context(), app.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
		Country:  req.Country,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": tok, "user": toUserResp(u)})
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	u, tok, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "user": toUserResp(u)})
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	p, err := h.Auth.GetProfile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"user": toUserResp(p.User)}
	if p.User.Phone != nil {
		resp["phone"] = *p.User.Phone
	}
	if p.User.Bio != nil {
		resp["bio"] = *p.User.Bio
	}
	if p.PropertyCount != nil {
		resp["property_count"] = *p.PropertyCount
	}
	if p.Sitter != nil {
		resp["sitter_profile"] = p.Sitter
	}
	if p.SitterStats != nil {
		resp["sitter_stats"] = p.SitterStats
	}
	writeJSON(w, http.StatusOK, resp)
}

// ---- sitters ----

func (h *Handlers) listSitters(w http.ResponseWriter, r *http.Request) {
	page, err := h.Q.ListSitters(r.Context(), pageQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, map[string]any{"sitters": page.Items, "total": page.Total})
}
