package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"howsitter/internal/app"
	"howsitter/internal/domain"
)

type createPropertyReq struct {
	Title             string   `json:"title" validate:"required"`
	Description       string   `json:"description" validate:"required"`
	Type              string   `json:"type"`
	Bedrooms          int      `json:"bedrooms"`
	Bathrooms         int      `json:"bathrooms"`
	Location          string   `json:"location" validate:"required"`
	City              string   `json:"city" validate:"required"`
	Country           string   `json:"country" validate:"required"`
	PricePerMonth     float64  `json:"price_per_month" validate:"required,gt=0"`
	SecurityDeposit   float64  `json:"security_deposit" validate:"gte=0"`
	SquareFeet        *int     `json:"square_feet"`
	MinStayDays       int      `json:"min_stay_days"`
	MaxStayDays       int      `json:"max_stay_days"`
	Rules             string   `json:"rules"`
	WebsiteURL        *string  `json:"website_url"`
	VirtualTourURL    *string  `json:"virtual_tour_url"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	AvailabilityStart *string  `json:"availability_start"`
	AvailabilityEnd   *string  `json:"availability_end"`
	Amenities         []string `json:"amenities"`
}

func (h *Handlers) createProperty(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	in, err := h.parseCreateProperty(r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Props.Create(r.Context(), claims, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"propertyId": p.ID, "status": p.Status})
}

// parseCreateProperty accepts either a JSON body or a multipart form with an
// embedded "property" JSON part plus image files.
func (h *Handlers) parseCreateProperty(r *http.Request) (app.CreatePropertyInput, error) {
	var req createPropertyReq
	var uploads []app.Upload

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
			return app.CreatePropertyInput{}, domain.Validationf("invalid multipart form: %v", err)
		}
		if err := json.Unmarshal([]byte(r.FormValue("property")), &req); err != nil {
			return app.CreatePropertyInput{}, domain.Validationf("invalid property JSON part: %v", err)
		}
		if err := validate.Struct(&req); err != nil {
			return app.CreatePropertyInput{}, domain.Validationf("%v", err)
		}
		ups, err := h.formUploads(r)
		if err != nil {
			return app.CreatePropertyInput{}, err
		}
		uploads = ups
	} else if err := decode(r, &req); err != nil {
		return app.CreatePropertyInput{}, err
	}

	in := app.CreatePropertyInput{
		Title:           req.Title,
		Description:     req.Description,
		Type:            req.Type,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		Location:        req.Location,
		City:            req.City,
		Country:         req.Country,
		PricePerMonth:   req.PricePerMonth,
		SecurityDeposit: req.SecurityDeposit,
		SquareFeet:      req.SquareFeet,
		MinStayDays:     req.MinStayDays,
		MaxStayDays:     req.MaxStayDays,
		Rules:           req.Rules,
		WebsiteURL:      req.WebsiteURL,
		VirtualTourURL:  req.VirtualTourURL,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		Amenities:       req.Amenities,
		Uploads:         uploads,
	}
	if req.AvailabilityStart != nil {
		t, err := parseDate(*req.AvailabilityStart)
		if err != nil {
			return app.CreatePropertyInput{}, err
		}
		in.AvailabilityStart = &t
	}
	if req.AvailabilityEnd != nil {
		t, err := parseDate(*req.AvailabilityEnd)
		if err != nil {
			return app.CreatePropertyInput{}, err
		}
		in.AvailabilityEnd = &t
	}
	return in, nil
}

func (h *Handlers) formUploads(r *http.Request) ([]app.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var uploads []app.Upload
	for _, fh := range r.MultipartForm.File["images"] {
		if fh.Size > h.MaxUploadBytes {
			return nil, domain.Validationf("image %s exceeds the upload size limit", fh.Filename)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, domain.Validationf("cannot read image %s: %v", fh.Filename, err)
		}
		uploads = append(uploads, app.Upload{Name: fh.Filename, Size: fh.Size, Reader: f})
	}
	return uploads, nil
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	page, err := h.Props.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, page)
}

func filterFromQuery(r *http.Request) domain.PropertyFilter {
	q := r.URL.Query()
	f := domain.PropertyFilter{}

	optStr := func(k string) *string {
		if v := q.Get(k); v != "" {
			return &v
		}
		return nil
	}
	optInt := func(k string) *int {
		if v := q.Get(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return &n
			}
		}
		return nil
	}
	optF64 := func(k string) *float64 {
		if v := q.Get(k); v != "" {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				return &n
			}
		}
		return nil
	}

	if v := q.Get("status"); v != "" && domain.PropertyStatus(v).Valid() {
		f.Status = domain.PropertyStatus(v)
	}
	f.City = optStr("city")
	f.Country = optStr("country")
	f.MinPrice = optF64("min_price")
	f.MaxPrice = optF64("max_price")
	f.MinBedrooms = optInt("min_bedrooms")
	f.MaxBedrooms = optInt("max_bedrooms")
	f.PropertyType = optStr("property_type")
	f.MinStay = optInt("min_stay")
	f.MaxStay = optInt("max_stay")
	f.Search = optStr("search")
	if v := q.Get("amenities"); v != "" {
		for _, a := range strings.Split(v, ",") {
			if a = strings.TrimSpace(a); a != "" {
				f.Amenities = append(f.Amenities, a)
			}
		}
	}
	pg := pageQuery(r)
	f.Page, f.Limit = pg.Page, pg.Limit
	return f
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	d, err := h.Q.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, d)
}

func (h *Handlers) myProperties(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var status *domain.PropertyStatus
	if v := r.URL.Query().Get("status"); v != "" {
		st := domain.PropertyStatus(v)
		if !st.Valid() {
			writeError(w, domain.Validationf("unknown property status %q", v))
			return
		}
		status = &st
	}
	page, err := h.Props.ListByOwner(r.Context(), claims, status, pageQuery(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handlers) updateProperty(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())

	var patch struct {
		Title           *string  `json:"title"`
		Description     *string  `json:"description"`
		Type            *string  `json:"type"`
		Bedrooms        *int     `json:"bedrooms"`
		Bathrooms       *int     `json:"bathrooms"`
		Location        *string  `json:"location"`
		City            *string  `json:"city"`
		Country         *string  `json:"country"`
		PricePerMonth   *float64 `json:"price_per_month"`
		SecurityDeposit *float64 `json:"security_deposit"`
		SquareFeet      *int     `json:"square_feet"`
		MinStayDays     *int     `json:"min_stay_days"`
		MaxStayDays     *int     `json:"max_stay_days"`
		Rules           *string  `json:"rules"`
		WebsiteURL      *string  `json:"website_url"`
		VirtualTourURL  *string  `json:"virtual_tour_url"`
		Latitude        *float64 `json:"latitude"`
		Longitude       *float64 `json:"longitude"`
		Status          *string  `json:"status"`
		Amenities       []string `json:"amenities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, domain.Validationf("invalid JSON body: %v", err))
		return
	}

	p := domain.PropertyPatch{
		Title:           patch.Title,
		Description:     patch.Description,
		Type:            patch.Type,
		Bedrooms:        patch.Bedrooms,
		Bathrooms:       patch.Bathrooms,
		Location:        patch.Location,
		City:            patch.City,
		Country:         patch.Country,
		PricePerMonth:   patch.PricePerMonth,
		SecurityDeposit: patch.SecurityDeposit,
		SquareFeet:      patch.SquareFeet,
		MinStayDays:     patch.MinStayDays,
		MaxStayDays:     patch.MaxStayDays,
		Rules:           patch.Rules,
		WebsiteURL:      patch.WebsiteURL,
		VirtualTourURL:  patch.VirtualTourURL,
		Latitude:        patch.Latitude,
		Longitude:       patch.Longitude,
		Amenities:       patch.Amenities,
	}
	if patch.Status != nil {
		st := domain.PropertyStatus(*patch.Status)
		p.Status = &st
	}

	if err := h.Props.Update(r.Context(), claims, chi.URLParam(r, "id"), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Property updated successfully"})
}

func (h *Handlers) deleteProperty(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := h.Props.Delete(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Property deleted successfully"})
}

func (h *Handlers) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartDate string `json:"start_date" validate:"required"`
		EndDate   string `json:"end_date" validate:"required"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.Arrs.CheckAvailability(r.Context(), chi.URLParam(r, "id"), start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) searchLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, domain.Validationf("lat and lng are required numbers"))
		return
	}
	radius, _ := strconv.ParseFloat(q.Get("radius"), 64)

	out, err := h.Props.SearchByLocation(r.Context(), lat, lng, radius)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, map[string]any{"properties": out, "count": len(out)})
}

func (h *Handlers) propertyStats(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	st, err := h.Props.Stats(r.Context(), claims, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ---- images ----

func (h *Handlers) uploadImages(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, domain.Validationf("invalid multipart form: %v", err))
		return
	}
	uploads, err := h.formUploads(r)
	if err != nil {
		writeError(w, err)
		return
	}
	imgs, err := h.Props.AddImages(r.Context(), claims, chi.URLParam(r, "id"), uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"images": imgs})
}

func (h *Handlers) listImages(w http.ResponseWriter, r *http.Request) {
	imgs, err := h.Props.ListImages(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCached(w, r, map[string]any{"images": imgs})
}

func (h *Handlers) deleteImage(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	err := h.Props.DeleteImage(r.Context(), claims, chi.URLParam(r, "id"), chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Image deleted successfully"})
}

func (h *Handlers) setPrimaryImage(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	err := h.Props.SetPrimaryImage(r.Context(), claims, chi.URLParam(r, "id"), chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Primary image updated"})
}

func (h *Handlers) reorderImages(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	var req struct {
		ImageOrder []string `json:"imageOrder" validate:"required,min=1"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.Props.ReorderImages(r.Context(), claims, chi.URLParam(r, "id"), req.ImageOrder); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Images reordered"})
}

// ---- saved properties ----

func (h *Handlers) saveProperty(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := h.Props.Save(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Property saved"})
}

func (h *Handlers) unsaveProperty(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	if err := h.Props.Unsave(r.Context(), claims, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Property removed from saved"})
}

func (h *Handlers) listSaved(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFrom(r.Context())
	out, err := h.Props.ListSaved(r.Context(), claims)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"properties": out})
}
