package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"howsitter/internal/domain"
)

type PropertyRepo struct{ db *sql.DB }

func NewPropertyRepo(db *sql.DB) *PropertyRepo { return &PropertyRepo{db: db} }

func (r *PropertyRepo) CreateProperty(ctx context.Context, p domain.Property, amenities []string, images []domain.PropertyImage) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertPropertySQL,
			p.ID, p.HomeownerID, p.Title, p.Description, p.Type, p.Bedrooms, p.Bathrooms,
			p.Location, p.City, p.Country, p.PricePerMonth, p.SecurityDeposit,
			valInt(p.SquareFeet), p.MinStayDays, p.MaxStayDays, p.Rules,
			valStr(p.WebsiteURL), valStr(p.VirtualTourURL),
			valF64(p.Latitude), valF64(p.Longitude),
			p.AvailabilityStart, p.AvailabilityEnd, string(p.Status),
		)
		if err != nil {
			return fmt.Errorf("insert property: %w", err)
		}
		for _, a := range amenities {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO property_amenities (property_id, amenity) VALUES (?, ?)`, p.ID, a); err != nil {
				return fmt.Errorf("insert amenity: %w", err)
			}
		}
		for _, im := range images {
			if _, err := tx.ExecContext(ctx, insertImageSQL,
				im.ID, p.ID, im.ImageURL, im.DisplayOrder, im.IsPrimary); err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
		}
		return nil
	})
}

func (r *PropertyRepo) GetProperty(ctx context.Context, id string) (domain.PropertyDetail, error) {
	var d domain.PropertyDetail
	var status string
	var sqFeet sql.NullInt64
	var website, tour, ownerBio, ownerAvatar, ownerPhone sql.NullString
	var lat, lng sql.NullFloat64
	var availStart, availEnd sql.NullTime

	err := r.db.QueryRowContext(ctx, propertyDetailSQL, id).Scan(
		&d.ID, &d.HomeownerID, &d.Title, &d.Description, &d.Type, &d.Bedrooms, &d.Bathrooms,
		&d.Location, &d.City, &d.Country, &d.PricePerMonth, &d.SecurityDeposit,
		&sqFeet, &d.MinStayDays, &d.MaxStayDays, &d.Rules, &website, &tour,
		&lat, &lng, &availStart, &availEnd,
		&status, &d.CreatedAt, &d.UpdatedAt,
		&d.HomeownerName, &d.HomeownerEmail, &ownerBio, &ownerAvatar, &ownerPhone,
	)
	if err == sql.ErrNoRows {
		return domain.PropertyDetail{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PropertyDetail{}, err
	}
	d.Status = domain.PropertyStatus(status)
	d.SquareFeet = intPtr(sqFeet)
	d.WebsiteURL = strPtr(website)
	d.VirtualTourURL = strPtr(tour)
	d.Latitude = f64Ptr(lat)
	d.Longitude = f64Ptr(lng)
	d.HomeownerBio = strPtr(ownerBio)
	d.HomeownerAvatar = strPtr(ownerAvatar)
	d.HomeownerPhone = strPtr(ownerPhone)
	if availStart.Valid {
		t := availStart.Time
		d.AvailabilityStart = &t
	}
	if availEnd.Valid {
		t := availEnd.Time
		d.AvailabilityEnd = &t
	}

	amen, err := r.amenitiesFor(ctx, []string{id})
	if err != nil {
		return domain.PropertyDetail{}, err
	}
	d.Amenities = amen[id]
	if d.Amenities == nil {
		d.Amenities = []string{}
	}
	d.Images, err = r.ListImages(ctx, id)
	if err != nil {
		return domain.PropertyDetail{}, err
	}
	return d, nil
}

// ListProperties compiles the recognized filter options into parameterized
// predicates; nothing from the request reaches the SQL text itself.
func (r *PropertyRepo) ListProperties(ctx context.Context, f domain.PropertyFilter) (domain.PropertiesPage, error) {
	where := []string{"p.status = ?"}
	args := []any{string(f.Status)}

	if f.City != nil {
		where = append(where, "p.city LIKE ?")
		args = append(args, "%"+*f.City+"%")
	}
	if f.Country != nil {
		where = append(where, "p.country LIKE ?")
		args = append(args, "%"+*f.Country+"%")
	}
	if f.MinPrice != nil {
		where = append(where, "p.price_per_month >= ?")
		args = append(args, *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where = append(where, "p.price_per_month <= ?")
		args = append(args, *f.MaxPrice)
	}
	if f.MinBedrooms != nil {
		where = append(where, "p.bedrooms >= ?")
		args = append(args, *f.MinBedrooms)
	}
	if f.MaxBedrooms != nil {
		where = append(where, "p.bedrooms <= ?")
		args = append(args, *f.MaxBedrooms)
	}
	if f.PropertyType != nil {
		where = append(where, "p.type = ?")
		args = append(args, *f.PropertyType)
	}
	if f.MinStay != nil {
		where = append(where, "p.min_stay_days >= ?")
		args = append(args, *f.MinStay)
	}
	if f.MaxStay != nil {
		where = append(where, "p.max_stay_days <= ?")
		args = append(args, *f.MaxStay)
	}
	if f.Search != nil {
		where = append(where,
			"(p.title LIKE ? OR p.description LIKE ? OR p.location LIKE ? OR p.city LIKE ? OR p.country LIKE ?)")
		s := "%" + *f.Search + "%"
		args = append(args, s, s, s, s, s)
	}

	clause := strings.Join(where, " AND ")
	query := propertySummarySelect + "WHERE " + clause +
		" ORDER BY p.created_at DESC, p.id LIMIT ? OFFSET ?"
	qargs := append(append([]any{}, args...), f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx, query, qargs...)
	if err != nil {
		return domain.PropertiesPage{}, err
	}
	items, err := r.collectSummaries(ctx, rows)
	if err != nil {
		return domain.PropertiesPage{}, err
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM properties p WHERE " + clause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.PropertiesPage{}, err
	}
	return domain.PropertiesPage{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (r *PropertyRepo) ListByOwner(ctx context.Context, homeownerID string, status *domain.PropertyStatus, pg domain.PageQuery) (domain.PropertiesPage, error) {
	where := "p.homeowner_id = ?"
	args := []any{homeownerID}
	if status != nil {
		where += " AND p.status = ?"
		args = append(args, string(*status))
	}

	query := propertySummarySelect + "WHERE " + where +
		" ORDER BY p.created_at DESC, p.id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(append([]any{}, args...), pg.Limit, pg.Offset())...)
	if err != nil {
		return domain.PropertiesPage{}, err
	}
	items, err := r.collectSummaries(ctx, rows)
	if err != nil {
		return domain.PropertiesPage{}, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM properties p WHERE "+where, args...).Scan(&total); err != nil {
		return domain.PropertiesPage{}, err
	}
	return domain.PropertiesPage{Items: items, Total: total, Page: pg.Page, Limit: pg.Limit}, nil
}

func (r *PropertyRepo) UpdateProperty(ctx context.Context, id string, patch domain.PropertyPatch) error {
	sets := []string{}
	args := []any{}
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Type != nil {
		add("type", *patch.Type)
	}
	if patch.Bedrooms != nil {
		add("bedrooms", *patch.Bedrooms)
	}
	if patch.Bathrooms != nil {
		add("bathrooms", *patch.Bathrooms)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.City != nil {
		add("city", *patch.City)
	}
	if patch.Country != nil {
		add("country", *patch.Country)
	}
	if patch.PricePerMonth != nil {
		add("price_per_month", *patch.PricePerMonth)
	}
	if patch.SecurityDeposit != nil {
		add("security_deposit", *patch.SecurityDeposit)
	}
	if patch.SquareFeet != nil {
		add("square_feet", *patch.SquareFeet)
	}
	if patch.MinStayDays != nil {
		add("min_stay_days", *patch.MinStayDays)
	}
	if patch.MaxStayDays != nil {
		add("max_stay_days", *patch.MaxStayDays)
	}
	if patch.Rules != nil {
		add("rules", *patch.Rules)
	}
	if patch.WebsiteURL != nil {
		add("website_url", *patch.WebsiteURL)
	}
	if patch.VirtualTourURL != nil {
		add("virtual_tour_url", *patch.VirtualTourURL)
	}
	if patch.Latitude != nil {
		add("latitude", *patch.Latitude)
	}
	if patch.Longitude != nil {
		add("longitude", *patch.Longitude)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}

	if len(sets) == 0 && patch.Amenities == nil {
		return domain.Validationf("no valid fields to update")
	}

	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		if len(sets) > 0 {
			q := "UPDATE properties SET " + strings.Join(sets, ", ") +
				", updated_at = CURRENT_TIMESTAMP WHERE id = ?"
			if _, err := tx.ExecContext(ctx, q, append(args, id)...); err != nil {
				return fmt.Errorf("update property: %w", err)
			}
		}
		if patch.Amenities != nil {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM property_amenities WHERE property_id = ?`, id); err != nil {
				return err
			}
			for _, a := range patch.Amenities {
				if a == "" {
					continue
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO property_amenities (property_id, amenity) VALUES (?, ?)`, id, a); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *PropertyRepo) DeleteProperty(ctx context.Context, id string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var blocking int
		if err := tx.QueryRowContext(ctx, blockingArrangementsSQL, id).Scan(&blocking); err != nil {
			return err
		}
		if blocking > 0 {
			return fmt.Errorf("property has active or pending arrangements: %w", domain.ErrConflict)
		}
		for _, q := range []string{
			`DELETE m FROM messages m
			   JOIN arrangements a ON m.arrangement_id = a.id
			  WHERE a.property_id = ?`,
			`DELETE FROM arrangements WHERE property_id = ?`,
			`DELETE FROM property_amenities WHERE property_id = ?`,
			`DELETE FROM saved_properties WHERE property_id = ?`,
			`DELETE FROM property_images WHERE property_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *PropertyRepo) SearchByLocation(ctx context.Context, lat, lng, radiusKm float64) ([]domain.PropertySummary, error) {
	rows, err := r.db.QueryContext(ctx, locationSearchSQL, lat, lng, lat, radiusKm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PropertySummary
	var ids []string
	for rows.Next() {
		var p domain.PropertySummary
		var dist float64
		if err := scanSummaryRow(rows, &p, &dist); err != nil {
			return nil, err
		}
		p.DistanceKm = &dist
		out = append(out, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachAmenities(ctx, out, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PropertyRepo) GetStats(ctx context.Context, id string) (domain.PropertyStats, error) {
	rows, err := r.db.QueryContext(ctx, propertyStatsSQL, id)
	if err != nil {
		return domain.PropertyStats{}, err
	}
	defer rows.Close()

	st := domain.PropertyStats{ArrangementStats: []domain.StatusCount{}}
	for rows.Next() {
		var sc domain.StatusCount
		var status string
		var avg sql.NullFloat64
		if err := rows.Scan(&status, &sc.Count, &avg); err != nil {
			return domain.PropertyStats{}, err
		}
		sc.Status = domain.ArrangementStatus(status)
		sc.AvgDuration = f64Ptr(avg)
		st.ArrangementStats = append(st.ArrangementStats, sc)
	}
	return st, rows.Err()
}

// ---- images ----

func (r *PropertyRepo) AddImages(ctx context.Context, propertyID string, images []domain.PropertyImage) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, im := range images {
			if _, err := tx.ExecContext(ctx, insertImageSQL,
				im.ID, propertyID, im.ImageURL, im.DisplayOrder, im.IsPrimary); err != nil {
				return fmt.Errorf("insert image: %w", err)
			}
		}
		return nil
	})
}

func (r *PropertyRepo) ListImages(ctx context.Context, propertyID string) ([]domain.PropertyImage, error) {
	rows, err := r.db.QueryContext(ctx, propertyImagesSQL, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PropertyImage{}
	for rows.Next() {
		var im domain.PropertyImage
		if err := rows.Scan(&im.ID, &im.PropertyID, &im.ImageURL, &im.DisplayOrder, &im.IsPrimary, &im.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	return out, rows.Err()
}

func (r *PropertyRepo) GetImage(ctx context.Context, propertyID, imageID string) (domain.PropertyImage, error) {
	var im domain.PropertyImage
	err := r.db.QueryRowContext(ctx, `
SELECT id, property_id, image_url, display_order, is_primary, uploaded_at
FROM property_images WHERE id = ? AND property_id = ?`, imageID, propertyID).
		Scan(&im.ID, &im.PropertyID, &im.ImageURL, &im.DisplayOrder, &im.IsPrimary, &im.UploadedAt)
	if err == sql.ErrNoRows {
		return domain.PropertyImage{}, domain.ErrNotFound
	}
	return im, err
}

func (r *PropertyRepo) DeleteImage(ctx context.Context, propertyID, imageID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM property_images WHERE id = ? AND property_id = ?`, imageID, propertyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PropertyRepo) SetPrimaryImage(ctx context.Context, propertyID, imageID string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM property_images WHERE id = ? AND property_id = ?`, imageID, propertyID).Scan(&exists)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE property_images SET is_primary = 0 WHERE property_id = ?`, propertyID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE property_images SET is_primary = 1 WHERE id = ? AND property_id = ?`, imageID, propertyID)
		return err
	})
}

func (r *PropertyRepo) ReorderImages(ctx context.Context, propertyID string, order []string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		for i, imageID := range order {
			if _, err := tx.ExecContext(ctx,
				`UPDATE property_images SET display_order = ? WHERE id = ? AND property_id = ?`,
				i, imageID, propertyID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---- saved properties ----

func (r *PropertyRepo) SaveProperty(ctx context.Context, userID, propertyID string) error {
	var exists string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM properties WHERE id = ?`, propertyID).Scan(&exists)
	if err == sql.ErrNoRows {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, saveSQL, userID, propertyID); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("property already saved: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *PropertyRepo) UnsaveProperty(ctx context.Context, userID, propertyID string) error {
	_, err := r.db.ExecContext(ctx, unsaveSQL, userID, propertyID)
	return err
}

func (r *PropertyRepo) ListSaved(ctx context.Context, userID string) ([]domain.PropertySummary, error) {
	rows, err := r.db.QueryContext(ctx, listSavedSQL, userID)
	if err != nil {
		return nil, err
	}
	return r.collectSummaries(ctx, rows)
}

// ---- scan helpers ----

type rowScanner interface{ Scan(dst ...any) error }

func scanSummaryRow(rs rowScanner, p *domain.PropertySummary, extra ...any) error {
	var status string
	var ownerCountry, primaryImage sql.NullString
	dst := []any{
		&p.ID, &p.HomeownerID, &p.Title, &p.Description, &p.Type, &p.Bedrooms, &p.Bathrooms,
		&p.Location, &p.City, &p.Country, &p.PricePerMonth, &p.SecurityDeposit,
		&p.MinStayDays, &p.MaxStayDays, &status, &p.CreatedAt,
		&p.HomeownerName, &ownerCountry, &primaryImage,
		&p.ImageCount, &p.ReviewCount, &p.AverageRating,
	}
	dst = append(dst, extra...)
	if err := rs.Scan(dst...); err != nil {
		return err
	}
	p.Status = domain.PropertyStatus(status)
	p.HomeownerCountry = strPtr(ownerCountry)
	p.PrimaryImage = strPtr(primaryImage)
	return nil
}

func (r *PropertyRepo) collectSummaries(ctx context.Context, rows *sql.Rows) ([]domain.PropertySummary, error) {
	defer rows.Close()
	var out []domain.PropertySummary
	var ids []string
	for rows.Next() {
		var p domain.PropertySummary
		if err := scanSummaryRow(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachAmenities(ctx, out, ids); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PropertyRepo) attachAmenities(ctx context.Context, props []domain.PropertySummary, ids []string) error {
	amen, err := r.amenitiesFor(ctx, ids)
	if err != nil {
		return err
	}
	for i := range props {
		props[i].Amenities = amen[props[i].ID]
		if props[i].Amenities == nil {
			props[i].Amenities = []string{}
		}
	}
	return nil
}

func (r *PropertyRepo) amenitiesFor(ctx context.Context, ids []string) (map[string][]string, error) {
	if len(ids) == 0 {
		return map[string][]string{}, nil
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT property_id, amenity FROM property_amenities WHERE property_id IN (`+ph+`) ORDER BY amenity`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]string{}
	for rows.Next() {
		var id, a string
		if err := rows.Scan(&id, &a); err != nil {
			return nil, err
		}
		out[id] = append(out[id], a)
	}
	return out, rows.Err()
}

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
