package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"howsitter/internal/domain"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, insertUserSQL,
		u.ID, u.Email, u.PasswordHash, u.Name, string(u.Role),
		valStr(u.Phone), valStr(u.Country), valStr(u.Bio), valStr(u.AvatarURL), u.Verified,
	)
	if err != nil {
		// two registrations can race past the service-level email check
		if isDuplicateKey(err) {
			return fmt.Errorf("email already registered: %w", domain.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) CreateSitterProfile(ctx context.Context, p domain.SitterProfile) error {
	creds, _ := json.Marshal(p.Credentials)
	langs, _ := json.Marshal(p.Languages)
	_, err := r.db.ExecContext(ctx, insertSitterSQL,
		p.ID, p.UserID, p.Rating, p.TotalReviews, p.ExperienceYears,
		string(creds), string(langs), p.IsAvailable,
	)
	if err != nil {
		return fmt.Errorf("insert sitter profile: %w", err)
	}
	return nil
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, selectUserCols+"WHERE email = ?", email))
}

func (r *UserRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, selectUserCols+"WHERE id = ?", id))
}

func (r *UserRepo) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var role string
	var phone, country, bio, avatar sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role,
		&phone, &country, &bio, &avatar, &u.Verified, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	u.Phone = strPtr(phone)
	u.Country = strPtr(country)
	u.Bio = strPtr(bio)
	u.AvatarURL = strPtr(avatar)
	return u, nil
}

func (r *UserRepo) GetSitterByUserID(ctx context.Context, userID string) (domain.SitterProfile, error) {
	var p domain.SitterProfile
	var creds, langs []byte
	err := r.db.QueryRowContext(ctx, `
SELECT id, user_id, rating, total_reviews, experience_years, credentials, languages, is_available
FROM sitters WHERE user_id = ?`, userID).
		Scan(&p.ID, &p.UserID, &p.Rating, &p.TotalReviews, &p.ExperienceYears,
			&creds, &langs, &p.IsAvailable)
	if err == sql.ErrNoRows {
		return domain.SitterProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SitterProfile{}, err
	}
	_ = json.Unmarshal(creds, &p.Credentials)
	_ = json.Unmarshal(langs, &p.Languages)
	return p, nil
}

func (r *UserRepo) ListSitters(ctx context.Context, pg domain.PageQuery) (domain.SittersPage, error) {
	rows, err := r.db.QueryContext(ctx, listSittersSQL, pg.Limit, pg.Offset())
	if err != nil {
		return domain.SittersPage{}, err
	}
	defer rows.Close()

	var out []domain.SitterView
	for rows.Next() {
		var v domain.SitterView
		var country, bio, avatar sql.NullString
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &country, &bio, &avatar,
			&v.Rating, &v.TotalReviews, &v.ExperienceYears, &v.IsAvailable); err != nil {
			return domain.SittersPage{}, err
		}
		v.Country = strPtr(country)
		v.Bio = strPtr(bio)
		v.AvatarURL = strPtr(avatar)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return domain.SittersPage{}, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countSittersSQL).Scan(&total); err != nil {
		return domain.SittersPage{}, err
	}
	return domain.SittersPage{Items: out, Total: total}, nil
}

func (r *UserRepo) CountPropertiesByOwner(ctx context.Context, homeownerID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM properties WHERE homeowner_id = ?`, homeownerID).Scan(&n)
	return n, err
}

func (r *UserRepo) GetSitterStats(ctx context.Context, userID string) (domain.SitterStats, error) {
	var st domain.SitterStats
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, sitterStatsSQL, userID).
		Scan(&st.ArrangementCount, &avg, &st.ReviewCount)
	if err != nil {
		return domain.SitterStats{}, err
	}
	st.AvgRating = f64Ptr(avg)
	return st, nil
}
