package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"howsitter/internal/domain"
)

type ArrangementRepo struct{ db *sql.DB }

func NewArrangementRepo(db *sql.DB) *ArrangementRepo { return &ArrangementRepo{db: db} }

// CreateArrangement performs the whole booking write in one transaction.
// The property row lock serializes concurrent requests for the same
// property, so the overlap probe sees every committed and in-flight
// arrangement before the insert.
func (r *ArrangementRepo) CreateArrangement(ctx context.Context, req domain.BookingRequest) (domain.Arrangement, error) {
	var arr domain.Arrangement
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var status string
		var minStay, maxStay int
		var price, deposit float64
		var homeownerID string
		err := tx.QueryRowContext(ctx, lockPropertyForBookingSQL, req.PropertyID).
			Scan(&status, &minStay, &maxStay, &price, &deposit, &homeownerID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("property %s: %w", req.PropertyID, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if domain.PropertyStatus(status) != domain.PropertyAvailable {
			return domain.Validationf("property is not available for new arrangements")
		}
		days := domain.StayDays(req.StartDate, req.EndDate)
		if days < minStay {
			return domain.Validationf("minimum stay is %d days", minStay)
		}
		if days > maxStay {
			return domain.Validationf("maximum stay is %d days", maxStay)
		}

		rows, err := tx.QueryContext(ctx, overlapSQL, req.PropertyID, req.EndDate, req.StartDate)
		if err != nil {
			return err
		}
		conflicts := 0
		for rows.Next() {
			conflicts++
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if conflicts > 0 {
			return fmt.Errorf("property is not available for the selected dates: %w", domain.ErrConflict)
		}

		var sitterID string
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM sitters WHERE user_id = ?`, req.SitterUserID).Scan(&sitterID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("sitter profile for user %s: %w", req.SitterUserID, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}

		arr = domain.Arrangement{
			ID:                  uuid.NewString(),
			PropertyID:          req.PropertyID,
			SitterID:            sitterID,
			StartDate:           req.StartDate,
			EndDate:             req.EndDate,
			Status:              domain.ArrangementPending,
			TotalAmount:         domain.TotalAmount(price, days),
			SecurityDeposit:     deposit,
			HouseRules:          req.HouseRules,
			SpecialInstructions: req.SpecialInstructions,
		}
		if _, err := tx.ExecContext(ctx, insertArrangementSQL,
			arr.ID, arr.PropertyID, arr.SitterID, arr.StartDate, arr.EndDate,
			arr.TotalAmount, arr.SecurityDeposit,
			valStr(arr.HouseRules), valStr(arr.SpecialInstructions)); err != nil {
			return fmt.Errorf("insert arrangement: %w", err)
		}

		if req.Message != "" {
			if _, err := tx.ExecContext(ctx, insertMessageSQL,
				uuid.NewString(), arr.ID, req.SitterUserID, homeownerID, req.Message); err != nil {
				return fmt.Errorf("insert initial message: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return domain.Arrangement{}, err
	}
	return arr, nil
}

func (r *ArrangementRepo) GetArrangement(ctx context.Context, id string) (domain.Arrangement, error) {
	return scanArrangement(r.db.QueryRowContext(ctx, getArrangementSQL, id))
}

func scanArrangement(row *sql.Row) (domain.Arrangement, error) {
	var a domain.Arrangement
	var status string
	var rules, instr sql.NullString
	err := row.Scan(&a.ID, &a.PropertyID, &a.SitterID, &a.StartDate, &a.EndDate, &status,
		&a.TotalAmount, &a.SecurityDeposit, &rules, &instr, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Arrangement{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Arrangement{}, err
	}
	a.Status = domain.ArrangementStatus(status)
	a.HouseRules = strPtr(rules)
	a.SpecialInstructions = strPtr(instr)
	return a, nil
}

func (r *ArrangementRepo) GetPropertyOwner(ctx context.Context, arrangementID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, arrangementOwnerSQL, arrangementID).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	return owner, err
}

func (r *ArrangementRepo) ListForHomeowner(ctx context.Context, userID string) ([]domain.ArrangementView, error) {
	return r.listViews(ctx, listForHomeownerSQL, userID)
}

func (r *ArrangementRepo) ListForSitterUser(ctx context.Context, userID string) ([]domain.ArrangementView, error) {
	return r.listViews(ctx, listForSitterSQL, userID)
}

func (r *ArrangementRepo) listViews(ctx context.Context, query, userID string) ([]domain.ArrangementView, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.ArrangementView{}
	for rows.Next() {
		var v domain.ArrangementView
		var status string
		var rules, instr, avatar sql.NullString
		if err := rows.Scan(
			&v.ID, &v.PropertyID, &v.SitterID, &v.StartDate, &v.EndDate, &status,
			&v.TotalAmount, &v.SecurityDeposit, &rules, &instr, &v.CreatedAt, &v.UpdatedAt,
			&v.PropertyTitle, &v.PropertyLocation, &v.PropertyCity, &v.PropertyCountry, &v.PricePerMonth,
			&v.CounterpartyID, &v.CounterpartyName, &v.CounterpartyEmail, &avatar,
			&v.MessageCount,
		); err != nil {
			return nil, err
		}
		v.Status = domain.ArrangementStatus(status)
		v.HouseRules = strPtr(rules)
		v.SpecialInstructions = strPtr(instr)
		v.CounterpartyAvatar = strPtr(avatar)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *ArrangementRepo) FindConflicts(ctx context.Context, propertyID string, start, end time.Time) ([]domain.Arrangement, error) {
	rows, err := r.db.QueryContext(ctx, overlapSQL, propertyID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Arrangement{}
	for rows.Next() {
		var a domain.Arrangement
		var status string
		if err := rows.Scan(&a.ID, &a.StartDate, &a.EndDate, &status); err != nil {
			return nil, err
		}
		a.PropertyID = propertyID
		a.Status = domain.ArrangementStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Transition compare-and-swaps the status, then applies the property side
// effect under the same property row lock the booking path takes.
func (r *ArrangementRepo) Transition(ctx context.Context, id string, from, to domain.ArrangementStatus) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var propertyID string
		err := tx.QueryRowContext(ctx,
			`SELECT property_id FROM arrangements WHERE id = ?`, id).Scan(&propertyID)
		if err == sql.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		var locked string
		if err := tx.QueryRowContext(ctx, lockPropertyRowSQL, propertyID).Scan(&locked); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, transitionSQL, string(to), id, string(from))
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("arrangement status changed concurrently: %w", domain.ErrConflict)
		}

		switch {
		case to == domain.ArrangementConfirmed:
			_, err = tx.ExecContext(ctx, setPropertyStatusSQL, string(domain.PropertyOccupied), propertyID)
			return err
		case to == domain.ArrangementCancelled && from == domain.ArrangementConfirmed,
			to == domain.ArrangementCompleted:
			var others int
			if err := tx.QueryRowContext(ctx, otherOccupantsSQL, propertyID, id).Scan(&others); err != nil {
				return err
			}
			if others == 0 {
				_, err = tx.ExecContext(ctx, setPropertyStatusSQL, string(domain.PropertyAvailable), propertyID)
				return err
			}
		}
		return nil
	})
}
