package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"howsitter/internal/domain"
)

type MessageRepo struct{ db *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

func (r *MessageRepo) Append(ctx context.Context, m domain.Message) error {
	_, err := r.db.ExecContext(ctx, insertMessageSQL,
		m.ID, m.ArrangementID, m.SenderID, m.ReceiverID, m.Body)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) ListByArrangement(ctx context.Context, arrangementID string) ([]domain.MessageView, error) {
	rows, err := r.db.QueryContext(ctx, listMessagesSQL, arrangementID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.MessageView{}
	for rows.Next() {
		var v domain.MessageView
		var avatar sql.NullString
		if err := rows.Scan(&v.ID, &v.ArrangementID, &v.SenderID, &v.ReceiverID,
			&v.Body, &v.CreatedAt, &v.SenderName, &avatar); err != nil {
			return nil, err
		}
		v.SenderAvatar = strPtr(avatar)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *MessageRepo) GetParticipants(ctx context.Context, arrangementID string) (domain.Participants, error) {
	var p domain.Participants
	err := r.db.QueryRowContext(ctx, participantsSQL, arrangementID).
		Scan(&p.HomeownerUserID, &p.SitterUserID)
	if err == sql.ErrNoRows {
		return domain.Participants{}, domain.ErrNotFound
	}
	return p, err
}
