package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"howsitter/internal/domain"
)

// MessageService guards the per-arrangement threads: only the two
// participants may read or append, and the receiver is always derived
// server-side as the counterparty.
type MessageService struct {
	msgs domain.MessageRepository
}

func NewMessageService(msgs domain.MessageRepository) *MessageService {
	return &MessageService{msgs: msgs}
}

func (s *MessageService) List(ctx context.Context, claims domain.Claims, arrangementID string) ([]domain.MessageView, error) {
	parts, err := s.msgs.GetParticipants(ctx, arrangementID)
	if err != nil {
		return nil, err
	}
	if !parts.Includes(claims.UserID) && claims.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("not a participant of this arrangement: %w", domain.ErrForbidden)
	}
	return s.msgs.ListByArrangement(ctx, arrangementID)
}

func (s *MessageService) Send(ctx context.Context, claims domain.Claims, arrangementID, body string) (domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return domain.Message{}, domain.Validationf("message body is required")
	}
	parts, err := s.msgs.GetParticipants(ctx, arrangementID)
	if err != nil {
		return domain.Message{}, err
	}
	if !parts.Includes(claims.UserID) {
		return domain.Message{}, fmt.Errorf("not a participant of this arrangement: %w", domain.ErrForbidden)
	}

	m := domain.Message{
		ID:            uuid.NewString(),
		ArrangementID: arrangementID,
		SenderID:      claims.UserID,
		ReceiverID:    parts.Other(claims.UserID),
		Body:          body,
	}
	if err := s.msgs.Append(ctx, m); err != nil {
		return domain.Message{}, err
	}
	return m, nil
}
