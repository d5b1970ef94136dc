package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"howsitter/internal/domain"
)

type AuthService struct {
	users  domain.UserRepository
	tokens domain.TokenIssuer
}

func NewAuthService(users domain.UserRepository, tokens domain.TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
	Country  *string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role != domain.RoleHomeowner && in.Role != domain.RoleSitter {
		return domain.User{}, "", domain.Validationf("role must be homeowner or sitter")
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return domain.User{}, "", fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	u := domain.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         in.Role,
		Country:      in.Country,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return domain.User{}, "", err
	}
	if in.Role == domain.RoleSitter {
		p := domain.SitterProfile{ID: uuid.NewString(), UserID: u.ID, IsAvailable: true}
		if err := s.users.CreateSitterProfile(ctx, p); err != nil {
			return domain.User{}, "", err
		}
	}

	tok, err := s.tokens.Issue(u)
	if err != nil {
		return domain.User{}, "", err
	}
	return u, tok, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return domain.User{}, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	tok, err := s.tokens.Issue(u)
	if err != nil {
		return domain.User{}, "", err
	}
	return u, tok, nil
}

// Profile is the /api/profile read model: the user record plus role-specific
// aggregates.
type Profile struct {
	User          domain.User
	PropertyCount *int
	Sitter        *domain.SitterProfile
	SitterStats   *domain.SitterStats
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (Profile, error) {
	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{User: u}

	switch u.Role {
	case domain.RoleHomeowner:
		n, err := s.users.CountPropertiesByOwner(ctx, u.ID)
		if err != nil {
			return Profile{}, err
		}
		p.PropertyCount = &n
	case domain.RoleSitter:
		sp, err := s.users.GetSitterByUserID(ctx, u.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return Profile{}, err
		}
		if err == nil {
			p.Sitter = &sp
			st, err := s.users.GetSitterStats(ctx, u.ID)
			if err != nil {
				return Profile{}, err
			}
			p.SitterStats = &st
		}
	}
	return p, nil
}
