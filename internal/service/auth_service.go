package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"parkspot/internal/db"
	"parkspot/internal/entities"
	apperrors "parkspot/internal/errors"
	"parkspot/internal/repository"
)

type AuthUserStore interface {
	Create(email, password, firstName, lastName, phone string) (*db.User, error)
	GetByEmail(email string) (*db.User, error)
	GetByID(id uuid.UUID) (*db.User, error)
}

type AuthService struct {
	repo      AuthUserStore
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(repo AuthUserStore, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

func (s *AuthService) Register(email, password, firstName, lastName, phone string) (*entities.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.Validation("a valid email is required")
	}
	if len(password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	if firstName == "" || lastName == "" {
		return nil, apperrors.Validation("first_name and last_name are required")
	}

	user, err := s.repo.Create(email, password, firstName, lastName, phone)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{
		Message: "User registered successfully",
		User:    toUserResponse(user),
		Token:   token,
	}, nil
}

func (s *AuthService) Login(email, password string) (*entities.AuthResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{
		Message: "Login successful",
		User:    toUserResponse(user),
		Token:   token,
	}, nil
}

func (s *AuthService) Profile(userID uuid.UUID) (*entities.UserResponse, error) {
	user, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *AuthService) issueToken(user *db.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func toUserResponse(user *db.User) entities.UserResponse {
	return entities.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
	}
}
