package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"propshop/internal/dto"
	"propshop/internal/model"
	"propshop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

// ErrInvalidCredentials covers wrong email, unregistered account and wrong
// password alike, so a caller cannot probe which emails are allowlisted.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AdminService manages the allowlist: seeding default entries, activating
// accounts and signing in.
type AdminService interface {
	Seed(ctx context.Context, emails []string) error
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AdminResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	List(ctx context.Context) ([]dto.AdminResponse, error)
}

type adminService struct {
	repo          repository.AdminRepository
	jwtSecret     string
	tokenLifetime time.Duration
}

func NewAdminService(repo repository.AdminRepository, jwtSecret string, expirationHours int) AdminService {
	if expirationHours < 1 {
		expirationHours = 8
	}
	return &adminService{
		repo:          repo,
		jwtSecret:     jwtSecret,
		tokenLifetime: time.Duration(expirationHours) * time.Hour,
	}
}

// Seed inserts allowlist entries that are not present yet. Existing entries,
// registered or not, are left untouched, so it is safe on every startup.
func (s *adminService) Seed(ctx context.Context, emails []string) error {
	for _, raw := range emails {
		email := normalizeEmail(raw)
		if email == "" {
			continue
		}
		if err := s.repo.EnsureExists(ctx, email); err != nil {
			return err
		}
		log.Debug().Str("email", email).Msg("admin allowlist entry ensured")
	}
	return nil
}

// Register activates an allowlisted account by setting its password. Emails
// outside the allowlist are rejected; already-registered accounts keep their
// password.
func (s *adminService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AdminResponse, error) {
	email := normalizeEmail(req.Email)

	admin, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("email %s is not on the admin allowlist", email)
		}
		return nil, err
	}
	if admin.Registered {
		return nil, validationf("account %s is already registered", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	hashStr := string(hash)
	admin.PasswordHash = &hashStr
	admin.Registered = true

	if err := s.repo.Upsert(ctx, admin); err != nil {
		return nil, err
	}
	resp := adminToResponse(admin)
	return &resp, nil
}

func (s *adminService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	admin, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !admin.Registered || admin.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(*admin.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.repo.TouchLogin(ctx, email, now); err != nil {
		log.Warn().Str("email", email).Err(err).Msg("could not record login time")
	}

	claims := jwt.MapClaims{
		"sub":   email,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenLifetime.Seconds()),
		Email:       email,
	}, nil
}

func (s *adminService) List(ctx context.Context) ([]dto.AdminResponse, error) {
	admins, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AdminResponse, 0, len(admins))
	for i := range admins {
		out = append(out, adminToResponse(&admins[i]))
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func adminToResponse(a *model.Admin) dto.AdminResponse {
	var lastLogin *string
	if a.LastLoginAt != nil {
		v := a.LastLoginAt.Format(time.RFC3339)
		lastLogin = &v
	}
	return dto.AdminResponse{
		Email:       a.Email,
		Registered:  a.Registered,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		LastLoginAt: lastLogin,
	}
}
