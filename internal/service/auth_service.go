package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"melodist/config"
	"melodist/internal/auth"
	"melodist/internal/domain"
	"melodist/internal/logging"
	"melodist/internal/models"
	"melodist/internal/policy"
	"melodist/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists     = errors.New("email already registered")
	ErrInvalidCreds    = errors.New("invalid email or password")
	ErrEmailUnverified = errors.New("google has not verified this email address")
)

const minPasswordLen = 8

// Session is what a client needs after sign-in: the principal, tokens and the admin flag.
type Session struct {
	User    *models.User    `json:"user"`
	Tokens  *auth.TokenPair `json:"tokens,omitempty"`
	IsAdmin bool            `json:"is_admin"`
}

// GoogleIdentity is what Google reports about the signed-in account.
type GoogleIdentity struct {
	ID            string
	Email         string
	Name          string
	EmailVerified bool
}

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	policy   *policy.Engine
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, engine *policy.Engine, logger *slog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		userRepo: userRepo,
		policy:   engine,
		logger:   logging.Component(logger, "auth"),
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (*Session, error) {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, domain.Invalid("email", "is not a valid address")
	}
	if len(password) < minPasswordLen {
		return nil, domain.Invalid("password", "must be at least 8 characters")
	}
	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: email, PasswordHash: string(hash)}
	p := &models.Profile{FullName: strings.TrimSpace(fullName), Email: email}
	if err := s.userRepo.CreateWithProfile(ctx, u, p, ""); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return s.issue(ctx, u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCreds
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCreds
	}
	return s.issue(ctx, u)
}

// LoginWithGoogle finds the user by Google id, links an existing email account, or
// creates a new one. The bool reports whether the account was created. An existing
// account is linked only when Google has verified the address.
func (s *AuthService) LoginWithGoogle(ctx context.Context, id GoogleIdentity) (*Session, bool, error) {
	if id.ID == "" {
		return nil, false, domain.Invalid("google_id", "is required")
	}
	email := normalizeEmail(id.Email)
	u, err := s.userRepo.GetByGoogleID(ctx, id.ID)
	if err == nil {
		if id.EmailVerified && u.Email == email {
			if err := s.userRepo.MarkEmailVerified(ctx, u, s.now()); err != nil {
				return nil, false, err
			}
		}
		sess, err := s.issue(ctx, u)
		return sess, false, err
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if !id.EmailVerified {
			return nil, false, ErrEmailUnverified
		}
		if err := s.userRepo.LinkGoogle(ctx, existing, id.ID, s.now()); err != nil {
			return nil, false, err
		}
		sess, err := s.issue(ctx, existing)
		return sess, false, err
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	gid := id.ID
	u = &models.User{Email: email, GoogleID: &gid}
	if id.EmailVerified {
		at := s.now()
		u.EmailVerifiedAt = &at
	}
	if err := s.userRepo.CreateWithProfile(ctx, u, &models.Profile{FullName: id.Name, Email: email}, ""); err != nil {
		return nil, false, err
	}
	sess, err := s.issue(ctx, u)
	return sess, true, err
}

// VerificationToken signs a token for the account registered under email, to be mailed
// to that address.
func (s *AuthService) VerificationToken(ctx context.Context, email string) (string, error) {
	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", err
	}
	return auth.GenerateVerificationToken(&s.cfg.JWT, u.ID, u.Email)
}

// VerifyEmail redeems a verification token and returns a session whose tokens carry the
// verified flag. A token minted for a previous address of the account is refused.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*Session, error) {
	userID, email, err := auth.ParseVerificationToken(&s.cfg.JWT, token)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	if u.Email != email {
		return nil, auth.ErrInvalidToken
	}
	if err := s.userRepo.MarkEmailVerified(ctx, u, s.now()); err != nil {
		return nil, err
	}
	s.logger.Info("email verified", slog.Uint64("user_id", uint64(u.ID)))
	return s.issue(ctx, u)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}
	return s.issue(ctx, u)
}

// Principal returns the signed-in user and admin flag without minting tokens.
func (s *AuthService) Principal(ctx context.Context, userID uint) (*Session, error) {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	isAdmin, err := s.policy.IsAdmin(ctx, subjectOf(u))
	if err != nil {
		return nil, err
	}
	return &Session{User: u, IsAdmin: isAdmin}, nil
}

func subjectOf(u *models.User) policy.Subject {
	return policy.Subject{ID: u.ID, Email: u.Email, EmailVerified: u.EmailVerified()}
}

func (s *AuthService) issue(ctx context.Context, u *models.User) (*Session, error) {
	tokens, err := auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.EmailVerified())
	if err != nil {
		return nil, err
	}
	isAdmin, err := s.policy.IsAdmin(ctx, subjectOf(u))
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.TouchLogin(ctx, u.ID, s.now()); err != nil {
		s.logger.Warn("last login update failed", slog.Uint64("user_id", uint64(u.ID)), slog.Any("error", err))
	}
	return &Session{User: u, Tokens: tokens, IsAdmin: isAdmin}, nil
}
