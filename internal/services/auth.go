package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"clique/internal/domain"
)

const (
	minPasswordLen = 8
	minUsernameLen = 3
)

var usernameRegexp = regexp.MustCompile(`^[a-z0-9_.]+$`)

type authService struct {
	userRepo     domain.UserRepository
	eventRepo    domain.EventRepository
	hasher       domain.PasswordHasher
	tokenIssuer  domain.TokenIssuer
	tokenExpiry  time.Duration
	emailService domain.EmailService
	logger       *slog.Logger
}

// NewAuthService creates an AuthService with the given repositories and auth ports.
func NewAuthService(
	userRepo domain.UserRepository,
	eventRepo domain.EventRepository,
	hasher domain.PasswordHasher,
	tokenIssuer domain.TokenIssuer,
	tokenExpiry time.Duration,
	emailService domain.EmailService,
	logger *slog.Logger,
) domain.AuthService {
	return &authService{
		userRepo:     userRepo,
		eventRepo:    eventRepo,
		hasher:       hasher,
		tokenIssuer:  tokenIssuer,
		tokenExpiry:  tokenExpiry,
		emailService: emailService,
		logger:       logger,
	}
}

func (s *authService) SignUp(ctx context.Context, username, password, fullName, email, phone string) (*domain.User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if len(username) < minUsernameLen || !usernameRegexp.MatchString(username) {
		return nil, fmt.Errorf("%w: username must be at least %d characters (lowercase letters, digits, _ or .)", domain.ErrInvalidInput, minUsernameLen)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	if phone != "" {
		normalized, err := domain.NormalizePhone(phone)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid phone number", domain.ErrInvalidInput)
		}
		phone = normalized
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := domain.NewUser(username, strings.TrimSpace(fullName), strings.TrimSpace(strings.ToLower(email)), phone, now, now)
	user.PasswordHash = hash
	user.Salt = salt
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Event invitations sent to this phone number before signup become
	// regular invitations for the new account.
	if user.Phone != "" {
		if eventIDs, err := s.eventRepo.ClaimPhoneInvites(ctx, user.Phone, user.ID); err != nil {
			s.logger.Warn("claim phone invites failed", "user_id", user.ID, "err", err)
		} else if len(eventIDs) > 0 {
			s.logger.Info("claimed phone invites", "user_id", user.ID, "events", len(eventIDs))
		}
	}

	if user.Email != "" {
		data := &domain.WelcomeMessageEmailData{
			Email:    user.Email,
			FullName: user.FullName,
			Username: user.Username,
		}
		if err := s.emailService.SendWelcomeMessage(ctx, data); err != nil {
			s.logger.Warn("welcome email failed", "user_id", user.ID, "err", err)
		}
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Username, s.tokenExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}
