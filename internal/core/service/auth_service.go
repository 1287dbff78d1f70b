package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/lof/customer-profile/internal/api/metrics"
	"github.com/lof/customer-profile/internal/core/domain"
	"github.com/lof/customer-profile/internal/core/ports"
)

// SessionStore abstracts the server-side session store (Redis).
type SessionStore interface {
	Create(ctx context.Context, customerID string, ttl time.Duration) (string, error)
	// Lookup returns the customer id of a live session or domain.ErrSessionExpired.
	Lookup(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
}

// AuthService implements customer registration, login and session checks.
type AuthService struct {
	repo       ports.CustomerRepository
	sessions   SessionStore
	jwtSecret  string
	sessionTTL time.Duration
	log        zerolog.Logger
}

func NewAuthService(repo ports.CustomerRepository, sessions SessionStore, jwtSecret string, sessionTTL time.Duration, log zerolog.Logger) *AuthService {
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, sessions: sessions, jwtSecret: jwtSecret, sessionTTL: sessionTTL, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Customer, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" || in.Firstname == "" || in.Lastname == "" {
		return nil, domain.ErrInvalidCustomer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		Email:        email,
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("customer_id", created.ID).Msg("customer registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.Customer, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	customer, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	sessionID, err := s.sessions.Create(ctx, customer.ID, s.sessionTTL)
	if err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.generateToken(customer.ID, sessionID)
	if err != nil {
		return "", nil, err
	}

	metrics.SessionsCreatedTotal.Inc()
	return token, customer, nil
}

func (s *AuthService) Logout(ctx context.Context, session domain.Session) error {
	if session.SessionID == "" {
		return domain.ErrNotLoggedIn
	}
	return s.sessions.Delete(ctx, session.SessionID)
}

// Authenticate validates the token signature and expiry, then checks that
// the session it names is still live and belongs to the same customer.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	customerID, _ := claims["customer_id"].(string)
	sessionID, _ := claims["sid"].(string)
	if customerID == "" || sessionID == "" {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	owner, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if owner != customerID {
		return domain.Session{}, domain.ErrSessionExpired
	}

	return domain.Session{CustomerID: customerID, SessionID: sessionID}, nil
}

func (s *AuthService) generateToken(customerID, sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"customer_id": customerID,
		"sid":         sessionID,
		"exp":         time.Now().Add(s.sessionTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
