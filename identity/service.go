// Package identity registers customers and verifies their credentials.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"bankdesk/models"
	"bankdesk/store"
)

const (
	selectUserIDQuery = `SELECT id FROM users WHERE username = ?`

	insertUserQuery = `INSERT INTO users (
		first_name, last_name, date_of_birth,
		street, city, zip_code, country,
		phone_number, email, username, password_hash
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	selectCredentialsQuery = `SELECT id, first_name, last_name, username, password_hash
		FROM users WHERE username = ?`

	selectProfileQuery = `SELECT id, first_name, last_name, date_of_birth, street, city,
		zip_code, country, phone_number, email, username
		FROM users WHERE id = ?`
)

// Service is stateless between calls apart from the registration lock.
type Service struct {
	store *store.Store
	log   *slog.Logger
	cost  int
	hash  func(password []byte, cost int) ([]byte, error)

	// mu closes the window between the username check and the insert.
	mu sync.Mutex

	dummyOnce sync.Once
	dummy     []byte
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithHashCost sets the bcrypt cost. Values outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService builds an identity service on top of the record store.
func NewService(st *store.Store, opts ...Option) *Service {
	s := &Service{store: st, log: slog.Default(), cost: bcrypt.DefaultCost, hash: bcrypt.GenerateFromPassword}
	for _, opt := range opts {
		opt(s)
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		s.cost = bcrypt.DefaultCost
	}
	return s
}

// Register stores a new customer and returns the assigned id. Only a bcrypt
// hash of the password is persisted.
func (s *Service) Register(ctx context.Context, p models.Profile, password string) (int64, error) {
	p.Username = strings.TrimSpace(p.Username)
	if err := validateProfile(p, password); err != nil {
		return 0, err
	}
	if len(password) > 72 {
		return 0, &models.ValidationError{Field: "password", Message: "must be at most 72 bytes"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.QueryOne(ctx, selectUserIDQuery, p.Username)
	if err != nil {
		return 0, &models.StorageError{Op: "register", Err: err}
	}
	if existing != nil {
		return 0, models.ErrUsernameTaken
	}

	hash, err := s.hash([]byte(password), s.cost)
	if err != nil {
		return 0, &models.HashError{Err: err}
	}

	row, err := s.store.QueryOne(ctx, insertUserQuery,
		p.FirstName, p.LastName, p.DateOfBirth,
		p.Street, p.City, p.ZipCode, p.Country,
		p.Phone, p.Email, p.Username, string(hash))
	if errors.Is(err, store.ErrDuplicateKey) {
		// another process won the race past the check above
		return 0, models.ErrUsernameTaken
	}
	if err != nil {
		return 0, &models.StorageError{Op: "register", Err: err}
	}
	if row == nil {
		return 0, &models.StorageError{Op: "register", Err: errors.New("insert returned no id")}
	}

	id := row.Int64("id")
	s.log.Info("user registered", "user_id", id, "username", p.Username)
	return id, nil
}

// Authenticate returns the user's summary when the password matches. An
// unknown username and a wrong password both yield (nil, nil) so callers
// cannot tell them apart.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.UserSummary, error) {
	row, err := s.store.QueryOne(ctx, selectCredentialsQuery, strings.TrimSpace(username))
	if err != nil {
		return nil, &models.StorageError{Op: "authenticate", Err: err}
	}
	if row == nil {
		// keep the cost of a miss close to the cost of a wrong password
		_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(row.String("password_hash")), []byte(password)) != nil {
		s.log.Debug("authentication rejected", "username", username)
		return nil, nil
	}
	return &models.UserSummary{
		ID:        row.Int64("id"),
		FirstName: row.String("first_name"),
		LastName:  row.String("last_name"),
		Username:  row.String("username"),
	}, nil
}

// GetProfile returns the stored record, or nil when no user has that id.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*models.Profile, error) {
	row, err := s.store.QueryOne(ctx, selectProfileQuery, userID)
	if err != nil {
		return nil, &models.StorageError{Op: "get profile", Err: err}
	}
	if row == nil {
		return nil, nil
	}
	return &models.Profile{
		ID:          row.Int64("id"),
		FirstName:   row.String("first_name"),
		LastName:    row.String("last_name"),
		DateOfBirth: row.String("date_of_birth"),
		Street:      row.String("street"),
		City:        row.String("city"),
		ZipCode:     row.String("zip_code"),
		Country:     row.String("country"),
		Phone:       row.String("phone_number"),
		Email:       row.String("email"),
		Username:    row.String("username"),
	}, nil
}

func (s *Service) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummy
}
