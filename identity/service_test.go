package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"bankdesk/models"
	"bankdesk/store"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "bank.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init(ctx))
	return NewService(st, WithHashCost(bcrypt.MinCost)), st
}

func ivanov() models.Profile {
	return models.Profile{
		FirstName:   "Ivan",
		LastName:    "Ivanov",
		DateOfBirth: "15.05.1990",
		Street:      "Lenina 10",
		City:        "Moscow",
		ZipCode:     "101000",
		Country:     "Russia",
		Phone:       "+79161234567",
		Email:       "ivanov@example.com",
		Username:    "ivanov",
	}
}

func TestRegisterAndGetProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	id, err := svc.Register(ctx, ivanov(), "password123")
	require.NoError(t, err)
	assert.NotZero(t, id)

	p, err := svc.GetProfile(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)

	want := ivanov()
	want.ID = id
	assert.Equal(t, want, *p)
}

func TestGetProfileAbsent(t *testing.T) {
	svc, _ := newService(t)
	p, err := svc.GetProfile(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPasswordIsNotStoredInPlaintext(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	id, err := svc.Register(ctx, ivanov(), "password123")
	require.NoError(t, err)

	row, err := st.QueryOne(ctx, "SELECT password_hash FROM users WHERE id = ?", id)
	require.NoError(t, err)
	hash := row.String("password_hash")
	assert.NotEqual(t, "password123", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("password123")))
}

func TestRegisterDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	_, err := svc.Register(ctx, ivanov(), "password123")
	require.NoError(t, err)

	other := ivanov()
	other.FirstName = "Another"
	_, err = svc.Register(ctx, other, "secret")
	assert.ErrorIs(t, err, models.ErrUsernameTaken)

	rows, err := st.QueryAll(ctx, "SELECT id FROM users WHERE username = ?", "ivanov")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(p *models.Profile)
		password string
		field    string
	}{
		{"missing username", func(p *models.Profile) { p.Username = "  " }, "pw", "username"},
		{"missing password", func(p *models.Profile) {}, "", "password"},
		{"missing city", func(p *models.Profile) { p.City = "" }, "pw", "city"},
		{"bad phone", func(p *models.Profile) { p.Phone = "12ab" }, "pw", "phone"},
		{"bad email", func(p *models.Profile) { p.Email = "ivanov.example.com" }, "pw", "email"},
	}

	svc, _ := newService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ivanov()
			tt.mutate(&p)
			_, err := svc.Register(context.Background(), p, tt.password)

			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	id, err := svc.Register(ctx, ivanov(), "password123")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "ivanov", "password123")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, models.UserSummary{ID: id, FirstName: "Ivan", LastName: "Ivanov", Username: "ivanov"}, *u)
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, ivanov(), "password123")
	require.NoError(t, err)

	wrongPassword, errWrong := svc.Authenticate(ctx, "ivanov", "nope")
	unknownUser, errUnknown := svc.Authenticate(ctx, "nobody", "password123")

	assert.Nil(t, wrongPassword)
	assert.Nil(t, unknownUser)
	assert.NoError(t, errWrong)
	assert.NoError(t, errUnknown)
}

func TestAuthenticateStorageFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, first_name, last_name, username, password_hash").
		WillReturnError(errors.New("no such table: users"))

	svc := NewService(store.New(db, store.SQLite), WithHashCost(bcrypt.MinCost))
	u, err := svc.Authenticate(context.Background(), "ivanov", "password123")

	assert.Nil(t, u)
	assert.ErrorIs(t, err, models.ErrStorage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM users WHERE username").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(errors.New("disk I/O error"))

	svc := NewService(store.New(db, store.SQLite), WithHashCost(bcrypt.MinCost))
	_, err = svc.Register(context.Background(), ivanov(), "password123")

	assert.ErrorIs(t, err, models.ErrStorage)
	assert.NotErrorIs(t, err, models.ErrUsernameTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterHashFailure(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)
	svc.hash = func([]byte, int) ([]byte, error) { return nil, errors.New("entropy source unavailable") }

	_, err := svc.Register(ctx, ivanov(), "password123")

	var he *models.HashError
	require.ErrorAs(t, err, &he)
	assert.ErrorIs(t, err, models.ErrPasswordHash)
	assert.NotErrorIs(t, err, models.ErrStorage)

	rows, err := st.QueryAll(ctx, "SELECT id FROM users")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
