package repository

import (
	"context"
	"database/sql"
	"log"
	"testing"
	"time"

	"mercato/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	_, err = testDB.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			first_name VARCHAR(100),
			last_name VARCHAR(100),
			role VARCHAR(50) NOT NULL DEFAULT 'CUSTOMER',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			token VARCHAR(512) UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			revoked BOOLEAN NOT NULL DEFAULT FALSE
		)
	`)
	if err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func newStoredUser(t *testing.T, repo UserRepository, email, password string) *domain.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    "Test",
		LastName:     "Customer",
		Role:         domain.RoleCustomer,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestProperty_StoredPasswordsAreBcryptHashes(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("round-tripped users carry verifiable bcrypt hashes", prop.ForAll(
		func(email string, password string) bool {
			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)

			hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return false
			}

			user := &domain.User{
				ID:           uuid.New(),
				Email:        email,
				PasswordHash: string(hashed),
				FirstName:    "Ada",
				LastName:     "Shopper",
				Role:         domain.RoleCustomer,
				CreatedAt:    time.Now(),
				UpdatedAt:    time.Now(),
			}
			if err := repo.Create(ctx, user); err != nil {
				t.Logf("failed to create user: %v", err)
				return false
			}

			stored, err := repo.FindByEmail(ctx, email)
			if err != nil {
				t.Logf("failed to find user: %v", err)
				return false
			}

			if stored.PasswordHash == password {
				return false
			}
			if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(password)); err != nil {
				return false
			}

			_, _ = testDB.Exec("DELETE FROM users WHERE email = $1", email)
			return true
		},
		gen.RegexMatch(`[a-z]{5,10}@[a-z]{3,8}\.(com|org|net)`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestUserRepository_DuplicateEmailIsConflict(t *testing.T) {
	repo := NewUserRepository(testDB)
	user := newStoredUser(t, repo, "duplicate@example.com", "s3cretpass")
	defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)

	clone := *user
	clone.ID = uuid.New()
	if err := repo.Create(context.Background(), &clone); err != ErrUserAlreadyExists {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestUserRepository_MissingUsersReturnSentinel(t *testing.T) {
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); err != ErrUserNotFound {
		t.Errorf("FindByEmail: expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, uuid.New()); err != ErrUserNotFound {
		t.Errorf("FindByID: expected ErrUserNotFound, got %v", err)
	}
}

func TestRefreshTokenRepository_RevokeLifecycle(t *testing.T) {
	userRepo := NewUserRepository(testDB)
	tokenRepo := NewRefreshTokenRepository(testDB)
	ctx := context.Background()

	user := newStoredUser(t, userRepo, "tokens@example.com", "s3cretpass")
	defer testDB.Exec("DELETE FROM users WHERE id = $1", user.ID)

	token := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     "refresh-" + uuid.New().String(),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		CreatedAt: time.Now(),
	}
	if err := tokenRepo.Create(ctx, token); err != nil {
		t.Fatalf("failed to store refresh token: %v", err)
	}
	defer testDB.Exec("DELETE FROM refresh_tokens WHERE id = $1", token.ID)

	stored, err := tokenRepo.FindByToken(ctx, token.Token)
	if err != nil {
		t.Fatalf("failed to find refresh token: %v", err)
	}
	if stored.UserID != user.ID {
		t.Errorf("expected user %s, got %s", user.ID, stored.UserID)
	}

	if err := tokenRepo.Revoke(ctx, token.Token); err != nil {
		t.Fatalf("failed to revoke refresh token: %v", err)
	}
	if _, err := tokenRepo.FindByToken(ctx, token.Token); err != ErrRefreshTokenRevoked {
		t.Errorf("expected ErrRefreshTokenRevoked, got %v", err)
	}
	if err := tokenRepo.Revoke(ctx, "refresh-unknown"); err != ErrRefreshTokenNotFound {
		t.Errorf("expected ErrRefreshTokenNotFound, got %v", err)
	}
}
