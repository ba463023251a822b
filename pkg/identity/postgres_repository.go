package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

const uniqueViolation = "23505"

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db      DBTX
	pending pendingWrites
}

// NewPostgresRepository creates a new PostgreSQL identity repository
func NewPostgresRepository(db DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateUser inserts a new identity row
func (r *PostgresRepository) CreateUser(ctx context.Context, username string, active bool) (User, error) {
	user := User{
		ID:        uuid.New(),
		Username:  username,
		Active:    active,
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO identity (id, username, active, created_at)
		VALUES ($1, $2, $3, $4)
	`, user.ID, user.Username, user.Active, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrUserAlreadyExists
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Debug("User created", "username", username, "userID", user.ID)
	return user, nil
}

// FindUserByUsername looks up a user by username
func (r *PostgresRepository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	var user User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, active, created_at
		FROM identity
		WHERE username = $1
	`, username).Scan(&user.ID, &user.Username, &user.Active, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetAttribute returns the committed attribute values
func (r *PostgresRepository) GetAttribute(ctx context.Context, userID uuid.UUID, name string) ([]string, error) {
	var values []string
	err := r.db.QueryRow(ctx, `
		SELECT attr_values
		FROM identity_attribute
		WHERE identity_id = $1 AND name = $2
	`, userID, name).Scan(&values)
	if errors.Is(err, pgx.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attribute %s: %w", name, err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// SetAttribute stages attribute values until Commit
func (r *PostgresRepository) SetAttribute(ctx context.Context, userID uuid.UUID, name string, values []string) error {
	r.pending.stage(userID, name, values)
	return nil
}

// Commit upserts every staged attribute, inside a transaction when the
// underlying handle supports one.
func (r *PostgresRepository) Commit(ctx context.Context, userID uuid.UUID) error {
	staged := r.pending.take(userID)
	if len(staged) == 0 {
		return nil
	}

	if err := r.commit(ctx, userID, staged); err != nil {
		r.pending.restore(userID, staged)
		return err
	}
	slog.Debug("Attributes committed", "userID", userID, "attributes", sortedKeys(staged))
	return nil
}

func (r *PostgresRepository) commit(ctx context.Context, userID uuid.UUID, staged map[string][]string) error {
	beginner, ok := r.db.(txBeginner)
	if !ok {
		return upsertAttributes(ctx, r.db, userID, staged)
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertAttributes(ctx, tx, userID, staged); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func upsertAttributes(ctx context.Context, db DBTX, userID uuid.UUID, staged map[string][]string) error {
	for _, name := range sortedKeys(staged) {
		tag, err := db.Exec(ctx, `
			INSERT INTO identity_attribute (identity_id, name, attr_values, updated_at)
			SELECT id, $2, $3, now() FROM identity WHERE id = $1
			ON CONFLICT (identity_id, name)
			DO UPDATE SET attr_values = EXCLUDED.attr_values, updated_at = EXCLUDED.updated_at
		`, userID, name, staged[name])
		if err != nil {
			return fmt.Errorf("failed to upsert attribute %s: %w", name, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
	}
	return nil
}
