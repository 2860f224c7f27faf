package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kroma-labs/sqlscope/errctx"
)

// User represents a user in the database
type User struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

// CreateTable creates the users table if it doesn't exist
func (db *DB) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100),
			email VARCHAR(100) UNIQUE
		)
	`
	_, err := db.ExecContext(ctx, query)
	return err
}

// InsertUsers inserts sample users with a named statement
func (db *DB) InsertUsers(ctx context.Context) error {
	users := []User{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Charlie", Email: "charlie@example.com"},
	}

	for _, user := range users {
		_, err := db.NamedExecContext(
			ctx,
			"INSERT INTO users (name, email) VALUES (:name, :email) ON CONFLICT DO NOTHING",
			user,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// QueryUsers queries users using sqlx's SelectContext (scans into slice)
func (db *DB) QueryUsers(ctx context.Context) error {
	var users []User
	err := db.SelectContext(ctx, &users, "SELECT id, name, email FROM users LIMIT 10")
	if err != nil {
		return err
	}
	db.log.Info().Int("count", len(users)).Msg("queried users via SelectContext")
	return nil
}

// GetUser queries a single user using sqlx's GetContext. A missing user
// is reported as nil without error.
func (db *DB) GetUser(ctx context.Context, name string) (*User, error) {
	ctx = errctx.NewContext(ctx)
	errctx.FromContext(ctx).Activity("looking up a user by name")

	var user User
	err := db.GetContext(ctx, &user, "SELECT id, name, email FROM users WHERE name = $1", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	db.log.Info().Str("name", user.Name).Str("email", user.Email).Msg("got user via GetContext")
	return &user, nil
}

// QueryMissingTable runs a query that always fails, to show the error
// report attached to every failed call.
func (db *DB) QueryMissingTable(ctx context.Context) {
	var n int
	err := db.GetContext(ctx, &n, "SELECT count(*) FROM no_such_table")
	if err != nil {
		db.log.Warn().Msg("expected failure:" + err.Error())
	}
}

// InsertWithTransaction demonstrates transaction usage with sqlx
func (db *DB) InsertWithTransaction(ctx context.Context) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (name, email) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		"Transaction User",
		"tx@example.com",
	)
	if err != nil {
		return err
	}

	var user User
	err = tx.GetContext(
		ctx,
		&user,
		"SELECT id, name, email FROM users WHERE email = $1",
		"tx@example.com",
	)
	if err != nil {
		return err
	}
	db.log.Info().Str("name", user.Name).Msg("transaction query result")

	if err = tx.Commit(); err != nil {
		return err
	}
	db.log.Info().Msg("transaction committed")
	return nil
}
