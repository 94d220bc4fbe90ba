package user

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib"
	"go.uber.org/zap"

	"forum/pkg/common"
)

const schema = `CREATE TABLE IF NOT EXISTS users (
	id       SERIAL PRIMARY KEY,
	username TEXT UNIQUE NOT NULL,
	password BYTEA NOT NULL,
	role     TEXT NOT NULL DEFAULT 'user',
	banned   BOOLEAN NOT NULL DEFAULT FALSE,
	activity INTEGER NOT NULL DEFAULT 0
)`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{
		db: db,
	}
}

// Migrate creates the users table when it is missing.
func (r *UserRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("user/repo: failed creating users table: %w", err)
	}
	return nil
}

func (r *UserRepo) Add(u *User) (string, error) {
	role := u.Role
	if role == "" {
		role = RoleUser
	}
	row := r.db.QueryRow("INSERT INTO users(username, password, role) VALUES($1, $2, $3) RETURNING id",
		u.Username, u.Password, role)
	var userID string
	if err := row.Scan(&userID); err != nil {
		return ``, fmt.Errorf("user/repo: user wasn't added: %w", err)
	}
	if userID == "" {
		return ``, fmt.Errorf("user/repo: user wasn't added, empty id returned")
	}
	return userID, nil
}

func (r *UserRepo) GetByUsernameAndPass(uname string, pass string) (*User, error) {
	row := r.db.QueryRow("SELECT id, username, password, role, banned, activity FROM users where username=$1", uname)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.Password, &u.Role, &u.Banned, &u.Activity); err != nil {
		return nil, fmt.Errorf("user/repo: row scan failed: %w", err)
	}
	if len(u.Password) < 8 {
		return nil, errors.New("user/repo: stored password is malformed")
	}
	// User found by username, now check if passwords are the same
	salt := string(u.Password[0:8])
	if !bytes.Equal(common.HashPass(pass, salt), u.Password) {
		return nil, errors.New("user/repo: password is invalid")
	}
	return u, nil
}

func (r *UserRepo) UserExists(uname string) bool {
	row := r.db.QueryRow("SELECT id FROM users where username=$1", uname)
	var id string
	if err := row.Scan(&id); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			zap.S().Errorf("user/repo: could not scan row: %v", err)
		}
		return false
	}
	return true
}

func (r *UserRepo) GetById(ctx context.Context, uid string) (*User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT id, username, role, banned, activity FROM users where id=$1", uid)
	u := new(User)
	if err := row.Scan(&u.Id, &u.Username, &u.Role, &u.Banned, &u.Activity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user/repo: %w", common.NotFound("user not found"))
		}
		return nil, fmt.Errorf("user/repo: could not scan row: %w", err)
	}
	return u, nil
}

// IsActive reports whether the user exists and is not banned.
func (r *UserRepo) IsActive(ctx context.Context, uid string) (bool, error) {
	u, err := r.GetById(ctx, uid)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !u.Banned, nil
}

func (r *UserRepo) SetBanned(ctx context.Context, uid string, banned bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET banned=$1 WHERE id=$2", banned, uid)
	if err != nil {
		return fmt.Errorf("user/repo: failed updating ban state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("user/repo: failed updating ban state: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user/repo: %w", common.NotFound("user not found"))
	}
	return nil
}

func (r *UserRepo) AddActivity(ctx context.Context, uid string, points int) error {
	_, err := r.db.ExecContext(ctx, "UPDATE users SET activity = activity + $1 WHERE id=$2", points, uid)
	if err != nil {
		return fmt.Errorf("user/repo: failed adding activity: %w", err)
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("user/repo: failed counting users: %w", err)
	}
	return n, nil
}

// Returns all users. Used only for seeding the DB.
func (r *UserRepo) GetAll() ([]*User, error) {
	rows, err := r.db.Query("SELECT id, username, password, role FROM users")
	if err != nil {
		return nil, fmt.Errorf("repo: failed executing query for getting all users: %w", err)
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u := new(User)
		err := rows.Scan(&u.Id, &u.Username, &u.Password, &u.Role)
		if err != nil {
			return nil, fmt.Errorf("user/repo: could not scan row: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
