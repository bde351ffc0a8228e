package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/swasthya/internal/model"
	"github.com/iliyamo/swasthya/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var (
	ErrNameExists   = errors.New("name already exists")
	ErrPhoneExists  = errors.New("phone already registered")
	ErrUserNotFound = errors.New("user not found")
)

const userCols = "id,name,phone,password_hash,is_active,created_at,updated_at"

// NormalizePhone strips spaces, dashes and a leading +91 so the same
// number always maps to one row.
func NormalizePhone(phone string) string {
	p := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	if strings.HasPrefix(p, "+91") && len(p) == 13 {
		p = p[3:]
	}
	return p
}

// Create hashes the password, inserts the user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, phone, password string, cost int) (uint64, error) {
	name = strings.TrimSpace(name)
	phone = NormalizePhone(phone)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, phone, password_hash) VALUES (?,?,?)",
		name, phone, hash)
	if err != nil {
		return 0, duplicateErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// duplicateErr maps MySQL error 1062 to the sentinel for the violated key.
func duplicateErr(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		if strings.Contains(me.Message, "phone") {
			return ErrPhoneExists
		}
		return ErrNameExists
	}
	if strings.Contains(err.Error(), "1062") {
		return ErrConflict
	}
	return err
}

// GetByName fetches a user by name.
func (r *UserRepo) GetByName(ctx context.Context, name string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userCols+" FROM users WHERE name=? LIMIT 1", strings.TrimSpace(name))
}

// GetByPhone fetches a user by normalized phone.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userCols+" FROM users WHERE phone=? LIMIT 1", NormalizePhone(phone))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getOne(ctx, "SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, q, arg).
		Scan(&u.ID, &u.Name, &u.Phone, &u.PasswordHash, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// UpdatePassword replaces the password hash of an existing user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
