package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/giftlab/giftserve/internal/httpx"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type CreateDTO struct {
	Username    string
	Password    string // already hashed
	UserIcon    string
	Age         *int16
	Birthday    *time.Time
	Gender      Gender
	PhoneNumber string
}

// UpdateDTO carries a partial update. Nil fields are left untouched.
type UpdateDTO struct {
	Username    *string
	UserIcon    *string
	Age         *int16
	Birthday    *time.Time
	Gender      *Gender
	PhoneNumber *string
}

func (u UpdateDTO) Empty() bool {
	return u.Username == nil && u.UserIcon == nil && u.Age == nil &&
		u.Birthday == nil && u.Gender == nil && u.PhoneNumber == nil
}

type Repo interface {
	Create(ctx context.Context, dto CreateDTO) (*User, error)
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	List(ctx context.Context, f Filter, p httpx.PageParams) ([]User, int64, error)
	Update(ctx context.Context, userID int64, dto UpdateDTO) (*User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	SoftDelete(ctx context.Context, userID int64) error
	Destroy(ctx context.Context, userID int64) error
}

const userColumns = `user_id, username, user_icon, age, birthday, gender, phone_number, password, create_time, is_deleted`

const (
	insertUserQuery = `
						INSERT INTO users (username, password, user_icon, age, birthday, gender, phone_number)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING ` + userColumns + `
						`
	selectUserByIDQuery = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 AND is_deleted = FALSE`
	// Lookups by credential return soft-deleted rows too, so login can
	// distinguish a disabled account from a wrong password.
	selectUserByUsernameQuery = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	selectUserByPhoneQuery    = `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	updatePasswordQuery       = `UPDATE users SET password = $2 WHERE user_id = $1 AND is_deleted = FALSE`
	softDeleteUserQuery       = `UPDATE users SET is_deleted = TRUE WHERE user_id = $1 AND is_deleted = FALSE`
	destroyUserQuery          = `DELETE FROM users WHERE user_id = $1`
)

type userRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepo(db *sql.DB, logger *zap.Logger) Repo {
	return &userRepo{db: db, logger: logger}
}

func (r *userRepo) Create(ctx context.Context, dto CreateDTO) (*User, error) {
	row := r.db.QueryRowContext(ctx, insertUserQuery,
		strings.TrimSpace(dto.Username),
		dto.Password,
		dto.UserIcon,
		dto.Age,
		dto.Birthday,
		dto.Gender,
		strings.TrimSpace(dto.PhoneNumber),
	)
	u, err := scanUser(row)
	if err != nil {
		if mapped := mapConstraint(err); mapped != nil {
			return nil, mapped
		}
		r.logger.Error("failed to insert user", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, userID int64) (*User, error) {
	return r.getOne(ctx, selectUserByIDQuery, userID)
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, selectUserByUsernameQuery, username)
}

func (r *userRepo) GetByPhone(ctx context.Context, phone string) (*User, error) {
	return r.getOne(ctx, selectUserByPhoneQuery, phone)
}

func (r *userRepo) getOne(ctx context.Context, query string, arg any) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("failed to query user", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *userRepo) List(ctx context.Context, f Filter, p httpx.PageParams) ([]User, int64, error) {
	conds := []string{"is_deleted = FALSE"}
	args := []any{}
	conds, args = f.where(conds, args)
	where := strings.Join(conds, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM users WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("failed to count users", zap.Error(err))
		return nil, 0, err
	}

	listQuery := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY create_time DESC LIMIT $%d OFFSET $%d`,
		userColumns, where, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]User, 0, p.PageSize)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepo) Update(ctx context.Context, userID int64, dto UpdateDTO) (*User, error) {
	sets := []string{}
	args := []any{userID}
	set := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if dto.Username != nil {
		set("username", strings.TrimSpace(*dto.Username))
	}
	if dto.UserIcon != nil {
		set("user_icon", *dto.UserIcon)
	}
	if dto.Age != nil {
		set("age", *dto.Age)
	}
	if dto.Birthday != nil {
		set("birthday", *dto.Birthday)
	}
	if dto.Gender != nil {
		set("gender", *dto.Gender)
	}
	if dto.PhoneNumber != nil {
		set("phone_number", strings.TrimSpace(*dto.PhoneNumber))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, userID)
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE user_id = $1 AND is_deleted = FALSE RETURNING %s`,
		strings.Join(sets, ", "), userColumns)
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if mapped := mapConstraint(err); mapped != nil {
			return nil, mapped
		}
		r.logger.Error("failed to update user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return r.execOne(ctx, updatePasswordQuery, userID, passwordHash)
}

func (r *userRepo) SoftDelete(ctx context.Context, userID int64) error {
	return r.execOne(ctx, softDeleteUserQuery, userID)
}

func (r *userRepo) Destroy(ctx context.Context, userID int64) error {
	return r.execOne(ctx, destroyUserQuery, userID)
}

func (r *userRepo) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("user write failed", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var icon sql.NullString
	var age sql.NullInt16
	var birthday sql.NullTime
	err := row.Scan(&u.UserID, &u.Username, &icon, &age, &birthday,
		&u.Gender, &u.PhoneNumber, &u.Password, &u.CreateTime, &u.IsDeleted)
	if err != nil {
		return nil, err
	}
	if icon.Valid {
		u.UserIcon = icon.String
	}
	if age.Valid {
		a := age.Int16
		u.Age = &a
	}
	if birthday.Valid {
		b := birthday.Time
		u.Birthday = &b
	}
	return &u, nil
}

func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return ErrDuplicateUsername
		case "users_phone_number_key":
			return ErrDuplicatePhone
		}
	}
	return nil
}
