package tag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/giftlab/giftserve/internal/httpx"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type CreateTagDTO struct {
	TagType     TagType
	TagName     string
	Description string
	IsActive    *bool
}

// UpdateTagDTO carries a partial update. Nil fields are left untouched.
type UpdateTagDTO struct {
	TagType     *TagType
	TagName     *string
	Description *string
	IsActive    *bool
}

func (u UpdateTagDTO) Empty() bool {
	return u.TagType == nil && u.TagName == nil && u.Description == nil && u.IsActive == nil
}

type Repo interface {
	List(ctx context.Context, f Filter, orderBy string, p httpx.PageParams) ([]Tag, int64, error)
	Create(ctx context.Context, dto CreateTagDTO) (*Tag, error)
	GetByID(ctx context.Context, tagID int64) (*Tag, error)
	Update(ctx context.Context, tagID int64, dto UpdateTagDTO) (*Tag, error)
	// Deactivate soft-deletes a tag. System tags are refused.
	Deactivate(ctx context.Context, tagID int64) error
}

const tagColumns = `tag_id, tag_type, tag_name, description, is_active, created_time`

const (
	insertTagQuery = `
						INSERT INTO tags (tag_type, tag_name, description, is_active)
						VALUES ($1, $2, $3, $4)
						RETURNING ` + tagColumns + `
						`
	selectTagByIDQuery = `SELECT ` + tagColumns + ` FROM tags WHERE tag_id = $1`
)

type tagRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepo(db *sql.DB, logger *zap.Logger) Repo {
	return &tagRepo{db: db, logger: logger}
}

func (r *tagRepo) List(ctx context.Context, f Filter, orderBy string, p httpx.PageParams) ([]Tag, int64, error) {
	conds := []string{"TRUE"}
	args := []any{}
	conds, args = f.where(conds, args)
	where := strings.Join(conds, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE `+where, args...).Scan(&total); err != nil {
		r.logger.Error("failed to count tags", zap.Error(err))
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM tags WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		tagColumns, where, orderBy, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list tags", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	tags := make([]Tag, 0, p.PageSize)
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, 0, err
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tags, total, nil
}

func (r *tagRepo) Create(ctx context.Context, dto CreateTagDTO) (*Tag, error) {
	active := true
	if dto.IsActive != nil {
		active = *dto.IsActive
	}
	row := r.db.QueryRowContext(ctx, insertTagQuery,
		string(dto.TagType),
		strings.TrimSpace(dto.TagName),
		dto.Description,
		active,
	)
	t, err := scanTag(row)
	if err != nil {
		if isUniqueViolation(err, "tags_tag_name_key") {
			return nil, ErrDuplicateName
		}
		r.logger.Error("failed to insert tag", zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *tagRepo) GetByID(ctx context.Context, tagID int64) (*Tag, error) {
	t, err := scanTag(r.db.QueryRowContext(ctx, selectTagByIDQuery, tagID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("failed to query tag", zap.Int64("tag_id", tagID), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *tagRepo) Update(ctx context.Context, tagID int64, dto UpdateTagDTO) (*Tag, error) {
	sets := []string{}
	args := []any{tagID}
	set := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if dto.TagType != nil {
		set("tag_type", string(*dto.TagType))
	}
	if dto.TagName != nil {
		set("tag_name", strings.TrimSpace(*dto.TagName))
	}
	if dto.Description != nil {
		set("description", *dto.Description)
	}
	if dto.IsActive != nil {
		set("is_active", *dto.IsActive)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, tagID)
	}

	query := fmt.Sprintf(`UPDATE tags SET %s WHERE tag_id = $1 RETURNING %s`,
		strings.Join(sets, ", "), tagColumns)
	t, err := scanTag(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err, "tags_tag_name_key") {
			return nil, ErrDuplicateName
		}
		r.logger.Error("failed to update tag", zap.Int64("tag_id", tagID), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *tagRepo) Deactivate(ctx context.Context, tagID int64) error {
	t, err := r.GetByID(ctx, tagID)
	if err != nil {
		return err
	}
	if t.TagType == TypeSystem {
		return ErrSystemTag
	}

	_, err = r.db.ExecContext(ctx, `UPDATE tags SET is_active = FALSE WHERE tag_id = $1`, tagID)
	if err != nil {
		r.logger.Error("failed to deactivate tag", zap.Int64("tag_id", tagID), zap.Error(err))
	}
	return err
}

func scanTag(row rowScanner) (*Tag, error) {
	var t Tag
	var desc sql.NullString
	if err := row.Scan(&t.TagID, &t.TagType, &t.TagName, &desc, &t.IsActive, &t.CreatedTime); err != nil {
		return nil, err
	}
	if desc.Valid {
		t.Description = desc.String
	}
	return &t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == constraint
}
