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

type CreateRelationshipDTO struct {
	UserID      int64
	TagID       int64
	Weight      *float64 // defaults to 1.0
	Status      *bool    // defaults to true
	Description string
}

// UpdateRelationshipDTO carries a partial update. The user/tag pair
// itself is immutable; delete and recreate to re-link.
type UpdateRelationshipDTO struct {
	Weight      *float64
	Status      *bool
	Description *string
}

func (u UpdateRelationshipDTO) Empty() bool {
	return u.Weight == nil && u.Status == nil && u.Description == nil
}

type RelationshipRepo interface {
	List(ctx context.Context, f RelationshipFilter, p httpx.PageParams) ([]RelationshipView, int64, error)
	Create(ctx context.Context, dto CreateRelationshipDTO) (*Relationship, error)
	GetByID(ctx context.Context, relationID int64) (*RelationshipView, error)
	Update(ctx context.Context, relationID int64, dto UpdateRelationshipDTO) (*Relationship, error)
	Delete(ctx context.Context, relationID int64) error
}

const relationColumns = `r.relation_id, r.user_id, r.tag_id, r.weight, r.status, r.relation_description, r.relation_time`

const relationJoin = `
						FROM user_tag_relationships r
						JOIN users u ON u.user_id = r.user_id
						JOIN tags t ON t.tag_id = r.tag_id
						`

const (
	insertRelationQuery = `
						INSERT INTO user_tag_relationships (user_id, tag_id, weight, status, relation_description)
						VALUES ($1, $2, $3, $4, $5)
						RETURNING relation_id, user_id, tag_id, weight, status, relation_description, relation_time
						`
	selectRelationByIDQuery = `SELECT ` + relationColumns + `, u.username, t.tag_name ` + relationJoin + ` WHERE r.relation_id = $1`
	deleteRelationQuery     = `DELETE FROM user_tag_relationships WHERE relation_id = $1`
)

type relationshipRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRelationshipRepo(db *sql.DB, logger *zap.Logger) RelationshipRepo {
	return &relationshipRepo{db: db, logger: logger}
}

func (r *relationshipRepo) List(ctx context.Context, f RelationshipFilter, p httpx.PageParams) ([]RelationshipView, int64, error) {
	conds := []string{"TRUE"}
	args := []any{}
	conds, args = f.where(conds, args)
	where := strings.Join(conds, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) ` + relationJoin + ` WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("failed to count relationships", zap.Error(err))
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s, u.username, t.tag_name %s WHERE %s ORDER BY r.relation_time DESC LIMIT $%d OFFSET $%d`,
		relationColumns, relationJoin, where, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, p.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list relationships", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	views := make([]RelationshipView, 0, p.PageSize)
	for rows.Next() {
		v, err := scanRelationshipView(rows)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (r *relationshipRepo) Create(ctx context.Context, dto CreateRelationshipDTO) (*Relationship, error) {
	weight := 1.0
	if dto.Weight != nil {
		weight = *dto.Weight
	}
	status := true
	if dto.Status != nil {
		status = *dto.Status
	}

	row := r.db.QueryRowContext(ctx, insertRelationQuery,
		dto.UserID, dto.TagID, weight, status, dto.Description)
	rel, err := scanRelationship(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch {
			case pgErr.Code == pgerrcode.UniqueViolation:
				return nil, ErrDuplicateRelation
			case pgErr.Code == pgerrcode.ForeignKeyViolation &&
				strings.Contains(pgErr.ConstraintName, "user"):
				return nil, ErrDanglingUser
			case pgErr.Code == pgerrcode.ForeignKeyViolation:
				return nil, ErrDanglingTag
			}
		}
		r.logger.Error("failed to insert relationship", zap.Error(err))
		return nil, err
	}
	return rel, nil
}

func (r *relationshipRepo) GetByID(ctx context.Context, relationID int64) (*RelationshipView, error) {
	v, err := scanRelationshipView(r.db.QueryRowContext(ctx, selectRelationByIDQuery, relationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRelationNotFound
		}
		r.logger.Error("failed to query relationship", zap.Int64("relation_id", relationID), zap.Error(err))
		return nil, err
	}
	return v, nil
}

func (r *relationshipRepo) Update(ctx context.Context, relationID int64, dto UpdateRelationshipDTO) (*Relationship, error) {
	sets := []string{}
	args := []any{relationID}
	set := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if dto.Weight != nil {
		set("weight", *dto.Weight)
	}
	if dto.Status != nil {
		set("status", *dto.Status)
	}
	if dto.Description != nil {
		set("relation_description", *dto.Description)
	}
	if len(sets) == 0 {
		v, err := r.GetByID(ctx, relationID)
		if err != nil {
			return nil, err
		}
		return &v.Relationship, nil
	}

	query := fmt.Sprintf(`UPDATE user_tag_relationships SET %s WHERE relation_id = $1
						RETURNING relation_id, user_id, tag_id, weight, status, relation_description, relation_time`,
		strings.Join(sets, ", "))
	rel, err := scanRelationship(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRelationNotFound
		}
		r.logger.Error("failed to update relationship", zap.Int64("relation_id", relationID), zap.Error(err))
		return nil, err
	}
	return rel, nil
}

func (r *relationshipRepo) Delete(ctx context.Context, relationID int64) error {
	res, err := r.db.ExecContext(ctx, deleteRelationQuery, relationID)
	if err != nil {
		r.logger.Error("failed to delete relationship", zap.Int64("relation_id", relationID), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRelationNotFound
	}
	return nil
}

func scanRelationship(row rowScanner) (*Relationship, error) {
	var rel Relationship
	var desc sql.NullString
	err := row.Scan(&rel.RelationID, &rel.UserID, &rel.TagID, &rel.Weight,
		&rel.Status, &desc, &rel.RelationTime)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		rel.Description = desc.String
	}
	return &rel, nil
}

func scanRelationshipView(row rowScanner) (*RelationshipView, error) {
	var v RelationshipView
	var desc sql.NullString
	err := row.Scan(&v.RelationID, &v.UserID, &v.TagID, &v.Weight,
		&v.Status, &desc, &v.RelationTime, &v.Username, &v.TagName)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		v.Description = desc.String
	}
	return &v, nil
}
