package tag

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Filter narrows tag listings. Zero values mean "not filtered".
type Filter struct {
	NameLike      string
	Type          TagType
	TypeIn        []TagType
	IsActive      *bool
	Search        string // matches name or description
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func ParseFilter(r *http.Request) Filter {
	q := r.URL.Query()
	var f Filter

	f.NameLike = q.Get("tag_name")
	if t := TagType(q.Get("tag_type")); ValidType(t) {
		f.Type = t
	}
	for _, raw := range q["tag_type_in"] {
		for _, part := range strings.Split(raw, ",") {
			if t := TagType(strings.TrimSpace(part)); ValidType(t) {
				f.TypeIn = append(f.TypeIn, t)
			}
		}
	}
	if v := q.Get("is_active"); v != "" {
		active := parseBool(v)
		f.IsActive = &active
	}
	f.Search = q.Get("search")
	if v, err := time.Parse(time.RFC3339, q.Get("created_after")); err == nil {
		f.CreatedAfter = &v
	}
	if v, err := time.Parse(time.RFC3339, q.Get("created_before")); err == nil {
		f.CreatedBefore = &v
	}
	return f
}

func (f Filter) where(conds []string, args []any) ([]string, []any) {
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.NameLike != "" {
		add("tag_name ILIKE '%%' || $%d || '%%'", f.NameLike)
	}
	if f.Type != "" {
		add("tag_type = $%d", string(f.Type))
	}
	if len(f.TypeIn) > 0 {
		placeholders := make([]string, len(f.TypeIn))
		for i, t := range f.TypeIn {
			args = append(args, string(t))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conds = append(conds, "tag_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if f.IsActive != nil {
		add("is_active = $%d", *f.IsActive)
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(tag_name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", n, n))
	}
	if f.CreatedAfter != nil {
		add("created_time >= $%d", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("created_time <= $%d", *f.CreatedBefore)
	}
	return conds, args
}

// orderableColumns guards the ordering parameter against injection.
var orderableColumns = map[string]string{
	"tag_id":       "tag_id",
	"tag_name":     "tag_name",
	"tag_type":     "tag_type",
	"created_time": "created_time",
}

// ParseOrdering maps an ordering parameter ("tag_name" or "-tag_name")
// to an ORDER BY clause, defaulting to newest first.
func ParseOrdering(r *http.Request) string {
	raw := r.URL.Query().Get("ordering")
	desc := strings.HasPrefix(raw, "-")
	col, ok := orderableColumns[strings.TrimPrefix(raw, "-")]
	if !ok {
		return "created_time DESC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// RelationshipFilter narrows user-tag relationship listings.
type RelationshipFilter struct {
	UserID    *int64
	TagID     *int64
	Status    *bool
	WeightMin *float64
	WeightMax *float64
	Search    string // matches description, username or tag name
}

func ParseRelationshipFilter(r *http.Request) RelationshipFilter {
	q := r.URL.Query()
	var f RelationshipFilter

	if v, err := strconv.ParseInt(q.Get("user_id"), 10, 64); err == nil {
		f.UserID = &v
	}
	if v, err := strconv.ParseInt(q.Get("tag_id"), 10, 64); err == nil {
		f.TagID = &v
	}
	if v := q.Get("status"); v != "" {
		status := parseBool(v)
		f.Status = &status
	}
	if v, err := strconv.ParseFloat(q.Get("weight_gte"), 64); err == nil {
		f.WeightMin = &v
	}
	if v, err := strconv.ParseFloat(q.Get("weight_lte"), 64); err == nil {
		f.WeightMax = &v
	}
	f.Search = q.Get("search")
	return f
}

func (f RelationshipFilter) where(conds []string, args []any) ([]string, []any) {
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != nil {
		add("r.user_id = $%d", *f.UserID)
	}
	if f.TagID != nil {
		add("r.tag_id = $%d", *f.TagID)
	}
	if f.Status != nil {
		add("r.status = $%d", *f.Status)
	}
	if f.WeightMin != nil {
		add("r.weight >= $%d", *f.WeightMin)
	}
	if f.WeightMax != nil {
		add("r.weight <= $%d", *f.WeightMax)
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(r.relation_description ILIKE '%%' || $%d || '%%' OR u.username ILIKE '%%' || $%d || '%%' OR t.tag_name ILIKE '%%' || $%d || '%%')",
			n, n, n))
	}
	return conds, args
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	return false
}
