package user

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Filter narrows user listings. Zero values mean "not filtered".
// Soft-deleted rows are always excluded by the repository.
type Filter struct {
	UserID        *int64
	Username      string // exact
	UsernameLike  string // substring
	Age           *int16
	AgeMin        *int16
	AgeMax        *int16
	Gender        *Gender
	PhoneLike     string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// ParseFilter reads listing filters from query parameters. Unparsable
// values are ignored rather than rejected.
func ParseFilter(r *http.Request) Filter {
	q := r.URL.Query()
	var f Filter

	if v, err := strconv.ParseInt(q.Get("user_id"), 10, 64); err == nil {
		f.UserID = &v
	}
	f.Username = q.Get("username")
	f.UsernameLike = q.Get("username_contains")
	if v, err := strconv.ParseInt(q.Get("age"), 10, 16); err == nil {
		age := int16(v)
		f.Age = &age
	}
	if v, err := strconv.ParseInt(q.Get("age_gte"), 10, 16); err == nil {
		age := int16(v)
		f.AgeMin = &age
	}
	if v, err := strconv.ParseInt(q.Get("age_lte"), 10, 16); err == nil {
		age := int16(v)
		f.AgeMax = &age
	}
	if v, err := strconv.ParseInt(q.Get("gender"), 10, 16); err == nil {
		g := Gender(v)
		f.Gender = &g
	}
	f.PhoneLike = q.Get("phone_number")
	if v, err := time.Parse(time.RFC3339, q.Get("created_after")); err == nil {
		f.CreatedAfter = &v
	}
	if v, err := time.Parse(time.RFC3339, q.Get("created_before")); err == nil {
		f.CreatedBefore = &v
	}
	return f
}

// where appends SQL conditions and their arguments, numbering placeholders
// after the ones already collected.
func (f Filter) where(conds []string, args []any) ([]string, []any) {
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.UserID != nil {
		add("user_id = $%d", *f.UserID)
	}
	if f.Username != "" {
		add("username = $%d", f.Username)
	}
	if f.UsernameLike != "" {
		add("username LIKE '%%' || $%d || '%%'", f.UsernameLike)
	}
	if f.Age != nil {
		add("age = $%d", *f.Age)
	}
	if f.AgeMin != nil {
		add("age >= $%d", *f.AgeMin)
	}
	if f.AgeMax != nil {
		add("age <= $%d", *f.AgeMax)
	}
	if f.Gender != nil {
		add("gender = $%d", *f.Gender)
	}
	if f.PhoneLike != "" {
		add("phone_number LIKE '%%' || $%d || '%%'", f.PhoneLike)
	}
	if f.CreatedAfter != nil {
		add("create_time >= $%d", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("create_time <= $%d", *f.CreatedBefore)
	}
	return conds, args
}
