package user

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	req := httptest.NewRequest("GET",
		"/api/users?user_id=10001&username=alice&username_contains=ali"+
			"&age_gte=18&age_lte=30&gender=1&phone_number=138"+
			"&created_after=2024-01-01T00:00:00Z&created_before=2024-12-31T00:00:00Z", nil)
	f := ParseFilter(req)

	require.NotNil(t, f.UserID)
	assert.Equal(t, int64(10001), *f.UserID)
	assert.Equal(t, "alice", f.Username)
	assert.Equal(t, "ali", f.UsernameLike)
	require.NotNil(t, f.AgeMin)
	assert.Equal(t, int16(18), *f.AgeMin)
	require.NotNil(t, f.AgeMax)
	assert.Equal(t, int16(30), *f.AgeMax)
	require.NotNil(t, f.Gender)
	assert.Equal(t, Gender(1), *f.Gender)
	assert.Equal(t, "138", f.PhoneLike)
	require.NotNil(t, f.CreatedAfter)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *f.CreatedAfter)
	require.NotNil(t, f.CreatedBefore)
}

func TestParseFilterIgnoresUnparsableValues(t *testing.T) {
	req := httptest.NewRequest("GET",
		"/api/users?user_id=abc&age_gte=old&created_after=yesterday", nil)
	f := ParseFilter(req)

	assert.Nil(t, f.UserID)
	assert.Nil(t, f.AgeMin)
	assert.Nil(t, f.CreatedAfter)
}

func TestFilterWhere(t *testing.T) {
	t.Run("empty filter adds nothing", func(t *testing.T) {
		conds, args := Filter{}.where(nil, nil)
		assert.Empty(t, conds)
		assert.Empty(t, args)
	})

	t.Run("placeholders continue existing numbering", func(t *testing.T) {
		age := int16(18)
		f := Filter{Username: "alice", AgeMin: &age}
		conds, args := f.where([]string{"is_deleted = $1"}, []any{false})

		assert.Equal(t, []string{"is_deleted = $1", "username = $2", "age >= $3"}, conds)
		assert.Equal(t, []any{false, "alice", int16(18)}, args)
	})

	t.Run("substring match wraps argument", func(t *testing.T) {
		f := Filter{UsernameLike: "ali"}
		conds, args := f.where(nil, nil)

		assert.Equal(t, []string{"username LIKE '%' || $1 || '%'"}, conds)
		assert.Equal(t, []any{"ali"}, args)
	})
}
