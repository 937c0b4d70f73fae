package tag

import "time"

type TagType string

const (
	TypeSkill    TagType = "skill"
	TypeInterest TagType = "interest"
	TypeSystem   TagType = "system"
	TypeCustom   TagType = "custom"
)

func ValidType(t TagType) bool {
	switch t {
	case TypeSkill, TypeInterest, TypeSystem, TypeCustom:
		return true
	}
	return false
}

type Tag struct {
	TagID       int64     `json:"tag_id" db:"tag_id"`
	TagType     TagType   `json:"tag_type" db:"tag_type"`
	TagName     string    `json:"tag_name" db:"tag_name"`
	Description string    `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedTime time.Time `json:"created_time" db:"created_time"`
}

// Relationship links a user to a tag with a weight in [0, 1]. A user
// carries each tag at most once.
type Relationship struct {
	RelationID   int64     `json:"relation_id" db:"relation_id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	TagID        int64     `json:"tag_id" db:"tag_id"`
	Weight       float64   `json:"weight" db:"weight"`
	Status       bool      `json:"status" db:"status"`
	Description  string    `json:"relation_description,omitempty" db:"relation_description"`
	RelationTime time.Time `json:"relation_time" db:"relation_time"`
}

// RelationshipView is a Relationship joined with the display names of
// both ends, used by listing endpoints.
type RelationshipView struct {
	Relationship
	Username string `json:"username"`
	TagName  string `json:"tag_name"`
}
