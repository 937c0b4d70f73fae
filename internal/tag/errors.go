package tag

import "errors"

var (
	ErrNotFound          = errors.New("tag not found")
	ErrDuplicateName     = errors.New("tag name already exists")
	ErrSystemTag         = errors.New("system tags cannot be deleted")
	ErrRelationNotFound  = errors.New("user-tag relationship not found")
	ErrDuplicateRelation = errors.New("user already carries this tag")
	ErrDanglingUser      = errors.New("referenced user does not exist")
	ErrDanglingTag       = errors.New("referenced tag does not exist")
)
