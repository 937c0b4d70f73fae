package user

import "time"

type Gender int16

const (
	GenderUnknown Gender = 0
	GenderMale    Gender = 1
	GenderFemale  Gender = 2
)

type User struct {
	UserID      int64      `json:"user_id" db:"user_id"`
	Username    string     `json:"username" db:"username"`
	UserIcon    string     `json:"user_icon,omitempty" db:"user_icon"`
	Age         *int16     `json:"age" db:"age"`
	Birthday    *time.Time `json:"birthday" db:"birthday"`
	Gender      Gender     `json:"gender" db:"gender"`
	PhoneNumber string     `json:"phone_number" db:"phone_number"`
	Password    string     `json:"-" db:"password"`
	CreateTime  time.Time  `json:"create_time" db:"create_time"`
	IsDeleted   bool       `json:"is_deleted" db:"is_deleted"`
}
