package model

import "time"

type UserModel struct {
	ID        string  `gorm:"type:uuid;primary_key"`
	Name      string  `gorm:"type:varchar(255);not null"`
	Phone     *string `gorm:"type:varchar(32);uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string {
	return "users"
}
