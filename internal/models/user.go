// internal/models/user.go
package models

import (
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string `json:"username" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash string `json:"-" gorm:"size:255;not null"`
	Role         Role   `json:"role" gorm:"type:varchar(20);not null"`
	Location     string `json:"location" gorm:"size:50;not null"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
