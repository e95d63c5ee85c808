package db

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了读者账号与个人资料字段
type User struct {
	gorm.Model
	Name            string     `gorm:"size:255" json:"name"`
	Username        string     `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email           string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	BackupEmail     *string    `gorm:"size:255;uniqueIndex" json:"backup_email"`
	Phone           string     `gorm:"size:255" json:"phone"`
	Gender          string     `gorm:"size:255" json:"gender"`
	DateOfBirth     *time.Time `json:"date_of_birth"`
	Province        string     `gorm:"size:255" json:"province"`
	City            string     `gorm:"size:255" json:"city"`
	Address         string     `gorm:"size:255" json:"address"`
	Avatar          string     `gorm:"size:255" json:"avatar"`
	Password        string     `gorm:"not null" json:"-"`
}

// EnsureUser 存在性检查：若用户名、邮箱与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func EnsureUser(username, email, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedEmail := strings.ToLower(strings.TrimSpace(email))
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedEmail == "" || trimmedPassword == "" {
		return nil
	}

	if DB == nil {
		return errors.New("database not initialized")
	}

	var existing User
	if err := DB.Where("username = ?", trimmedUser).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now()
		return DB.Create(&User{
			Name:            trimmedUser,
			Username:        trimmedUser,
			Email:           trimmedEmail,
			EmailVerifiedAt: &now,
			Password:        string(hashed),
		}).Error
	}

	return nil
}
