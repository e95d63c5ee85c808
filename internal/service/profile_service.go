package service

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newsportal/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	maxProfileFieldLength = 255
	minPasswordLength     = 8
	dateOfBirthLayout     = "2006-01-02"
)

var validate = validator.New()

// ProfileService 负责个人资料、账号信息与密码的更新。
// 所有字段先整体校验，存在错误时不写入任何数据。
type ProfileService struct {
	db      *gorm.DB
	avatars AvatarStorage
}

// PersonalInput 描述个人资料表单，nil 表示请求中未携带该字段。
type PersonalInput struct {
	Name        *string
	Username    *string
	Gender      *string
	DateOfBirth *string
	Province    *string
	City        *string
	Address     *string
}

// AccountInput 描述账号信息表单。
type AccountInput struct {
	Email       *string
	BackupEmail *string
	Phone       *string
}

// PasswordInput 描述修改密码表单。
type PasswordInput struct {
	CurrentPassword      string
	Password             string
	PasswordConfirmation string
}

// NewProfileService 构造 ProfileService
func NewProfileService(gdb *gorm.DB, avatars AvatarStorage) *ProfileService {
	return &ProfileService{db: gdb, avatars: avatars}
}

// UpdatePersonal 更新个人资料，avatar 非空时替换头像：先删除旧文件，再保存新文件。
func (s *ProfileService) UpdatePersonal(userID uint, input PersonalInput, avatar *AvatarUpload) (*db.User, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	errs := ValidationErrors{}
	updates := map[string]interface{}{}

	if name := requiredString(errs, "name", input.Name); !errs.Has("name") {
		updates["name"] = name
	}

	username := requiredString(errs, "username", input.Username)
	if !errs.Has("username") {
		taken, err := s.valueTaken("username", username, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", "The username has already been taken.")
		} else {
			updates["username"] = username
		}
	}

	optionalString(errs, updates, "gender", input.Gender)
	optionalString(errs, updates, "province", input.Province)
	optionalString(errs, updates, "city", input.City)
	optionalString(errs, updates, "address", input.Address)

	if input.DateOfBirth != nil {
		raw := strings.TrimSpace(*input.DateOfBirth)
		if raw == "" {
			updates["date_of_birth"] = nil
		} else if parsed, err := time.Parse(dateOfBirthLayout, raw); err != nil {
			errs.Add("date_of_birth", "The date of birth field must be a valid date.")
		} else {
			updates["date_of_birth"] = parsed
		}
	}

	var prepared *preparedAvatar
	if avatar != nil {
		var message string
		if prepared, message = prepareAvatar(avatar); message != "" {
			errs.Add("avatar", message)
		}
	}

	if err := errs.orNil(); err != nil {
		return nil, err
	}

	var newAvatar string
	if prepared != nil {
		if s.avatars == nil {
			return nil, errors.New("avatar storage not configured")
		}
		if user.Avatar != "" {
			if err := s.avatars.Delete(user.Avatar); err != nil {
				return nil, err
			}
		}
		newAvatar, err = s.avatars.Save(bytes.NewReader(prepared.data), prepared.ext)
		if err != nil {
			s.clearAvatar(user)
			return nil, err
		}
		updates["avatar"] = newAvatar
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		if newAvatar != "" {
			if cleanupErr := s.avatars.Delete(newAvatar); cleanupErr != nil {
				log.Printf("profile: failed to remove orphaned avatar %s: %v", newAvatar, cleanupErr)
			}
			s.clearAvatar(user)
		}
		if verr := s.uniqueViolation(err, user.ID, updates, "username"); verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("update personal profile: %w", err)
	}

	return s.loadUser(userID)
}

// UpdateAccount 更新邮箱、备用邮箱与手机号；主邮箱变更时清除验证状态。
func (s *ProfileService) UpdateAccount(userID uint, input AccountInput) (*db.User, error) {
	user, err := s.loadUser(userID)
	if err != nil {
		return nil, err
	}

	errs := ValidationErrors{}
	updates := map[string]interface{}{}

	email := strings.ToLower(requiredString(errs, "email", input.Email))
	if !errs.Has("email") && checkTag(errs, "email", email, "email,max=255") {
		taken, err := s.valueTaken("email", email, user.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("email", "The email has already been taken.")
		} else {
			updates["email"] = email
			if email != strings.ToLower(user.Email) {
				updates["email_verified_at"] = nil
			}
		}
	}

	if input.BackupEmail != nil {
		backup := strings.ToLower(strings.TrimSpace(*input.BackupEmail))
		switch {
		case backup == "":
			updates["backup_email"] = nil
		case checkTag(errs, "backup_email", backup, "email,max=255"):
			taken, err := s.valueTaken("backup_email", backup, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				errs.Add("backup_email", "The backup email has already been taken.")
			} else {
				updates["backup_email"] = backup
			}
		}
	}

	optionalString(errs, updates, "phone", input.Phone)

	if err := errs.orNil(); err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		if verr := s.uniqueViolation(err, user.ID, updates, "email", "backup_email"); verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	return s.loadUser(userID)
}

// ChangePassword 校验当前密码后写入新的 bcrypt 哈希。
func (s *ProfileService) ChangePassword(userID uint, input PasswordInput) error {
	user, err := s.loadUser(userID)
	if err != nil {
		return err
	}

	errs := ValidationErrors{}
	if input.CurrentPassword == "" {
		errs.Add("current_password", "The current password field is required.")
	} else if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.CurrentPassword)) != nil {
		errs.Add("current_password", "The password is incorrect.")
	}

	switch {
	case input.Password == "":
		errs.Add("password", "The password field is required.")
	case len([]rune(input.Password)) < minPasswordLength:
		errs.Add("password", fmt.Sprintf("The password field must be at least %d characters.", minPasswordLength))
	case input.Password != input.PasswordConfirmation:
		errs.Add("password", "The password field confirmation does not match.")
	}

	if err := errs.orNil(); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.db.Model(user).Update("password", string(hashed)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *ProfileService) loadUser(id uint) (*db.User, error) {
	if id == 0 {
		return nil, ErrUnauthenticated
	}

	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (s *ProfileService) valueTaken(column, value string, exceptID uint) (bool, error) {
	var count int64
	if err := s.db.Model(&db.User{}).
		Where(column+" = ?", value).
		Where("id <> ?", exceptID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("check unique %s: %w", column, err)
	}
	return count > 0, nil
}

// clearAvatar 在旧头像文件已删除后清空记录，避免指向不存在的文件。
func (s *ProfileService) clearAvatar(user *db.User) {
	if user.Avatar == "" {
		return
	}
	if err := s.db.Model(&db.User{}).Where("id = ?", user.ID).Update("avatar", "").Error; err != nil {
		log.Printf("profile: failed to clear avatar of user %d: %v", user.ID, err)
	}
}

// uniqueViolation 把并发写入触发的唯一约束冲突转换为字段错误，其他错误返回 nil。
func (s *ProfileService) uniqueViolation(err error, userID uint, updates map[string]interface{}, fields ...string) error {
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}

	errs := ValidationErrors{}
	for _, field := range fields {
		value, ok := updates[field].(string)
		if !ok {
			continue
		}
		if taken, checkErr := s.valueTaken(field, value, userID); checkErr == nil && taken {
			errs.Add(field, fmt.Sprintf("The %s has already been taken.", fieldLabel(field)))
		}
	}
	if len(errs) == 0 {
		errs.Add(fields[0], fmt.Sprintf("The %s has already been taken.", fieldLabel(fields[0])))
	}
	return errs
}

func requiredString(errs ValidationErrors, field string, value *string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		errs.Add(field, fmt.Sprintf("The %s field is required.", fieldLabel(field)))
		return ""
	}
	trimmed := strings.TrimSpace(*value)
	checkTag(errs, field, trimmed, "max=255")
	return trimmed
}

func optionalString(errs ValidationErrors, updates map[string]interface{}, field string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if checkTag(errs, field, trimmed, "max=255") {
		updates[field] = trimmed
	}
}

// checkTag 使用 validator 校验单个值，失败时写入字段错误并返回 false。
func checkTag(errs ValidationErrors, field, value, tag string) bool {
	err := validate.Var(value, tag)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		errs.Add(field, fmt.Sprintf("The %s field is invalid.", fieldLabel(field)))
		return false
	}

	switch fieldErrs[0].Tag() {
	case "email":
		errs.Add(field, fmt.Sprintf("The %s field must be a valid email address.", fieldLabel(field)))
	case "max":
		errs.Add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", fieldLabel(field), maxProfileFieldLength))
	default:
		errs.Add(field, fmt.Sprintf("The %s field is invalid.", fieldLabel(field)))
	}
	return false
}

func fieldLabel(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
