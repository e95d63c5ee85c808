package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/service"
)

// ShowProfileSettings 返回个人设置页
func (a *API) ShowProfileSettings(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		handleServiceError(c, err, "Failed to load categories")
		return
	}

	user := a.currentUser(c)
	a.renderPage(c, http.StatusOK, "settings/profile", gin.H{
		"categories":      categories,
		"user":            a.userPayload(user),
		"mustVerifyEmail": user.EmailVerifiedAt == nil,
	})
}

// UpdatePersonal 更新个人资料，支持 multipart 头像上传
func (a *API) UpdatePersonal(c *gin.Context) {
	fields, err := requestFields(c, "name", "username", "gender", "date_of_birth", "province", "city", "address")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid profile request")
		return
	}

	var avatar *service.AvatarUpload
	if header, err := c.FormFile("avatar"); err == nil {
		file, openErr := header.Open()
		if openErr != nil {
			respondValidation(c, service.ValidationErrors{"avatar": "The avatar failed to upload."})
			return
		}
		defer file.Close()
		avatar = &service.AvatarUpload{Filename: header.Filename, Size: header.Size, Content: file}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		respondValidation(c, service.ValidationErrors{"avatar": "The avatar failed to upload."})
		return
	}

	user, err := a.profiles.UpdatePersonal(a.currentUserID(c), service.PersonalInput{
		Name:        fields["name"],
		Username:    fields["username"],
		Gender:      fields["gender"],
		DateOfBirth: fields["date_of_birth"],
		Province:    fields["province"],
		City:        fields["city"],
		Address:     fields["address"],
	}, avatar)
	if err != nil {
		handleServiceError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": a.userPayload(user)})
}

// UpdateAccount 更新邮箱与联系方式
func (a *API) UpdateAccount(c *gin.Context) {
	fields, err := requestFields(c, "email", "backup_email", "phone")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid account request")
		return
	}

	user, err := a.profiles.UpdateAccount(a.currentUserID(c), service.AccountInput{
		Email:       fields["email"],
		BackupEmail: fields["backup_email"],
		Phone:       fields["phone"],
	})
	if err != nil {
		handleServiceError(c, err, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account updated", "user": a.userPayload(user)})
}

// UpdatePassword 修改密码
func (a *API) UpdatePassword(c *gin.Context) {
	fields, err := requestFields(c, "current_password", "password", "password_confirmation")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid password request")
		return
	}

	if err := a.profiles.ChangePassword(a.currentUserID(c), service.PasswordInput{
		CurrentPassword:      fieldValue(fields, "current_password"),
		Password:             fieldValue(fields, "password"),
		PasswordConfirmation: fieldValue(fields, "password_confirmation"),
	}); err != nil {
		handleServiceError(c, err, "Failed to update password")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}
