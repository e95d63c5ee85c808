package handler

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/newsportal/internal/service"
)

const sessionUserKey = "user_id"

type loginRequest struct {
	Login    string `form:"login" json:"login"`
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// ShowLogin 返回登录页
func (a *API) ShowLogin(c *gin.Context) {
	a.renderPage(c, http.StatusOK, "auth/login", gin.H{})
}

// Login 校验凭据并写入会话
func (a *API) Login(c *gin.Context) {
	var payload loginRequest
	if err := c.ShouldBind(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid login request")
		return
	}

	login := payload.Login
	if login == "" {
		login = payload.Username
	}
	if login == "" {
		login = payload.Email
	}

	user, err := a.auth.Authenticate(login, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondValidation(c, service.ValidationErrors{"login": "These credentials do not match our records."})
			return
		}
		handleServiceError(c, err, "Login failed")
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged in", "user": a.userPayload(user)})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		c.Error(err)
	}
	c.Redirect(http.StatusFound, "/")
}

// LoadUser 若会话中存在有效用户，则放入上下文；不拦截匿名访问。
func (a *API) LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := sessionUserID(sessions.Default(c))
		if userID != 0 {
			if user, err := a.auth.GetUser(userID); err == nil {
				c.Set(currentUserContextKey, user)
			} else if !errors.Is(err, service.ErrUserNotFound) {
				c.Error(err)
			}
		}
		c.Next()
	}
}

// AuthRequired 拒绝未登录的请求，需在 LoadUser 之后使用。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.currentUser(c) == nil {
			rejectUnauthenticated(c)
			return
		}
		c.Next()
	}
}

// VerifiedRequired 要求邮箱已验证。
func (a *API) VerifiedRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := a.currentUser(c)
		if user == nil {
			rejectUnauthenticated(c)
			return
		}
		if user.EmailVerifiedAt == nil {
			respondError(c, http.StatusForbidden, "Your email address is not verified.")
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionUserID(session sessions.Session) uint {
	switch v := session.Get(sessionUserKey).(type) {
	case uint:
		return v
	case uint64:
		return uint(v)
	case int:
		if v > 0 {
			return uint(v)
		}
	case int64:
		if v > 0 {
			return uint(v)
		}
	case float64:
		if v > 0 {
			return uint(v)
		}
	}
	return 0
}
