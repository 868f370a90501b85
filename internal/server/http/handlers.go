package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/kazna/user-service/internal/server/services"
	"github.com/kazna/user-service/internal/server/validation"
)

const (
	detailNotFound          = "Not found."
	detailInternal          = "Internal server error."
	detailInvalidCredential = "Unable to log in with provided credentials."
)

// UserResponse is the public projection of a user. It never carries the
// password hash.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type createUserRequest struct {
	Email     validation.Input `json:"email"`
	Username  validation.Input `json:"username"`
	Password  validation.Input `json:"password"`
	FirstName validation.Input `json:"first_name"`
	LastName  validation.Input `json:"last_name"`
}

// updateMeRequest has no password field; a password key in the body is
// dropped on decode.
type updateMeRequest struct {
	Email     validation.Input `json:"email"`
	Username  validation.Input `json:"username"`
	FirstName validation.Input `json:"first_name"`
	LastName  validation.Input `json:"last_name"`
}

type setPasswordRequest struct {
	NewPassword     validation.Input `json:"new_password"`
	CurrentPassword validation.Input `json:"current_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AuthToken string `json:"auth_token"`
}

func (h *handler) listUsers(c *gin.Context) {
	list, err := h.accounts.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]UserResponse, 0, len(list))
	for _, u := range list {
		out = append(out, newUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getUser(c *gin.Context) {
	u, err := h.accounts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *handler) createUser(c *gin.Context) {
	var req createUserRequest
	if !h.bind(c, &req) {
		return
	}

	u, err := h.accounts.Create(c.Request.Context(), services.CreateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(u))
}

func (h *handler) getMe(c *gin.Context) {
	u, _ := currentUser(c)
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *handler) updateMe(c *gin.Context) {
	var req updateMeRequest
	if !h.bind(c, &req) {
		return
	}

	me, _ := currentUser(c)
	u, err := h.accounts.UpdateProfile(c.Request.Context(), me.ID, services.ProfilePatch{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(u))
}

func (h *handler) setPassword(c *gin.Context) {
	var req setPasswordRequest
	if !h.bind(c, &req) {
		return
	}

	me, _ := currentUser(c)
	err := h.accounts.ChangePassword(c.Request.Context(), me.ID, services.ChangePasswordInput{
		NewPassword:     req.NewPassword,
		CurrentPassword: req.CurrentPassword,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{AuthToken: token})
}

func (h *handler) logout(c *gin.Context) {
	me, _ := currentUser(c)
	if err := h.auth.Logout(c.Request.Context(), me.ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bind decodes a JSON body into dst. An empty body decodes as {} so missing
// fields are reported by validation.
func (h *handler) bind(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "JSON parse error - " + err.Error()})
	return false
}

func (h *handler) writeError(c *gin.Context, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Messages())
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": detailNotFound})
	case errors.Is(err, common.ErrorInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{detailInvalidCredential}})
	case errors.Is(err, common.ErrInvalidToken):
		abortUnauthorized(c, detailInvalidToken)
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": detailInternal})
	}
}
