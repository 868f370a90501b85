package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kazna/user-service/internal/logging"
	"github.com/kazna/user-service/internal/server/models"
	"github.com/kazna/user-service/internal/server/services"
)

// AccountService is the account lifecycle the handlers drive.
type AccountService interface {
	Create(ctx context.Context, in services.CreateUserInput) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id string, patch services.ProfilePatch) (*models.User, error)
	ChangePassword(ctx context.Context, id string, in services.ChangePasswordInput) error
}

// Authenticator issues, resolves and revokes tokens.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
	Logout(ctx context.Context, userID string) error
}

type handler struct {
	accounts AccountService
	auth     Authenticator
	logger   logging.Logger
}

// NewRouter wires the account routes:
//
//	GET    /users/               list users
//	POST   /users/               register
//	GET    /users/:id/           retrieve one user
//	GET    /users/me/            caller's profile
//	PATCH  /users/me/            partial update of the caller's profile
//	POST   /users/set_password/  change the caller's password
//	POST   /auth/token/login/    exchange email and password for a token
//	POST   /auth/token/logout/   revoke the caller's token
func NewRouter(accounts AccountService, authn Authenticator, l logging.Logger) *gin.Engine {
	h := &handler{accounts: accounts, auth: authn, logger: l.With("module", "http")}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), requestLogger(h.logger), authenticate(authn, h.logger))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": `Method "` + c.Request.Method + `" not allowed.`})
	})

	users := r.Group("/users")
	users.GET("/", h.listUsers)
	users.POST("/", h.createUser)
	users.GET("/me/", requireAuth(), h.getMe)
	users.PATCH("/me/", requireAuth(), h.updateMe)
	users.POST("/set_password/", requireAuth(), h.setPassword)
	users.GET("/:id/", h.getUser)

	tokens := r.Group("/auth/token")
	tokens.POST("/login/", h.login)
	tokens.POST("/logout/", requireAuth(), h.logout)

	return r
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
