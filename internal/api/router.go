package api

import (
	"go-yamdb/internal/access"
	"go-yamdb/internal/account"
	"go-yamdb/internal/auth"
	"go-yamdb/internal/catalog"
	"go-yamdb/internal/config"
	"go-yamdb/internal/logging"
	"go-yamdb/internal/review"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the collaborators the handlers call into.
type Deps struct {
	DB       *gorm.DB
	Accounts *account.Service
	Catalog  *catalog.Service
	Reviews  *review.Service
	Log      logging.Logger
}

func SetupRouter(cfg *config.Config, d *Deps) *gin.Engine {
	if d == nil {
		d = &Deps{}
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Log))
	subpath := cfg.Server.Subpath // e.g. "/api/v1", always starts with '/'

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler(d))
		group.GET("/config", configHandler(cfg))
	}
	if d.Accounts == nil {
		return r
	}

	// Anonymous requests pass through; a bad token is rejected here. Writes are
	// prechecked before any body is read; ownership is decided by the services.
	api := group.Group("", auth.AuthMiddleware(cfg.Server.JWTSecret, d.Accounts.ResolveActor))
	{
		api.GET("/setup", SetupStatusHandler(d))
		api.POST("/setup", SetupHandler(d))

		// Auth
		api.POST("/auth/signup", SignupHandler(d))
		api.POST("/auth/token", TokenHandler(d))

		// User self-service
		api.GET("/users/me", requireAccess(d, access.Profile, access.Read), GetMeHandler(d))
		api.PATCH("/users/me", requireAccess(d, access.Profile, access.Update), UpdateMeHandler(d))

		// Admin: users
		api.GET("/users", requireAccess(d, access.Accounts, access.Read), ListUsersHandler(d))
		api.POST("/users", requireAccess(d, access.Accounts, access.Create), CreateUserHandler(d))
		api.GET("/users/:username", requireAccess(d, access.Accounts, access.Read), GetUserHandler(d))
		api.PATCH("/users/:username", requireAccess(d, access.Accounts, access.Update), UpdateUserHandler(d))
		api.DELETE("/users/:username", requireAccess(d, access.Accounts, access.Delete), DeleteUserHandler(d))

		// --- Catalog ---
		api.GET("/categories", ListCategoriesHandler(d))
		api.POST("/categories", requireAccess(d, access.Catalog, access.Create), CreateCategoryHandler(d))
		api.DELETE("/categories/:slug", requireAccess(d, access.Catalog, access.Delete), DeleteCategoryHandler(d))
		api.GET("/genres", ListGenresHandler(d))
		api.POST("/genres", requireAccess(d, access.Catalog, access.Create), CreateGenreHandler(d))
		api.DELETE("/genres/:slug", requireAccess(d, access.Catalog, access.Delete), DeleteGenreHandler(d))
		api.GET("/titles", ListTitlesHandler(d))
		api.POST("/titles", requireAccess(d, access.Catalog, access.Create), CreateTitleHandler(d))
		api.GET("/titles/:title_id", GetTitleHandler(d))
		api.PATCH("/titles/:title_id", requireAccess(d, access.Catalog, access.Update), UpdateTitleHandler(d))
		api.DELETE("/titles/:title_id", requireAccess(d, access.Catalog, access.Delete), DeleteTitleHandler(d))

		// --- Reviews and comments ---
		reviews := api.Group("/titles/:title_id/reviews")
		reviews.GET("", ListReviewsHandler(d))
		reviews.POST("", requireAccess(d, access.Content, access.Create), CreateReviewHandler(d))
		reviews.GET("/:review_id", GetReviewHandler(d))
		reviews.PATCH("/:review_id", requireAccess(d, access.Content, access.Update), UpdateReviewHandler(d))
		reviews.DELETE("/:review_id", requireAccess(d, access.Content, access.Delete), DeleteReviewHandler(d))

		reviews.GET("/:review_id/comments", ListCommentsHandler(d))
		reviews.POST("/:review_id/comments", requireAccess(d, access.Content, access.Create), CreateCommentHandler(d))
		reviews.GET("/:review_id/comments/:comment_id", GetCommentHandler(d))
		reviews.PATCH("/:review_id/comments/:comment_id", requireAccess(d, access.Content, access.Update), UpdateCommentHandler(d))
		reviews.DELETE("/:review_id/comments/:comment_id", requireAccess(d, access.Content, access.Delete), DeleteCommentHandler(d))
	}
	return r
}
