package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/config"
	"prizetalk/internal/handler"
	"prizetalk/internal/middleware"
	"prizetalk/internal/pkg"
	"prizetalk/internal/repository/redis"
	"prizetalk/internal/service"
)

// Deps is everything the HTTP layer needs. Sessions may be nil.
type Deps struct {
	Config   config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	Tokens   *pkg.TokenIssuer
	Sessions *redis.SessionRepository
}

func InitRouter(d Deps) *gin.Engine {
	switch strings.ToLower(d.Config.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(ginzap.Ginzap(d.Log.Named("http"), time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(d.Log.Named("http"), true))
	r.Use(cors.New(corsConfig(d.Config.AllowedOrigins)))
	r.Use(middleware.QueryTimeout(d.Config.QueryTimeout))

	roles := service.NewRoleService(d.DB, d.Log)
	bookmarks := service.NewBookmarkService(d.DB, d.Log)
	award := handler.NewAwardHandler(service.NewAwardService(d.DB, d.Log))
	auth := handler.NewAuthHandler(service.NewAuthService(d.DB, service.AuthOptions{
		Tokens:                 d.Tokens,
		Sessions:               d.Sessions,
		AllowSelfAssignedRoles: d.Config.AllowSelfAssignedRoles,
	}, d.Log))
	profile := handler.NewProfileHandler(service.NewFollowService(d.DB, d.Log), roles)
	post := handler.NewPostHandler(service.NewPostService(d.DB, d.Log))
	comment := handler.NewCommentHandler(service.NewCommentService(d.DB, d.Log))
	reaction := handler.NewReactionHandler(service.NewReactionService(d.DB, d.Log), bookmarks)
	group := handler.NewGroupHandler(service.NewGroupService(d.DB, d.Log))

	authn := &middleware.Authenticator{Tokens: d.Tokens, Sessions: d.Sessions}
	required := authn.AuthMiddleware()
	optional := authn.OptionalAuth()

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// 奖项数据
	awards := api.Group("/awards")
	{
		awards.GET("/tables/", award.Tables)
		awards.GET("/tables/:table/", award.Table)
	}

	// 登录注册
	authGroup := api.Group("/auth")
	{
		limiter := middleware.NewRateLimiter(d.Config.RateLimitPerMinute)
		authGroup.POST("/signup/", limiter.Middleware(), auth.Signup)
		authGroup.POST("/login/", limiter.Middleware(), auth.Login)
		authGroup.POST("/logout/", required, auth.Logout)
	}
	api.GET("/me/", required, auth.Me)

	// 用户主页与关注
	profiles := api.Group("/profiles/:id")
	{
		profiles.GET("/", optional, profile.Get)
		profiles.POST("/follow/", required, profile.Follow)
		profiles.GET("/followers/", profile.Followers)
		profiles.GET("/following/", profile.Following)
	}
	api.GET("/users/:id/roles/", required, profile.RoleHistory)
	api.POST("/users/:id/roles/", required, profile.AssignRole)

	// 社区帖子
	api.GET("/categories/", post.Categories)
	community := api.Group("/community")
	{
		community.GET("/", optional, post.List)
		community.POST("/", required, post.Create)
		community.GET("/:id/", post.Get)
		community.DELETE("/:id/", required, post.Delete)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/:post_id/", comment.List)
		comments.POST("/:post_id/", required, comment.Create)
		comments.DELETE("/item/:id/", required, comment.Delete)
	}

	reactions := api.Group("/reactions", required)
	{
		reactions.POST("/post/:id/", reaction.Post)
		reactions.POST("/comment/:id/", reaction.Comment)
	}

	bookmarksGroup := api.Group("/bookmarks", required)
	{
		bookmarksGroup.GET("/", reaction.Bookmarks)
		bookmarksGroup.POST("/:post_id/", reaction.Bookmark)
	}

	// 讨论组
	groups := api.Group("/groups")
	{
		groups.GET("/", optional, group.List)
		groups.POST("/", required, group.Create)
		groups.GET("/:id/", group.Get)
		groups.DELETE("/:id/", required, group.Delete)
	}
	g := groups.Group("/:id", required)
	{
		g.POST("/join/", group.Join)
		g.POST("/leave/", group.Leave)
		g.GET("/members/", group.Members)
		g.PATCH("/members/:user_id/", group.UpdateMember)
		g.GET("/posts/", group.Posts)
		g.POST("/posts/", group.CreatePost)
		g.DELETE("/posts/:post_id/", group.DeletePost)
		g.GET("/posts/:post_id/comments/", group.Comments)
		g.POST("/posts/:post_id/comments/", group.CreateComment)
		g.DELETE("/comments/:comment_id/", group.DeleteComment)
		g.POST("/reactions/post/:post_id/", group.ReactPost)
		g.POST("/reactions/comment/:comment_id/", group.ReactComment)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
