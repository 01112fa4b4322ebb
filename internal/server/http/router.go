package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"viewsync/internal/auth"
	"viewsync/internal/config"
	"viewsync/internal/hub"
	"viewsync/internal/logging"
	"viewsync/internal/server/app"
)

// RouterDeps bundles everything the HTTP surface needs. AuthService is nil
// when auth is disabled; mutating routes are then open, matching the
// trusted-LAN deployment profile.
type RouterDeps struct {
	Config      *config.Config
	Hub         *hub.Hub
	SSE         *SSEHandler
	Clients     *ClientsHandler
	Sync        *SyncHandler
	Content     *ContentHandler
	Department  *DepartmentHandler
	Auth        *AuthHandler
	AuthService *auth.Service
	Health      *app.HealthChecker
	Logger      logging.Logger
	Version     string
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(deps RouterDeps) *gin.Engine {
	if !deps.Config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logging.OrNop(deps.Logger)))

	corsConfig := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	if wildcardOrigin(deps.Config.Server.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.Config.Server.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/", func(c *gin.Context) {
		respondData(c, gin.H{
			"message":          "viewsync running",
			"version":          deps.Version,
			"connectedClients": deps.Hub.Count(),
			"dataVersion":      deps.Hub.Version(),
		})
	})

	guard := AuthRequired(deps.AuthService)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			ctx := c.Request.Context()
			status := http.StatusOK
			if !deps.Health.Healthy(ctx) {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, envelope{Code: status, Data: gin.H{
				"components": deps.Health.CheckAll(ctx),
			}})
		})

		v1.GET("/sse/events", deps.SSE.HandleStream)

		sync := v1.Group("/sync")
		{
			sync.GET("/version", deps.Sync.Version)
			sync.GET("/status", deps.Sync.Status)
		}

		clients := v1.Group("/clients")
		{
			clients.GET("", deps.Clients.List)
			clients.GET("/:clientId", deps.Clients.Get)
			clients.PATCH("/:clientId/alias", guard, deps.Clients.UpdateAlias)
			clients.POST("/:clientId/command", guard, deps.Clients.SendCommand)
			clients.POST("/:clientId/force-sync", guard, deps.Clients.ForceSync)
			clients.POST("/:clientId/reset-cache", guard, deps.Clients.ResetCache)
			clients.POST("/broadcast-sync", guard, deps.Clients.BroadcastSync)
			clients.POST("/reset-all-cache", guard, deps.Clients.ResetAllCaches)
		}

		buildings := v1.Group("/buildings")
		{
			buildings.GET("", deps.Content.ListBuildings)
			buildings.GET("/:buildingId", deps.Content.GetBuilding)
			buildings.POST("", guard, deps.Content.CreateBuilding)
			buildings.PUT("/:buildingId", guard, deps.Content.UpdateBuilding)
			buildings.DELETE("/:buildingId", guard, deps.Content.DeleteBuilding)
			buildings.GET("/:buildingId/floors", deps.Content.ListFloors)
			buildings.GET("/:buildingId/floors/:floor", deps.Content.GetFloor)
			buildings.PUT("/:buildingId/floors/:floor", guard, deps.Content.SaveFloor)
			buildings.DELETE("/:buildingId/floors/:floor", guard, deps.Content.DeleteFloor)
			buildings.GET("/:buildingId/floors/:floor/image", deps.Content.ServeFloorImage)
			buildings.POST("/:buildingId/floors/:floor/image", guard, deps.Content.UploadFloorImage)
		}

		departments := v1.Group("/department")
		{
			departments.GET("", deps.Department.List)
			departments.GET("/:departmentId", deps.Department.Get)
			departments.POST("", guard, deps.Department.Create)
			departments.PATCH("/:departmentId", guard, deps.Department.Update)
			departments.DELETE("/:departmentId", guard, deps.Department.Delete)
		}

		themes := v1.Group("/themes")
		{
			themes.GET("", deps.Content.GetThemes)
			themes.PUT("", guard, deps.Content.SaveThemes)
		}

		media := v1.Group("/media")
		{
			media.GET("/:kind", deps.Content.ListMedia)
			media.GET("/:kind/:filename", deps.Content.ServeMedia)
			media.POST("/:kind", guard, deps.Content.UploadMedia)
			media.DELETE("/:kind/:filename", guard, deps.Content.DeleteMedia)
			media.PUT("/:kind/order", guard, deps.Content.SaveMediaOrder)
		}

		if deps.Auth != nil {
			authRoutes := v1.Group("/auth")
			{
				authRoutes.POST("/login", deps.Auth.Login)
				authRoutes.POST("/refresh", deps.Auth.Refresh)
				authRoutes.POST("/logout", deps.Auth.Logout)
				authRoutes.GET("/me", guard, deps.Auth.Me)
			}
		}
	}

	return router
}

func wildcardOrigin(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return len(origins) == 0
}
