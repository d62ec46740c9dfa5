// internal/api/routes/routes.go
package routes

import (
	"net/http"
	"time"

	"military-logistics-api-server/config"
	"military-logistics-api-server/internal/api/handlers"
	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/auth"
	"military-logistics-api-server/internal/rbac"
	"military-logistics-api-server/internal/service"
	"military-logistics-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the components the router wires into handlers. Uploader may be
// nil, which disables attachment uploads.
type Deps struct {
	Config   config.Config
	Services *service.Services
	Tokens   *auth.TokenManager
	Revoker  auth.Revoker
	Uploader handlers.FileUploader
	Hub      *socket.Hub
}

// SetupRouter builds the gin engine with every route under /api.
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestContext())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))

	authHandler := &handlers.AuthHandler{Users: d.Services.Users, Tokens: d.Tokens, Revoker: d.Revoker}
	userHandler := &handlers.UserHandler{Users: d.Services.Users}
	purchaseHandler := &handlers.PurchaseHandler{Purchases: d.Services.Purchases}
	transferHandler := &handlers.TransferHandler{Transfers: d.Services.Transfers}
	assignmentHandler := &handlers.AssignmentHandler{Assignments: d.Services.Assignments}
	expenditureHandler := &handlers.ExpenditureHandler{Expenditures: d.Services.Expenditures}
	dashboardHandler := &handlers.DashboardHandler{Dashboard: d.Services.Dashboard}
	attachmentHandler := &handlers.AttachmentHandler{Uploader: d.Uploader, Services: d.Services}
	webSocketHandler := &handlers.WebSocketHandler{Hub: d.Hub, Tokens: d.Tokens, Revoker: d.Revoker}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	api := router.Group("/api")
	api.GET("/ws", webSocketHandler.ServeWs)

	public := api.Group("/auth")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(middleware.Authenticate(d.Tokens, d.Revoker, d.Services.Users))

	session := protected.Group("/auth")
	{
		session.GET("/me", authHandler.Me)
		session.GET("/permissions", authHandler.Permissions)
		session.POST("/logout", authHandler.Logout)
	}

	users := protected.Group("/users")
	{
		view := middleware.RequirePermission(rbac.UserView, rbac.UserViewAll)
		users.GET("", view, userHandler.GetAllUsers)
		users.GET("/search", view, userHandler.SearchUsers)
		users.GET("/:id", view, userHandler.GetUserByID)
		users.POST("", middleware.RequirePermission(rbac.UserCreate), userHandler.CreateUser)
		users.PUT("/:id", middleware.RequirePermission(rbac.UserUpdate, rbac.UserUpdateAny), userHandler.UpdateUser)
		users.DELETE("/:id", middleware.RequirePermission(rbac.UserDelete), userHandler.DeleteUser)
	}

	purchases := protected.Group("/purchases")
	{
		g := gates(rbac.ResourcePurchase)
		purchases.GET("", g.view, purchaseHandler.GetAllPurchases)
		purchases.GET("/available-equipment", g.view, purchaseHandler.GetAvailableEquipment)
		purchases.POST("", g.create, purchaseHandler.CreatePurchase)
		purchases.GET("/:id", g.view, purchaseHandler.GetPurchaseByID)
		purchases.PUT("/:id", g.update, purchaseHandler.UpdatePurchase)
		purchases.DELETE("/:id", g.delete, purchaseHandler.DeletePurchase)
		purchases.PATCH("/:id/status", g.status, purchaseHandler.UpdatePurchaseStatus)
		purchases.PATCH("/:id/approve", g.approve, purchaseHandler.ApprovePurchase)
		purchases.POST("/:id/attachments", g.update, attachmentHandler.UploadPurchaseAttachment)
	}

	transfers := protected.Group("/transfers")
	{
		g := gates(rbac.ResourceTransfer)
		transfers.GET("", g.view, transferHandler.GetAllTransfers)
		transfers.POST("", g.create, transferHandler.CreateTransfer)
		transfers.GET("/:id", g.view, transferHandler.GetTransferByID)
		transfers.PUT("/:id", g.update, transferHandler.UpdateTransfer)
		transfers.DELETE("/:id", g.delete, transferHandler.DeleteTransfer)
		transfers.PATCH("/:id/status", g.status, transferHandler.UpdateTransferStatus)
		transfers.POST("/:id/attachments", g.update, attachmentHandler.UploadTransferAttachment)
	}

	assignments := protected.Group("/assignments")
	{
		g := gates(rbac.ResourceAssignment)
		assignments.GET("", g.view, assignmentHandler.GetAllAssignments)
		assignments.POST("", g.create, assignmentHandler.CreateAssignment)
		assignments.GET("/personnel/:personnelId", g.view, assignmentHandler.GetAssignmentsByPersonnel)
		assignments.GET("/:id", g.view, assignmentHandler.GetAssignmentByID)
		assignments.PUT("/:id", g.update, assignmentHandler.UpdateAssignment)
		assignments.DELETE("/:id", g.delete, assignmentHandler.DeleteAssignment)
		assignments.PATCH("/:id/status", g.status, assignmentHandler.UpdateAssignmentStatus)
		assignments.POST("/:id/attachments", g.update, attachmentHandler.UploadAssignmentAttachment)
	}

	expenditures := protected.Group("/expenditures")
	{
		g := gates(rbac.ResourceExpenditure)
		expenditures.GET("", g.view, expenditureHandler.GetAllExpenditures)
		expenditures.GET("/summary", g.view, expenditureHandler.GetExpenditureSummary)
		expenditures.POST("", g.create, expenditureHandler.CreateExpenditure)
		expenditures.GET("/:id", g.view, expenditureHandler.GetExpenditureByID)
		expenditures.PUT("/:id", g.update, expenditureHandler.UpdateExpenditure)
		expenditures.DELETE("/:id", g.delete, expenditureHandler.DeleteExpenditure)
		expenditures.POST("/:id/attachments", g.update, attachmentHandler.UploadExpenditureAttachment)
	}

	dashboard := protected.Group("/dashboard")
	dashboard.Use(middleware.RequirePermission(rbac.DashboardView, rbac.DashboardViewAll))
	{
		dashboard.GET("/metrics", dashboardHandler.GetMetrics)
		dashboard.GET("/departments", dashboardHandler.GetDepartmentSummary)
		dashboard.GET("/activities", dashboardHandler.GetRecentActivities)
		dashboard.GET("/net-movement", dashboardHandler.GetNetMovement)
	}

	return router
}

// resourceGates are the coarse route checks for one managed resource. The
// services repeat them with ownership and base scope applied.
type resourceGates struct {
	view, create, update, delete, status, approve gin.HandlerFunc
}

func gates(resource string) resourceGates {
	return resourceGates{
		view:    middleware.RequirePermission(rbac.View(resource), rbac.ViewAll(resource)),
		create:  middleware.RequirePermission(rbac.Create(resource)),
		update:  middleware.RequirePermission(rbac.UpdateOwn(resource), rbac.UpdateAny(resource)),
		delete:  middleware.RequirePermission(rbac.DeleteOwn(resource), rbac.DeleteAny(resource)),
		status:  middleware.RequirePermission(rbac.UpdateOwn(resource), rbac.UpdateAny(resource), rbac.Approve(resource)),
		approve: middleware.RequirePermission(rbac.Approve(resource)),
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
