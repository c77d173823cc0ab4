package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/example/assetdesk/internal/auth"
	"github.com/example/assetdesk/internal/service"
)

// Deps are the collaborators the API needs.
type Deps struct {
	DB        *gorm.DB
	Repairs   *service.RepairService
	Equipment *service.EquipmentService
	Reports   *service.ReportService
	Users     *service.UserService
	Tokens    *auth.TokenService
	Guard     *auth.Guard
	Log       *slog.Logger
}

// Server wraps the gin engine and collaborators needed to handle API requests.
type Server struct {
	Engine    *gin.Engine
	db        *gorm.DB
	repairs   *service.RepairService
	equipment *service.EquipmentService
	reports   *service.ReportService
	users     *service.UserService
	tokens    *auth.TokenService
	guard     *auth.Guard
	log       *slog.Logger
}

// NewServer constructs a new API server and registers routes.
func NewServer(deps Deps) *Server {
	router := gin.New()
	srv := &Server{
		Engine:    router,
		db:        deps.DB,
		repairs:   deps.Repairs,
		equipment: deps.Equipment,
		reports:   deps.Reports,
		users:     deps.Users,
		tokens:    deps.Tokens,
		guard:     deps.Guard,
		log:       deps.Log,
	}
	router.Use(requestID(), accessLog(deps.Log), recovery(deps.Log))
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.Engine.GET("/healthz", s.health)

	api := s.Engine.Group("/api")
	api.POST("/login", s.login)
	api.POST("/register", s.register)
	api.POST("/public/repairs", s.createPublicRepair)
	api.GET("/public/equipment/:assetNumber", s.equipmentDetails)

	authed := api.Group("", s.authenticate())

	authed.GET("/repairs", s.requirePermission(auth.ResourceRepair, auth.ActionList), s.listRepairs)
	authed.POST("/repairs", s.requirePermission(auth.ResourceRepair, auth.ActionCreate), s.createRepair)
	authed.GET("/repairs/:id", s.requirePermission(auth.ResourceRepair, auth.ActionRead), s.getRepair)
	authed.PUT("/repairs/:id", s.requirePermission(auth.ResourceRepair, auth.ActionUpdate), s.updateRepairStatus)
	authed.DELETE("/repairs/:id", s.requirePermission(auth.ResourceRepair, auth.ActionDelete), s.deleteRepair)

	authed.GET("/equipment", s.requirePermission(auth.ResourceEquipment, auth.ActionRead), s.listEquipment)
	authed.GET("/equipment/summary", s.requirePermission(auth.ResourceEquipment, auth.ActionSummary), s.equipmentSummary)
	authed.GET("/equipment/export", s.requirePermission(auth.ResourceEquipment, auth.ActionExport), s.exportEquipment)
	authed.POST("/equipment/import", s.requirePermission(auth.ResourceEquipment, auth.ActionImport), s.importEquipment)
	authed.GET("/equipment/details/:assetNumber", s.requirePermission(auth.ResourceEquipment, auth.ActionRead), s.equipmentDetails)
	authed.GET("/equipment/history/:assetNumber", s.requirePermission(auth.ResourceEquipment, auth.ActionHistory), s.equipmentHistory)
	authed.POST("/equipment", s.requirePermission(auth.ResourceEquipment, auth.ActionCreate), s.createEquipment)
	authed.PUT("/equipment/:id", s.requirePermission(auth.ResourceEquipment, auth.ActionUpdate), s.updateEquipment)
	authed.DELETE("/equipment/:id", s.requirePermission(auth.ResourceEquipment, auth.ActionDelete), s.deleteEquipment)

	authed.GET("/users", s.requirePermission(auth.ResourceUser, auth.ActionList), s.listUsers)
	authed.GET("/users/:id", s.requirePermission(auth.ResourceUser, auth.ActionRead), s.getUser)
	authed.POST("/users", s.requirePermission(auth.ResourceUser, auth.ActionCreate), s.createUser)
	authed.PUT("/users/:id", s.requirePermission(auth.ResourceUser, auth.ActionUpdate), s.updateUser)
	authed.DELETE("/users/:id", s.requirePermission(auth.ResourceUser, auth.ActionDelete), s.deleteUser)
}
