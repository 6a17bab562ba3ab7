package controllers

import (
	"iris-server/internal/identity"
	"iris-server/internal/models"
	"iris-server/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Deps carries everything RegisterRoutes mounts. Every field is required.
type Deps struct {
	Resolver   identity.Resolver
	APIKeys    middleware.APIKeyLookup
	Perms      middleware.PermissionChecker
	CaseAccess middleware.CaseAccessChecker
	MFAEnabled bool

	Auth       *AuthController
	Cases      *CaseController
	Customers  *CustomerController
	Groups     *GroupController
	Users      *UserController
	Tags       *TagController
	Evidences  *EvidenceController
	Notes      *NoteController
	Tasks      *TaskController
	Filters    *SavedFilterController
	Search     *SearchController
	Activities *ActivityController
	Updates    *UpdateController
	Health     *HealthController
}

// Authenticated is the identity chain shared by the REST and websocket
// routers: legacy key lookup, principal resolution, then the MFA gate.
func Authenticated(d Deps) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		middleware.LegacyAPIKey(d.APIKeys),
		middleware.RequireAuth(d.Resolver),
		middleware.RequireMFA(d.MFAEnabled),
	}
}

func RegisterRoutes(router *gin.Engine, d Deps) {
	router.GET("/health", d.Health.Health)
	router.GET("/ready", d.Health.Ready)

	router.POST("/api/auth/login", d.Auth.Login)
	router.POST("/api/auth/refresh", d.Auth.Refresh)

	api := router.Group("/api", Authenticated(d)...)
	{
		api.POST("/auth/logout", d.Auth.Logout)
		api.GET("/auth/me", d.Auth.Me)

		admin := middleware.RequirePermission(d.Perms, models.PermServerAdministrator)
		readCase := middleware.RequireCaseAccess(d.CaseAccess, models.AccessRead)
		writeCase := middleware.RequireCaseAccess(d.CaseAccess, models.AccessFull)

		// Cases
		api.POST("/cases", d.Cases.CreateCase)
		api.GET("/cases", d.Cases.ListCases)
		api.GET("/cases/:case_id", readCase, d.Cases.GetCase)
		api.PUT("/cases/:case_id/access", writeCase, d.Cases.SetCaseAccess)
		api.GET("/cases/:case_id/activities", readCase, d.Activities.ListForCase)

		// Evidences
		api.GET("/cases/:case_id/evidences", readCase, d.Evidences.ListEvidences)
		api.POST("/cases/:case_id/evidences", writeCase, d.Evidences.CreateEvidence)
		api.GET("/cases/:case_id/evidences/:id", readCase, d.Evidences.GetEvidence)
		api.PUT("/cases/:case_id/evidences/:id", writeCase, d.Evidences.UpdateEvidence)
		api.DELETE("/cases/:case_id/evidences/:id", writeCase, d.Evidences.DeleteEvidence)

		// Notes
		api.GET("/cases/:case_id/notes/directories", readCase, d.Notes.ListDirectories)
		api.POST("/cases/:case_id/notes/directories", writeCase, d.Notes.CreateDirectory)
		api.PUT("/cases/:case_id/notes/directories/:id", writeCase, d.Notes.UpdateDirectory)
		api.DELETE("/cases/:case_id/notes/directories/:id", writeCase, d.Notes.DeleteDirectory)
		api.GET("/cases/:case_id/notes/search", readCase, d.Notes.SearchNotes)
		api.POST("/cases/:case_id/notes", writeCase, d.Notes.CreateNote)
		api.GET("/cases/:case_id/notes/:id", readCase, d.Notes.GetNote)
		api.PUT("/cases/:case_id/notes/:id", writeCase, d.Notes.UpdateNote)
		api.DELETE("/cases/:case_id/notes/:id", writeCase, d.Notes.DeleteNote)

		// Customers
		customersRead := middleware.RequirePermission(d.Perms, models.PermCustomersRead)
		customersWrite := middleware.RequirePermission(d.Perms, models.PermCustomersWrite)
		api.GET("/manage/customers", customersRead, d.Customers.ListCustomers)
		api.GET("/manage/customers/:id", customersRead, d.Customers.GetCustomer)
		api.POST("/manage/customers", customersWrite, d.Customers.CreateCustomer)
		api.PUT("/manage/customers/:id", customersWrite, d.Customers.UpdateCustomer)
		api.DELETE("/manage/customers/:id", customersWrite, d.Customers.DeleteCustomer)

		// Groups
		groups := api.Group("/manage/groups", admin)
		{
			groups.GET("", d.Groups.ListGroups)
			groups.POST("", d.Groups.CreateGroup)
			groups.GET("/:id", d.Groups.GetGroup)
			groups.PUT("/:id", d.Groups.UpdateGroup)
			groups.DELETE("/:id", d.Groups.DeleteGroup)
			groups.POST("/:id/members", d.Groups.AddMembers)
			groups.DELETE("/:id/members/:user_id", d.Groups.RemoveMember)
		}

		// Users
		users := api.Group("/manage/users", admin)
		{
			users.GET("", d.Users.ListUsers)
			users.POST("", d.Users.CreateUser)
			users.GET("/:id", d.Users.GetUser)
			users.PUT("/:id", d.Users.UpdateUser)
		}

		// Tags
		api.GET("/tags", d.Tags.ListTags)
		api.POST("/tags", d.Tags.AddTag)

		// Global tasks
		api.GET("/global-tasks", d.Tasks.ListTasks)
		api.POST("/global-tasks", d.Tasks.CreateTask)
		api.GET("/global-tasks/:id", d.Tasks.GetTask)
		api.PUT("/global-tasks/:id", d.Tasks.UpdateTask)
		api.DELETE("/global-tasks/:id", d.Tasks.DeleteTask)

		// Saved filters
		api.GET("/filters", d.Filters.ListFilters)
		api.POST("/filters", d.Filters.CreateFilter)
		api.GET("/filters/:id", d.Filters.GetFilter)
		api.PUT("/filters/:id", d.Filters.UpdateFilter)
		api.DELETE("/filters/:id", d.Filters.DeleteFilter)

		api.POST("/search", middleware.RequirePermission(d.Perms, models.PermSearchAcrossCases), d.Search.Search)
		api.GET("/activities", middleware.RequirePermission(d.Perms, models.PermActivitiesRead), d.Activities.ListAll)
		api.POST("/updates/status", admin, d.Updates.PostStatus)
	}
}
