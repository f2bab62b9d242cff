package main

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"buildtrack/handlers"
	"buildtrack/metrics"
	"buildtrack/middleware"
	"buildtrack/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	cfg.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "Accept", "Origin",
		"X-Requested-With", "Authorization", "Cache-Control", "Accept-Language",
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
	cfg.ExposeHeaders = []string{"Content-Length", "Content-Type", "Content-Disposition", "Retry-After"}
	cfg.MaxAge = 12 * time.Hour
	return cfg
}

func healthz(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()
		if err := a.store.Ping(ctx); err != nil {
			a.log.WithError(err).Error("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": Version})
	}
}

func newRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(a.log), middleware.Metrics(), cors.New(corsConfig(a.cfg.CORS.Origins)))

	r.GET("/healthz", healthz(a))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.POST("/auth/login", a.limiter.Handler(), handlers.Login(a.users))

	authed := api.Group("", middleware.Authenticate(a.cfg.JWT.Secret, a.users))

	auth := authed.Group("/auth")
	auth.POST("/register", handlers.Register(a.users))
	auth.GET("/me", handlers.Me(a.users))
	auth.PUT("/change-password", handlers.ChangePassword(a.users))

	projects := authed.Group("/projects")
	projects.GET("", handlers.ListProjects(a.projects))
	projects.POST("", handlers.CreateProject(a.projects))
	projects.GET("/:projectId", handlers.GetProject(a.projects))
	projects.PUT("/:projectId", handlers.UpdateProject(a.projects))
	projects.PATCH("/:projectId/status", handlers.UpdateProjectStatus(a.projects))
	projects.POST("/:projectId/upload/:documentType", handlers.UploadProjectDocument(a.projects, a.uploads))
	projects.GET("/:projectId/stats", handlers.ProjectStats(a.reports))

	phases := authed.Group("/phases")
	phases.GET("/project/:projectId", handlers.ListPhases(a.phases))
	phases.GET("/project/:projectId/timeline", handlers.PhaseTimeline(a.phases))
	phases.POST("", handlers.CreatePhase(a.phases))
	phases.GET("/:phaseId", handlers.GetPhase(a.phases))
	phases.PUT("/:phaseId", handlers.UpdatePhase(a.phases))
	phases.PATCH("/:phaseId/status", handlers.UpdatePhaseStatus(a.phases))
	phases.POST("/:phaseId/cube-test", handlers.AddCubeTest(a.phases, a.uploads))
	phases.POST("/:phaseId/inspection", handlers.AddInspection(a.phases, a.uploads))
	phases.POST("/:phaseId/photos", handlers.AddPhotos(a.phases, a.uploads))
	phases.POST("/:phaseId/issues", handlers.AddIssue(a.phases))
	phases.PATCH("/:phaseId/issues/:issueId/resolve", handlers.ResolveIssue(a.phases))
	phases.GET("/:phaseId/qr", handlers.PhaseSiteTag(a.phases, a.projects))

	boq := authed.Group("/boq")
	boq.GET("/project/:projectId", handlers.ListBOQItems(a.boq))
	boq.GET("/project/:projectId/summary", handlers.BOQSummary(a.boq))
	boq.GET("/project/:projectId/export.xlsx", handlers.ExportBOQ(a.boq))
	boq.POST("", handlers.CreateBOQItem(a.boq))
	boq.GET("/:itemId", handlers.GetBOQItem(a.boq))
	boq.PUT("/:itemId", handlers.UpdateBOQItem(a.boq))
	boq.PATCH("/:itemId/quantities", handlers.UpdateBOQQuantities(a.boq))
	boq.DELETE("/:itemId", handlers.DeleteBOQItem(a.boq))

	payments := authed.Group("/payments")
	payments.GET("/project/:projectId", handlers.ListPayments(a.payments))
	payments.GET("/project/:projectId/summary", handlers.PaymentSummary(a.payments))
	payments.POST("", handlers.CreatePayment(a.payments))
	payments.GET("/:paymentId", handlers.GetPayment(a.payments))
	payments.PUT("/:paymentId", handlers.UpdatePayment(a.payments))
	payments.PATCH("/:paymentId/approve", handlers.ApprovePayment(a.payments))
	payments.PATCH("/:paymentId/paid", handlers.MarkPaymentPaid(a.payments))
	payments.POST("/:paymentId/receipt", handlers.UploadReceipt(a.payments, a.uploads))
	payments.DELETE("/:paymentId", handlers.DeletePayment(a.payments))

	reports := authed.Group("/reports")
	reports.GET("/dashboard", handlers.Dashboard(a.reports))
	reports.GET("/project/:projectId/overview", handlers.OverviewReport(a.reports))
	reports.GET("/project/:projectId/progress", handlers.ProgressReport(a.reports))
	reports.GET("/project/:projectId/financial", handlers.FinancialReport(a.reports))
	reports.GET("/project/:projectId/quality", handlers.QualityReport(a.reports))
	reports.GET("/project/:projectId/export", handlers.ExportProject(a.reports))
	reports.GET("/project/:projectId/summary.pdf", handlers.SummaryPDF(a.reports))

	users := authed.Group("/users")
	users.GET("", handlers.ListUsers(a.users))
	users.GET("/stats/overview", handlers.UserStats(a.users))
	users.GET("/:userId", handlers.GetUser(a.users))
	users.PUT("/:userId", handlers.UpdateUser(a.users))
	users.POST("/:userId/assign-projects", handlers.AssignProjects(a.users))
	users.PATCH("/:userId/toggle-status", handlers.ToggleUserStatus(a.users))
	users.DELETE("/:userId", handlers.DeleteUser(a.users))

	authed.GET("/activity/project/:projectId", handlers.GetActivityLogsHandler(a.activity))

	routeDoc.setEngine(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))
	return r
}

// ginPathToSwaggerPath converts Gin path params :param to Swagger {param}
var ginPathParamRe = regexp.MustCompile(`:([^/]+)`)

func ginPathToSwaggerPath(path string) string {
	return ginPathParamRe.ReplaceAllString(path, "{$1}")
}

// publicRoutes need no bearer token.
var publicRoutes = map[string]bool{
	"/api/auth/login": true,
	"/healthz":        true,
	"/metrics":        true,
}

// routeDocument serves a Swagger 2.0 document listing every registered route.
// It is registered with swag so gin-swagger's doc.json reads it.
type routeDocument struct {
	mu     sync.RWMutex
	engine *gin.Engine
}

var routeDoc = &routeDocument{}

func init() {
	swag.Register(swag.Name, routeDoc)
}

func (d *routeDocument) setEngine(e *gin.Engine) {
	d.mu.Lock()
	d.engine = e
	d.mu.Unlock()
}

func errorSchema(description string) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"schema": map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"error": map[string]interface{}{"type": "string"}},
		},
	}
}

func (d *routeDocument) ReadDoc() string {
	d.mu.RLock()
	engine := d.engine
	d.mu.RUnlock()

	paths := make(map[string]map[string]interface{})
	if engine != nil {
		for _, route := range engine.Routes() {
			if strings.HasPrefix(route.Path, "/swagger") {
				continue
			}
			path := ginPathToSwaggerPath(route.Path)
			if paths[path] == nil {
				paths[path] = make(map[string]interface{})
			}
			tag := "ops"
			if parts := strings.Split(strings.TrimPrefix(route.Path, "/api/"), "/"); strings.HasPrefix(route.Path, "/api/") {
				tag = parts[0]
			}
			op := map[string]interface{}{
				"summary":  route.Method + " " + route.Path,
				"tags":     []string{tag},
				"produces": []string{"application/json"},
				"responses": map[string]interface{}{
					"200": map[string]interface{}{"description": "Success"},
					"400": errorSchema("Bad Request"),
					"404": errorSchema("Not Found"),
					"500": errorSchema("Internal Server Error"),
				},
			}
			if !publicRoutes[route.Path] {
				op["security"] = []map[string][]string{{"BearerAuth": {}}}
			}
			method := strings.ToLower(route.Method)
			if method == "post" || method == "put" || method == "patch" {
				op["consumes"] = []string{"application/json", "multipart/form-data"}
			}
			paths[path][method] = op
		}
	}

	doc := map[string]interface{}{
		"swagger": "2.0",
		"info": map[string]interface{}{
			"title":       "BuildTrack API",
			"description": "Construction project tracking API.",
			"version":     Version,
		},
		"basePath": "/",
		"schemes":  []string{"http", "https"},
		"securityDefinitions": map[string]interface{}{
			"BearerAuth": map[string]interface{}{"type": "apiKey", "in": "header", "name": "Authorization"},
		},
		"paths": paths,
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(out)
}
