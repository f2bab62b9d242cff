package handlers

import (
	"net/http"

	"buildtrack/models"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

// ListProjects godoc
// @Summary      List projects
// @Description  Projects visible to the caller, newest first
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Lifecycle status"
// @Success      200     {array}   models.Project
// @Failure      401     {object}  models.ErrorResponse
// @Router       /api/projects [get]
func ListProjects(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		list, err := projects.List(ctx, who, models.ProjectStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// CreateProject godoc
// @Summary      Create a project
// @Description  Creates the project with piling, raft and plinth phases
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.ProjectInput  true  "Project"
// @Success      201   {object}  object
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Router       /api/projects [post]
func CreateProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := projects.CheckCreate(who); err != nil {
			respondError(c, err)
			return
		}
		var in models.ProjectInput
		if !bindJSON(c, &in) {
			return
		}
		project, err := projects.Create(ctx, who, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Project created successfully", "project": project})
	}
}

func GetProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		project, err := projects.Get(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

func UpdateProject(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := projects.CheckWrite(ctx, who, c.Param("projectId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.ProjectInput
		if !bindJSON(c, &in) {
			return
		}
		project, err := projects.Update(ctx, who, c.Param("projectId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Project updated successfully", "project": project})
	}
}

func UpdateProjectStatus(projects *services.ProjectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := projects.CheckWrite(ctx, who, c.Param("projectId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.ProjectStatusInput
		if !bindJSON(c, &in) {
			return
		}
		project, err := projects.SetStatus(ctx, who, c.Param("projectId"), in.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Project status updated successfully", "project": project})
	}
}

// UploadProjectDocument godoc
// @Summary      Upload a project document
// @Tags         projects
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        projectId     path      string  true  "Project ID"
// @Param        documentType  path      string  true  "site-plan, soil-test, proposed-plan, boq or contract"
// @Param        document      formData  file    true  "Document"
// @Success      200           {object}  object
// @Failure      400           {object}  models.ErrorResponse
// @Router       /api/projects/{projectId}/upload/{documentType} [post]
func UploadProjectDocument(projects *services.ProjectService, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		projectID, docType := c.Param("projectId"), c.Param("documentType")
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := projects.CheckUpload(ctx, who, projectID, docType); err != nil {
			respondError(c, err)
			return
		}
		fh, err := c.FormFile("document")
		if err != nil {
			respondError(c, services.Invalid("document", "No file uploaded"))
			return
		}
		if err := checkDocument(fh); err != nil {
			respondError(c, err)
			return
		}
		path, err := uploads.Save(fh, "projects")
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := projects.AttachDocument(ctx, who, projectID, docType, path); err != nil {
			uploads.remove(path)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Document uploaded successfully", "filePath": path})
	}
}

func ProjectStats(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		stats, err := reports.Stats(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
