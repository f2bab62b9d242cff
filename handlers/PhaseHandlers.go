package handlers

import (
	"net/http"

	"buildtrack/models"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

func ListPhases(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		list, err := phases.List(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func PhaseTimeline(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		timeline, err := phases.Timeline(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, timeline)
	}
}

func GetPhase(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		phase, err := phases.Get(ctx, who, c.Param("phaseId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, phase)
	}
}

// CreatePhase godoc
// @Summary      Create a phase
// @Tags         phases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.PhaseCreateInput  true  "Phase"
// @Success      201   {object}  object
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Router       /api/phases [post]
func CreatePhase(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := phases.CheckCreate(who, bodyProjectID(c)); err != nil {
			respondError(c, err)
			return
		}
		var in models.PhaseCreateInput
		if !bindJSON(c, &in) {
			return
		}
		phase, err := phases.Create(ctx, who, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Phase created successfully", "phase": phase})
	}
}

// UpdatePhase godoc
// @Summary      Update a phase
// @Description  Merges details and recomputes progress
// @Tags         phases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        phaseId  path      string                   true  "Phase ID"
// @Param        body     body      models.PhaseUpdateInput  true  "Changes"
// @Success      200      {object}  object
// @Failure      400      {object}  models.ErrorResponse
// @Failure      404      {object}  models.ErrorResponse
// @Router       /api/phases/{phaseId} [put]
func UpdatePhase(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := phases.CheckWrite(ctx, who, c.Param("phaseId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.PhaseUpdateInput
		if !bindJSON(c, &in) {
			return
		}
		phase, err := phases.Update(ctx, who, c.Param("phaseId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Phase updated successfully", "phase": phase})
	}
}

func UpdatePhaseStatus(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := phases.CheckWrite(ctx, who, c.Param("phaseId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.PhaseStatusInput
		if !bindJSON(c, &in) {
			return
		}
		phase, err := phases.SetStatus(ctx, who, c.Param("phaseId"), in.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Phase status updated successfully", "phase": phase})
	}
}

// optionalReport stores the multipart "report" file when one was sent.
func optionalReport(c *gin.Context, uploads *Uploads) (string, error) {
	fh, err := c.FormFile("report")
	if err != nil {
		return "", nil
	}
	return uploads.Save(fh, "phases")
}

func AddCubeTest(phases *services.PhaseService, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		phaseID := c.Param("phaseId")
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := phases.CheckCubeTest(ctx, who, phaseID); err != nil {
			respondError(c, err)
			return
		}
		var in models.CubeTestInput
		if err := c.ShouldBind(&in); err != nil {
			respondBindError(c, err)
			return
		}
		path, err := optionalReport(c, uploads)
		if err != nil {
			respondError(c, err)
			return
		}
		test, err := phases.AddCubeTest(ctx, who, phaseID, in, path)
		if err != nil {
			uploads.remove(path)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Cube test result added successfully", "cubeTest": test})
	}
}

func AddInspection(phases *services.PhaseService, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		phaseID := c.Param("phaseId")
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := phases.CheckInspection(ctx, who, phaseID); err != nil {
			respondError(c, err)
			return
		}
		var in models.InspectionInput
		if err := c.ShouldBind(&in); err != nil {
			respondBindError(c, err)
			return
		}
		path, err := optionalReport(c, uploads)
		if err != nil {
			respondError(c, err)
			return
		}
		insp, err := phases.AddInspection(ctx, who, phaseID, in, path)
		if err != nil {
			uploads.remove(path)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Engineer inspection added successfully", "inspection": insp})
	}
}

// AddPhotos godoc
// @Summary      Upload phase photos
// @Tags         phases
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        phaseId  path      string  true   "Phase ID"
// @Param        photos   formData  file    true   "Up to 10 photos"
// @Param        caption  formData  string  false  "Caption for every photo"
// @Success      200      {object}  object
// @Failure      400      {object}  models.ErrorResponse
// @Router       /api/phases/{phaseId}/photos [post]
func AddPhotos(phases *services.PhaseService, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		phaseID := c.Param("phaseId")
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := phases.CheckPhotos(ctx, who, phaseID); err != nil {
			respondError(c, err)
			return
		}
		form, err := c.MultipartForm()
		if err != nil || len(form.File["photos"]) == 0 {
			respondError(c, services.Invalid("photos", "At least one photo is required"))
			return
		}
		files := form.File["photos"]
		if len(files) > services.MaxPhotosPerUpload {
			respondError(c, services.Invalid("photos", "Too many photos"))
			return
		}

		paths := make([]string, 0, len(files))
		discard := func() {
			for _, p := range paths {
				uploads.remove(p)
			}
		}
		for _, fh := range files {
			path, err := uploads.Save(fh, "phases")
			if err != nil {
				discard()
				respondError(c, err)
				return
			}
			paths = append(paths, path)
		}
		photos, err := phases.AddPhotos(ctx, who, phaseID, paths, c.PostForm("caption"))
		if err != nil {
			discard()
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Photos uploaded successfully", "photos": photos})
	}
}

func AddIssue(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := phases.CheckWrite(ctx, who, c.Param("phaseId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.IssueInput
		if !bindJSON(c, &in) {
			return
		}
		issue, err := phases.AddIssue(ctx, who, c.Param("phaseId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Issue added successfully", "issue": issue})
	}
}

func ResolveIssue(phases *services.PhaseService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		issue, err := phases.ResolveIssue(ctx, who, c.Param("phaseId"), c.Param("issueId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Issue resolved successfully", "issue": issue})
	}
}
