package handlers

import (
	"fmt"
	"net/http"
	"time"

	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

func OverviewReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		report, err := reports.Overview(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// ProgressReport godoc
// @Summary      Progress report
// @Description  Phases grouped by floor, recent activity and delays
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        startDate  query     string  false  "Only phases updated on or after"
// @Param        endDate    query     string  false  "Only phases updated on or before"
// @Success      200        {object}  models.ProgressReport
// @Failure      403        {object}  models.ErrorResponse
// @Router       /api/reports/project/{projectId}/progress [get]
func ProgressReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		report, err := reports.Progress(ctx, who, c.Param("projectId"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// FinancialReport godoc
// @Summary      Financial report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        startDate  query     string  false  "Paid on or after"
// @Param        endDate    query     string  false  "Paid on or before"
// @Success      200        {object}  models.FinancialReport
// @Failure      403        {object}  models.ErrorResponse
// @Router       /api/reports/project/{projectId}/financial [get]
func FinancialReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		from, to, err := dateRange(c)
		if err != nil {
			respondError(c, err)
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		report, err := reports.Financial(ctx, who, c.Param("projectId"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func QualityReport(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		report, err := reports.Quality(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// ExportProject returns the project with every phase, payment and BOQ item.
func ExportProject(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		data, err := reports.Export(ctx, who, c.Param("projectId"), c.DefaultQuery("format", "json"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, data)
	}
}

func Dashboard(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		d, err := reports.Dashboard(ctx, who)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// SummaryPDF godoc
// @Summary      Project summary PDF
// @Tags         reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        projectId  path  string  true  "Project ID"
// @Success      200        {file}    file  "PDF file"
// @Failure      403        {object}  models.ErrorResponse
// @Failure      404        {object}  models.ErrorResponse
// @Router       /api/reports/project/{projectId}/summary.pdf [get]
func SummaryPDF(reports *services.ReportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		projectID := c.Param("projectId")
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		overview, critical, err := reports.PDFSummary(ctx, who, projectID)
		if err != nil {
			respondError(c, err)
			return
		}
		pdf, err := renderSummaryPDF(projectID, overview, critical, time.Now())
		if err != nil {
			respondError(c, fmt.Errorf("render summary pdf: %w", err))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", attachmentName(overview.Project.Name, "summary")))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}
