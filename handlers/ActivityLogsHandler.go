package handlers

import (
	"net/http"
	"strconv"

	"buildtrack/models"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

// GetActivityLogsHandler godoc
// @Summary      Project audit trail
// @Tags         activity
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        page       query     int     false  "Page"
// @Param        limit      query     int     false  "Limit (max 100)"
// @Success      200        {object}  models.ActivityLogListResponse
// @Failure      403        {object}  models.ErrorResponse
// @Router       /api/activity/project/{projectId} [get]
func GetActivityLogsHandler(activity *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		logs, total, err := activity.List(ctx, who, c.Param("projectId"), page, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		if page < 1 {
			page = 1
		}
		if limit < 1 || limit > 100 {
			limit = 20
		}
		c.JSON(http.StatusOK, models.ActivityLogListResponse{
			Success: true,
			Page:    page,
			Limit:   limit,
			Total:   total,
			Data:    logs,
		})
	}
}
