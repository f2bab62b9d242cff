package handlers

import (
	"fmt"
	"net/http"

	"buildtrack/models"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

// ListUsers godoc
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.User
// @Failure      403  {object}  models.ErrorResponse
// @Router       /api/users [get]
func ListUsers(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		list, err := users.List(ctx, who)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func GetUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		user, err := users.Get(ctx, who, c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func UpdateUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := services.Authorize(who, services.AdminOnly...); err != nil {
			respondError(c, err)
			return
		}
		var in models.UserUpdateInput
		if !bindJSON(c, &in) {
			return
		}
		user, err := users.Update(ctx, who, c.Param("userId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
	}
}

// AssignProjects godoc
// @Summary      Replace a user's project assignments
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        userId  path      string                      true  "User ID"
// @Param        body    body      models.AssignProjectsInput  true  "Project ids"
// @Success      200     {object}  object
// @Failure      400     {object}  models.ErrorResponse
// @Failure      404     {object}  models.ErrorResponse
// @Router       /api/users/{userId}/assign-projects [post]
func AssignProjects(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := services.Authorize(who, services.AdminOnly...); err != nil {
			respondError(c, err)
			return
		}
		var in models.AssignProjectsInput
		if !bindJSON(c, &in) {
			return
		}
		assigned, err := users.AssignProjects(ctx, who, c.Param("userId"), in.ProjectIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Projects assigned successfully", "assignedProjects": assigned})
	}
}

func ToggleUserStatus(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		active, err := users.ToggleStatus(ctx, who, c.Param("userId"))
		if err != nil {
			respondError(c, err)
			return
		}
		state := "deactivated"
		if active {
			state = "activated"
		}
		c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User %s successfully", state), "isActive": active})
	}
}

func DeleteUser(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := users.Delete(ctx, who, c.Param("userId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
	}
}

func UserStats(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetReportQueryContext(c.Request.Context())
		defer cancel()

		stats, err := users.Stats(ctx, who)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
