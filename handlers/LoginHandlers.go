package handlers

import (
	"net/http"

	"buildtrack/models"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginInput  true  "Credentials"
// @Success      200   {object}  models.LoginResponse
// @Failure      400   {object}  models.ErrorResponse
// @Failure      401   {object}  models.ErrorResponse
// @Failure      429   {object}  models.ErrorResponse
// @Router       /api/auth/login [post]
func Login(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in models.LoginInput
		if !bindJSON(c, &in) {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		token, user, err := users.Login(ctx, in.Email, in.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.LoginResponse{Success: true, Token: token, User: user})
	}
}

// Register godoc
// @Summary      Register a user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.RegisterInput  true  "New user"
// @Success      201   {object}  object
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Router       /api/auth/register [post]
func Register(users *services.UserService) gin.HandlerFunc {
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
		var in models.RegisterInput
		if !bindJSON(c, &in) {
			return
		}
		user, err := users.Register(ctx, who, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
	}
}

func Me(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		user, err := users.Me(ctx, who)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func ChangePassword(users *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		var in models.ChangePasswordInput
		if !bindJSON(c, &in) {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := users.ChangePassword(ctx, who, in); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
