package handlers

import (
	"net/http"

	"buildtrack/models"
	"buildtrack/repository"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

// ListBOQItems godoc
// @Summary      List BOQ items
// @Tags         boq
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        category   query     string  false  "Category"
// @Param        status     query     string  false  "Status"
// @Param        phase      query     string  false  "Phase"
// @Success      200        {object}  object  "items and totals"
// @Failure      403        {object}  models.ErrorResponse
// @Router       /api/boq/project/{projectId} [get]
func ListBOQItems(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		filter := repository.BOQFilter{
			Category: models.BOQCategory(c.Query("category")),
			Status:   models.BOQStatus(c.Query("status")),
			Phase:    models.PhaseType(c.Query("phase")),
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		items, totals, err := boq.List(ctx, who, c.Param("projectId"), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "totals": totals})
	}
}

func BOQSummary(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		summary, err := boq.Summary(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func GetBOQItem(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		item, err := boq.Get(ctx, who, c.Param("itemId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func CreateBOQItem(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := boq.CheckCreate(who, bodyProjectID(c)); err != nil {
			respondError(c, err)
			return
		}
		var in models.BOQItemInput
		if !bindJSON(c, &in) {
			return
		}
		item, err := boq.Create(ctx, who, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "BOQ item created successfully", "item": item})
	}
}

func UpdateBOQItem(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := boq.CheckUpdate(ctx, who, c.Param("itemId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.BOQItemInput
		if !bindJSON(c, &in) {
			return
		}
		item, err := boq.Update(ctx, who, c.Param("itemId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "BOQ item updated successfully", "item": item})
	}
}

// UpdateBOQQuantities godoc
// @Summary      Record ordered, received and used quantities
// @Tags         boq
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        itemId  path      string                     true  "BOQ item ID"
// @Param        body    body      models.BOQQuantitiesInput  true  "Quantities"
// @Success      200     {object}  object
// @Failure      400     {object}  models.ErrorResponse
// @Router       /api/boq/{itemId}/quantities [patch]
func UpdateBOQQuantities(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := boq.CheckQuantities(ctx, who, c.Param("itemId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.BOQQuantitiesInput
		if !bindJSON(c, &in) {
			return
		}
		item, err := boq.UpdateQuantities(ctx, who, c.Param("itemId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "BOQ item quantities updated successfully", "item": item})
	}
}

func DeleteBOQItem(boq *services.BOQService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := boq.Delete(ctx, who, c.Param("itemId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "BOQ item deleted successfully"})
	}
}
