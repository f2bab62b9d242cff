package handlers

import (
	"net/http"

	"buildtrack/models"
	"buildtrack/repository"
	"buildtrack/services"
	"buildtrack/utils"

	"github.com/gin-gonic/gin"
)

// ListPayments godoc
// @Summary      List payments
// @Description  Payments of a project, latest first, with totals by type and status
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        projectId  path      string  true   "Project ID"
// @Param        type       query     string  false  "Payment type"
// @Param        status     query     string  false  "Payment status"
// @Param        startDate  query     string  false  "Paid on or after (YYYY-MM-DD)"
// @Param        endDate    query     string  false  "Paid on or before (YYYY-MM-DD)"
// @Success      200        {object}  object  "payments and totals"
// @Failure      403        {object}  models.ErrorResponse
// @Router       /api/payments/project/{projectId} [get]
func ListPayments(payments *services.PaymentService) gin.HandlerFunc {
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
		filter := repository.PaymentFilter{
			Type:   models.PaymentType(c.Query("type")),
			Status: models.PaymentStatus(c.Query("status")),
			From:   from,
			To:     to,
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		list, totals, err := payments.List(ctx, who, c.Param("projectId"), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"payments": list, "totals": totals})
	}
}

func PaymentSummary(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		summary, err := payments.Summary(ctx, who, c.Param("projectId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func GetPayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		p, err := payments.Get(ctx, who, c.Param("paymentId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// CreatePayment godoc
// @Summary      Record a payment
// @Description  A payment created as paid is added to the project's spent amount
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      models.PaymentInput  true  "Payment"
// @Success      201   {object}  object
// @Failure      400   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Router       /api/payments [post]
func CreatePayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := payments.CheckCreate(who, bodyProjectID(c)); err != nil {
			respondError(c, err)
			return
		}
		var in models.PaymentInput
		if !bindJSON(c, &in) {
			return
		}
		p, err := payments.Create(ctx, who, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Payment created successfully", "payment": p})
	}
}

func UpdatePayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := payments.CheckWrite(ctx, who, c.Param("paymentId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.PaymentInput
		if !bindJSON(c, &in) {
			return
		}
		p, err := payments.Update(ctx, who, c.Param("paymentId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment updated successfully", "payment": p})
	}
}

func ApprovePayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		p, err := payments.Approve(ctx, who, c.Param("paymentId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment approved successfully", "payment": p})
	}
}

func MarkPaymentPaid(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := payments.CheckWrite(ctx, who, c.Param("paymentId")); err != nil {
			respondError(c, err)
			return
		}
		var in models.MarkPaidInput
		if c.Request.ContentLength > 0 && !bindJSON(c, &in) {
			return
		}
		p, err := payments.MarkPaid(ctx, who, c.Param("paymentId"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment marked as paid successfully", "payment": p})
	}
}

func UploadReceipt(payments *services.PaymentService, uploads *Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		paymentID := c.Param("paymentId")
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := payments.CheckWrite(ctx, who, paymentID); err != nil {
			respondError(c, err)
			return
		}
		fh, err := c.FormFile("receipt")
		if err != nil {
			respondError(c, services.Invalid("receipt", "No file uploaded"))
			return
		}
		path, err := uploads.Save(fh, "payments")
		if err != nil {
			respondError(c, err)
			return
		}
		p, err := payments.AttachReceipt(ctx, who, paymentID, path)
		if err != nil {
			uploads.remove(path)
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Receipt uploaded successfully", "payment": p})
	}
}

func DeletePayment(payments *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		who, ok := caller(c)
		if !ok {
			return
		}
		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		if err := payments.Delete(ctx, who, c.Param("paymentId")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
	}
}
