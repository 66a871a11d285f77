package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"batipro/internal/domain"
	"batipro/internal/service/checkout"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgNotSaved = "Votre commande n'a pas pu être enregistrée. Veuillez réessayer."

// submitOrderHandler accepts a checkout. The pipeline runs on a context
// detached from the client connection so a disconnect cannot interrupt the
// work between persistence and the invoice email.
func submitOrderHandler(svc checkoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid order payload")
			return
		}

		res, err := svc.Submit(context.WithoutCancel(c.Request.Context()), req)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalid), errors.Is(err, checkout.ErrConflict):
				writeError(c, err)
			default:
				logger.Error("order submission failed", zap.String("order_id", req.OrderID), zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, checkout.Result{
					Success:   false,
					OrderID:   strings.TrimSpace(req.OrderID),
					EmailSent: false,
					Message:   msgNotSaved,
				})
			}
			return
		}

		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		c.JSON(status, res)
	}
}
