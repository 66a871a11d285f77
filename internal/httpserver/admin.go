package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"batipro/internal/auth"
	"batipro/internal/domain"
	orderrepo "batipro/internal/repository/order"
	"batipro/internal/service/checkout"
	"github.com/gin-gonic/gin"
)

const claimsCtxKey = "adminClaims"

// adminMiddleware requires a bearer token carrying the admin role.
func adminMiddleware(v tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.Header("WWW-Authenticate", `Bearer realm="admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: "missing bearer token"})
			return
		}
		claims, err := v.VerifyAdmin(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrForbidden) {
				writeError(c, err)
				return
			}
			c.Header("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: err.Error()})
			return
		}
		c.Set(claimsCtxKey, claims)
		c.Next()
	}
}

func listOrdersHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, ok := pagination(c)
		if !ok {
			return
		}
		page, err := svc.List(c.Request.Context(), orderrepo.ListFilter{
			Status: domain.OrderStatus(strings.TrimSpace(c.Query("status"))),
			Email:  c.Query("email"),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func getOrderHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

type statusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

func updateOrderStatusHandler(svc orderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "status is required")
			return
		}
		o, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// resendInvoiceHandler redelivers the invoice of a stored order. A failed
// delivery still returns the pipeline result so the operator sees why.
func resendInvoiceHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Redeliver(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, checkout.ErrNotDelivered) && res != nil {
				c.JSON(http.StatusBadGateway, res)
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func invoicePDFHandler(svc checkoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		number, pdf, err := svc.RenderInvoice(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="facture-%s.pdf"`, number))
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

func upsertProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p domain.Product
		if err := c.ShouldBindJSON(&p); err != nil {
			badRequest(c, "invalid product payload")
			return
		}
		p.Key = c.Param("key")
		out, err := svc.Upsert(c.Request.Context(), p)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func upsertCategoryHandler(svc categoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cat domain.Category
		if err := c.ShouldBindJSON(&cat); err != nil {
			badRequest(c, "invalid category payload")
			return
		}
		cat.Key = c.Param("key")
		out, err := svc.Upsert(c.Request.Context(), cat)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func deleteCategoryHandler(svc categoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("key")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
