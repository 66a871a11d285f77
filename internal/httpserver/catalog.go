package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	productrepo "batipro/internal/repository/product"
	"github.com/gin-gonic/gin"
)

func listProductsHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, ok := pagination(c)
		if !ok {
			return
		}
		products, err := svc.List(c.Request.Context(), productrepo.ListFilter{
			CategoryKey: strings.TrimSpace(c.Query("category")),
			Search:      strings.TrimSpace(c.Query("q")),
			Limit:       limit,
			Offset:      offset,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(products), "results": products})
	}
}

func getProductHandler(svc productService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func listCategoriesHandler(svc categoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(list), "results": list})
	}
}

// pagination reads limit and offset query parameters. Missing values are
// zero and left for the repository to default.
func pagination(c *gin.Context) (int, int, bool) {
	limit, err := queryInt(c, "limit")
	if err != nil || limit < 0 {
		badRequest(c, "limit must be a non-negative integer")
		return 0, 0, false
	}
	offset, err := queryInt(c, "offset")
	if err != nil || offset < 0 {
		badRequest(c, "offset must be a non-negative integer")
		return 0, 0, false
	}
	return limit, offset, true
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
