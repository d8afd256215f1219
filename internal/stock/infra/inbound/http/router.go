package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/stockratings/internal/shared/infra/platform/metrics"
)

func RegisterStockRoutes(r *gin.Engine, handler *StockHandler) {
	stocks := r.Group("/stocks")
	{
		stocks.GET("", handler.ListStocks)
		stocks.GET("/:ticker", handler.GetStock)
		stocks.POST("/sync", handler.SyncStocks)
	}
	r.GET("/recommendations", handler.ListRecommendations)
	r.GET("/overview", handler.Overview)
	r.DELETE("/cache", handler.ClearCache)
}

func RegisterOpsRoutes(r *gin.Engine, m *metrics.QueryMetrics) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
}
