package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/davicafu/stockratings/internal/stock/application"
	"github.com/davicafu/stockratings/internal/stock/domain"
	"github.com/davicafu/stockratings/pkg/utils"
)

// StockHandler expone la capa de acceso a datos por HTTP. Cada petición es
// un consumidor distinto con su propio StockService; todos comparten el
// mismo Orchestrator (caché y peticiones en vuelo).
type StockHandler struct {
	orch *application.Orchestrator
	log  *zap.Logger
}

func NewStockHandler(orch *application.Orchestrator, log *zap.Logger) *StockHandler {
	return &StockHandler{orch: orch, log: log}
}

func (h *StockHandler) service() *application.StockService {
	return application.NewStockService(h.orch, h.log)
}

// ---------------- Handlers ----------------

// ListStocks endpoint GET /stocks
func (h *StockHandler) ListStocks(c *gin.Context) {
	filter := domain.StockFilter{
		Ticker:      c.Query("ticker"),
		CompanyName: c.Query("company_name"),
		Action:      c.Query("action"),
	}
	if r := c.Query("ratings"); r != "" {
		for _, rating := range strings.Split(r, ",") {
			if rating = strings.TrimSpace(rating); rating != "" {
				filter.Ratings = append(filter.Ratings, rating)
			}
		}
	}

	sort := domain.StockSort{
		Field:     domain.SortField(strings.ToUpper(c.DefaultQuery("sort_field", string(domain.SortByTicker)))),
		Direction: domain.SortDirection(strings.ToUpper(c.DefaultQuery("sort_dir", string(domain.SortAsc)))),
	}
	if !sort.Field.IsValid() {
		utils.SendBadRequest(c, "invalid sort_field")
		return
	}
	if sort.Direction != domain.SortAsc && sort.Direction != domain.SortDesc {
		utils.SendBadRequest(c, "invalid sort_dir, use ASC or DESC")
		return
	}

	limit, ok := intQuery(c, "limit", domain.DefaultPageSize)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}

	conn, err := h.service().FetchStocks(c.Request.Context(), filter, sort, limit, offset)
	if err != nil {
		h.sendQueryError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, conn)
}

// GetStock endpoint GET /stocks/:ticker
func (h *StockHandler) GetStock(c *gin.Context) {
	ticker := c.Param("ticker")

	stock, err := h.service().FetchStock(c.Request.Context(), ticker)
	if err != nil {
		h.sendQueryError(c, err)
		return
	}
	if stock == nil {
		utils.SendNotFound(c, "stock not found")
		return
	}
	utils.SendSuccess(c, http.StatusOK, stock)
}

// ListRecommendations endpoint GET /recommendations
func (h *StockHandler) ListRecommendations(c *gin.Context) {
	limit, ok := intQuery(c, "limit", domain.DefaultRecommendationLimit)
	if !ok {
		return
	}

	recs, err := h.service().FetchRecommendations(c.Request.Context(), limit)
	if err != nil {
		h.sendQueryError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, recs)
}

// Overview endpoint GET /overview
func (h *StockHandler) Overview(c *gin.Context) {
	ov, err := h.service().LoadOverview(c.Request.Context(), domain.DefaultPageSize, domain.DefaultRecommendationLimit)
	if err != nil {
		h.sendQueryError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, ov)
}

// SyncStocks endpoint POST /stocks/sync
func (h *StockHandler) SyncStocks(c *gin.Context) {
	result, err := h.service().SyncStocks(c.Request.Context())
	if err != nil {
		h.sendQueryError(c, err)
		return
	}
	utils.SendSuccess(c, http.StatusOK, result)
}

// ClearCache endpoint DELETE /cache
func (h *StockHandler) ClearCache(c *gin.Context) {
	if err := h.orch.ClearCache(c.Request.Context()); err != nil {
		utils.SendInternalServerError(c, "failed to clear cache")
		return
	}
	c.Status(http.StatusNoContent)
}

// ---------------- Helpers ----------------

func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		utils.SendBadRequest(c, "invalid "+name)
		return 0, false
	}
	return n, true
}

// sendQueryError traduce un QueryError a un código HTTP: los fallos del
// backend GraphQL son 502 y las cancelaciones 504.
func (h *StockHandler) sendQueryError(c *gin.Context, err error) {
	var qe *domain.QueryError
	if !errors.As(err, &qe) {
		h.log.Error("Unexpected error", zap.Error(err))
		utils.SendInternalServerError(c, err.Error())
		return
	}

	status := http.StatusBadGateway
	switch qe.Category() {
	case "invalid":
		status = http.StatusBadRequest
	case "cancelled":
		status = http.StatusGatewayTimeout
	}
	utils.SendCategorizedError(c, status, qe.Message(), qe.Category())
}
