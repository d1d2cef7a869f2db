package payout

import (
	"encoding/json"
	"net/http"

	"cliprank-platform/pkg/db/pagination"
	"cliprank-platform/pkg/errutil"
	"cliprank-platform/pkg/period"
	"cliprank-platform/pkg/task"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Routes = fx.Module("payout.routes",
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router   *gin.Engine
	Service  *Service
	Enqueuer task.Enqueuer `optional:"true"`
}

func registerRoutes(p routeParams) {
	h := &handler{service: p.Service, enqueuer: p.Enqueuer}

	v1 := p.Router.Group("/v1")
	v1.GET("/campaigns/:campaign_id/earnings/preview", h.Preview)
	v1.POST("/campaigns/:campaign_id/payments", h.PayOne)
	v1.POST("/campaigns/:campaign_id/payments/run", h.PayAllPending)
	v1.GET("/wallets/:user_id", h.Wallet)
	v1.GET("/wallets/:user_id/transactions", h.WalletTransactions)
}

type handler struct {
	service  *Service
	enqueuer task.Enqueuer
}

type periodQuery struct {
	PeriodType period.Type `form:"period_type"`
	PeriodDate string      `form:"period_date" binding:"required"`
}

func (q *periodQuery) bind(c *gin.Context) error {
	if err := c.ShouldBindQuery(q); err != nil {
		return errutil.BadRequest("period_type and period_date are required", err)
	}
	if q.PeriodType == "" {
		q.PeriodType = period.Daily
	}
	return nil
}

func (h *handler) Preview(c *gin.Context) {
	var q periodQuery
	if err := q.bind(c); err != nil {
		_ = c.Error(err)
		return
	}

	previews, err := h.service.GetEarningsPreview(c.Request.Context(), c.Param("campaign_id"), q.PeriodType, q.PeriodDate)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": previews})
}

type payOneRequest struct {
	UserID     string      `json:"user_id" binding:"required"`
	PeriodType period.Type `json:"period_type"`
	PeriodDate string      `json:"period_date" binding:"required"`
	Notes      string      `json:"notes"`
}

func (h *handler) PayOne(c *gin.Context) {
	var req payOneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	if req.PeriodType == "" {
		req.PeriodType = period.Daily
	}

	result, err := h.service.PayOne(c.Request.Context(), PaymentKey{
		CampaignID: c.Param("campaign_id"),
		UserID:     req.UserID,
		PeriodType: req.PeriodType,
		PeriodDate: req.PeriodDate,
	}, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type payAllRequest struct {
	PeriodType period.Type `json:"period_type"`
	PeriodDate string      `json:"period_date" binding:"required"`
	Notes      string      `json:"notes"`
}

func (h *handler) PayAllPending(c *gin.Context) {
	var req payAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	if req.PeriodType == "" {
		req.PeriodType = period.Daily
	}

	// large campaigns run through the worker instead of blocking the
	// request
	if c.Query("async") == "true" && h.enqueuer != nil {
		payload, err := json.Marshal(BatchPayoutPayload{
			CampaignID: c.Param("campaign_id"),
			PeriodType: req.PeriodType,
			PeriodDate: req.PeriodDate,
			Notes:      req.Notes,
			TraceID:    trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String(),
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		info, err := h.enqueuer.Enqueue(asynq.NewTask(TaskRunBatchPayout, payload), asynq.Queue("critical"))
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"task_id": info.ID, "queue": info.Queue})
		return
	}

	results, err := h.service.PayAllPending(c.Request.Context(), c.Param("campaign_id"), req.PeriodType, req.PeriodDate, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (h *handler) Wallet(c *gin.Context) {
	wallet, err := h.service.GetWallet(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

func (h *handler) WalletTransactions(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		_ = c.Error(errutil.ValidationFailed("invalid pagination query", err))
		return
	}

	transactions, pageInfo, err := h.service.ListWalletTransactions(c.Request.Context(), c.Param("user_id"), page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": transactions, "page_info": pageInfo})
}
