package submission

import (
	"net/http"

	"cliprank-platform/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Routes = fx.Module("submission.routes",
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router  *gin.Engine
	Service *Service
}

func registerRoutes(p routeParams) {
	h := &handler{service: p.Service}

	v1 := p.Router.Group("/v1")
	v1.POST("/campaigns/:campaign_id/submissions", h.Submit)
	v1.GET("/campaigns/:campaign_id/submissions", h.List)
	v1.POST("/submissions/:id/verify", h.Verify)
}

type handler struct {
	service *Service
}

func (h *handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}
	req.CampaignID = c.Param("campaign_id")

	sub, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (h *handler) List(c *gin.Context) {
	subs, err := h.service.List(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": subs})
}

func (h *handler) Verify(c *gin.Context) {
	sub, err := h.service.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, sub)
}
