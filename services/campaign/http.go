package campaign

import (
	"net/http"

	"cliprank-platform/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Routes = fx.Module("campaign.routes",
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
	v1.POST("/campaigns", h.Create)
	v1.GET("/campaigns", h.List)
	v1.GET("/campaigns/:campaign_id", h.Get)
	v1.POST("/campaigns/:campaign_id/activate", h.Activate)
}

type handler struct {
	service *Service
}

func (h *handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errutil.BadRequest("invalid request body", err))
		return
	}

	created, err := h.service.CreateCampaign(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *handler) Get(c *gin.Context) {
	found, err := h.service.GetCampaign(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, found)
}

func (h *handler) List(c *gin.Context) {
	onlyActive := c.Query("only_active") == "true"

	campaigns, err := h.service.ListCampaigns(c.Request.Context(), onlyActive)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": campaigns})
}

func (h *handler) Activate(c *gin.Context) {
	activated, err := h.service.ActivateCampaign(c.Request.Context(), c.Param("campaign_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, activated)
}
