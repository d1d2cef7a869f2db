package ranking

import (
	"net/http"

	"cliprank-platform/pkg/period"
	"cliprank-platform/services/campaign"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Routes = fx.Module("ranking.routes",
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Router  *gin.Engine
	Service *Service
}

func registerRoutes(p routeParams) {
	h := &handler{service: p.Service}

	p.Router.GET("/v1/campaigns/:campaign_id/ranking", h.Ranking)
}

type handler struct {
	service *Service
}

func (h *handler) Ranking(c *gin.Context) {
	periodType := period.Type(c.DefaultQuery("period_type", string(period.Daily)))
	periodDate := c.Query("period_date")
	rankBy := campaign.RankBy(c.Query("rank_by"))

	totals, err := h.service.CreatorRanking(c.Request.Context(), c.Param("campaign_id"), periodType, periodDate, rankBy)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": totals})
}
