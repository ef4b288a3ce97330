// Suggestion and statistics handlers. These never fail; storage problems
// surface as empty results.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SuggestClients godoc
// @ID          suggestClients
// @Summary     Client names containing q
// @Tags        Insights
// @Produce     json
// @Param       q  query  string  false  "Case-insensitive substring"
// @Success     200  {array}  string
// @Router      /suggest/clients [get]
func (h *Handlers) SuggestClients(c *gin.Context) {
	ok(c, http.StatusOK, h.insights.SearchClients(c.Request.Context(), c.Query("q")))
}

// SuggestCars godoc
// @ID          suggestCars
// @Summary     Car descriptions containing q
// @Tags        Insights
// @Produce     json
// @Param       q  query  string  false  "Case-insensitive substring"
// @Success     200  {array}  string
// @Router      /suggest/cars [get]
func (h *Handlers) SuggestCars(c *gin.Context) {
	ok(c, http.StatusOK, h.insights.SearchCars(c.Request.Context(), c.Query("q")))
}

// Stats godoc
// @ID          stats
// @Summary     Totals for a date range, current month by default
// @Tags        Insights
// @Produce     json
// @Param       start  query  string  false  "YYYY-MM-DD"
// @Param       end    query  string  false  "YYYY-MM-DD"
// @Success     200  {object}  domain.Stats
// @Router      /stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	ok(c, http.StatusOK, h.insights.GetStats(c.Request.Context(), c.Query("start"), c.Query("end")))
}
