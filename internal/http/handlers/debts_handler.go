// Debt HTTP handlers.
//
//   - GET  /debts               (open debts; all=true includes settled)
//   - POST /debts/{id}/close    (settle)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/service-journal/internal/utils"
)

// ListDebts godoc
// @ID          listDebts
// @Summary     Debts, open only unless all=true
// @Tags        Debts
// @Produce     json
// @Param       all  query  bool  false  "Include settled debts"
// @Success     200  {array}   domain.Debt
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /debts [get]
func (h *Handlers) ListDebts(c *gin.Context) {
	all := utils.BoolDefault(c.Query("all"), false)
	debts, err := h.debts.GetDebts(c.Request.Context(), !all)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, debts)
}

// CloseDebt godoc
// @ID          closeDebt
// @Summary     Settle a debt
// @Tags        Debts
// @Produce     json
// @Param       id  path  string  true  "Debt id"
// @Success     200  {object}  domain.Debt
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /debts/{id}/close [post]
func (h *Handlers) CloseDebt(c *gin.Context) {
	d, err := h.debts.CloseDebt(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, d)
}
