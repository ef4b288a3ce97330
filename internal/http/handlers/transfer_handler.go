// Export, import and maintenance handlers.
//
//   - GET    /export/json      (backup, re-importable)
//   - GET    /export/json-ru   (Russian keys, for reading)
//   - GET    /export/csv
//   - GET    /export/xlsx
//   - GET    /export/pdf       (printable report; returns where it was placed)
//   - POST   /import           (merge a backup)
//   - DELETE /data             (wipe everything)
package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	mimeJSON = "application/json; charset=utf-8"
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// PrintableResponse locates a rendered report.
type PrintableResponse struct {
	URI string `json:"uri" example:"file:///tmp/report_1705752000000.html"`
}

// attach sends body as a download named <base>_<dd-mm-yyyy>.<ext>.
func (h *Handlers) attach(c *gin.Context, base, ext, mime string, body []byte) {
	name := base + "_" + h.now().Format("02-01-2006") + "." + ext
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, mime, body)
}

// ExportJSON godoc
// @ID          exportJSON
// @Summary     Full backup of orders and debts
// @Tags        Transfer
// @Produce     json
// @Success     200  {file}    file
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /export/json [get]
func (h *Handlers) ExportJSON(c *gin.Context) {
	data, err := h.transfer.ExportJSON(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	h.attach(c, "backup", "json", mimeJSON, data)
}

// ExportLocalizedJSON godoc
// @ID          exportLocalizedJSON
// @Summary     Orders with Russian keys
// @Tags        Transfer
// @Produce     json
// @Success     200  {file}    file
// @Router      /export/json-ru [get]
func (h *Handlers) ExportLocalizedJSON(c *gin.Context) {
	data, err := h.transfer.ExportLocalizedJSON(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	h.attach(c, "orders", "json", mimeJSON, data)
}

// ExportCSV godoc
// @ID          exportCSV
// @Summary     Orders as CSV
// @Tags        Transfer
// @Produce     text/csv
// @Success     200  {file}    file
// @Router      /export/csv [get]
func (h *Handlers) ExportCSV(c *gin.Context) {
	data, err := h.transfer.ExportCSV(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	h.attach(c, "orders", "csv", mimeCSV, []byte(data))
}

// ExportXLSX godoc
// @ID          exportXLSX
// @Summary     Orders as an Excel workbook
// @Tags        Transfer
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success     200  {file}    file
// @Router      /export/xlsx [get]
func (h *Handlers) ExportXLSX(c *gin.Context) {
	// Buffered so a failure still produces an error envelope.
	var buf bytes.Buffer
	if err := h.transfer.ExportXLSX(c.Request.Context(), &buf); err != nil {
		failErr(c, err)
		return
	}
	h.attach(c, "orders", "xlsx", mimeXLSX, buf.Bytes())
}

// ExportPrintable godoc
// @ID          exportPrintable
// @Summary     Render the printable report
// @Tags        Transfer
// @Produce     json
// @Success     200  {object}  handlers.PrintableResponse
// @Failure     503  {object}  handlers.ErrorResponse "No renderer configured"
// @Router      /export/pdf [get]
func (h *Handlers) ExportPrintable(c *gin.Context) {
	uri, err := h.transfer.ExportPrintable(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, PrintableResponse{URI: uri})
}

// Import godoc
// @ID          importJSON
// @Summary     Merge a backup produced by /export/json
// @Description Records whose id already exists are skipped, so repeating an import adds nothing.
// @Tags        Transfer
// @Accept      json
// @Produce     json
// @Success     200  {object}  domain.ImportResult
// @Failure     413  {object}  handlers.ErrorResponse
// @Failure     422  {object}  handlers.ErrorResponse "Malformed backup"
// @Router      /import [post]
func (h *Handlers) Import(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Файл слишком большой")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, msgBadJSON)
		return
	}
	res, err := h.transfer.ImportJSON(c.Request.Context(), data)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// ClearData godoc
// @ID          clearData
// @Summary     Delete every order, debt and snapshot
// @Tags        Transfer
// @Success     204  {string}  string "No Content"
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /data [delete]
func (h *Handlers) ClearData(c *gin.Context) {
	if err := h.transfer.ClearAllData(c.Request.Context()); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}
