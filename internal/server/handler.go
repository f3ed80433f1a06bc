package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
	"github.com/KaramelBytes/erpgenie-cli/internal/analysis"
	"github.com/KaramelBytes/erpgenie-cli/internal/chart"
	"github.com/KaramelBytes/erpgenie-cli/internal/export"
	"github.com/KaramelBytes/erpgenie-cli/internal/parser"
	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// TextRequest is the body accepted by every POST endpoint.
type TextRequest struct {
	Text string `json:"text" binding:"required"`
}

// ExtractResult describes the table found in a piece of text.
type ExtractResult struct {
	Table          *table.Table             `json:"table"`
	Classification *analysis.Classification `json:"classification"`
	Graphable      bool                     `json:"graphable"`
}

// ChatResult is a webhook reply plus whatever table it carried.
type ChatResult struct {
	Reply     string `json:"reply"`
	RequestID string `json:"request_id,omitempty"`
	ExtractResult
}

// Handler serves the HTTP API.
type Handler struct {
	runtime     ai.Runtime
	chartWidth  int
	chartHeight int
}

// NewHandler creates a Handler. rt may be nil, in which case /chat answers
// 503.
func NewHandler(rt ai.Runtime, chartWidth, chartHeight int) *Handler {
	return &Handler{runtime: rt, chartWidth: chartWidth, chartHeight: chartHeight}
}

// Health handles GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Chat handles POST /api/v1/chat.
func (h *Handler) Chat(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}
	if h.runtime == nil {
		RespondError(c, http.StatusServiceUnavailable, "NO_RUNTIME", "no chat runtime configured")
		return
	}
	resp, err := h.runtime.Send(c.Request.Context(), ai.ChatRequest{Text: req.Text})
	if err != nil {
		status, code, msg := MapError(err)
		RespondError(c, status, code, msg)
		return
	}
	RespondOK(c, ChatResult{Reply: resp.Text, RequestID: resp.RequestID, ExtractResult: extract(resp.Text)})
}

// Extract handles POST /api/v1/extract.
func (h *Handler) Extract(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}
	RespondOK(c, extract(req.Text))
}

// Chart handles POST /api/v1/charts/:kind.
func (h *Handler) Chart(c *gin.Context) {
	kind, err := chart.ParseKind(c.Param("kind"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_KIND", err.Error())
		return
	}
	format := c.DefaultQuery("format", "json")
	var imgFormat chart.Format
	if format != "json" {
		if imgFormat, err = chart.ParseFormat(format); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", err.Error())
			return
		}
	}
	req, ok := bindText(c)
	if !ok {
		return
	}
	t := parser.Extract(req.Text)
	if t == nil {
		RespondError(c, http.StatusUnprocessableEntity, "NO_TABLE", "no table found in text")
		return
	}
	spec, err := chart.Build(kind, t)
	if errors.Is(err, chart.ErrNotGraphable) {
		RespondError(c, http.StatusUnprocessableEntity, "NOT_GRAPHABLE", chart.NotGraphableMessage(kind))
		return
	}
	if err != nil {
		status, code, msg := MapError(err)
		RespondError(c, status, code, msg)
		return
	}
	if format == "json" {
		RespondOK(c, spec)
		return
	}
	var buf bytes.Buffer
	if err := chart.Render(spec, imgFormat, h.chartWidth, h.chartHeight, &buf); err != nil {
		status, code, msg := MapError(err)
		RespondError(c, status, code, msg)
		return
	}
	c.Data(http.StatusOK, imgFormat.ContentType(), buf.Bytes())
}

// Export handles POST /api/v1/export.
func (h *Handler) Export(c *gin.Context) {
	f, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", err.Error())
		return
	}
	req, ok := bindText(c)
	if !ok {
		return
	}
	t := parser.Extract(req.Text)
	if t == nil {
		RespondError(c, http.StatusUnprocessableEntity, "NO_TABLE", "no table found in text")
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, t, f); err != nil {
		status, code, msg := MapError(err)
		RespondError(c, status, code, msg)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(0, f)))
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}

func bindText(c *gin.Context) (TextRequest, bool) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return req, false
	}
	return req, true
}

func extract(text string) ExtractResult {
	t := parser.Extract(text)
	c := analysis.Classify(t)
	return ExtractResult{Table: t, Classification: c, Graphable: c != nil}
}
