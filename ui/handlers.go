package ui

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"insightdash/adapters/excel"
	"insightdash/app"
	"insightdash/domain/core"
	"insightdash/domain/table"
	"insightdash/internal/errors"
	"insightdash/internal/report"

	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is reported when the caller goes away mid-analysis
const statusClientClosedRequest = 499

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
	formatHTML     = "html"
)

type analyzeRequest struct {
	DatasetID string       `json:"datasetId"`
	Data      *table.Table `json:"data" binding:"required"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAnalyze analyzes a table posted as a JSON array of row objects
func (s *Server) handleAnalyze(c *gin.Context) {
	format, ok := s.responseFormat(c)
	if !ok {
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindError(err))
		return
	}

	result, err := s.service.Analyze(c.Request.Context(), core.DatasetID(req.DatasetID), *req.Data)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeReport(c, format, result)
}

// handleUpload analyzes a CSV or XLSX file sent as the multipart field "file"
func (s *Server) handleUpload(c *gin.Context) {
	format, ok := s.responseFormat(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		s.writeError(c, bindError(err))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.writeError(c, errors.Wrap(err, "opening upload"))
		return
	}
	defer f.Close()

	t, err := excel.ReadTable(f, excel.DetectFileType(header.Filename), s.reader)
	if err != nil {
		s.writeError(c, err)
		return
	}

	datasetID := c.PostForm("datasetId")
	if datasetID == "" {
		datasetID = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	result, err := s.service.Analyze(c.Request.Context(), core.DatasetID(datasetID), t)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.writeReport(c, format, result)
}

func (s *Server) responseFormat(c *gin.Context) (string, bool) {
	format := strings.ToLower(c.DefaultQuery("format", formatJSON))
	switch format {
	case formatJSON, formatMarkdown, formatHTML:
		return format, true
	}
	s.writeError(c, errors.Newf(errors.CodeInvalidInput, "unsupported format %q", format))
	return "", false
}

func (s *Server) writeReport(c *gin.Context, format string, result *app.AnalysisReport) {
	switch format {
	case formatMarkdown:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(result.Summary, result.Insights)))
	case formatHTML:
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(result.Summary, result.Insights))
	default:
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	code := errors.GetCode(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Code: code, Message: err.Error()}})
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeResourceLimit:
		return http.StatusRequestEntityTooLarge
	case errors.CodeCanceled:
		return statusClientClosedRequest
	case errors.CodeExternalService, errors.CodeDatabaseError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// bindError classifies request decoding failures
func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.Newf(errors.CodeResourceLimit, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return errors.New(errors.CodeInvalidInput, fmt.Sprintf("invalid request: %v", err))
}
