package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pointake/internal/domain"
	"pointake/internal/middleware"
	"pointake/internal/service"
)

// SessionTokenParam is the query parameter external systems use to read saved results.
const SessionTokenParam = "wms_session_token"

// ResultHandler handles the saved result table of a session.
type ResultHandler struct {
	resultService service.ResultService
	authService   service.AuthService
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService service.ResultService, authService service.AuthService) *ResultHandler {
	return &ResultHandler{resultService: resultService, authService: authService}
}

// Save handles POST /api/v1/results
// @Summary Save the result table
// @Description Replaces the lines stored under the caller's session token.
// @Tags results
// @Accept json
// @Produce json
// @Param body body SaveResultsRequest true "Lines"
// @Success 200 {object} Response{data=domain.SavedResults}
// @Failure 400 {object} ErrorResponseBody "No data provided"
// @Security BearerAuth
// @Router /results [post]
func (h *ResultHandler) Save(c *gin.Context) {
	var req SaveResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	if req.Lines == nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "no data provided")
		return
	}

	saved, err := h.resultService.Save(c.Request.Context(),
		middleware.GetSessionToken(c), middleware.GetUsername(c), req.Lines)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, saved)
}

// Get handles GET /api/v1/results
// @Summary Read saved results
// @Description Accepts the session token as a bearer token or as the wms_session_token query parameter. A session with nothing saved returns no lines.
// @Tags results
// @Produce json
// @Param wms_session_token query string false "Session token"
// @Success 200 {object} Response{data=domain.SavedResults}
// @Failure 401 {object} ErrorResponseBody "Missing token"
// @Failure 403 {object} ErrorResponseBody "Invalid or expired token"
// @Router /results [get]
func (h *ResultHandler) Get(c *gin.Context) {
	token := c.Query(SessionTokenParam)
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	}
	if token == "" {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing "+SessionTokenParam+" parameter")
		return
	}
	if _, err := h.authService.ValidateToken(token); err != nil {
		RespondError(c, http.StatusForbidden, "INVALID_TOKEN", "invalid or expired token")
		return
	}

	saved, err := h.resultService.Get(c.Request.Context(), token)
	if err != nil {
		HandleError(c, err)
		return
	}
	if saved.Lines == nil {
		saved.Lines = []domain.ExtractedLine{}
	}

	RespondOK(c, saved)
}

// Export handles GET /api/v1/results/export
// @Summary Export saved results as XLSX
// @Tags results
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Security BearerAuth
// @Router /results/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	saved, err := h.resultService.Get(c.Request.Context(), middleware.GetSessionToken(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	writeWorkbook(c, "results_"+middleware.GetUsername(c), saved.Lines)
}

// Clear handles DELETE /api/v1/results
// @Summary Clear saved results
// @Description Called on logout. Clearing an empty session succeeds.
// @Tags results
// @Produce json
// @Success 200 {object} Response{data=MessageResponse}
// @Security BearerAuth
// @Router /results [delete]
func (h *ResultHandler) Clear(c *gin.Context) {
	if err := h.resultService.Clear(c.Request.Context(), middleware.GetSessionToken(c)); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, MessageResponse{Message: "results cleared"})
}
