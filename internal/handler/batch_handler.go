package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pointake/internal/domain"
	"pointake/internal/service"
	"pointake/internal/xlsxexport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// BatchHandler handles batch run endpoints.
type BatchHandler struct {
	batchService service.BatchService
	maxFileSize  int64
}

// NewBatchHandler creates a new BatchHandler. Uploads larger than maxFileSize bytes
// are rejected before they are read; zero disables the check.
func NewBatchHandler(batchService service.BatchService, maxFileSize int64) *BatchHandler {
	return &BatchHandler{batchService: batchService, maxFileSize: maxFileSize}
}

// Start handles POST /api/v1/batches
// @Summary Start a batch run
// @Description Upload one or more PO PDFs. The run continues in the background; poll GET /batches/{id} for progress.
// @Tags batches
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "PO PDFs (repeat the field)"
// @Param mode formData string false "image or text" default(image)
// @Success 202 {object} Response{data=batch.Snapshot}
// @Failure 400 {object} ErrorResponseBody "No files, bad mode or non-PDF upload"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 500 {object} ErrorResponseBody "Upload failed"
// @Security BearerAuth
// @Router /batches [post]
func (h *BatchHandler) Start(c *gin.Context) {
	userID, _, ok := extractUser(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "multipart form with files is required")
		return
	}

	headers := form.File["files"]
	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		content, err := readUpload(fh, h.maxFileSize)
		if errors.Is(err, domain.ErrFileTooLarge) {
			HandleError(c, err)
			return
		}
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_FILE", fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		files = append(files, service.UploadedFile{Name: fh.Filename, Content: content})
	}

	snap, err := h.batchService.Start(c.Request.Context(), userID, service.StartBatchInput{
		Files: files,
		Mode:  domain.ExtractionMode(c.PostForm("mode")),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, snap)
}

// Get handles GET /api/v1/batches/:id
// @Summary Batch progress
// @Description Returns document states, the lines published so far, errors, progress and token usage.
// @Tags batches
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} Response{data=batch.Snapshot}
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	userID, _, ok := extractUser(c)
	if !ok {
		return
	}

	snap, err := h.batchService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, snap)
}

// Export handles GET /api/v1/batches/:id/export
// @Summary Export batch lines as XLSX
// @Tags batches
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Run ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponseBody "Not found"
// @Security BearerAuth
// @Router /batches/{id}/export [get]
func (h *BatchHandler) Export(c *gin.Context) {
	userID, _, ok := extractUser(c)
	if !ok {
		return
	}

	snap, err := h.batchService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}

	writeWorkbook(c, "batch_"+shortID(snap.ID), snap.Lines)
}

// writeWorkbook streams lines as an XLSX attachment.
func writeWorkbook(c *gin.Context, prefix string, lines []domain.ExtractedLine) {
	w, err := xlsxexport.NewWriter()
	if err != nil {
		HandleError(c, err)
		return
	}
	defer func() { _ = w.Close() }()

	if err := w.WriteLines(lines); err != nil {
		HandleError(c, err)
		return
	}

	filename := xlsxexport.BuildFilename(prefix, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if _, err := w.WriteTo(c.Writer); err != nil {
		_ = c.Error(err)
	}
}

func readUpload(fh *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if maxSize > 0 && fh.Size > maxSize {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileTooLarge, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if maxSize > 0 {
		r = io.LimitReader(f, maxSize+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(content)) > maxSize {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileTooLarge, fh.Filename)
	}
	return content, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
