package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pointake/internal/batch"
	"pointake/internal/domain"
	"pointake/internal/handler"
	"pointake/internal/service"
	"pointake/internal/xlsxexport"
	"pointake/mocks"
)

func multipartBody(t *testing.T, mode string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	if mode != "" {
		require.NoError(t, mw.WriteField("mode", mode))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestBatchHandler_Start(t *testing.T) {
	mockSvc := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockSvc, 0)

	pdf := []byte("%PDF-1.4 po")
	mockSvc.On("Start", mock.Anything, planner.userID, mock.MatchedBy(func(in service.StartBatchInput) bool {
		return in.Mode == domain.ModeText && len(in.Files) == 1 &&
			in.Files[0].Name == "po.pdf" && bytes.Equal(in.Files[0].Content, pdf)
	})).Return(&batch.Snapshot{ID: "run-1", State: domain.BatchProcessing, Total: 1}, nil)

	body, contentType := multipartBody(t, "text", map[string][]byte{"po.pdf": pdf})
	c, w := newContext(http.MethodPost, "/api/v1/batches", body, &planner)
	c.Request.Header.Set("Content-Type", contentType)
	h.Start(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "run-1", decode(t, w).Data.(map[string]any)["id"])
	mockSvc.AssertExpectations(t)
}

func TestBatchHandler_Start_NotMultipart(t *testing.T) {
	mockSvc := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockSvc, 0)

	c, w := newContext(http.MethodPost, "/api/v1/batches", bytes.NewBufferString("{}"), &planner)
	jsonRequest(c)
	h.Start(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchHandler_Start_ServiceErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{domain.ErrNoDocuments, http.StatusBadRequest},
		{domain.ErrUnsupportedFileType, http.StatusBadRequest},
		{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrInvalidMode, http.StatusBadRequest},
	}
	for _, tt := range tests {
		mockSvc := new(mocks.MockBatchService)
		h := handler.NewBatchHandler(mockSvc, 0)
		mockSvc.On("Start", mock.Anything, planner.userID, mock.Anything).Return(nil, tt.err)

		body, contentType := multipartBody(t, "", map[string][]byte{"a.txt": []byte("hi")})
		c, w := newContext(http.MethodPost, "/api/v1/batches", body, &planner)
		c.Request.Header.Set("Content-Type", contentType)
		h.Start(c)

		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}

func TestBatchHandler_Start_OversizedUploadRejectedBeforeService(t *testing.T) {
	mockSvc := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockSvc, 16)

	body, contentType := multipartBody(t, "", map[string][]byte{"big.pdf": bytes.Repeat([]byte("x"), 64)})
	c, w := newContext(http.MethodPost, "/api/v1/batches", body, &planner)
	c.Request.Header.Set("Content-Type", contentType)
	h.Start(c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	mockSvc.AssertNotCalled(t, "Start", mock.Anything, mock.Anything, mock.Anything)
}

func TestBatchHandler_Start_UploadAtLimitAccepted(t *testing.T) {
	mockSvc := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockSvc, 16)
	pdf := bytes.Repeat([]byte("y"), 16)
	mockSvc.On("Start", mock.Anything, planner.userID, mock.MatchedBy(func(in service.StartBatchInput) bool {
		return len(in.Files) == 1 && bytes.Equal(in.Files[0].Content, pdf)
	})).Return(&batch.Snapshot{ID: "run-2"}, nil)

	body, contentType := multipartBody(t, "", map[string][]byte{"po.pdf": pdf})
	c, w := newContext(http.MethodPost, "/api/v1/batches", body, &planner)
	c.Request.Header.Set("Content-Type", contentType)
	h.Start(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestBatchHandler_Get_NotFound(t *testing.T) {
	mockSvc := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockSvc, 0)
	mockSvc.On("Get", mock.Anything, planner.userID, "run-x").Return(nil, domain.ErrNotFound)

	c, w := newContext(http.MethodGet, "/api/v1/batches/run-x", nil, &planner)
	c.AddParam("id", "run-x")
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchHandler_Export(t *testing.T) {
	mockSvc := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockSvc, 0)
	finished := time.Now()
	mockSvc.On("Get", mock.Anything, planner.userID, "0123456789abcdef").Return(&batch.Snapshot{
		ID:         "0123456789abcdef",
		State:      domain.BatchComplete,
		FinishedAt: &finished,
		Lines: []domain.ExtractedLine{
			{SourceFile: "a.pdf", CustomerName: "Acme", SoldTo: "C100", OrderQuantity: domain.NumberQuantity(3), UnitOfMeasure: "EA"},
		},
	}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/batches/0123456789abcdef/export", nil, &planner)
	c.AddParam("id", "0123456789abcdef")
	h.Export(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="batch_01234567_`)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(xlsxexport.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C100", rows[1][2])
}
