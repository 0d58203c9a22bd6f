package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pointake/internal/batch"
	"pointake/internal/domain"
	"pointake/internal/oracle"
	"pointake/internal/port"
	"pointake/internal/preprocess"
	"pointake/internal/resolver"
	"pointake/internal/service"
	"pointake/mocks"
)

type stubPre struct{}

func (stubPre) Preprocess(_ context.Context, doc domain.Document, mode domain.ExtractionMode) (*preprocess.Input, error) {
	return &preprocess.Input{Mode: mode, Text: doc.Name}, nil
}

type stubExt struct{}

func (stubExt) Extract(_ context.Context, parts []port.ContentPart) (*oracle.ExtractionResult, error) {
	return &oracle.ExtractionResult{Lines: []domain.ExtractedLine{{
		CustomerName:   "Acme",
		MaterialNumber: parts[0].Text,
		OrderQuantity:  domain.NumberQuantity(1),
		UnitOfMeasure:  "KG",
	}}}, nil
}

type stubResolver struct{}

func (stubResolver) Resolve(context.Context, domain.ExtractedLine, *resolver.Caches) domain.Resolution {
	return domain.Resolution{SoldTo: "C100"}
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj << >> endobj\n%%EOF\n")

func newBatchService(storage port.ObjectStorage) service.BatchService {
	orch := batch.New(stubPre{}, stubExt{}, stubResolver{}, batch.Config{}, nil)
	return service.NewBatchService(orch, storage, service.BatchConfig{
		Bucket:        "po-bucket",
		MaxFileSize:   1 << 20,
		MaxFiles:      3,
		PresignExpiry: 3600,
	}, nil)
}

func waitComplete(t *testing.T, svc service.BatchService, userID uuid.UUID, runID string) *batch.Snapshot {
	t.Helper()
	var snap *batch.Snapshot
	require.Eventually(t, func() bool {
		var err error
		snap, err = svc.Get(context.Background(), userID, runID)
		return err == nil && snap.State == domain.BatchComplete
	}, 2*time.Second, 5*time.Millisecond)
	return snap
}

func TestBatchService_Start_ArchivesAndRuns(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "po-bucket" && strings.HasPrefix(in.Key, "batches/") &&
			strings.HasSuffix(in.Key, "-order.pdf") && in.ContentType == "application/pdf"
	})).Return(&port.UploadOutput{Location: "s3://po-bucket/x"}, nil)
	storage.On("GetPresignedURL", mock.Anything, "po-bucket", mock.Anything, int64(3600)).
		Return("https://signed/order.pdf", nil)

	svc := newBatchService(storage)
	userID := uuid.New()
	snap, err := svc.Start(context.Background(), userID, service.StartBatchInput{
		Files: []service.UploadedFile{{Name: "order.pdf", Content: pdfBytes}},
		Mode:  domain.ModeText,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Total)
	assert.Equal(t, domain.ModeText, snap.Mode)

	final := waitComplete(t, svc, userID, snap.ID)
	require.Len(t, final.Lines, 1)
	assert.Equal(t, "order.pdf", final.Lines[0].SourceFile)
	assert.Equal(t, "https://signed/order.pdf", final.Lines[0].SourceURL)
	assert.Equal(t, "C100", final.Lines[0].SoldTo)

	uploaded := storage.Calls[0].Arguments.Get(1).(port.UploadInput)
	assert.Contains(t, uploaded.Key, "batches/"+snap.ID+"/")
}

func TestBatchService_Start_WithoutStorage(t *testing.T) {
	svc := newBatchService(nil)
	userID := uuid.New()

	snap, err := svc.Start(context.Background(), userID, service.StartBatchInput{
		Files: []service.UploadedFile{{Name: "a.pdf", Content: pdfBytes}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ModeImage, snap.Mode)

	final := waitComplete(t, svc, userID, snap.ID)
	require.Len(t, final.Lines, 1)
	assert.Empty(t, final.Lines[0].SourceURL)
}

func TestBatchService_Start_Validation(t *testing.T) {
	svc := newBatchService(nil)
	user := uuid.New()
	ok := service.UploadedFile{Name: "a.pdf", Content: pdfBytes}

	tests := []struct {
		name  string
		input service.StartBatchInput
		want  error
	}{
		{"no files", service.StartBatchInput{}, domain.ErrNoDocuments},
		{"bad mode", service.StartBatchInput{Files: []service.UploadedFile{ok}, Mode: "ocr"}, domain.ErrInvalidMode},
		{"too many", service.StartBatchInput{Files: []service.UploadedFile{ok, ok, ok, ok}}, domain.ErrTooManyDocuments},
		{"extension", service.StartBatchInput{Files: []service.UploadedFile{{Name: "a.docx", Content: pdfBytes}}}, domain.ErrUnsupportedFileType},
		{"content", service.StartBatchInput{Files: []service.UploadedFile{{Name: "a.pdf", Content: []byte("hello")}}}, domain.ErrUnsupportedFileType},
		{"size", service.StartBatchInput{Files: []service.UploadedFile{{Name: "a.pdf", Content: append(append([]byte{}, pdfBytes...), make([]byte, 1<<20)...)}}}, domain.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Start(context.Background(), user, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBatchService_Start_UploadFailure(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	_, err := newBatchService(storage).Start(context.Background(), uuid.New(), service.StartBatchInput{
		Files: []service.UploadedFile{{Name: "a.pdf", Content: pdfBytes}},
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestBatchService_Get_OtherUsersRunIsHidden(t *testing.T) {
	svc := newBatchService(nil)
	owner := uuid.New()
	snap, err := svc.Start(context.Background(), owner, service.StartBatchInput{
		Files: []service.UploadedFile{{Name: "a.pdf", Content: pdfBytes}},
	})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.New(), snap.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(context.Background(), owner, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	waitComplete(t, svc, owner, snap.ID)
}
