package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pointake/internal/batch"
	"pointake/internal/domain"
	"pointake/internal/port"
)

// UploadedFile is one document received for a batch.
type UploadedFile struct {
	Name    string
	Content []byte
}

// StartBatchInput is the DTO for starting a batch run.
type StartBatchInput struct {
	Files []UploadedFile
	Mode  domain.ExtractionMode
}

// BatchConfig holds upload limits and storage settings for batch runs.
type BatchConfig struct {
	Bucket        string
	MaxFileSize   int64
	MaxFiles      int
	PresignExpiry int64         // seconds
	Retention     time.Duration // how long finished runs stay queryable
}

// BatchStarter starts orchestrator runs.
type BatchStarter interface {
	Start(ctx context.Context, docs []domain.Document, mode domain.ExtractionMode, opts ...batch.Option) *batch.Run
}

// BatchService defines the batch run contract.
type BatchService interface {
	Start(ctx context.Context, userID uuid.UUID, input StartBatchInput) (*batch.Snapshot, error)
	Get(ctx context.Context, userID uuid.UUID, runID string) (*batch.Snapshot, error)
}

type ownedRun struct {
	owner uuid.UUID
	run   *batch.Run
}

type batchService struct {
	starter BatchStarter
	storage port.ObjectStorage
	cfg     BatchConfig
	logger  *zap.Logger

	mu   sync.RWMutex
	runs map[string]ownedRun
}

// NewBatchService creates a new BatchService. storage may be nil, in which case
// documents are not archived and lines carry no source URL.
func NewBatchService(starter BatchStarter, storage port.ObjectStorage, cfg BatchConfig, logger *zap.Logger) BatchService {
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &batchService{
		starter: starter,
		storage: storage,
		cfg:     cfg,
		logger:  logger,
		runs:    make(map[string]ownedRun),
	}
}

func (s *batchService) Start(ctx context.Context, userID uuid.UUID, input StartBatchInput) (*batch.Snapshot, error) {
	mode := input.Mode
	if mode == "" {
		mode = domain.ModeImage
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidMode, mode)
	}
	if len(input.Files) == 0 {
		return nil, domain.ErrNoDocuments
	}
	if s.cfg.MaxFiles > 0 && len(input.Files) > s.cfg.MaxFiles {
		return nil, domain.ErrTooManyDocuments
	}
	for _, f := range input.Files {
		if err := s.validate(f); err != nil {
			return nil, err
		}
	}

	runID := uuid.New().String()
	docs := make([]domain.Document, len(input.Files))
	for i, f := range input.Files {
		url, err := s.archive(ctx, runID, f)
		if err != nil {
			return nil, err
		}
		docs[i] = domain.Document{Name: f.Name, Content: f.Content, SourceURL: url}
	}

	s.prune()
	run := s.starter.Start(ctx, docs, mode, batch.WithRunID(runID))
	s.mu.Lock()
	s.runs[run.ID()] = ownedRun{owner: userID, run: run}
	s.mu.Unlock()

	s.logger.Info("service.batchService.Start: batch started",
		zap.String("run_id", run.ID()), zap.String("user_id", userID.String()),
		zap.Int("documents", len(docs)), zap.String("mode", string(mode)))

	snap := run.Snapshot()
	return &snap, nil
}

// Get returns the current state of a run owned by userID. Runs of other users are
// reported as not found.
func (s *batchService) Get(_ context.Context, userID uuid.UUID, runID string) (*batch.Snapshot, error) {
	s.mu.RLock()
	owned, ok := s.runs[runID]
	s.mu.RUnlock()
	if !ok || owned.owner != userID {
		return nil, domain.ErrNotFound
	}
	snap := owned.run.Snapshot()
	return &snap, nil
}

func (s *batchService) validate(f UploadedFile) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, f.Name)
	}
	if s.cfg.MaxFileSize > 0 && int64(len(f.Content)) > s.cfg.MaxFileSize {
		return fmt.Errorf("%w: %s", domain.ErrFileTooLarge, f.Name)
	}
	if _, ok := domain.AllowedContentTypes[http.DetectContentType(f.Content)]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, f.Name)
	}
	return nil
}

// archive stores the document and returns a presigned link to it.
func (s *batchService) archive(ctx context.Context, runID string, f UploadedFile) (string, error) {
	if s.storage == nil {
		return "", nil
	}
	key := fmt.Sprintf("batches/%s/%s-%s", runID, uuid.New(), filepath.Base(f.Name))
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(f.Content),
		ContentType: "application/pdf",
		Size:        int64(len(f.Content)),
	})
	if err != nil {
		s.logger.Error("service.batchService.archive: upload failed", zap.String("key", key), zap.Error(err))
		return "", errors.Join(domain.ErrUploadFailed, err)
	}
	url, err := s.storage.GetPresignedURL(ctx, s.cfg.Bucket, key, s.cfg.PresignExpiry)
	if err != nil {
		s.logger.Warn("service.batchService.archive: presign failed", zap.String("key", key), zap.Error(err))
		return "", nil
	}
	return url, nil
}

// prune forgets finished runs older than the retention window.
func (s *batchService) prune() {
	cutoff := time.Now().Add(-s.cfg.Retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, owned := range s.runs {
		snap := owned.run.Snapshot()
		if snap.FinishedAt != nil && snap.FinishedAt.Before(cutoff) {
			delete(s.runs, id)
		}
	}
}
