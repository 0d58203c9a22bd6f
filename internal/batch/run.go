package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pointake/internal/domain"
)

// DocumentStatus is the progress of one document in a run.
type DocumentStatus struct {
	Name  string               `json:"name"`
	State domain.DocumentState `json:"state"`
	Error string               `json:"error,omitempty"`
	Lines int                  `json:"lines"`
}

// Snapshot is a point-in-time copy of a run.
type Snapshot struct {
	ID         string                 `json:"id"`
	Mode       domain.ExtractionMode  `json:"mode"`
	State      domain.BatchState      `json:"state"`
	Documents  []DocumentStatus       `json:"documents"`
	Lines      []domain.ExtractedLine `json:"lines"`
	Errors     []string               `json:"errors"`
	Processed  int                    `json:"processed"`
	Total      int                    `json:"total"`
	Usage      domain.TokenUsage      `json:"usage"`
	StartedAt  time.Time              `json:"startedAt"`
	FinishedAt *time.Time             `json:"finishedAt,omitempty"`
}

// UpdateKind tells listeners what changed.
type UpdateKind string

const (
	UpdateBatchState    UpdateKind = "batch_state"
	UpdateDocumentState UpdateKind = "document_state"
	UpdateLines         UpdateKind = "lines_published"
)

// Update is one event streamed to listeners. Lines is set for UpdateLines only.
type Update struct {
	Kind       UpdateKind
	RunID      string
	BatchState domain.BatchState
	Document   string
	State      domain.DocumentState
	Error      string
	Lines      []domain.ExtractedLine
	Processed  int
	Total      int
}

// Run is a batch in flight. All methods are safe for concurrent use.
type Run struct {
	id        string
	mode      domain.ExtractionMode
	startedAt time.Time
	listeners []func(Update)
	logger    *zap.Logger
	done      chan struct{}

	// emitMu keeps listener calls in the order the changes were applied.
	emitMu sync.Mutex

	mu         sync.Mutex
	state      domain.BatchState
	docs       []DocumentStatus
	lines      []domain.ExtractedLine
	errors     []string
	processed  int
	usage      domain.TokenUsage
	finishedAt time.Time
}

func newRun(id string, mode domain.ExtractionMode, docs []domain.Document, listeners []func(Update), logger *zap.Logger) *Run {
	if logger == nil {
		logger = zap.NewNop()
	}
	statuses := make([]DocumentStatus, len(docs))
	for i := range docs {
		statuses[i] = DocumentStatus{Name: docs[i].Name, State: domain.DocumentQueued}
	}
	return &Run{
		id:        id,
		mode:      mode,
		startedAt: time.Now(),
		listeners: listeners,
		logger:    logger,
		done:      make(chan struct{}),
		state:     domain.BatchIdle,
		docs:      statuses,
	}
}

// ID returns the run id.
func (r *Run) ID() string {
	return r.id
}

// Done is closed when the run is complete.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run completes or ctx ends. The run itself is not
// affected by ctx.
func (r *Run) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-r.done:
		return r.Snapshot(), nil
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	}
}

// Snapshot returns a copy of the current run state, including partial results.
func (r *Run) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		ID:        r.id,
		Mode:      r.mode,
		State:     r.state,
		Documents: append([]DocumentStatus(nil), r.docs...),
		Lines:     append([]domain.ExtractedLine{}, r.lines...),
		Errors:    append([]string{}, r.errors...),
		Processed: r.processed,
		Total:     len(r.docs),
		Usage:     r.usage,
		StartedAt: r.startedAt,
	}
	if !r.finishedAt.IsZero() {
		t := r.finishedAt
		s.FinishedAt = &t
	}
	return s
}

// apply runs mutate under the state lock and hands the resulting update to
// every listener. A nil update is not emitted.
func (r *Run) apply(mutate func() *Update) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()

	r.mu.Lock()
	u := mutate()
	if u != nil {
		u.RunID = r.id
		u.Processed = r.processed
		u.Total = len(r.docs)
	}
	r.mu.Unlock()

	if u == nil {
		return
	}
	for _, fn := range r.listeners {
		r.notify(fn, *u)
	}
}

// notify calls one listener. A panicking listener is logged and does not
// affect the run or the other listeners.
func (r *Run) notify(fn func(Update), u Update) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("batch.Run.notify: listener panicked",
				zap.String("run_id", r.id), zap.String("kind", string(u.Kind)), zap.Any("panic", p))
		}
	}()
	fn(u)
}

func (r *Run) setBatchState(state domain.BatchState) {
	r.apply(func() *Update {
		r.state = state
		if state == domain.BatchComplete {
			r.finishedAt = time.Now()
		}
		return &Update{Kind: UpdateBatchState, BatchState: state}
	})
}

// setState moves document idx to state. Terminal documents never move.
func (r *Run) setState(idx int, state domain.DocumentState) {
	r.apply(func() *Update {
		doc := &r.docs[idx]
		if doc.State.Terminal() {
			return nil
		}
		doc.State = state
		return &Update{Kind: UpdateDocumentState, Document: doc.Name, State: state}
	})
}

func (r *Run) addUsage(u *domain.TokenUsage) {
	if u == nil {
		return
	}
	r.mu.Lock()
	r.usage = r.usage.Add(u)
	r.mu.Unlock()
}

// fail records err for document idx and marks it FAILED.
func (r *Run) fail(idx int, err error) {
	r.apply(func() *Update {
		doc := &r.docs[idx]
		if doc.State.Terminal() {
			return nil
		}
		msg := fmt.Sprintf("%s: %v", doc.Name, err)
		doc.State = domain.DocumentFailed
		doc.Error = err.Error()
		r.errors = append(r.errors, msg)
		r.processed++
		return &Update{Kind: UpdateDocumentState, Document: doc.Name, State: domain.DocumentFailed, Error: msg}
	})
}

// publish appends the document's lines to the result set and marks it PUBLISHED.
func (r *Run) publish(idx int, lines []domain.ExtractedLine) {
	r.apply(func() *Update {
		doc := &r.docs[idx]
		if doc.State.Terminal() {
			return nil
		}
		doc.State = domain.DocumentPublished
		doc.Lines = len(lines)
		r.lines = append(r.lines, lines...)
		r.processed++
		return &Update{
			Kind:     UpdateLines,
			Document: doc.Name,
			State:    domain.DocumentPublished,
			Lines:    append([]domain.ExtractedLine(nil), lines...),
		}
	})
}

func (r *Run) finish() {
	defer close(r.done)
	r.setBatchState(domain.BatchComplete)
}
