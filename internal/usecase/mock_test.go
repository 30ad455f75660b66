//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"schedule-ai-ingestion/internal/domain"
	"schedule-ai-ingestion/internal/domain/model"
	"schedule-ai-ingestion/internal/domain/ports/adapter"
	"schedule-ai-ingestion/internal/domain/ports/repository"
	"schedule-ai-ingestion/internal/usecase"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func strPtr(s string) *string { return &s }

func pendingFile(id string) *model.UploadedFile {
	f, _ := model.NewUploadedFile(id, "user-1", "syllabus.pdf", "blobs/"+id, "application/pdf", 2048)
	return f
}

// =============================
// Repositories
// =============================

// ---- Mock UploadedFileRepo ----

type MockFileRepo struct {
	mu    sync.Mutex
	files map[string]*model.UploadedFile

	// Transitions records every status written through UpdateStatus, in order.
	Transitions []model.ProcessingStatus

	SaveFunc                   func(ctx context.Context, tx repository.Tx, f *model.UploadedFile) error
	FindByIDFunc               func(ctx context.Context, tx repository.Tx, id string) (*model.UploadedFile, error)
	FetchAndMarkProcessingFunc func(ctx context.Context) (*model.UploadedFile, error)
	UpdateStatusFunc           func(ctx context.Context, tx repository.Tx, id string, status model.ProcessingStatus, processingError string) error
	UpdateExtractedTextFunc    func(ctx context.Context, tx repository.Tx, id string, text string) error
	RequeueFunc                func(ctx context.Context, tx repository.Tx, id string) error
	MarkStaleFailedFunc        func(ctx context.Context, cutoff time.Time, reason string) (int, error)
	CountByStatusFunc          func(ctx context.Context) (map[model.ProcessingStatus]int64, error)
}

var _ repository.UploadedFileRepository = (*MockFileRepo)(nil)

func NewMockFileRepo(files ...*model.UploadedFile) *MockFileRepo {
	m := &MockFileRepo{files: make(map[string]*model.UploadedFile)}
	for _, f := range files {
		cp := *f
		m.files[f.ID] = &cp
	}
	return m
}

// Stored returns the repository's own copy of the file, independent of the
// pointer the use case mutates.
func (m *MockFileRepo) Stored(id string) *model.UploadedFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[id]
}

func (m *MockFileRepo) Save(ctx context.Context, tx repository.Tx, f *model.UploadedFile) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, f)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *f
	m.files[f.ID] = &cp
	return nil
}

func (m *MockFileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UploadedFile, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *MockFileRepo) FetchAndMarkProcessing(ctx context.Context) (*model.UploadedFile, error) {
	if m.FetchAndMarkProcessingFunc != nil {
		return m.FetchAndMarkProcessingFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *model.UploadedFile
	for _, f := range m.files {
		if f.Status != model.StatusPending {
			continue
		}
		if oldest == nil || f.CreatedAt.Before(oldest.CreatedAt) {
			oldest = f
		}
	}
	if oldest == nil {
		return nil, domain.ErrNotFound
	}
	oldest.Status = model.StatusProcessing
	m.Transitions = append(m.Transitions, model.StatusProcessing)
	cp := *oldest
	return &cp, nil
}

func (m *MockFileRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.ProcessingStatus, processingError string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, processingError)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !f.Status.CanTransition(status) {
		return fmt.Errorf("%w: file %s is %s, cannot enter %s", domain.ErrRunInFlight, id, f.Status, status)
	}
	f.Status = status
	f.ProcessingError = processingError
	m.Transitions = append(m.Transitions, status)
	return nil
}

func (m *MockFileRepo) UpdateExtractedText(ctx context.Context, tx repository.Tx, id string, text string) error {
	if m.UpdateExtractedTextFunc != nil {
		return m.UpdateExtractedTextFunc(ctx, tx, id, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.ExtractedText = text
	return nil
}

func (m *MockFileRepo) Requeue(ctx context.Context, tx repository.Tx, id string) error {
	if m.RequeueFunc != nil {
		return m.RequeueFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !f.Status.Terminal() {
		return fmt.Errorf("%w: requeue needs a terminal status, file %s is %s", domain.ErrInvalidArgument, id, f.Status)
	}
	f.Status = model.StatusPending
	f.ProcessingError = ""
	return nil
}

func (m *MockFileRepo) MarkStaleFailed(ctx context.Context, cutoff time.Time, reason string) (int, error) {
	if m.MarkStaleFailedFunc != nil {
		return m.MarkStaleFailedFunc(ctx, cutoff, reason)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.files {
		inFlight := f.Status == model.StatusProcessing || f.Status == model.StatusTextExtracted
		if inFlight && f.UpdatedAt.Before(cutoff) {
			f.Status = model.StatusFailed
			f.ProcessingError = reason
			n++
		}
	}
	return n, nil
}

func (m *MockFileRepo) CountByStatus(ctx context.Context) (map[model.ProcessingStatus]int64, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[model.ProcessingStatus]int64)
	for _, f := range m.files {
		counts[f.Status]++
	}
	return counts, nil
}

// ---- Mock ScheduleItemRepo ----

type MockItemRepo struct {
	mu     sync.Mutex
	byFile map[string][]*model.ScheduleItem

	AppendCalls int

	AppendForFileFunc func(ctx context.Context, tx repository.Tx, fileID, userID string, items []*model.ScheduleItem) error
	ListByFileFunc    func(ctx context.Context, tx repository.Tx, fileID string) ([]*model.ScheduleItem, error)
}

var _ repository.ScheduleItemRepository = (*MockItemRepo)(nil)

func NewMockItemRepo() *MockItemRepo {
	return &MockItemRepo{byFile: make(map[string][]*model.ScheduleItem)}
}

func (m *MockItemRepo) AppendForFile(ctx context.Context, tx repository.Tx, fileID, userID string, items []*model.ScheduleItem) error {
	if m.AppendForFileFunc != nil {
		return m.AppendForFileFunc(ctx, tx, fileID, userID, items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	stored := make([]*model.ScheduleItem, 0, len(items))
	for _, it := range items {
		cp := *it
		cp.ID = uuid.NewString()
		cp.FileID = fileID
		cp.UserID = userID
		cp.CreatedAt = time.Now()
		stored = append(stored, &cp)
	}
	// A new run replaces whatever a previous run wrote for the file.
	m.byFile[fileID] = stored
	return nil
}

func (m *MockItemRepo) ListByFile(ctx context.Context, tx repository.Tx, fileID string) ([]*model.ScheduleItem, error) {
	if m.ListByFileFunc != nil {
		return m.ListByFileFunc(ctx, tx, fileID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ScheduleItem, len(m.byFile[fileID]))
	copy(out, m.byFile[fileID])
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].DueDate, out[j].DueDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return *di < *dj
		}
	})
	return out, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	mu    sync.Mutex
	Calls int

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock CompletionAdapter ----

type MockAI struct {
	mu         sync.Mutex
	Calls      int
	LastModel  string
	LastPrompt string

	CompleteFunc func(ctx context.Context, model string, prompt string) (string, error)
}

var _ adapter.CompletionAdapter = (*MockAI)(nil)

func (m *MockAI) Complete(ctx context.Context, mdl string, prompt string) (string, error) {
	m.mu.Lock()
	m.Calls++
	m.LastModel = mdl
	m.LastPrompt = prompt
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, mdl, prompt)
	}
	return "[]", nil
}

func (m *MockAI) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// ---- Mock FileStore ----

type MockFileStore struct {
	mu    sync.Mutex
	Blobs map[string][]byte

	LoadFunc func(ctx context.Context, location string) ([]byte, error)
}

var _ adapter.FileStore = (*MockFileStore)(nil)

func NewMockFileStore() *MockFileStore {
	return &MockFileStore{Blobs: make(map[string][]byte)}
}

func (m *MockFileStore) Load(ctx context.Context, location string) ([]byte, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx, location)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.Blobs[location]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", location, domain.ErrNotFound)
	}
	return b, nil
}

// ---- Mock FormatRouter / TextExtractor ----

// stubStrategy is a canned TextExtractor for pipeline tests.
type stubStrategy struct {
	family domain.StrategyFamily
	text   string
	err    error
}

var _ adapter.TextExtractor = (*stubStrategy)(nil)

func (s *stubStrategy) Family() domain.StrategyFamily { return s.family }

func (s *stubStrategy) Extract(ctx context.Context, data []byte) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type MockRouter struct {
	Strategy adapter.TextExtractor

	SelectFunc func(contentType string) (adapter.TextExtractor, error)
}

var _ adapter.FormatRouter = (*MockRouter)(nil)

func (m *MockRouter) Select(contentType string) (adapter.TextExtractor, error) {
	if m.SelectFunc != nil {
		return m.SelectFunc(contentType)
	}
	if m.Strategy == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, contentType)
	}
	return m.Strategy, nil
}

// =============================
// Use cases
// =============================

// ---- Mock ScheduleExtractor ----

type MockExtractor struct {
	mu        sync.Mutex
	Calls     int
	LastText  string
	LastLabel string

	ExtractFunc func(ctx context.Context, text, sourceLabel string) ([]*model.ScheduleItem, error)
}

var _ usecase.ScheduleExtractor = (*MockExtractor)(nil)

func (m *MockExtractor) Extract(ctx context.Context, text, sourceLabel string) ([]*model.ScheduleItem, error) {
	m.mu.Lock()
	m.Calls++
	m.LastText = text
	m.LastLabel = sourceLabel
	m.mu.Unlock()
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text, sourceLabel)
	}
	return []*model.ScheduleItem{}, nil
}
