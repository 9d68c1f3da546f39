package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marketforge/marketforge/pkg/models"
)

// Store is the durable, idempotent record of analysis sessions. Exactly one
// record exists per session id. Mutating operations persist before returning;
// any persistence failure is surfaced to the caller, while read failures
// (missing or partially written records) are reported as "not found".
type Store interface {
	Create(input models.AnalysisInput) (string, error)
	Load(id string) (*models.Session, bool)
	Save(s *models.Session) error
	MarkModuleCompleted(id, module string, result any) error
	SetCurrentModule(id, module string, step int) error
	AddError(id, message, module string) error
	IsModuleCompleted(id, module string) bool
	NextPendingModule(id string) (string, bool)
	List() ([]models.SessionSummary, error)
	Delete(id string) error
}

const sessionFilePrefix = "session_"

// FileStore persists one JSON file per session under a directory. Writes go
// through a temp file and rename so a reader never observes a half-written
// record. Operations on the same id are serialized by a per-id mutex.
type FileStore struct {
	dir         string
	moduleOrder []string
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates the store directory if needed. moduleOrder is the
// fixed descriptor order used by NextPendingModule and progress totals.
func NewFileStore(dir string, moduleOrder []string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &FileStore{
		dir:         dir,
		moduleOrder: moduleOrder,
		logger:      logger,
		locks:       make(map[string]*sync.Mutex),
	}, nil
}

func (fs *FileStore) idLock(id string) *sync.Mutex {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	l, ok := fs.locks[id]
	if !ok {
		l = &sync.Mutex{}
		fs.locks[id] = l
	}
	return l
}

func (fs *FileStore) path(id string) string {
	return filepath.Join(fs.dir, id+".json")
}

// Create initializes and persists a new session, returning its id. Ids embed
// the creation timestamp so external listing tools can sort by name.
func (fs *FileStore) Create(input models.AnalysisInput) (string, error) {
	now := time.Now()
	id := fmt.Sprintf("%s%s_%s", sessionFilePrefix, now.Format("20060102_150405"), uuid.New().String()[:8])

	s := &models.Session{
		ID:               id,
		CreatedAt:        now,
		UpdatedAt:        now,
		Status:           models.StatusCreated,
		Input:            input,
		CompletedModules: []string{},
		Results:          make(map[string]json.RawMessage),
		Errors:           []models.SessionError{},
		Progress: models.Progress{
			TotalCount: len(fs.moduleOrder),
		},
	}

	if err := fs.Save(s); err != nil {
		return "", err
	}

	fs.logger.Info("Created session", "session_id", id, "niche", input.Niche)
	return id, nil
}

// Load reads and deserializes a session record. found=false covers both a
// missing record and one that fails to parse; callers use it to decide
// between resume and create.
func (fs *FileStore) Load(id string) (*models.Session, bool) {
	data, err := os.ReadFile(fs.path(id))
	if err != nil {
		if !os.IsNotExist(err) {
			fs.logger.Warn("Failed to read session record", "session_id", id, "error", err)
		}
		return nil, false
	}

	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		fs.logger.Warn("Failed to parse session record, treating as not found",
			"session_id", id, "error", err)
		return nil, false
	}

	// Older records may predate the full module list
	if s.Progress.TotalCount == 0 {
		s.Progress.TotalCount = len(fs.moduleOrder)
	}
	if s.Results == nil {
		s.Results = make(map[string]json.RawMessage)
	}

	return &s, true
}

// Save serializes and atomically overwrites the session record
func (fs *FileStore) Save(s *models.Session) error {
	lock := fs.idLock(s.ID)
	lock.Lock()
	defer lock.Unlock()
	return fs.saveLocked(s)
}

func (fs *FileStore) saveLocked(s *models.Session) error {
	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := fs.path(s.ID)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp session file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename session file: %w", err)
	}

	fs.logger.Debug("Session saved", "session_id", s.ID, "status", s.Status)
	return nil
}

// mutate runs fn against the loaded session under the per-id lock and
// persists the result
func (fs *FileStore) mutate(id string, fn func(*models.Session) error) error {
	lock := fs.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	s, found := fs.Load(id)
	if !found {
		return fmt.Errorf("session not found: %s", id)
	}
	if err := fn(s); err != nil {
		return err
	}
	return fs.saveLocked(s)
}

// MarkModuleCompleted records a module's result and completion flag, then
// recomputes progress. Idempotent: a second call for the same module only
// overwrites the stored result.
func (fs *FileStore) MarkModuleCompleted(id, module string, result any) error {
	return fs.mutate(id, func(s *models.Session) error {
		if !s.IsModuleCompleted(module) {
			s.CompletedModules = append(s.CompletedModules, module)
		}
		if result != nil {
			raw, err := json.Marshal(result)
			if err != nil {
				return fmt.Errorf("failed to marshal result for module %s: %w", module, err)
			}
			s.Results[module] = raw
		}
		recomputeProgress(s)
		return nil
	})
}

// SetCurrentModule records where execution currently is, for crash diagnosis
// and resume display
func (fs *FileStore) SetCurrentModule(id, module string, step int) error {
	return fs.mutate(id, func(s *models.Session) error {
		s.Progress.CurrentModule = module
		s.Progress.CurrentStep = step
		return nil
	})
}

// AddError appends to the session's error list. Errors never affect control
// flow and are never cleared.
func (fs *FileStore) AddError(id, message, module string) error {
	return fs.mutate(id, func(s *models.Session) error {
		s.Errors = append(s.Errors, models.SessionError{
			Timestamp: time.Now(),
			Module:    module,
			Message:   message,
		})
		return nil
	})
}

// IsModuleCompleted reports whether the module is recorded as done. An
// unreadable session reports false for every module.
func (fs *FileStore) IsModuleCompleted(id, module string) bool {
	s, found := fs.Load(id)
	if !found {
		return false
	}
	return s.IsModuleCompleted(module)
}

// NextPendingModule returns the first module, in fixed descriptor order, not
// yet completed
func (fs *FileStore) NextPendingModule(id string) (string, bool) {
	s, found := fs.Load(id)
	if !found {
		return "", false
	}
	for _, m := range fs.moduleOrder {
		if !s.IsModuleCompleted(m) {
			return m, true
		}
	}
	return "", false
}

// List enumerates all session records, newest first. Unparseable files are
// skipped rather than failing the listing.
func (fs *FileStore) List() ([]models.SessionSummary, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var summaries []models.SessionSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, sessionFilePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		s, found := fs.Load(strings.TrimSuffix(name, ".json"))
		if !found {
			continue
		}
		summaries = append(summaries, models.SessionSummary{
			ID:               s.ID,
			Status:           s.Status,
			CreatedAt:        s.CreatedAt,
			UpdatedAt:        s.UpdatedAt,
			Progress:         s.Progress,
			CompletedModules: len(s.CompletedModules),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	return summaries, nil
}

// Delete removes the session record; deleting a non-existent id is a no-op
func (fs *FileStore) Delete(id string) error {
	lock := fs.idLock(id)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(fs.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func recomputeProgress(s *models.Session) {
	completed := len(s.CompletedModules)
	s.Progress.CompletedCount = completed
	if s.Progress.TotalCount > 0 {
		s.Progress.Percentage = float64(completed) / float64(s.Progress.TotalCount) * 100
	}
}
