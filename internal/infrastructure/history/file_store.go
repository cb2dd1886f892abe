package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doeshing/kubeask/internal/domain"
	"github.com/doeshing/kubeask/internal/ports"
)

// fileRecord is one JSONL line: a session header when Message is nil,
// otherwise a message belonging to SessionID.
type fileRecord struct {
	SessionID string                      `json:"session_id"`
	CreatedAt time.Time                   `json:"created_at,omitempty"`
	Message   *domain.ConversationMessage `json:"message,omitempty"`
}

// FileStore appends conversation records to a jsonl file. It is the fallback
// when SQLite cannot be opened; fine for one user, not for large histories.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) EnsureSession(_ context.Context, sessionID string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	state, err := f.load()
	if err != nil {
		return domain.Session{}, err
	}
	if session, ok := state.sessions[sessionID]; ok {
		return *session, nil
	}

	now := time.Now()
	if err := f.append(fileRecord{SessionID: sessionID, CreatedAt: now}); err != nil {
		return domain.Session{}, err
	}
	return domain.Session{ID: sessionID, CreatedAt: now, LastActive: now}, nil
}

func (f *FileStore) Append(_ context.Context, sessionID string, msg domain.ConversationMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := state.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return f.append(fileRecord{SessionID: sessionID, Message: &msg})
}

func (f *FileStore) Conversation(_ context.Context, sessionID string, limit int) ([]domain.ConversationMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return nil, err
	}
	if _, ok := state.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	messages := state.messages[sessionID]
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return append([]domain.ConversationMessage(nil), messages...), nil
}

func (f *FileStore) Sessions(context.Context) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return nil, err
	}
	sessions := make([]domain.Session, 0, len(state.sessions))
	for _, session := range state.sessions {
		sessions = append(sessions, *session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActive.After(sessions[j].LastActive)
	})
	return sessions, nil
}

func (f *FileStore) Clear(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sessionID == "" {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	state, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := state.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return f.rewrite(state, func(id string) bool { return id != sessionID })
}

func (f *FileStore) Prune(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, err := f.load()
	if err != nil {
		return 0, err
	}
	var removed int64
	keep := func(id string) bool {
		return !state.sessions[id].LastActive.Before(olderThan)
	}
	for id := range state.sessions {
		if !keep(id) {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, f.rewrite(state, keep)
}

func (f *FileStore) Close() error {
	return nil
}

type fileState struct {
	order    []string
	sessions map[string]*domain.Session
	messages map[string][]domain.ConversationMessage
}

func (f *FileStore) load() (fileState, error) {
	state := fileState{
		sessions: map[string]*domain.Session{},
		messages: map[string][]domain.ConversationMessage{},
	}
	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return state, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec fileRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil || rec.SessionID == "" {
			// Skip torn or foreign lines rather than losing the whole history.
			continue
		}
		session, ok := state.sessions[rec.SessionID]
		if !ok {
			session = &domain.Session{ID: rec.SessionID, CreatedAt: rec.CreatedAt, LastActive: rec.CreatedAt}
			state.sessions[rec.SessionID] = session
			state.order = append(state.order, rec.SessionID)
		}
		if rec.Message == nil {
			continue
		}
		session.MessageCount++
		if rec.Message.Timestamp.After(session.LastActive) {
			session.LastActive = rec.Message.Timestamp
		}
		state.messages[rec.SessionID] = append(state.messages[rec.SessionID], *rec.Message)
	}
	return state, scanner.Err()
}

func (f *FileStore) append(rec fileRecord) error {
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return err
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return err
	}
	defer file.Close()
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// rewrite replaces the file with the sessions keep accepts, via a temp file
// and rename so a crash never leaves a half-written history.
func (f *FileStore) rewrite(state fileState, keep func(id string) bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".history-*.jsonl")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	writer := bufio.NewWriter(tmp)
	encoder := json.NewEncoder(writer)
	for _, id := range state.order {
		if !keep(id) {
			continue
		}
		if err := encoder.Encode(fileRecord{SessionID: id, CreatedAt: state.sessions[id].CreatedAt}); err != nil {
			tmp.Close()
			return err
		}
		for i := range state.messages[id] {
			if err := encoder.Encode(fileRecord{SessionID: id, Message: &state.messages[id][i]}); err != nil {
				tmp.Close()
				return err
			}
		}
	}
	if err := writer.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), domain.SecureFilePermissions); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

var _ ports.ConversationRepository = (*FileStore)(nil)
