// Package history persists chat sessions and their messages.
package history

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/doeshing/kubeask/internal/ports"
)

// ErrSessionNotFound is returned for operations on an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// Open prefers SQLite at path and falls back to a JSONL file next to it.
func Open(ctx context.Context, path string, logger ports.Logger) (ports.ConversationRepository, error) {
	store, err := NewSQLiteStore(ctx, path)
	if err == nil {
		return store, nil
	}
	fallback := jsonlPath(path)
	if logger != nil {
		logger.Warn("sqlite history unavailable, using jsonl store", map[string]interface{}{
			"path":     path,
			"fallback": fallback,
			"error":    err.Error(),
		})
	}
	return NewFileStore(fallback), nil
}

func jsonlPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl"
}
