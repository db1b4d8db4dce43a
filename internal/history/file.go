package history

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fitgram/exercise-bot/internal/apperrors"
)

// FileStore journals entries as JSON lines in a single file. A mutex
// serializes writers so concurrent appends never corrupt the journal.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.NewHistoryError(fmt.Errorf("create history directory: %w", err))
		}
	}

	return &FileStore{path: path}, nil
}

func (s *FileStore) Append(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return apperrors.NewHistoryError(fmt.Errorf("marshal entry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.NewHistoryError(fmt.Errorf("open history file: %w", err))
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n", raw); err != nil {
		return apperrors.NewHistoryError(fmt.Errorf("write entry: %w", err))
	}

	return nil
}

func (s *FileStore) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewHistoryError(fmt.Errorf("open history file: %w", err))
	}
	defer f.Close()

	var entries []Entry

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, apperrors.NewHistoryError(fmt.Errorf("parse entry: %w", err))
		}

		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewHistoryError(fmt.Errorf("read history file: %w", err))
	}

	return entries, nil
}

func (s *FileStore) Close() error {
	return nil
}
