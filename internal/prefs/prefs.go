// Package prefs stores per-user preferences as JSON files on disk and
// streams live snapshots to subscribers when a file changes.
package prefs

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/readingroomapp/readingroom-server/internal/domain"
	apperrors "github.com/readingroomapp/readingroom-server/internal/errors"
)

const (
	// settleDelay coalesces the burst of filesystem events a single
	// write-and-rename produces into one snapshot.
	settleDelay = 50 * time.Millisecond

	subscriberBuffer = 8
)

// Store persists preferences under dir, one <userID>.json file per user.
// Missing or corrupt files degrade to defaults rather than erroring.
type Store struct {
	dir     string
	logger  *slog.Logger
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	subs    map[string]map[chan domain.Preferences]struct{} // userID -> subscriber channels
	pending map[string]*time.Timer                          // userID -> settle timer
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewStore opens a preferences store rooted at dir, creating it if needed,
// and starts watching for external file changes.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create preferences dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create preferences watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch preferences dir: %w", err)
	}

	s := &Store{
		dir:     dir,
		logger:  logger,
		watcher: watcher,
		subs:    make(map[string]map[chan domain.Preferences]struct{}),
		pending: make(map[string]*time.Timer),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s, nil
}

// Close stops the watcher and closes every subscriber channel.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, timer := range s.pending {
		timer.Stop()
	}
	s.mu.Unlock()

	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()

	s.mu.Lock()
	for _, chans := range s.subs {
		for ch := range chans {
			close(ch)
		}
	}
	s.subs = make(map[string]map[chan domain.Preferences]struct{})
	s.mu.Unlock()

	return err
}

// Get loads a user's preferences. A missing or unreadable file yields
// defaults; stored values are sanitized on the way out.
func (s *Store) Get(ctx context.Context, userID string) (domain.Preferences, error) {
	if err := validateUserID(userID); err != nil {
		return domain.Preferences{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Preferences{}, err
	}
	return s.load(userID), nil
}

// Set persists a user's preferences. Values are sanitized before writing,
// and the write is atomic (temp file + rename) so a crash never leaves a
// half-written file behind.
func (s *Store) Set(ctx context.Context, userID string, p domain.Preferences) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p = p.Sanitize()

	data, err := json.Marshal(p)
	if err != nil {
		return apperrors.Internal("failed to encode preferences").WithCause(err)
	}

	path := s.path(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperrors.Internal("failed to write preferences").WithCause(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.Internal("failed to write preferences").WithCause(err)
	}

	s.logger.Debug("preferences saved", "user_id", userID)
	return nil
}

// Subscribe returns a channel of preference snapshots for a user, primed
// with the current value, and a cancel function that stops the stream and
// closes the channel. Slow consumers drop intermediate snapshots.
func (s *Store) Subscribe(userID string) (<-chan domain.Preferences, func(), error) {
	if err := validateUserID(userID); err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Preferences, subscriberBuffer)
	snapshot := s.load(userID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}, nil
	}
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[chan domain.Preferences]struct{})
	}
	s.subs[userID][ch] = struct{}{}
	// Prime under the lock: the buffer is empty so the send cannot block,
	// and Close cannot slip in and close ch before the snapshot lands.
	ch <- snapshot
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[userID][ch]; !ok {
			return
		}
		delete(s.subs[userID], ch)
		if len(s.subs[userID]) == 0 {
			delete(s.subs, userID)
		}
		close(ch)
	}
	return ch, cancel, nil
}

// run drains watcher events and schedules per-user snapshot publishes.
func (s *Store) run() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			userID, ok := userIDFromPath(event.Name)
			if !ok {
				continue
			}
			s.schedulePublish(userID)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("preferences watcher error", "error", err)
		}
	}
}

// schedulePublish (re)arms the settle timer for a user.
func (s *Store) schedulePublish(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if timer, ok := s.pending[userID]; ok {
		timer.Stop()
	}
	s.pending[userID] = time.AfterFunc(settleDelay, func() {
		s.publish(userID)
	})
}

// publish sends the current snapshot to every subscriber of a user.
func (s *Store) publish(userID string) {
	snapshot := s.load(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	delete(s.pending, userID)

	for ch := range s.subs[userID] {
		select {
		case ch <- snapshot:
		default:
			// Consumer backed up, drop this snapshot.
		}
	}
}

// load reads a user's file, degrading to defaults on any failure.
func (s *Store) load(userID string) domain.Preferences {
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read preferences, using defaults",
				"user_id", userID,
				"error", err,
			)
		}
		return domain.DefaultPreferences()
	}

	var p domain.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("corrupt preferences file, using defaults",
			"user_id", userID,
			"error", err,
		)
		return domain.DefaultPreferences()
	}
	return p.Sanitize()
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.dir, userID+".json")
}

// userIDFromPath maps a watched file path back to a user ID.
func userIDFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") {
		return "", false
	}
	return strings.TrimSuffix(base, ".json"), true
}

// validateUserID rejects IDs that would escape the preferences dir.
func validateUserID(userID string) error {
	if userID == "" {
		return apperrors.Validation("user ID is required")
	}
	if strings.ContainsAny(userID, "/\\") || userID == "." || userID == ".." {
		return apperrors.Validationf("invalid user ID: %s", userID)
	}
	return nil
}
