package library

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/homiletic/scribe/pkg/docstate"
	"github.com/homiletic/scribe/pkg/git"
)

// SidecarSuffix is appended to an entry ID to name the file holding
// its versioned document snapshot.
const SidecarSuffix = ".doc.json"

// Config holds the configuration for the filesystem store.
type Config struct {
	Path         string
	AutoInit     bool
	Gitless      bool
	MustExist    bool
	Logger       *slog.Logger
	SystemDir    string // e.g. ".scribe"
	ErrorHandler func(error)
}

// Store persists the sermon library using the filesystem and git.
type Store struct {
	Path   string
	git    *git.Client
	cache  *cache
	config Config

	mu            sync.RWMutex
	selfWrites    map[string][32]byte // relPath -> checksum of our last write
	selfDeletes   map[string]bool
	watcherActive bool
	lastReconcile *time.Time
}

// NewStore creates a filesystem-backed library store.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = ".scribe"
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Store{
		Path:        config.Path,
		git:         git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:      config,
		cache:       newCache(config.Path, config.SystemDir),
		selfWrites:  make(map[string][32]byte),
		selfDeletes: make(map[string]bool),
	}
}

// Initialize performs the necessary setup (mkdir, git init, ignore).
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("library path does not exist: %s", s.Path)
		}
		if !info.IsDir() {
			return fmt.Errorf("library path is not a directory: %s", s.Path)
		}
	} else {
		if err := os.MkdirAll(s.Path, 0755); err != nil {
			return fmt.Errorf("failed to create library directory: %w", err)
		}
	}

	if !s.config.Gitless {
		if !git.IsInstalled() {
			return fmt.Errorf("git is not installed")
		}

		wasNewRepo := false
		if !s.git.IsRepo() {
			if s.config.AutoInit {
				if err := s.git.Init(); err != nil {
					return fmt.Errorf("failed to git init: %w", err)
				}
				wasNewRepo = true
			} else {
				return fmt.Errorf("path is not a git repository: %s", s.Path)
			}
		}

		mod, err := s.ensureIgnore()
		if err != nil {
			return fmt.Errorf("failed to ensure .gitignore: %w", err)
		}

		if mod && wasNewRepo {
			if err := s.git.Add(".gitignore"); err != nil {
				return fmt.Errorf("failed to add .gitignore: %w", err)
			}
			if err := s.git.Commit(fmt.Sprintf("chore: configure %s ignore", s.config.SystemDir)); err != nil {
				return fmt.Errorf("failed to commit .gitignore: %w", err)
			}
		}
	}

	return nil
}

// ensureIgnore keeps the system directory out of version control.
func (s *Store) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(s.Path, ".gitignore")
	ignoreEntry := s.config.SystemDir + "/"

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == ignoreEntry {
			return false, nil
		}
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}

	if _, err := f.WriteString(ignoreEntry + "\n"); err != nil {
		return false, err
	}

	return true, nil
}

// entryFileName maps an ID to its Markdown file name.
func entryFileName(id string) string {
	if filepath.Ext(id) == ".md" {
		return id
	}
	return id + ".md"
}

// sidecarFileName maps an ID to its snapshot file name.
func sidecarFileName(id string) string {
	return strings.TrimSuffix(id, ".md") + SidecarSuffix
}

// Save persists an entry and, when snap is non-nil, its structured
// document sidecar, then commits both to git.
//
// Workflow:
//  1. Serialize frontmatter + transcript, write atomically.
//  2. Serialize the snapshot sidecar, write atomically.
//  3. Record checksums so the watcher ignores the echo.
//  4. (If git enabled) add + commit under the library lock.
func (s *Store) Save(ctx context.Context, e Entry, snap *docstate.Snapshot) error {
	if e.ID == "" {
		return fmt.Errorf("entry has no ID")
	}

	filename := entryFileName(e.ID)
	fullPath := filepath.Join(s.Path, filename)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := EncodeEntry(e)
	if err != nil {
		return fmt.Errorf("failed to serialize entry: %w", err)
	}

	s.markSelfWrite(filename, data)
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	files := []string{filename}

	if snap != nil {
		sidecar := sidecarFileName(e.ID)
		snapData, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize snapshot: %w", err)
		}
		s.markSelfWrite(sidecar, snapData)
		if err := writeFileAtomic(filepath.Join(s.Path, sidecar), snapData, 0644); err != nil {
			return fmt.Errorf("failed to write sidecar: %w", err)
		}
		files = append(files, sidecar)
	}

	if !s.config.Gitless {
		unlock, err := s.git.Lock()
		if err != nil {
			return fmt.Errorf("failed to acquire git lock: %w", err)
		}
		defer unlock()

		if err := s.git.Add(files...); err != nil {
			return fmt.Errorf("failed to git add: %w", err)
		}

		msg := "update " + e.ID
		if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
			msg = val
		}

		if err := s.git.Commit(msg); err != nil {
			return fmt.Errorf("failed to git commit: %w", err)
		}
	}

	return nil
}

// Get retrieves an entry by ID.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	fullPath := filepath.Join(s.Path, entryFileName(id))

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return Entry{}, err
	}

	e, err := ParseEntry(strings.TrimSuffix(id, ".md"), data)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to parse entry %s: %w", id, err)
	}
	return e, nil
}

// LoadSnapshot reads the structured document sidecar for an entry.
// Entries without a sidecar (plain notes, imports) return nil.
func (s *Store) LoadSnapshot(ctx context.Context, id string) (*docstate.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.Path, sidecarFileName(id)))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap docstate.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot for %s: %w", id, err)
	}
	return &snap, nil
}

// List scans the library for all entries.
//
// Strategy:
//  1. Load the metadata index from disk.
//  2. Walk the tree, skipping .git and the system dir.
//  3. Per file: cache hit on mtime uses the index (fast path);
//     miss does a full parse and refreshes the index.
//  4. Prune deleted files and save the index.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	var out []Summary

	if err := s.cache.Load(); err != nil {
		s.config.Logger.Debug("cache load failed, starting fresh", "error", err)
	}
	seen := make(map[string]bool)

	err := filepath.WalkDir(s.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == s.config.SystemDir {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if filepath.Ext(name) != ".md" || strings.HasPrefix(name, TempFilePrefix) {
			return nil
		}

		relPath, err := filepath.Rel(s.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()

		seen[relPath] = true

		if entry, hit := s.cache.Get(relPath, mtime); hit {
			out = append(out, *entry)
			return nil
		}

		id := strings.TrimSuffix(relPath, ".md")
		e, err := s.Get(ctx, id)
		if err != nil {
			return nil // Skip unparseable
		}

		summary := summaryOf(e, mtime)
		s.cache.Set(relPath, summary)
		out = append(out, *summary)
		return nil
	})

	if err != nil {
		return nil, err
	}

	s.cache.Prune(seen)
	if err := s.cache.Save(); err != nil {
		s.config.Logger.Debug("cache save failed", "error", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Delete removes an entry and its sidecar.
func (s *Store) Delete(ctx context.Context, id string) error {
	filename := entryFileName(id)
	fullPath := filepath.Join(s.Path, filename)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("entry not found")
	}

	sidecar := sidecarFileName(id)
	hasSidecar := true
	if _, err := os.Stat(filepath.Join(s.Path, sidecar)); os.IsNotExist(err) {
		hasSidecar = false
	}

	s.markSelfDelete(filename)
	if hasSidecar {
		s.markSelfDelete(sidecar)
	}
	s.cache.Delete(filename)

	if s.config.Gitless {
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		if hasSidecar {
			if err := os.Remove(filepath.Join(s.Path, sidecar)); err != nil {
				return fmt.Errorf("failed to remove sidecar: %w", err)
			}
		}
		return nil
	}

	unlock, err := s.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	files := []string{filename}
	if hasSidecar {
		files = append(files, sidecar)
	}
	if err := s.git.Rm(files...); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}

	msg := "delete " + id
	if val, ok := ctx.Value(ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}
	if err := s.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}

	return nil
}

// Reconcile compares the on-disk state to the metadata index and
// returns events for anything that changed while the watcher was
// paused (e.g. during a git operation).
func (s *Store) Reconcile(ctx context.Context) ([]Event, error) {
	var events []Event
	now := time.Now().Unix()
	seen := make(map[string]bool)

	err := filepath.WalkDir(s.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == s.config.SystemDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != ".md" || strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}

		relPath, err := filepath.Rel(s.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		seen[relPath] = true

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if _, hit := s.cache.Get(relPath, info.ModTime()); !hit {
			eType := EventModify
			if !s.cache.Has(relPath) {
				eType = EventCreate
			}
			events = append(events, Event{
				Type:      eType,
				ID:        strings.TrimSuffix(relPath, ".md"),
				Timestamp: now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Range(func(relPath string, _ *Summary) bool {
		if !seen[relPath] {
			events = append(events, Event{
				Type:      EventDelete,
				ID:        strings.TrimSuffix(relPath, ".md"),
				Timestamp: now,
			})
		}
		return true
	})

	s.recordReconcile()
	return events, nil
}

// Watch emits events for external changes matching the glob pattern.
// The channel closes when ctx is cancelled. Changes written through
// this store are suppressed by checksum so callers never see their own
// writes echoed back.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	events := make(chan Event, 16)

	w := newWatchWorker(s, pattern, events)
	if err := w.Start(ctx); err != nil {
		close(events)
		return nil, err
	}

	go func() {
		<-ctx.Done()
		_ = w.Stop(context.Background())
		close(events)
	}()

	return events, nil
}

// markSelfWrite records the checksum of content this store is about to
// write, so the watcher can drop the resulting filesystem event.
func (s *Store) markSelfWrite(relPath string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfWrites[filepath.ToSlash(relPath)] = sha256.Sum256(data)
}

func (s *Store) markSelfDelete(relPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfDeletes[filepath.ToSlash(relPath)] = true
}

// isSelfWrite reports whether the file's current content matches the
// checksum of our own last write. The record is consumed either way;
// a later external write to the same path must produce an event.
func (s *Store) isSelfWrite(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	s.mu.Lock()
	sum, ok := s.selfWrites[relPath]
	if ok {
		delete(s.selfWrites, relPath)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	data, err := os.ReadFile(filepath.Join(s.Path, filepath.FromSlash(relPath)))
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == sum
}

func (s *Store) isSelfDelete(relPath string) bool {
	relPath = filepath.ToSlash(relPath)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selfDeletes[relPath] {
		delete(s.selfDeletes, relPath)
		return true
	}
	return false
}
