package artifacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"github.com/reelbridge/reelbridge/internal/logger"
)

type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var extensions = map[Kind]string{
	KindVideo: ".mp4",
	KindAudio: ".mp3",
}

// Artifact is a temporary file owned by a single request.
type Artifact struct {
	Path string
	Kind Kind
}

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Workspace hands out per-request artifact paths under one directory.
type Workspace struct {
	dir    string
	remove func(string) error
}

type Option func(*Workspace)

// WithRemoveFunc replaces os.Remove for artifact cleanup.
func WithRemoveFunc(remove func(string) error) Option {
	return func(w *Workspace) {
		w.remove = remove
	}
}

// NewWorkspace creates dir if needed.
func NewWorkspace(dir string, opts ...Option) (*Workspace, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "reelbridge")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	w := &Workspace{dir: dir, remove: os.Remove}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Scope tracks the artifacts acquired for one request.
type Scope struct {
	ws     *Workspace
	prefix string

	mu       sync.Mutex
	acquired []Artifact
}

// NewScope starts a scope for one invocation. requestID only makes the file
// names traceable in logs; every scope adds its own random part, so two
// scopes never share a path even when given the same ID.
func (w *Workspace) NewScope(requestID string) *Scope {
	prefix := uuid.NewString()
	if id := unsafeID.ReplaceAllString(requestID, "_"); id != "" {
		prefix = id + "-" + prefix
	}
	return &Scope{ws: w, prefix: prefix}
}

// Acquire reserves the path for kind. The file itself is created by whoever
// writes it.
func (s *Scope) Acquire(kind Kind) (Artifact, error) {
	ext, ok := extensions[kind]
	if !ok {
		return Artifact{}, fmt.Errorf("unknown artifact kind %q", kind)
	}
	a := Artifact{
		Path: filepath.Join(s.ws.dir, fmt.Sprintf("%s-%s%s", s.prefix, kind, ext)),
		Kind: kind,
	}

	s.mu.Lock()
	s.acquired = append(s.acquired, a)
	s.mu.Unlock()
	return a, nil
}

// Release removes every acquired artifact. Each removal is attempted
// independently; a missing file is not an error.
func (s *Scope) Release(ctx context.Context) error {
	s.mu.Lock()
	acquired := s.acquired
	s.acquired = nil
	s.mu.Unlock()

	log := slog.Default().With(logger.WithTraceContext(ctx))
	var errs []error
	for _, a := range acquired {
		if err := s.ws.remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("Failed to remove temporary artifact",
				"path", a.Path,
				"kind", string(a.Kind),
				"error", err)
			errs = append(errs, fmt.Errorf("remove %s: %w", a.Path, err))
			continue
		}
		log.Debug("Removed temporary artifact", "path", a.Path, "kind", string(a.Kind))
	}
	return errors.Join(errs...)
}
