package library

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind represents the artifact content type.
type Kind string

const (
	KindDocument Kind = "document"
	KindImage    Kind = "image"
	KindSite     Kind = "site"
)

// Artifact is a generated output kept for the lifetime of a session.
//
// Payload by kind:
//   - document: data URI of the compiled PDF
//   - image: base64 of the image bytes (MIMEType tells the format)
//   - site: the raw reply text carrying the markup
type Artifact struct {
	ID        uuid.UUID
	Kind      Kind
	Title     string
	Author    string
	CreatedAt time.Time
	Payload   string
	MIMEType  string
	Pages     int // documents only
}

var ErrArtifactNotFound = errors.New("artifact not found")

// Library is an append-only, insertion-ordered artifact list.
// Site artifacts are deduplicated by exact payload; other kinds never are.
type Library struct {
	mu        sync.RWMutex
	artifacts []Artifact
	sites     map[string]struct{}
}

func New() *Library {
	return &Library{sites: make(map[string]struct{})}
}

// Add stores a and reports whether it was inserted. A zero ID or CreatedAt
// is filled in.
func (l *Library) Add(a Artifact) (Artifact, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a.Kind == KindSite {
		if _, exists := l.sites[a.Payload]; exists {
			return a, false
		}
		l.sites[a.Payload] = struct{}{}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	l.artifacts = append(l.artifacts, a)
	return a, true
}

// List returns a copy in insertion order.
func (l *Library) List() []Artifact {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Artifact, len(l.artifacts))
	copy(out, l.artifacts)
	return out
}

func (l *Library) Get(id uuid.UUID) (Artifact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, a := range l.artifacts {
		if a.ID == id {
			return a, nil
		}
	}
	return Artifact{}, ErrArtifactNotFound
}

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.artifacts)
}
