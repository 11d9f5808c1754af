package store

import (
	"sync"
	"time"

	"aether-base-be/internal/entity"
	"aether-base-be/pkg/library"
	"aether-base-be/pkg/llm"

	"github.com/google/uuid"
)

// Session is the state of one conversation. All mutation goes through the
// orchestrator; readers take Snapshot.
type Session struct {
	mu sync.RWMutex

	Id        uuid.UUID
	CreatedAt time.Time

	turns        []entity.Turn
	auth         entity.AuthState
	documentMode bool
	progress     int
	loading      bool
	loginPrompt  bool
	libraryOpen  bool

	library *library.Library
	chat    llm.ChatSession
}

func NewSession() *Session {
	return &Session{
		Id:        uuid.New(),
		CreatedAt: time.Now(),
		auth:      entity.AuthState{Status: entity.AuthStatusLoggedOut},
		library:   library.New(),
	}
}

// Snapshot is an immutable copy of the session for presentation.
type Snapshot struct {
	SessionId    uuid.UUID
	Turns        []entity.Turn
	Auth         entity.AuthState
	DocumentMode bool
	Progress     int
	Loading      bool
	LoginPrompt  bool
	LibraryOpen  bool
	Artifacts    []library.Artifact
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]entity.Turn, len(s.turns))
	copy(turns, s.turns)

	return Snapshot{
		SessionId:    s.Id,
		Turns:        turns,
		Auth:         s.auth,
		DocumentMode: s.documentMode,
		Progress:     s.progress,
		Loading:      s.loading,
		LoginPrompt:  s.loginPrompt,
		LibraryOpen:  s.libraryOpen,
		Artifacts:    s.library.List(),
	}
}

func (s *Session) Library() *library.Library {
	return s.library
}

// --- Turns ---

// AppendTurn assigns an id and timestamp and appends t.
func (s *Session) AppendTurn(t entity.Turn) entity.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Id == uuid.Nil {
		t.Id = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.turns = append(s.turns, t)
	return t
}

func (s *Session) indexOf(id uuid.UUID) int {
	for i := range s.turns {
		if s.turns[i].Id == id {
			return i
		}
	}
	return -1
}

// UpdateTurnText replaces the text of a turn that is still streaming.
func (s *Session) UpdateTurnText(id uuid.UUID, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || !s.turns[i].Streaming {
		return false
	}
	s.turns[i].Text = text
	return true
}

// ResolveTurn sets the final text and attachment and ends streaming.
func (s *Session) ResolveTurn(id uuid.UUID, text string, attachment *entity.Attachment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 || !s.turns[i].Streaming {
		return false
	}
	s.turns[i].Text = text
	s.turns[i].Attachment = attachment
	s.turns[i].Streaming = false
	return true
}

// SettleTurn ends streaming and keeps whatever text the turn has.
func (s *Session) SettleTurn(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.turns[i].Streaming = false
	}
}

// SettleAll ends streaming on every turn. Returns how many were still open.
func (s *Session) SettleAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for i := range s.turns {
		if s.turns[i].Streaming {
			s.turns[i].Streaming = false
			n++
		}
	}
	return n
}

func (s *Session) Turns() []entity.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]entity.Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// --- Flags ---

// BeginGeneration takes the loading lock. It returns false when a
// generation is already running.
func (s *Session) BeginGeneration() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return false
	}
	s.loading = true
	return true
}

func (s *Session) EndGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
}

func (s *Session) DocumentMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentMode
}

func (s *Session) SetDocumentMode(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentMode = active
}

func (s *Session) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// SetProgress clamps percent into [0, 100].
func (s *Session) SetProgress(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = percent
}

func (s *Session) SetLoginPrompt(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginPrompt = visible
}

func (s *Session) LoginPrompt() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loginPrompt
}

func (s *Session) SetLibraryOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.libraryOpen = open
}

// --- Model handle ---

func (s *Session) ChatSession() llm.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat
}

func (s *Session) SetChatSession(chat llm.ChatSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = chat
}

// ResetConversation clears turns, the document mode and the model handle.
// Auth and the library survive.
func (s *Session) ResetConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetConversationLocked()
}

func (s *Session) resetConversationLocked() {
	s.turns = nil
	s.documentMode = false
	s.progress = 0
	s.chat = nil
}
