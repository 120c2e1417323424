package session

import (
	"strconv"

	"github.com/google/uuid"
)

const (
	CategorySuccess = "success"
	CategoryDanger  = "danger"
	CategoryWarning = "warning"
	CategoryInfo    = "info"
)

type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// Session is the per-request view of the signed session cookie.
// Mutations mark it dirty; the cookie is rewritten only then.
type Session struct {
	userID  uint
	jti     string
	flashes []Flash
	dirty   bool
}

func (s *Session) UserID() (uint, bool) {
	return s.userID, s.userID != 0
}

// SetUser binds the session to a user and rotates its id.
func (s *Session) SetUser(id uint) {
	s.userID = id
	s.jti = uuid.NewString()
	s.dirty = true
}

// Clear drops the user binding and any pending flashes.
func (s *Session) Clear() {
	s.userID = 0
	s.jti = ""
	s.flashes = nil
	s.dirty = true
}

func (s *Session) AddFlash(category, message string) {
	s.flashes = append(s.flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns pending flashes in insertion order and empties the queue.
func (s *Session) PopFlashes() []Flash {
	if len(s.flashes) == 0 {
		return nil
	}
	out := s.flashes
	s.flashes = nil
	s.dirty = true
	return out
}

func (s *Session) Dirty() bool { return s.dirty }

func (s *Session) empty() bool {
	return s.userID == 0 && len(s.flashes) == 0
}

func (s *Session) subject() string {
	if s.userID == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(s.userID), 10)
}
