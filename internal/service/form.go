package service

import (
	"sync"

	"github.com/google/uuid"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
)

// FormService tracks open form sessions. Each session owns its own
// activity-code registry so concurrent clients never see each other's
// in-progress edits.
type FormService struct {
	mu    sync.RWMutex
	forms map[string]*ActivityRegistry
}

func NewFormService() *FormService {
	return &FormService{forms: make(map[string]*ActivityRegistry)}
}

// Open starts a new form session and returns its id.
func (s *FormService) Open() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	s.forms[id] = NewActivityRegistry()
	return id
}

// Registry returns the activity registry for a form session.
func (s *FormService) Registry(formID string) (*ActivityRegistry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.forms[formID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "form", ID: formID}
	}
	return r, nil
}

// Close discards a form session.
func (s *FormService) Close(formID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forms, formID)
}
