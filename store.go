package studypartner

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrMaterialNotFound is returned for operations on unknown ids.
	ErrMaterialNotFound = errors.New("material not found")

	// ErrEmptyMaterial is returned when the pasted text is blank.
	ErrEmptyMaterial = errors.New("material text is empty")
)

// QuizStore is the in-process registry of study materials and their
// generated quizzes. A quiz shares its material's id, so deleting the
// material always removes the quiz in the same step and no quiz can
// outlive its source. Ids are uuids rather than positions: removing one
// material never shifts another's key.
type QuizStore struct {
	mu        sync.RWMutex
	materials map[string]Material
	quizzes   map[string]*Quiz
	order     []string // material ids, insertion order
}

// NewQuizStore creates an empty store.
func NewQuizStore() *QuizStore {
	return &QuizStore{
		materials: make(map[string]Material),
		quizzes:   make(map[string]*Quiz),
	}
}

// AddMaterial stores a pasted study text under a fresh id. The text is
// trimmed and truncated to the MaxMaterialChars bound.
func (s *QuizStore) AddMaterial(text string) (Material, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Material{}, ErrEmptyMaterial
	}

	m := Material{
		ID:        uuid.NewString(),
		Text:      truncateChars(text, MaxMaterialChars),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials[m.ID] = m
	s.order = append(s.order, m.ID)
	return m, nil
}

// Material returns a stored material by id.
func (s *QuizStore) Material(id string) (Material, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.materials[id]
	return m, ok
}

// Materials returns all materials in insertion order.
func (s *QuizStore) Materials() []Material {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Material, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.materials[id])
	}
	return out
}

// PutQuiz inserts or wholesale-replaces the quiz for a material.
// Regeneration goes through here: the old quiz is gone the moment the
// new one lands.
func (s *QuizStore) PutQuiz(materialID string, quiz *Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.materials[materialID]; !ok {
		return ErrMaterialNotFound
	}
	s.quizzes[materialID] = quiz
	return nil
}

// Quiz returns the generated quiz for a material, if one exists.
func (s *QuizStore) Quiz(materialID string) (*Quiz, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[materialID]
	return q, ok
}

// DeleteMaterial removes a material and its quiz under one lock.
func (s *QuizStore) DeleteMaterial(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.materials[id]; !ok {
		return false
	}
	delete(s.materials, id)
	delete(s.quizzes, id)
	for i, mid := range s.order {
		if mid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every material and quiz.
func (s *QuizStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.materials = make(map[string]Material)
	s.quizzes = make(map[string]*Quiz)
	s.order = nil
}

// Len returns the number of stored materials.
func (s *QuizStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// QuizCount returns the number of generated quizzes.
func (s *QuizStore) QuizCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quizzes)
}
