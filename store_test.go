package studypartner

import (
	"errors"
	"strings"
	"testing"
)

func TestAddMaterialTrimsAndTruncates(t *testing.T) {
	store := NewQuizStore()

	m, err := store.AddMaterial("  padded text  ")
	if err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}
	if m.Text != "padded text" {
		t.Errorf("text = %q, want trimmed", m.Text)
	}

	long, err := store.AddMaterial(strings.Repeat("x", MaxMaterialChars+100))
	if err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}
	if len(long.Text) != MaxMaterialChars {
		t.Errorf("stored %d chars, want %d", len(long.Text), MaxMaterialChars)
	}
}

func TestAddMaterialRejectsBlank(t *testing.T) {
	store := NewQuizStore()
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := store.AddMaterial(text); !errors.Is(err, ErrEmptyMaterial) {
			t.Errorf("AddMaterial(%q) error = %v, want ErrEmptyMaterial", text, err)
		}
	}
}

func TestMaterialsInsertionOrder(t *testing.T) {
	store := NewQuizStore()
	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		if _, err := store.AddMaterial(text); err != nil {
			t.Fatalf("AddMaterial: %v", err)
		}
	}

	materials := store.Materials()
	if len(materials) != len(texts) {
		t.Fatalf("got %d materials, want %d", len(materials), len(texts))
	}
	for i, m := range materials {
		if m.Text != texts[i] {
			t.Errorf("position %d = %q, want %q", i, m.Text, texts[i])
		}
	}
}

func TestPutQuizUnknownMaterial(t *testing.T) {
	store := NewQuizStore()
	err := store.PutQuiz("nope", &Quiz{ID: "q"})
	if !errors.Is(err, ErrMaterialNotFound) {
		t.Fatalf("error = %v, want ErrMaterialNotFound", err)
	}
}

func TestDeleteMaterialRemovesQuiz(t *testing.T) {
	store := NewQuizStore()
	m, _ := store.AddMaterial("text")
	if err := store.PutQuiz(m.ID, &Quiz{ID: "q", MaterialID: m.ID}); err != nil {
		t.Fatalf("PutQuiz: %v", err)
	}

	if !store.DeleteMaterial(m.ID) {
		t.Fatal("DeleteMaterial returned false for a known id")
	}
	if _, ok := store.Material(m.ID); ok {
		t.Error("material still present after delete")
	}
	if _, ok := store.Quiz(m.ID); ok {
		t.Error("quiz outlived its material")
	}
	if store.DeleteMaterial(m.ID) {
		t.Error("second delete of the same id reported success")
	}
}

func TestDeleteLeavesOtherMaterialsAlone(t *testing.T) {
	store := NewQuizStore()
	a, _ := store.AddMaterial("keep me")
	b, _ := store.AddMaterial("delete me")
	c, _ := store.AddMaterial("keep me too")

	store.DeleteMaterial(b.ID)

	materials := store.Materials()
	if len(materials) != 2 {
		t.Fatalf("got %d materials, want 2", len(materials))
	}
	if materials[0].ID != a.ID || materials[1].ID != c.ID {
		t.Error("surviving materials lost their order or identity")
	}
}

func TestClearEmptiesStore(t *testing.T) {
	store := NewQuizStore()
	m, _ := store.AddMaterial("text")
	store.PutQuiz(m.ID, &Quiz{ID: "q", MaterialID: m.ID})

	store.Clear()

	if store.Len() != 0 || store.QuizCount() != 0 {
		t.Errorf("len=%d quizzes=%d after Clear, want 0/0", store.Len(), store.QuizCount())
	}
}
