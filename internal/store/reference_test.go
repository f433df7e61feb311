package store

import (
	"errors"
	"testing"

	"github.com/ayusman/lungescore/internal/reference"
)

func TestReferenceRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	repo := s.References()

	ref := &Reference{ID: "ref-1", Name: "coach", Description: "recorded by the coach"}
	if err := repo.Create(ref); err != nil {
		t.Fatalf("failed to create reference: %v", err)
	}
	if ref.CreatedAt.IsZero() || ref.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID("ref-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "coach" || got.Description != "recorded by the coach" || got.Frequency != 0 {
		t.Errorf("GetByID = %+v", got)
	}

	byName, err := repo.GetByName("coach")
	if err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if byName.ID != "ref-1" {
		t.Errorf("GetByName ID = %q, want ref-1", byName.ID)
	}

	got.Name = "coach-v2"
	if err := repo.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := repo.GetByName("coach-v2"); err != nil {
		t.Errorf("renamed reference should be found: %v", err)
	}

	if err := repo.Delete("ref-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID("ref-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrNotFound", err)
	}
}

func TestReferenceRepository_NotFound(t *testing.T) {
	repo := newTestStore(t).References()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"get by id", func() error { _, err := repo.GetByID("nope"); return err }},
		{"get by name", func() error { _, err := repo.GetByName("nope"); return err }},
		{"update", func() error { return repo.Update(&Reference{ID: "nope", Name: "x"}) }},
		{"delete", func() error { return repo.Delete("nope") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, ErrNotFound) {
				t.Errorf("got %v, want ErrNotFound", err)
			}
		})
	}
}

func TestReferenceRepository_DuplicateName(t *testing.T) {
	repo := newTestStore(t).References()

	if err := repo.Create(&Reference{ID: "a", Name: "same"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := repo.Create(&Reference{ID: "b", Name: "same"}); err == nil {
		t.Error("duplicate name should be rejected")
	}
}

func TestReferenceRepository_List(t *testing.T) {
	repo := newTestStore(t).References()

	refs, err := repo.List()
	if err != nil {
		t.Fatalf("List on empty store: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no references, got %d", len(refs))
	}

	for _, name := range []string{"a", "b", "c"} {
		if err := repo.Create(&Reference{ID: "id-" + name, Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	refs, err = repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(refs) != 3 {
		t.Errorf("expected 3 references, got %d", len(refs))
	}
}

func TestWaveformRepository_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	if err := s.References().Create(&Reference{ID: "ref-1", Name: "lunge"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	want := reference.Lunge(12, reference.DefaultRanges)
	if err := s.Waveforms().Save("ref-1", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Waveforms().Get("ref-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for j := range want {
		if len(got[j]) != len(want[j]) {
			t.Fatalf("joint %d: got %d samples, want %d", j, len(got[j]), len(want[j]))
		}
		for i := range want[j] {
			if got[j][i] != want[j][i] {
				t.Errorf("joint %d sample %d: got %v, want %v", j, i, got[j][i], want[j][i])
			}
		}
	}

	ref, err := s.References().GetByID("ref-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if ref.Frequency != 12 {
		t.Errorf("Frequency = %d, want 12", ref.Frequency)
	}

	// Saving again replaces rather than appends.
	if err := s.Waveforms().Save("ref-1", reference.Lunge(6, reference.DefaultRanges)); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	got, err = s.Waveforms().Get("ref-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Len() != 6 {
		t.Errorf("Len after replace = %d, want 6", got.Len())
	}
}

func TestWaveformRepository_Errors(t *testing.T) {
	s := newTestStore(t)
	if err := s.References().Create(&Reference{ID: "ref-1", Name: "lunge"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Waveforms().Get("ref-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get without waveform = %v, want ErrNotFound", err)
	}

	if err := s.Waveforms().Save("missing", reference.Lunge(4, reference.DefaultRanges)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Save to unknown reference = %v, want ErrNotFound", err)
	}

	ragged := reference.Lunge(4, reference.DefaultRanges)
	ragged[2] = ragged[2][:3]
	if err := s.Waveforms().Save("ref-1", ragged); err == nil {
		t.Error("ragged waveform should be rejected")
	}
}

func TestWaveformRepository_CascadeDelete(t *testing.T) {
	s := newTestStore(t)
	if err := s.References().Create(&Reference{ID: "ref-1", Name: "lunge"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Waveforms().Save("ref-1", reference.Lunge(4, reference.DefaultRanges)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.References().Delete("ref-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM ref_values`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected values to cascade, %d remain", n)
	}
}

func TestStore_Load(t *testing.T) {
	s := newTestStore(t)
	if err := s.References().Create(&Reference{ID: "ref-1", Name: "coach"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Waveforms().Save("ref-1", reference.Lunge(5, reference.DefaultRanges)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	for _, key := range []string{"ref-1", "coach"} {
		ref, set, err := s.Load(key)
		if err != nil {
			t.Fatalf("Load(%q): %v", key, err)
		}
		if ref.ID != "ref-1" || set.Len() != 5 {
			t.Errorf("Load(%q) = %s with %d samples", key, ref.ID, set.Len())
		}
	}

	if _, _, err := s.Load("nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(unknown) = %v, want ErrNotFound", err)
	}
}
