package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAddAndQuery(t *testing.T) {
	s := tempStore(t)
	if seq, err := s.NextSeq(); seq != 1 || err != nil {
		t.Errorf("NextSeq on empty store = %d, %v, want 1, nil", seq, err)
	}
	for _, text := range []string{"foo: 1", "bar: foo", "print bar"} {
		if _, err := s.Add(text); err != nil {
			t.Fatalf("Add(%q): %v", text, err)
		}
	}
	if text, err := s.Input(2); text != "bar: foo" || err != nil {
		t.Errorf("Input(2) = %q, %v", text, err)
	}
	inputs, err := s.Inputs(1, 3)
	if err != nil {
		t.Fatalf("Inputs(1, 3): %v", err)
	}
	want := []Input{{Text: "foo: 1", Seq: 1}, {Text: "bar: foo", Seq: 2}}
	if diff := cmp.Diff(want, inputs); diff != "" {
		t.Errorf("Inputs(1, 3) (-want +got):\n%s", diff)
	}
}

func TestPrefixSearch(t *testing.T) {
	s := tempStore(t)
	for _, text := range []string{"foo: 1", "bar: foo", "foo: 2"} {
		s.Add(text)
	}
	if got, err := s.PrevInput(4, "foo"); err != nil || got.Seq != 3 {
		t.Errorf("PrevInput(4, foo) = %v, %v, want seq 3", got, err)
	}
	if got, err := s.PrevInput(3, "foo"); err != nil || got.Seq != 1 {
		t.Errorf("PrevInput(3, foo) = %v, %v, want seq 1", got, err)
	}
	if got, err := s.NextInput(2, "foo"); err != nil || got.Seq != 3 {
		t.Errorf("NextInput(2, foo) = %v, %v, want seq 3", got, err)
	}
	if _, err := s.PrevInput(1, "foo"); !errors.Is(err, ErrNoMatchingInput) {
		t.Errorf("PrevInput(1, foo) err = %v, want ErrNoMatchingInput", err)
	}
}

func TestDel(t *testing.T) {
	s := tempStore(t)
	seq, _ := s.Add("secret: 42")
	if err := s.Del(seq); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := s.Input(seq); !errors.Is(err, ErrNoMatchingInput) {
		t.Errorf("Input after Del err = %v, want ErrNoMatchingInput", err)
	}
}
