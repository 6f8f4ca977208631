package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/conorfennell/leitner/internal/domain"
)

type fakeDeck struct {
	cards   []domain.Card
	failAdd bool
}

func (f *fakeDeck) All(context.Context) []domain.Card { return f.cards }

func (f *fakeDeck) AddAll(_ context.Context, cards []domain.Card) error {
	if f.failAdd {
		return errors.New("save failed")
	}
	f.cards = append(f.cards, cards...)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestImportDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "geo.md"), "Q: Capital of France?\nA: Paris\nN: Europe\n---\nQ: Capital of Peru?\nA: Lima\n")
	writeFile(t, filepath.Join(root, "nested", "math.MD"), "Q: 7 x 8?\nA: 56\nQ: capital of france?\nA: paris\n")
	writeFile(t, filepath.Join(root, "readme.txt"), "Q: ignored\nA: ignored\n")
	writeFile(t, filepath.Join(root, ".git", "notes.md"), "Q: hidden\nA: hidden\n")

	deck := &fakeDeck{}
	im := New(deck)

	res, err := im.ImportDir(context.Background(), root)
	if err != nil {
		t.Fatalf("ImportDir() returned an unexpected error: %v", err)
	}
	if res.Files != 2 || res.Parsed != 4 || res.Added != 3 || res.Duplicates != 1 {
		t.Errorf("Unexpected result: %+v", res)
	}
	if len(deck.cards) != 3 {
		t.Fatalf("Expected 3 cards in the deck, but got %d", len(deck.cards))
	}
	expectedAt := filepath.Join(root, "nested", "math.MD") + ":3"
	if len(res.DuplicateAt) != 1 || res.DuplicateAt[0] != expectedAt {
		t.Errorf("Expected duplicate at %s, but got %v", expectedAt, res.DuplicateAt)
	}
	for _, c := range deck.cards {
		if c.Box != 1 || c.ID == "" {
			t.Errorf("Expected imported card in box 1 with an ID, got %+v", c)
		}
	}

	t.Run("second import adds nothing", func(t *testing.T) {
		res, err := im.ImportDir(context.Background(), root)
		if err != nil {
			t.Fatal(err)
		}
		if res.Added != 0 || res.Duplicates != 4 {
			t.Errorf("Unexpected result on re-import: %+v", res)
		}
		if len(deck.cards) != 3 {
			t.Errorf("Expected deck to still hold 3 cards, got %d", len(deck.cards))
		}
	})
}

func TestImportDirErrors(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := New(&fakeDeck{}).ImportDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
		if err == nil {
			t.Error("Expected an error for a missing directory")
		}
	})

	t.Run("save failure", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.md"), "Q: a\nA: b\n")
		_, err := New(&fakeDeck{failAdd: true}).ImportDir(context.Background(), root)
		if err == nil {
			t.Error("Expected an error when the deck cannot be saved")
		}
	})
}
