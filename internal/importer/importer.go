// Package importer adds cards from markdown deck files to the deck.
package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/leitner/internal/domain"
	"github.com/conorfennell/leitner/internal/fingerprint"
	"github.com/conorfennell/leitner/internal/parser"
)

// Deck is the part of the card service the importer needs.
type Deck interface {
	All(ctx context.Context) []domain.Card
	AddAll(ctx context.Context, cards []domain.Card) error
}

// Result reports what an import did.
type Result struct {
	Files      int
	Parsed     int
	Added      int
	Duplicates int
	// DuplicateAt lists "path:line" for every skipped duplicate.
	DuplicateAt []string
	Errors      []error
}

// Importer walks directories of .md files and adds unseen cards.
type Importer struct {
	deck Deck
	now  func() time.Time
}

// New creates an importer writing into deck.
func New(deck Deck) *Importer {
	return &Importer{deck: deck, now: time.Now}
}

// ImportDir parses every .md file under root. Cards whose front and back already
// exist in the deck, or earlier in the same import, are skipped.
// Parse errors are collected in the result; only a failing walk or save aborts.
func (im *Importer) ImportDir(ctx context.Context, root string) (Result, error) {
	var res Result

	seen := make(map[string]bool)
	for _, c := range im.deck.All(ctx) {
		seen[fingerprint.Of(c.Front, c.Back)] = true
	}

	now := im.now()
	var added []domain.Card

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		res.Files++
		entries, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			res.Errors = append(res.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		for _, e := range entries {
			res.Parsed++
			fp := fingerprint.Of(e.Front, e.Back)
			if seen[fp] {
				at := fmt.Sprintf("%s:%d", path, e.Line)
				slog.Debug("Duplicate card skipped", "at", at)
				res.Duplicates++
				res.DuplicateAt = append(res.DuplicateAt, at)
				continue
			}
			seen[fp] = true
			added = append(added, domain.NewCard(e.Front, e.Back, e.Note, now))
		}
		return nil
	})
	if walkErr != nil {
		return res, fmt.Errorf("failed to walk %s: %w", root, walkErr)
	}

	if err := im.deck.AddAll(ctx, added); err != nil {
		return res, fmt.Errorf("failed to add imported cards: %w", err)
	}
	res.Added = len(added)

	slog.Info("Import complete",
		"path", root,
		"files", res.Files,
		"parsed", res.Parsed,
		"added", res.Added,
		"duplicates", res.Duplicates,
		"errors", len(res.Errors),
	)
	return res, nil
}
