// Package parser reads decks written in a small markdown convention:
//
//	Q: front of the card
//	A: back of the card,
//	   possibly over several lines
//	N: optional note
//	---
//
// A new "Q:" line or a "---" separator ends the current card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Entry is one card read from a deck file.
type Entry struct {
	Front string
	Back  string
	Note  string
	Line  int // line of the Q: prefix
}

type field int

const (
	none field = iota
	front
	back
	note
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", front},
	{"A:", back},
	{"N:", note},
}

// ParseFile reads a deck file from the given path.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads entries from r. Entries without a front or back are dropped.
func Parse(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var (
		entries []Entry
		current Entry
		active  = none
		block   []string
		lineNo  int
	)

	flushBlock := func() {
		if active == none || len(block) == 0 {
			block = nil
			return
		}
		content := strings.TrimRight(strings.Join(block, "\n"), "\n ")
		switch active {
		case front:
			current.Front = content
		case back:
			current.Back = content
		case note:
			current.Note = content
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Front != "" && current.Back != "" {
			entries = append(entries, current)
		}
		current = Entry{}
		active = none
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.TrimSpace(line) == "---" {
			finishEntry()
			continue
		}

		f, rest, ok := matchPrefix(line)
		if !ok {
			if active != none {
				block = append(block, line)
			}
			continue
		}

		if f == front {
			finishEntry()
			current.Line = lineNo
		} else {
			flushBlock()
		}
		active = f
		block = append(block, rest)
	}
	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func matchPrefix(line string) (field, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.field, strings.TrimPrefix(rest, " "), true
		}
	}
	return none, "", false
}
