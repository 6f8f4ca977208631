package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

type cli struct {
	t  *testing.T
	db string
}

func newCLI(t *testing.T) *cli {
	return &cli{t: t, db: filepath.Join(t.TempDir(), "cli.db")}
}

func (c *cli) run(stdin string, args ...string) (int, string, string) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--config", "", "--db", c.db, "--log-level", "error"}, args...)
	code := run(context.Background(), full, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestUsage(t *testing.T) {
	c := newCLI(t)
	if code, _, errOut := c.run(""); code != 2 || !strings.Contains(errOut, "Commands:") {
		t.Errorf("Expected usage with exit code 2, got %d: %s", code, errOut)
	}
	if code, _, errOut := c.run("", "frobnicate"); code != 2 || !strings.Contains(errOut, "unknown command") {
		t.Errorf("Expected unknown command error, got %d: %s", code, errOut)
	}
}

func TestAddListDelete(t *testing.T) {
	c := newCLI(t)

	code, _, errOut := c.run("", "--seed=false", "add", "--front", "Capital of Japan?")
	if code != 1 || !strings.Contains(errOut, "front and the back") {
		t.Fatalf("Expected missing-field message, got %d: %s", code, errOut)
	}

	code, out, errOut := c.run("", "--seed=false", "add", "--front", "Capital of Japan?", "--back", "Tokyo")
	if code != 0 {
		t.Fatalf("add failed with %d: %s", code, errOut)
	}
	id := strings.TrimSpace(strings.TrimPrefix(out, "Added card "))

	_, out, _ = c.run("", "--seed=false", "list", "--box", "1")
	if !strings.Contains(out, "Capital of Japan?") || !strings.Contains(out, id) {
		t.Errorf("Expected card in box 1 listing, got:\n%s", out)
	}

	if code, _, errOut = c.run("", "--seed=false", "edit", id, "--back", "Tōkyō"); code != 0 {
		t.Fatalf("edit failed with %d: %s", code, errOut)
	}
	_, out, _ = c.run("", "--seed=false", "due")
	if !strings.Contains(out, "Tōkyō") {
		t.Errorf("Expected edited back in due listing, got:\n%s", out)
	}

	if code, _, _ = c.run("", "--seed=false", "delete", id); code != 0 {
		t.Fatalf("delete failed with %d", code)
	}
	if code, _, errOut = c.run("", "--seed=false", "delete", id); code != 1 || !strings.Contains(errOut, "no card") {
		t.Errorf("Expected not-found on second delete, got %d: %s", code, errOut)
	}
}

func TestReviewSeededDeck(t *testing.T) {
	c := newCLI(t)

	code, out, errOut := c.run("f\nc\nc\nc\nw\nw\nw\n", "review")
	if code != 0 {
		t.Fatalf("review failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Correct: 3  Wrong: 3  Score: 50%") {
		t.Errorf("Expected final score, got:\n%s", out)
	}

	_, out, _ = c.run("", "stats")
	if !strings.Contains(out, "Total: 6  Due: 0  Mastered: 0  In box 1: 3") {
		t.Errorf("Unexpected stats output:\n%s", out)
	}

	_, out, _ = c.run("", "history", "--limit", "0")
	if got := strings.Count(out, "correct"); got != 3 {
		t.Errorf("Expected 3 correct answers in history, got %d:\n%s", got, out)
	}

	_, out, _ = c.run("", "review")
	if !strings.Contains(out, "Nothing due") {
		t.Errorf("Expected nothing due after the session, got:\n%s", out)
	}
}

func TestReviewQuitSavesNothing(t *testing.T) {
	c := newCLI(t)

	_, out, _ := c.run("c\nq\n", "review")
	if !strings.Contains(out, "nothing saved") {
		t.Errorf("Expected abandon message, got:\n%s", out)
	}
	_, out, _ = c.run("", "stats")
	if !strings.Contains(out, "Due: 6") {
		t.Errorf("Expected every card still due, got:\n%s", out)
	}
}

func TestImport(t *testing.T) {
	c := newCLI(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "deck.md"), []byte("Q: 2+2?\nA: 4\n---\nQ: 3+3?\nA: 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := c.run("", "--seed=false", "import", dir)
	if code != 0 {
		t.Fatalf("import failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Imported 2 new cards") {
		t.Errorf("Unexpected import output: %s", out)
	}

	_, out, _ = c.run("", "--seed=false", "import", dir)
	if !strings.Contains(out, "Imported 0 new cards") {
		t.Errorf("Expected re-import to add nothing, got: %s", out)
	}
}

func TestImportFromGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed; local clones need git-upload-pack")
	}

	src := t.TempDir()
	repo, err := git.PlainInit(src, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "deck.md"), []byte("Q: 5+5?\nA: 10\n---\nQ: 5+5?\nA: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add("deck.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Commit("deck", &git.CommitOptions{
		Author: &object.Signature{Name: "Deck Author", Email: "author@example.com", When: time.Now()},
	}); err != nil {
		t.Fatal(err)
	}

	c := newCLI(t)
	repos := t.TempDir()
	code, out, errOut := c.run("", "--seed=false", "--repos", repos, "import", "file://"+src)
	if code != 0 {
		t.Fatalf("import failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Imported 1 new cards") {
		t.Errorf("Unexpected import output: %s", out)
	}
	if !strings.Contains(out, "deck.md:4") {
		t.Errorf("Expected the duplicate location in the output, got: %s", out)
	}

	code, out, errOut = c.run("", "--seed=false", "--repos", repos, "import", "file://"+src)
	if code != 0 {
		t.Fatalf("second import failed with %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Imported 0 new cards") {
		t.Errorf("Expected the pulled checkout to add nothing, got: %s", out)
	}
}
