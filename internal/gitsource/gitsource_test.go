package gitsource

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{"https", "https://github.com/owner/decks.git", filepath.Join("repos", "github.com", "owner", "decks"), false},
		{"https without suffix", "https://example.org/team/cards", filepath.Join("repos", "example.org", "team", "cards"), false},
		{"scp style", "git@github.com:owner/decks.git", filepath.Join("repos", "github.com", "owner", "decks"), false},
		{"local path", "/home/me/decks", "", true},
		{"garbage", "not a url", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				if err == nil {
					t.Errorf("Expected an error for %q, but got path %q", tc.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocalPath() returned an unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestIsGitURL(t *testing.T) {
	for _, s := range []string{"https://x/y.git", "git@host:a/b", "file.git"} {
		if !IsGitURL(s) {
			t.Errorf("Expected %q to be treated as a git URL", s)
		}
	}
	for _, s := range []string{"./decks", "/abs/path", "decks"} {
		if IsGitURL(s) {
			t.Errorf("Expected %q to be treated as a local path", s)
		}
	}
}

func TestLocalPathRejectsEscapes(t *testing.T) {
	for _, u := range []string{
		"https://github.com/../../etc",
		"git@github.com:../../outside.git",
		"https://../x.git",
		"file:///../..",
	} {
		if got, err := LocalPath("repos", u); err == nil {
			t.Errorf("Expected %q to be rejected, but got path %q", u, got)
		}
	}

	got, err := LocalPath("repos", "file:///srv/decks.git")
	if err != nil {
		t.Fatalf("LocalPath() returned an unexpected error: %v", err)
	}
	if expected := filepath.Join("repos", "file", "srv", "decks"); got != expected {
		t.Errorf("Expected '%s', but got '%s'", expected, got)
	}
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		if _, err := exec.LookPath("git"); err != nil {
			t.Skip("git is not installed; local clones need git-upload-pack")
		}
	}
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatal(err)
	}
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Deck Author", Email: "author@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSyncClonesThenPulls(t *testing.T) {
	requireGit(t)

	src := t.TempDir()
	repo, err := git.PlainInit(src, false)
	if err != nil {
		t.Fatalf("PlainInit() returned an unexpected error: %v", err)
	}
	commitFile(t, repo, src, "geo.md", "Q: Capital of France?\nA: Paris\n")

	dst := filepath.Join(t.TempDir(), "checkout")
	ctx := context.Background()

	if err := Sync(ctx, src, dst, nil); err != nil {
		t.Fatalf("first Sync() returned an unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "geo.md")); err != nil {
		t.Fatalf("Expected geo.md in the clone: %v", err)
	}

	commitFile(t, repo, src, "math.md", "Q: 7 x 8?\nA: 56\n")
	if err := Sync(ctx, src, dst, nil); err != nil {
		t.Fatalf("second Sync() returned an unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "math.md")); err != nil {
		t.Errorf("Expected math.md after pulling: %v", err)
	}

	if err := Sync(ctx, src, dst, nil); err != nil {
		t.Errorf("Expected an up-to-date pull to succeed, but got %v", err)
	}
}

func TestSyncExistingNonRepo(t *testing.T) {
	dst := t.TempDir()
	if err := Sync(context.Background(), "https://example.invalid/decks.git", dst, nil); err == nil {
		t.Error("Expected an error when the checkout path is not a repository")
	}
}
