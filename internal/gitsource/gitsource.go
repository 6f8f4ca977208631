// Package gitsource keeps local checkouts of git repositories that hold deck files.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// IsGitURL reports whether source looks like a remote repository rather than a local path.
func IsGitURL(source string) bool {
	return strings.HasSuffix(source, ".git") ||
		strings.HasPrefix(source, "git@") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "file://")
}

// LocalPath maps a repository URL to a checkout directory under baseDir.
// https, file and scp-like "git@host:owner/repo.git" forms are accepted.
// URLs whose path would escape baseDir are rejected.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil {
		switch {
		case (parsed.Scheme == "https" || parsed.Scheme == "http") && parsed.Host != "":
			return within(baseDir, repoURL, parsed.Host, strings.TrimSuffix(parsed.Path, ".git"))
		case parsed.Scheme == "file" && parsed.Path != "":
			return within(baseDir, repoURL, "file", strings.TrimSuffix(parsed.Path, ".git"))
		}
	}

	userHost, repoPath, ok := strings.Cut(repoURL, ":")
	if ok {
		if _, host, ok := strings.Cut(userHost, "@"); ok && host != "" && repoPath != "" {
			return within(baseDir, repoURL, host, strings.TrimSuffix(repoPath, ".git"))
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}

// within joins parts under baseDir and fails unless the result is strictly inside it.
func within(baseDir, repoURL string, parts ...string) (string, error) {
	path := filepath.Join(append([]string{baseDir}, parts...)...)
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("git URL %s escapes %s", repoURL, baseDir)
	}
	return path, nil
}

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does.
func Sync(ctx context.Context, repoURL, localPath string, progress io.Writer) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("Cloning repository", "url", repoURL, "path", localPath)
		if _, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      repoURL,
			Progress: progress,
		}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
	case err == nil:
		slog.Info("Pulling repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}
