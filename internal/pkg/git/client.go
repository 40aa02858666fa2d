// Package git reads staged repository state and records commits by running
// the git executable.
package git

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

// RepoState is the staged snapshot sent to the backend.
type RepoState struct {
	// Status holds short-format status lines for staged entries only.
	Status string
	// Diff is the staged diff, verbatim.
	Diff string
}

// HasStagedChanges reports whether anything is staged.
func (s RepoState) HasStagedChanges() bool {
	return strings.TrimSpace(s.Status) != ""
}

// FileStat is the numstat line for one staged file.
type FileStat struct {
	Path      string
	Additions int
	Deletions int
	IsBinary  bool
}

// DiffStats summarises the staged diff.
type DiffStats struct {
	TotalFiles     int
	TotalAdditions int
	TotalDeletions int
	Files          []FileStat
}

// Client defines the git operations gitcamus needs.
type Client interface {
	CheckRepository(ctx context.Context) error
	RepoRoot(ctx context.Context) (string, error)
	Status(ctx context.Context) string
	StagedDiff(ctx context.Context) string
	DiffStats(ctx context.Context) (*DiffStats, error)
	Commit(ctx context.Context, message string) error
}

// DefaultClient implements Client using exec.CommandContext.
//
// No timeout is applied to git itself; commands are bounded only by ctx.
type DefaultClient struct {
	// workDir is the working directory for git commands.
	// If empty, uses the current directory.
	workDir string
}

// NewClient creates a new DefaultClient.
func NewClient() *DefaultClient {
	return &DefaultClient{}
}

// NewClientWithWorkDir creates a new DefaultClient with a specific working directory.
func NewClientWithWorkDir(workDir string) *DefaultClient {
	return &DefaultClient{workDir: workDir}
}

func (c *DefaultClient) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}
	return cmd
}

// CheckRepository fails with ErrNotARepository outside a work tree.
func (c *DefaultClient) CheckRepository(ctx context.Context) error {
	out, err := c.command(ctx, "rev-parse", "--is-inside-work-tree").Output()
	if err != nil {
		return apperrors.NewNotARepositoryError(err)
	}
	if strings.TrimSpace(string(out)) != "true" {
		return apperrors.NewNotARepositoryError(nil)
	}
	return nil
}

// RepoRoot returns the top-level directory of the work tree.
func (c *DefaultClient) RepoRoot(ctx context.Context) (string, error) {
	cmd := c.command(ctx, "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", apperrors.NewGitError(err, string(exitErr.Stderr))
		}
		return "", apperrors.NewGitError(err, "")
	}
	return strings.TrimSpace(string(out)), nil
}

// Status returns the staged entries of `git status --short`.
// A failing git yields an empty string.
func (c *DefaultClient) Status(ctx context.Context) string {
	out, err := c.command(ctx, "status", "--short", "--untracked-files=no").Output()
	if err != nil {
		apperrors.Debug("git status failed: %v", err)
		return ""
	}
	return filterStaged(string(out))
}

// filterStaged keeps short-status lines whose index column records a change.
func filterStaged(status string) string {
	var kept []string
	for _, line := range strings.Split(status, "\n") {
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case ' ', '?', '!':
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}

// StagedDiff returns `git diff --cached` verbatim.
// A failing git yields an empty string.
func (c *DefaultClient) StagedDiff(ctx context.Context) string {
	out, err := c.command(ctx, "diff", "--cached").Output()
	if err != nil {
		apperrors.Debug("git diff --cached failed: %v", err)
		return ""
	}
	return string(out)
}

// DiffStats returns per-file addition and deletion counts for staged changes.
func (c *DefaultClient) DiffStats(ctx context.Context) (*DiffStats, error) {
	out, err := c.command(ctx, "diff", "--cached", "--numstat").Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, apperrors.NewGitError(err, string(exitErr.Stderr))
		}
		return nil, apperrors.NewGitError(err, "")
	}

	files := parseNumstat(out)
	stats := &DiffStats{
		TotalFiles: len(files),
		Files:      files,
	}
	for _, f := range files {
		stats.TotalAdditions += f.Additions
		stats.TotalDeletions += f.Deletions
	}
	return stats, nil
}

// Commit records the staged changes with message.
func (c *DefaultClient) Commit(ctx context.Context, message string) error {
	output, err := c.command(ctx, "commit", "-m", message).CombinedOutput()
	if err != nil {
		return apperrors.NewCommitError(err, string(output))
	}
	return nil
}

// parseNumstat parses `git diff --numstat` output.
// Format: additions<TAB>deletions<TAB>filepath
// Binary files show as: -<TAB>-<TAB>filepath
func parseNumstat(output []byte) []FileStat {
	var files []FileStat
	scanner := bufio.NewScanner(bytes.NewReader(output))

	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\t")
		if len(parts) < 3 {
			continue
		}

		addStr, delStr, path := parts[0], parts[1], parts[2]
		if strings.Contains(path, " => ") {
			path = extractNewPath(path)
		}

		stat := FileStat{Path: path}
		if addStr == "-" && delStr == "-" {
			stat.IsBinary = true
		} else {
			stat.Additions, _ = strconv.Atoi(addStr)
			stat.Deletions, _ = strconv.Atoi(delStr)
		}
		files = append(files, stat)
	}

	return files
}

var renameBraces = regexp.MustCompile(`\{([^}]*) => ([^}]*)\}`)

// extractNewPath resolves git rename notation to the destination path.
//   - "old.txt => new.txt" -> "new.txt"
//   - "{old => new}/file.txt" -> "new/file.txt"
//   - "dir/{old.txt => new.txt}" -> "dir/new.txt"
func extractNewPath(renamePath string) string {
	if !strings.Contains(renamePath, "{") {
		if _, after, ok := strings.Cut(renamePath, " => "); ok {
			return strings.TrimSpace(after)
		}
	}
	return strings.ReplaceAll(renameBraces.ReplaceAllString(renamePath, "$2"), "//", "/")
}
