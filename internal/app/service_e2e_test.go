package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitcamus/gitcamus/internal/pkg/ai"
	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
	"github.com/gitcamus/gitcamus/internal/pkg/git"
	"github.com/gitcamus/gitcamus/internal/pkg/ui"
)

func runGit(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
	return string(output)
}

func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test\n"), 0644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial commit")
	return dir
}

// ollamaStub answers /api/chat with reply and counts requests.
func ollamaStub(t *testing.T, reply string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		var req ai.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

type e2e struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
	calls  int32
}

func (e *e2e) run(t *testing.T, reply string, opts *Options) error {
	srv := ollamaStub(t, reply, &e.calls)
	cfg := testConfig()
	cfg.Ollama.Host = srv.URL
	presenter := ui.NewPresenter(&e.stdout, &e.stderr, false, false)
	svc := NewCommitService(git.NewClientWithWorkDir(e.dir), StaticProvider(ai.NewOllamaProvider(ai.ProviderConfig{Host: srv.URL, Model: "llama3.2"})), presenter, cfg)
	return svc.Run(context.Background(), opts)
}

func TestEndToEnd_ShowDoesNotCommit(t *testing.T) {
	e := &e2e{dir: setupRepo(t)}
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "main.go"), []byte("package main\n"), 0644))
	runGit(t, e.dir, "add", "main.go")

	err := e.run(t, `{"message":{"role":"assistant","content":"  The absurd begins with a main package.\n"}}`, &Options{Show: true})
	require.NoError(t, err)

	assert.Equal(t, "The absurd begins with a main package.\n", e.stdout.String())
	assert.Equal(t, int32(1), e.calls)
	assert.Equal(t, "1", strings.TrimSpace(runGit(t, e.dir, "rev-list", "--count", "HEAD")))
}

func TestEndToEnd_Commit(t *testing.T) {
	e := &e2e{dir: setupRepo(t)}
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "main.go"), []byte("package main\n"), 0644))
	runGit(t, e.dir, "add", "main.go")

	err := e.run(t, `{"message":{"content":"One must imagine the compiler happy."}}`, &Options{})
	require.NoError(t, err)

	assert.Empty(t, e.stdout.String())
	assert.Contains(t, e.stderr.String(), "Committed with message: One must imagine the compiler happy.")
	assert.Equal(t, "One must imagine the compiler happy.", strings.TrimSpace(runGit(t, e.dir, "log", "-1", "--format=%B")))
}

func TestEndToEnd_NothingStaged(t *testing.T) {
	e := &e2e{dir: setupRepo(t)}
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "untracked.txt"), []byte("x\n"), 0644))

	err := e.run(t, `{"message":{"content":"unused"}}`, &Options{})
	require.NoError(t, err)

	assert.Equal(t, int32(0), e.calls)
	assert.Equal(t, ui.NoChangesMessage+"\n", e.stderr.String())
	assert.Empty(t, e.stdout.String())
}

func TestEndToEnd_MalformedReply(t *testing.T) {
	e := &e2e{dir: setupRepo(t)}
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "README.md"), []byte("# Changed\n"), 0644))
	runGit(t, e.dir, "add", "README.md")

	err := e.run(t, `{"done":true}`, &Options{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(apperrors.FormatError(err), "Error: No commit message generated"))
	assert.Equal(t, "1", strings.TrimSpace(runGit(t, e.dir, "rev-list", "--count", "HEAD")))
}

func TestEndToEnd_WhitespaceReply(t *testing.T) {
	e := &e2e{dir: setupRepo(t)}
	require.NoError(t, os.WriteFile(filepath.Join(e.dir, "README.md"), []byte("# Changed\n"), 0644))
	runGit(t, e.dir, "add", "README.md")

	err := e.run(t, `{"message":{"content":"   \n  "}}`, &Options{Show: true})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrEmptyMessage))
	assert.Empty(t, e.stdout.String())
}
