package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitcamus/gitcamus/internal/pkg/config"
	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

// isolateEnv clears every variable the configuration layer reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITCAMUS_BACKEND", "")
	for _, b := range config.Backends {
		upper := strings.ToUpper(b)
		for _, suffix := range []string{"_HOST", "_MODEL", "_API_KEY"} {
			t.Setenv(upper+suffix, "")
			t.Setenv("GITCAMUS_"+upper+suffix, "")
		}
		t.Setenv("GITCAMUS_"+upper+"_API_KEY_PARAMETER", "")
	}
}

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

// stagedRepo creates a repository with one commit and one staged file, and
// makes it the working directory.
func stagedRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Test\n"), 0644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial commit")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0644))
	runGit(t, dir, "add", "main.go")

	chdir(t, dir)
	return dir
}

func ollamaServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test", "abc123", "today")
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	apperrors.SetOutput(os.Stderr)
	return stdout.String(), stderr.String(), err
}

func TestRoot_ShowPrintsOnlyTheMessage(t *testing.T) {
	isolateEnv(t)
	dir := stagedRepo(t)
	srv := ollamaServer(t, `{"message":{"role":"assistant","content":"\n  A main package, and the absurd silence of the compiler.  \n"}}`)
	t.Setenv("OLLAMA_HOST", strings.TrimPrefix(srv.URL, "http://"))

	stdout, _, err := execute(t, "--show", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "A main package, and the absurd silence of the compiler.\n", stdout)
	assert.Equal(t, "1", strings.TrimSpace(runGit(t, dir, "rev-list", "--count", "HEAD")))
}

func TestRoot_Commits(t *testing.T) {
	isolateEnv(t)
	dir := stagedRepo(t)
	srv := ollamaServer(t, `{"message":{"content":"We begin again, as Sisyphus does."}}`)
	t.Setenv("OLLAMA_HOST", srv.URL)

	stdout, stderr, err := execute(t, "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Committed with message: We begin again, as Sisyphus does.")
	assert.Equal(t, "We begin again, as Sisyphus does.", strings.TrimSpace(runGit(t, dir, "log", "-1", "--format=%B")))
}

func TestRoot_RepositoryOverlaySelectsModel(t *testing.T) {
	isolateEnv(t)
	dir := stagedRepo(t)

	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := new(bytes.Buffer)
		_, _ = body.ReadFrom(r.Body)
		if strings.Contains(body.String(), `"model":"mistral"`) {
			model = "mistral"
		}
		_, _ = w.Write([]byte(`{"message":{"content":"ok"}}`))
	}))
	defer srv.Close()

	overlay := "[ollama]\nhost = \"" + srv.URL + "\"\nmodel = \"mistral\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.RepoSettingsFile), []byte(overlay), 0644))

	stdout, _, err := execute(t, "-s", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "ok\n", stdout)
	assert.Equal(t, "mistral", model)
}

func TestRoot_NothingStaged(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	runGit(t, dir, "init")
	chdir(t, dir)
	t.Setenv("OLLAMA_HOST", "http://127.0.0.1:1")

	stdout, stderr, err := execute(t, "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No staged changes to commit.")
}

func TestRoot_NotARepository(t *testing.T) {
	isolateEnv(t)
	chdir(t, t.TempDir())

	_, _, err := execute(t, "--show", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotARepository))
	assert.Equal(t, 1, apperrors.GetExitCode(err))
}

func TestRoot_HostedBackendNothingStaged(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	runGit(t, dir, "init")
	chdir(t, dir)

	stdout, stderr, err := execute(t, "--backend", "anthropic", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, apperrors.GetExitCode(err))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "No staged changes to commit.")
}

func TestRoot_VerboseReportsMissingSettingsFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	runGit(t, dir, "init")
	chdir(t, dir)
	t.Cleanup(func() { apperrors.SetVerbose(false) })

	settings := filepath.Join(t.TempDir(), "config.yaml")
	_, stderr, err := execute(t, "-v", "--config", settings)
	require.NoError(t, err)
	assert.Contains(t, stderr, "No settings file at "+settings+", using defaults")

	require.NoError(t, os.WriteFile(settings, []byte("backend: ollama\n"), 0600))
	_, stderr, err = execute(t, "-v", "--config", settings)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Using settings file: "+settings)
}

func TestRoot_NothingStagedSkipsParameterLookup(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	runGit(t, dir, "init")
	chdir(t, dir)
	t.Setenv("GITCAMUS_OPENAI_API_KEY_PARAMETER", "/gitcamus/openai")

	looked := false
	orig := parameterGetter
	parameterGetter = func(context.Context) (config.ParameterGetter, error) {
		looked = true
		return nil, assert.AnError
	}
	t.Cleanup(func() { parameterGetter = orig })

	_, stderr, err := execute(t, "--backend", "openai", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.False(t, looked)
	assert.Contains(t, stderr, "No staged changes to commit.")
}

func TestRoot_HostedBackendNotARepository(t *testing.T) {
	isolateEnv(t)
	chdir(t, t.TempDir())

	_, _, err := execute(t, "--backend", "openai", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotARepository))
	assert.Equal(t, 1, apperrors.GetExitCode(err))
}

func TestRoot_UnknownBackendFlag(t *testing.T) {
	isolateEnv(t)
	stagedRepo(t)

	_, _, err := execute(t, "--backend", "gemini", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))
}

func TestRoot_AnthropicWithoutKey(t *testing.T) {
	isolateEnv(t)
	stagedRepo(t)

	_, _, err := execute(t, "--backend", "anthropic", "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidConfig))
	assert.Contains(t, apperrors.FormatError(err), "ANTHROPIC_API_KEY")
}

func TestRoot_BackendUnavailable(t *testing.T) {
	isolateEnv(t)
	stagedRepo(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	host := srv.URL
	srv.Close()
	t.Setenv("OLLAMA_HOST", host)

	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "config.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBackendUnavailable))
	assert.Contains(t, apperrors.FormatError(err), "Could not connect to Ollama at "+host)
}

func TestRoot_RejectsPositionalArgs(t *testing.T) {
	isolateEnv(t)
	_, _, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestRoot_Version(t *testing.T) {
	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "gitcamus test")
	assert.Contains(t, stdout, "Commit: abc123")
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir on Go >= 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
