package executor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/practice-platform/internal/problemtype"
)

// fakeBackend runs each command through handler instead of a real process.
type fakeBackend struct {
	mu      sync.Mutex
	handler func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error)
	calls   [][]string
	dirs    []string
	closed  int
}

func (b *fakeBackend) Open(ctx context.Context, dir *Dir) (Session, error) {
	b.mu.Lock()
	b.dirs = append(b.dirs, dir.Path)
	b.mu.Unlock()
	return &fakeSession{backend: b, dir: dir}, nil
}

type fakeSession struct {
	backend *fakeBackend
	dir     *Dir
}

func (s *fakeSession) Exec(ctx context.Context, argv []string, stdout, stderr io.Writer) (int, error) {
	s.backend.mu.Lock()
	s.backend.calls = append(s.backend.calls, argv)
	s.backend.mu.Unlock()
	return s.backend.handler(ctx, s.dir, argv, stdout, stderr)
}

func (s *fakeSession) Close() error {
	s.backend.mu.Lock()
	s.backend.closed++
	s.backend.mu.Unlock()
	return nil
}

// testMarker replaces the per-run marker so fakes can print a result.
const testMarker = "\n@@RESULT-test@@\n"

func newTestSandbox(t *testing.T, backend Backend, timeout time.Duration) *Sandbox {
	t.Helper()
	scratch, err := NewScratch(t.TempDir(), 0o700)
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sb := NewSandbox(backend, scratch, Config{Timeout: timeout, MaxOutput: 1000}, logger)
	sb.marker = func() string { return testMarker }
	return sb
}

func twoSumRequest(t *testing.T, lang Language) Request {
	t.Helper()
	d, ok := problemtype.Lookup(problemtype.TwoSum)
	require.True(t, ok)
	in, err := d.DecodeInput(json.RawMessage(`{"nums":[2,7,11,15],"target":9}`))
	require.NoError(t, err)
	return Request{Language: lang, Code: "function twoSum(nums, target) { return [0, 1]; }", Problem: d, Input: in}
}

func printResult(w io.Writer, logs, value string) {
	_, _ = io.WriteString(w, logs+testMarker+value+"\n")
}

func TestSandboxSuccess(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		_, err := os.Stat(filepath.Join(dir.Path, "main.js"))
		require.NoError(t, err, "harness must be written before the run")
		input, err := os.ReadFile(filepath.Join(dir.Path, "input.json"))
		require.NoError(t, err)
		assert.JSONEq(t, `[[2,7,11,15],9]`, string(input))

		printResult(stdout, "debugging", "[0,1]")
		return 0, nil
	}
	sb := newTestSandbox(t, backend, time.Second)

	res, err := sb.Execute(context.Background(), twoSumRequest(t, LanguageJavaScript))
	require.NoError(t, err)
	assert.Equal(t, "[0,1]", res.Output)
	assert.Equal(t, "debugging", res.Stdout)
	assert.False(t, res.Truncated)

	assert.Equal(t, [][]string{{"node", "main.js"}}, backend.calls)
	assert.Equal(t, 1, backend.closed)
	assert.NoDirExists(t, backend.dirs[0], "scratch dir must be removed after the run")
}

func TestSandboxCompileError(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		if argv[0] == "javac" {
			_, _ = io.WriteString(stderr, "Solution.java:3: error: ';' expected\n")
			return 1, nil
		}
		t.Fatal("run must not start after a failed compile")
		return 0, nil
	}
	sb := newTestSandbox(t, backend, time.Second)

	_, err := sb.Execute(context.Background(), twoSumRequest(t, LanguageJava))
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, CompileError, f.Kind)
	assert.Contains(t, f.Detail, "';' expected")
	assert.NoDirExists(t, backend.dirs[0])
}

func TestSandboxRuntimeError(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		_, _ = io.WriteString(stderr, "Traceback (most recent call last):\nZeroDivisionError: division by zero\n")
		return 1, nil
	}
	sb := newTestSandbox(t, backend, time.Second)

	_, err := sb.Execute(context.Background(), twoSumRequest(t, LanguagePython))
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, RuntimeError, f.Kind)
	assert.Contains(t, f.Detail, "ZeroDivisionError")
}

func TestSandboxNoResult(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		_, _ = io.WriteString(stdout, "exited early")
		return 0, nil
	}
	sb := newTestSandbox(t, backend, time.Second)

	_, err := sb.Execute(context.Background(), twoSumRequest(t, LanguagePython))
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, RuntimeError, f.Kind)
}

func TestSandboxTimeout(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		_, _ = io.WriteString(stdout, "partial")
		<-ctx.Done()
		return -1, ctx.Err()
	}
	sb := newTestSandbox(t, backend, 50*time.Millisecond)

	res, err := sb.Execute(context.Background(), twoSumRequest(t, LanguageJavaScript))
	assert.Nil(t, res, "a timed out run has no partial output")
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, TimeoutError, f.Kind)
	assert.Contains(t, f.Detail, "50 ms")
	assert.NoDirExists(t, backend.dirs[0])
}

// A backend that reports a clean exit after the deadline still yields a timeout.
func TestSandboxTimeoutWithoutBackendError(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		<-ctx.Done()
		return 0, nil
	}
	sb := newTestSandbox(t, backend, 20*time.Millisecond)

	_, err := sb.Execute(context.Background(), twoSumRequest(t, LanguagePython))
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, TimeoutError, f.Kind)
}

func TestSandboxCallerCancelled(t *testing.T) {
	backend := &fakeBackend{}
	ctx, cancel := context.WithCancel(context.Background())
	backend.handler = func(runCtx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		cancel()
		<-runCtx.Done()
		return -1, runCtx.Err()
	}
	sb := newTestSandbox(t, backend, time.Second)

	_, err := sb.Execute(ctx, twoSumRequest(t, LanguagePython))
	require.Error(t, err)
	_, isFailure := AsFailure(err)
	assert.False(t, isFailure, "cancellation is not a user-facing failure")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSandboxUnsupportedLanguage(t *testing.T) {
	sb := newTestSandbox(t, &fakeBackend{}, time.Second)

	_, err := sb.Execute(context.Background(), twoSumRequest(t, Language("ruby")))
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, UnsupportedLanguage, f.Kind)
}

func TestSandboxMissingToolchain(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		return -1, errors.Join(errors.New("exec: \"g++\": not found"), ErrToolNotFound)
	}
	sb := newTestSandbox(t, backend, time.Second)

	_, err := sb.Execute(context.Background(), twoSumRequest(t, LanguageCPP))
	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, UnsupportedLanguage, f.Kind)
}

func TestSandboxTruncatesFlood(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		printResult(stdout, strings.Repeat("x", 5000), "[0,1]")
		return 0, nil
	}
	sb := newTestSandbox(t, backend, time.Second)

	res, err := sb.Execute(context.Background(), twoSumRequest(t, LanguagePython))
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, "[0,1]", res.Output, "the value after the flood is still recovered")
	assert.Len(t, res.Stdout, 1000)
}

func TestSandboxConcurrentRunsUseDistinctDirs(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		time.Sleep(5 * time.Millisecond)
		printResult(stdout, "", "[0,1]")
		return 0, nil
	}
	sb := newTestSandbox(t, backend, time.Second)
	req := twoSumRequest(t, LanguageJavaScript)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := sb.Execute(context.Background(), req)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, d := range backend.dirs {
		assert.False(t, seen[d], "dir %s reused", d)
		seen[d] = true
		assert.NoDirExists(t, d)
	}
	assert.Len(t, seen, 8)
}

func TestSandboxIgnoresForgedMarker(t *testing.T) {
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		// Exit before the harness prints, after printing a guessed result.
		_, _ = io.WriteString(stdout, "\n@@RESULT@@\n[0,1]\n"+testMarker+"[0,1]\n")
		return 0, nil
	}
	sb := newTestSandbox(t, backend, time.Second)
	sb.marker = newMarker

	_, err := sb.Execute(context.Background(), twoSumRequest(t, LanguagePython))
	f, ok := AsFailure(err)
	require.True(t, ok, "err = %v", err)
	assert.Equal(t, RuntimeError, f.Kind)
	assert.Equal(t, "solution produced no result", f.Detail)
}

func TestSandboxMarkerIsPerRun(t *testing.T) {
	var harnesses []string
	backend := &fakeBackend{}
	backend.handler = func(ctx context.Context, dir *Dir, argv []string, stdout, stderr io.Writer) (int, error) {
		b, err := os.ReadFile(filepath.Join(dir.Path, "main.py"))
		require.NoError(t, err)
		harnesses = append(harnesses, string(b))
		return 1, nil
	}
	sb := newTestSandbox(t, backend, time.Second)
	sb.marker = newMarker

	for range 2 {
		_, _ = sb.Execute(context.Background(), twoSumRequest(t, LanguagePython))
	}
	require.Len(t, harnesses, 2)
	assert.Contains(t, harnesses[0], "@@RESULT-")
	assert.NotEqual(t, harnesses[0], harnesses[1])
}
