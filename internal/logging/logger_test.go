package logging

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets the race detector see writes through the logger's lock only.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := New(&out, &errOut, Options{})

	l.Info("hello %s", "world")
	l.Warn("careful")
	l.Error("broken: %d", 42)

	assert.Equal(t, "[INFO] hello world\n[WARN] careful\n", out.String())
	assert.Equal(t, "[ERROR] broken: 42\n", errOut.String())
}

func TestLogger_DebugOnlyWhenVerbose(t *testing.T) {
	var quiet, loud bytes.Buffer
	New(&quiet, &quiet, Options{}).Debug("hidden")
	New(&loud, &loud, Options{Verbose: true}).Debug("shown")

	assert.Empty(t, quiet.String())
	assert.Equal(t, "[DEBUG] shown\n", loud.String())
}

func TestLogger_ConcurrentLinesDoNotInterleave(t *testing.T) {
	out := &syncBuffer{}
	l := New(out, out, Options{})

	const goroutines, perG = 16, 50
	payload := strings.Repeat("x", 200)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perG; i++ {
				l.Info("%s", payload)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, goroutines*perG)
	for _, line := range lines {
		assert.Equal(t, "[INFO] "+payload, line)
	}
}

func TestNewConsole_ColorModes(t *testing.T) {
	var plain bytes.Buffer
	NewConsole(&plain, "never", false).Warn("careful")
	assert.Equal(t, "[WARN] careful\n", plain.String())

	var colored bytes.Buffer
	NewConsole(&colored, "always", false).Warn("careful")
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), "careful")
}

func TestNewConsole_AutoFollowsWriter(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf, "auto", false).Warn("careful")
	assert.Equal(t, "[WARN] careful\n", buf.String())

	f, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))

	NewConsole(f, "auto", false).Warn("careful")
	got, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "[WARN] careful\n", string(got))
}
