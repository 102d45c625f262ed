package logging

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

var _ mokka.Logger = (*ConsoleLogger)(nil)

func TestConsoleLogger_Verbose_WhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, true)
	logger.Verbose("resolved %d parameters", 3)

	expected := "[VERBOSE] resolved 3 parameters\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, false)
	logger.Verbose("resolved %d parameters", 3)

	if buf.String() != "" {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestConsoleLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(&buf, false).Info("wrote %s", "model_parameters_X.xml")

	expected := "wrote model_parameters_X.xml\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(&buf, false).Error("query failed: %v", "timeout")

	expected := "[ERROR] query failed: timeout\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_NoArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(&buf, false).Info("100% done")

	if buf.String() != "100% done\n" {
		t.Errorf("Expected literal percent, got %q", buf.String())
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func TestConsoleLogger_ConcurrentSafety(t *testing.T) {
	out := &lockedBuffer{}
	logger := NewWriterLogger(out, true)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.buf.String()), "\n")
	if len(lines) != 30 {
		t.Errorf("Expected 30 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if !strings.Contains(line, "message") && !strings.Contains(line, "verbose") && !strings.Contains(line, "error") {
			t.Errorf("Line %d appears corrupted: %q", i, line)
		}
	}
}

func TestDiscard_ConcurrentSafety(t *testing.T) {
	logger := Discard

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logger.Info("message %d", id)
			logger.Verbose("verbose %d", id)
			logger.Error("error %d", id)
		}(i)
	}
	wg.Wait()
}

// BenchmarkConsoleLogger_VerboseDisabled measures performance when verbose is disabled
func BenchmarkConsoleLogger_VerboseDisabled(b *testing.B) {
	logger := NewWriterLogger(&bytes.Buffer{}, false)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Verbose("benchmark message %d", i)
	}
}

func Example_discard() {
	logger := Discard
	logger.Info("This message is discarded")
	logger.Verbose("This too")
	fmt.Println("Done")
	// Output:
	// Done
}

func TestConsoleLogger_IsVerbose(t *testing.T) {
	if !NewWriterLogger(&bytes.Buffer{}, true).IsVerbose() {
		t.Error("expected verbose logger")
	}
	if NewConsoleLogger(false).IsVerbose() {
		t.Error("expected quiet logger")
	}
}

func TestNewConsoleLogger_WritesToStderr(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stderr"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	original := os.Stderr
	os.Stderr = f
	defer func() { os.Stderr = original }()

	NewConsoleLogger(false).Error("panic: %v", "boom")

	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "[ERROR] panic: boom\n" {
		t.Errorf("unexpected stderr %q", got)
	}
}
