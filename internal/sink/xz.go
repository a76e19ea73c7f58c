package sink

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// XZWriter streams data through the xz compressor to produce .xz files.
// It spawns an external xz process and pipes data through stdin.
type XZWriter struct {
	file    *os.File       // Output .xz file
	cmd     *exec.Cmd      // xz subprocess
	stdin   io.WriteCloser // Pipe to xz stdin
	path    string
	mu      sync.Mutex
	closed  bool
	waitErr error
	waitCh  chan struct{} // closed when xz exits
}

// XZWriterConfig holds configuration for the XZ writer
type XZWriterConfig struct {
	// Output path, ".xz" is appended when missing
	Path string
	// Compression preset 0-9 (default: 6). Higher = smaller but slower
	Preset int
}

// NewXZWriter creates a streaming XZ compressor that pipes data through
// the external xz command.
func NewXZWriter(cfg XZWriterConfig) (*XZWriter, error) {
	path := cfg.Path
	if !strings.HasSuffix(path, ".xz") {
		path += ".xz"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}

	preset := cfg.Preset
	if preset < 0 || preset > 9 {
		preset = 6
	}

	// -c = write to stdout, -<N> = compression level
	cmd := exec.Command("xz", "-c", fmt.Sprintf("-%d", preset))
	cmd.Stdout = file
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to start xz: %w", err)
	}

	w := &XZWriter{
		file:   file,
		cmd:    cmd,
		stdin:  stdin,
		path:   path,
		waitCh: make(chan struct{}),
	}

	go func() {
		w.waitErr = cmd.Wait()
		close(w.waitCh)
	}()

	return w, nil
}

// Write implements io.Writer, streaming data to the xz compressor
func (w *XZWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrWriterClosed
	}

	return w.stdin.Write(p)
}

// Close signals EOF to xz, waits for it to finish, then closes the file.
func (w *XZWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.stdin.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to close xz stdin: %w", err)
	}

	<-w.waitCh

	fileErr := w.file.Close()

	// xz error takes precedence
	if w.waitErr != nil {
		return fmt.Errorf("xz process failed: %w", w.waitErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close output file: %w", fileErr)
	}

	return nil
}

// Path returns the full path to the .xz file
func (w *XZWriter) Path() string {
	return w.path
}

// XZReader decompresses an .xz file through the external xz command.
type XZReader struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// NewXZReader starts "xz -dc path" and streams its output.
func NewXZReader(path string) (*XZReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	cmd := exec.Command("xz", "-dc", path)
	cmd.Stderr = os.Stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start xz: %w", err)
	}

	return &XZReader{cmd: cmd, stdout: stdout}, nil
}

func (r *XZReader) Read(p []byte) (int, error) {
	return r.stdout.Read(p)
}

// Close waits for xz to exit. Closing before EOF makes xz fail with a
// broken pipe.
func (r *XZReader) Close() error {
	r.stdout.Close()
	if err := r.cmd.Wait(); err != nil {
		return fmt.Errorf("xz process failed: %w", err)
	}
	return nil
}

// CheckXZAvailable verifies that xz is installed and accessible.
// Returns nil if xz is available, or an error with installation guidance.
func CheckXZAvailable() error {
	cmd := exec.Command("xz", "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("xz not found: %w\nInstall with: apt install xz-utils (Linux) or brew install xz (macOS)", err)
	}
	return nil
}
