package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/classscan/pkg/observability"
)

// stderr receives spinner frames so they never mix with command output.
var stderr io.Writer = os.Stderr

// Spinner animates a status line on stderr while a scan runs. Once the
// scan has enumerated its classpath the line also counts the classfiles
// being decoded and the units that failed so far.
type Spinner struct {
	message string
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string

	mu     sync.Mutex
	units  int
	failed int
	width  int // of the last frame, for clearing
}

// newSpinner creates a new spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(s.frames[i%len(s.frames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleIconSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	if s.units > 0 {
		line += StyleDim.Render(" " + plural(s.units, "classfile", "classfiles"))
	}
	if s.failed > 0 {
		line += StyleDim.Render(" · ") + StyleWarning.Render(plural(s.failed, "failed", "failed"))
	}
	s.width = max(s.width, lipgloss.Width(line))
	fmt.Fprintf(stderr, "\r%s", line)
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.cancel()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	<-s.stopped
	s.clearLine()
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(stderr, "\r%s\r", strings.Repeat(" ", max(s.width, len(s.message)+4)))
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled returns true if the spinner was stopped due to context cancellation.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Scan progress
// =============================================================================

type spinnerKey struct{}

var installSpinnerHooks sync.Once

// withSpinner attaches s to ctx so that scans run under ctx report their
// progress on it.
func withSpinner(ctx context.Context, s *Spinner) context.Context {
	installSpinnerHooks.Do(func() { observability.SetScanHooks(spinnerHooks{}) })
	return context.WithValue(ctx, spinnerKey{}, s)
}

// spinnerHooks forwards scan events to the spinner carried by the context.
type spinnerHooks struct {
	observability.NoopScanHooks
}

func (spinnerHooks) OnScanStart(ctx context.Context, _ string, units int) {
	if s, ok := ctx.Value(spinnerKey{}).(*Spinner); ok {
		s.mu.Lock()
		s.units = units
		s.mu.Unlock()
	}
}

func (spinnerHooks) OnUnitFailed(ctx context.Context, _, _ string, _ error) {
	if s, ok := ctx.Value(spinnerKey{}).(*Spinner); ok {
		s.mu.Lock()
		s.failed++
		s.mu.Unlock()
	}
}
