package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matzehuels/autoinstall/pkg/observability"
)

// Spinner provides a simple progress indicator with context cancellation support.
type Spinner struct {
	out     io.Writer
	message string
	width   int // longest message drawn, for clearing
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	frames  []string
	mu      sync.Mutex
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     os.Stderr,
		message: message,
		ctx:     spinnerCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

// SetMessage replaces the text shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
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
	if n := len(s.message); n > s.width {
		s.width = n
	}
	fmt.Fprintf(s.out, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.message))
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
	width := max(s.width, len(s.message))
	fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", width+4))
}

// Cancelled returns true if the spinner was stopped due to context cancellation.
func (s *Spinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// =============================================================================
// Scan Progress
// =============================================================================

// scanProgress shows the number of parsed files on a spinner while a scan
// runs. Register it with observability.SetScanHooks.
type scanProgress struct {
	observability.NoopScanHooks
	spinner *Spinner
	prefix  string
	files   atomic.Int64
}

func newScanProgress(s *Spinner, prefix string) *scanProgress {
	return &scanProgress{spinner: s, prefix: prefix}
}

func (p *scanProgress) OnScanStart(context.Context, string) {
	p.files.Store(0)
	p.spinner.SetMessage(p.prefix)
}

func (p *scanProgress) OnFileParsed(context.Context, string, int, error) {
	n := p.files.Add(1)
	p.spinner.SetMessage(fmt.Sprintf("%s (%d files)", p.prefix, n))
}
