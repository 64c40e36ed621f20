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
	"github.com/mattn/go-isatty"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// slicerHookEnv are set by PrusaSlicer, SuperSlicer and OrcaSlicer while a
// post-processing script runs.
var slicerHookEnv = []string{"SLIC3R_PP_OUTPUT_NAME", "SLIC3R_PP_HOST"}

// Spinner shows that a file is being processed. It draws nothing when its
// writer is not a terminal or when the tool runs as a slicer hook, so the
// slicer's log only gets the final messages.
type Spinner struct {
	w       io.Writer
	message string
	enabled bool
	start   time.Time

	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped chan struct{}
	once    sync.Once

	mu    sync.Mutex
	width int // widest line drawn so far
}

// newSpinnerWithContext creates a spinner on stderr that stops when ctx is
// cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, message, drawable(os.Stderr))
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string, enabled bool) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	return &Spinner{
		w:       w,
		message: message,
		enabled: enabled,
		parent:  ctx,
		ctx:     spinnerCtx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	s.start = time.Now()
	if !s.enabled || s.started {
		return
	}
	s.started = true
	go s.run()
}

func (s *Spinner) run() {
	defer close(s.stopped)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.draw(spinnerFrames[i%len(spinnerFrames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	line := fmt.Sprintf("%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label()))
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "\r%s", line)
	s.width = max(s.width, lipgloss.Width(line))
}

// label is the message, followed by the elapsed time once processing takes
// longer than a second.
func (s *Spinner) label() string {
	elapsed := time.Since(s.start)
	if elapsed < time.Second {
		return s.message
	}
	return fmt.Sprintf("%s %s", s.message, elapsed.Truncate(time.Second))
}

// Stop stops the animation and clears the line. It may be called more than
// once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		if s.started {
			<-s.stopped
		}
		s.clearLine()
	})
}

func (s *Spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the spinner's parent context was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

// drawable reports whether a spinner may draw on f.
func drawable(f *os.File) bool {
	return isTerminal(f) && !slicerHook()
}

// slicerHook reports whether the tool was started by a slicer as a
// post-processing script.
func slicerHook() bool {
	for _, key := range slicerHookEnv {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
