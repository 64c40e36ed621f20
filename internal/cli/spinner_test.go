package cli

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinnerDraws(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Processing cube.gcode...", true)
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	assert.Contains(t, out, "Processing cube.gcode...")
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\r")), "line is cleared on stop")
	assert.False(t, s.Cancelled())
}

func TestSpinnerDisabledDrawsNothing(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinnerTo(context.Background(), &buf, "Processing...", false)
	s.Start()
	time.Sleep(100 * time.Millisecond)
	s.Stop()
	assert.Empty(t, buf.String())
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSpinnerTo(ctx, &buf, "Processing...", true)
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	assert.True(t, s.Cancelled())
	s.Stop()
}

func TestSpinnerStop(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "Processing...", true)
		s.Start()
		s.Stop()
		s.Stop()
		s.Stop()
	})
	t.Run("without start", func(t *testing.T) {
		s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "Processing...", true)
		s.Stop()
	})
	t.Run("with error", func(t *testing.T) {
		s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "Processing...", true)
		s.Start()
		s.StopWithError("Processing failed")
	})
}

func TestSpinnerLabel(t *testing.T) {
	s := newSpinnerTo(context.Background(), &bytes.Buffer{}, "Processing...", true)
	s.start = time.Now()
	assert.Equal(t, "Processing...", s.label())

	s.start = time.Now().Add(-3500 * time.Millisecond)
	assert.Equal(t, "Processing... 3s", s.label())
}

func TestSlicerHook(t *testing.T) {
	for _, key := range slicerHookEnv {
		t.Setenv(key, "")
	}
	assert.False(t, slicerHook())

	t.Setenv("SLIC3R_PP_OUTPUT_NAME", "/tmp/cube.gcode")
	assert.True(t, slicerHook())
	assert.False(t, drawable(os.Stderr))
}
