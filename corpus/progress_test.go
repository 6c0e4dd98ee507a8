package corpus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker(t *testing.T) {
	t.Run("reports on interval", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 100, 50)
		tracker.Start()

		tracker.Add(20)
		assert.Empty(t, buf.String())

		tracker.Add(30)
		assert.Contains(t, buf.String(), "50/100 (50.0%)")
	})

	t.Run("caps at total", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 10, 1)
		tracker.Start()
		tracker.Add(25)

		assert.Contains(t, buf.String(), "10/10 (100.0%)")
	})

	t.Run("finish", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 10, 100)
		tracker.Start()
		tracker.Add(3)
		tracker.Finish()

		out := buf.String()
		assert.Contains(t, out, "10/10 (100.0%)")
		assert.True(t, strings.HasSuffix(out, "\n"))
	})

	t.Run("zero total", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 0, 10)
		tracker.Start()
		tracker.Finish()

		assert.Contains(t, buf.String(), "0/0 (0.0%)")
	})

	t.Run("ignored before start", func(t *testing.T) {
		var buf bytes.Buffer
		tracker := NewProgressTracker(&buf, 10, 1)
		tracker.Add(5)
		tracker.Finish()

		assert.Empty(t, buf.String())
		assert.Zero(t, tracker.Elapsed())
	})

	t.Run("nil writer", func(t *testing.T) {
		tracker := NewProgressTracker(nil, 10, 1)
		tracker.Start()
		assert.NotPanics(t, func() {
			tracker.Add(10)
			tracker.Finish()
		})
	})
}
