package testutil

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock(t *testing.T) {
	var c FakeClock
	assert.Equal(t, time.Unix(0, 0), c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, time.Unix(90, 0), c.Now())

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c2 := NewFakeClock(start)
	c2.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c2.Now())
}

func TestAssertEventually(t *testing.T) {
	var flag atomic.Bool
	go func() {
		time.Sleep(20 * time.Millisecond)
		flag.Store(true)
	}()
	AssertEventually(t, flag.Load, time.Second, "flag never set")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "4.0 KB", FormatBytes(4096))
	assert.Equal(t, "1.5 MB", FormatBytes(3*512*1024))
}
