package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func TestAllowFirstRequest(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(time.Second, clock.Now)

	if !l.Allow("1.2.3.4") {
		t.Fatal("first request must be accepted")
	}
}

func TestRejectWithinWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(time.Second, clock.Now)

	if !l.Allow("1.2.3.4") {
		t.Fatal("first request must be accepted")
	}

	clock.Advance(500 * time.Millisecond)
	if l.Allow("1.2.3.4") {
		t.Fatal("request within 500ms must be rejected")
	}
}

func TestAllowAfterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(time.Second, clock.Now)

	l.Allow("1.2.3.4")
	clock.Advance(time.Second)

	if !l.Allow("1.2.3.4") {
		t.Fatal("request after full window must be accepted")
	}
}

func TestRejectionDoesNotExtendWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(time.Second, clock.Now)

	l.Allow("1.2.3.4")

	// отклонённые запросы не должны сдвигать отметку
	clock.Advance(900 * time.Millisecond)
	if l.Allow("1.2.3.4") {
		t.Fatal("request at 900ms must be rejected")
	}

	clock.Advance(100 * time.Millisecond)
	if !l.Allow("1.2.3.4") {
		t.Fatal("request at 1000ms after the accepted one must pass, rejection must not reset the window")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New(time.Second, clock.Now)

	if !l.Allow("1.2.3.4") {
		t.Fatal("first key must be accepted")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatal("second key must not be affected by the first")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("first key must still be limited")
	}
}
