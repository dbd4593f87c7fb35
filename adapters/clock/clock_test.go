package clock

import (
	"testing"
	"time"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	f := NewFake(start)

	if !f.Now().Equal(start) {
		t.Errorf("Now = %v, want %v", f.Now(), start)
	}

	f.Advance(90 * time.Minute)
	if !f.Now().Equal(start.Add(90 * time.Minute)) {
		t.Errorf("Now after Advance = %v", f.Now())
	}

	f.Set(start)
	f.NextDay()
	want := time.Date(2026, 3, 16, 10, 0, 0, 0, time.UTC)
	if !f.Now().Equal(want) {
		t.Errorf("Now after NextDay = %v, want %v", f.Now(), want)
	}
}

func TestRealClock(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Real.Now() = %v outside [%v, %v]", got, before, after)
	}
}
