package sleeper

import (
	"context"
	"testing"
	"time"
)

func TestFakeRecordsDurations(t *testing.T) {
	f := &Fake{}
	ctx := context.Background()

	if err := f.Sleep(ctx, 10*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if err := f.Sleep(ctx, 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}

	got := f.Durations()
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(got) != len(want) {
		t.Fatalf("Durations()=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Durations()[%d]=%v, want %v", i, got[i], want[i])
		}
	}
}

func TestFakeHonorsCancellation(t *testing.T) {
	f := &Fake{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Sleep(ctx, time.Second); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestRealSleepsAtLeastRequestedDuration(t *testing.T) {
	r := Real{}
	start := time.Now()
	if err := r.Sleep(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatalf("Sleep: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Fatalf("elapsed=%v, want >= 20ms", elapsed)
	}
}

func TestRealInterruptedByContext(t *testing.T) {
	r := Real{}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Sleep(ctx, time.Second)
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("elapsed=%v, want short interruption", elapsed)
	}
}
