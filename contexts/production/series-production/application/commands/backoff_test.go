package commands

import (
	"strings"
	"testing"
	"time"
)

func TestBackoffDoublesUntilCap(t *testing.T) {
	useCase := WorkerUseCase{}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
		{5, 16 * time.Minute},
		{6, 30 * time.Minute},
		{12, 30 * time.Minute},
	}
	for _, tc := range cases {
		if got := useCase.backoff(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %v, got %v", tc.attempt, tc.want, got)
		}
	}
}

func TestBackoffHonorsConfiguredCap(t *testing.T) {
	useCase := WorkerUseCase{BackoffBase: 10 * time.Second, BackoffCap: 40 * time.Second}
	if got := useCase.backoff(2); got != 20*time.Second {
		t.Fatalf("expected 20s, got %v", got)
	}
	if got := useCase.backoff(4); got != 40*time.Second {
		t.Fatalf("expected capped 40s, got %v", got)
	}
}

func TestTruncateErrorBoundsMessage(t *testing.T) {
	long := strings.Repeat("x", lastErrorLimit+100)
	if got := truncateError(long); len(got) != lastErrorLimit {
		t.Fatalf("expected %d chars, got %d", lastErrorLimit, len(got))
	}
	if got := truncateError("short"); got != "short" {
		t.Fatalf("expected message unchanged, got %q", got)
	}
}
