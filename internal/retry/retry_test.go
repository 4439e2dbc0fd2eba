package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"syscall"
	"testing"
	"time"

	"misa/internal/services"
)

type statusErr struct {
	code  int
	after time.Duration
}

func (e *statusErr) Error() string { return fmt.Sprintf("http %d", e.code) }

func (e *statusErr) HTTPStatus() int { return e.code }

func (e *statusErr) RetryAfter() time.Duration { return e.after }

func TestDoRetriesRateLimitThenSucceeds(t *testing.T) {
	policy := Policy{MaxAttempts: 6, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
	var slept []time.Duration
	calls := 0

	got, err := Do(context.Background(), policy, nil, func(context.Context) ([]byte, error) {
		calls++
		if calls <= 2 {
			return nil, &statusErr{code: http.StatusTooManyRequests}
		}
		return []byte("pcm"), nil
	}, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if string(got) != "pcm" {
		t.Fatalf("unexpected payload %q", got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	var total time.Duration
	for _, d := range slept {
		total += d
	}
	if total != policy.Delay(1)+policy.Delay(2) || total != 6*time.Second {
		t.Fatalf("unexpected total wait %s (sleeps %v)", total, slept)
	}
}

func TestDoFatalErrorReturnsImmediately(t *testing.T) {
	calls := 0
	fatal := &statusErr{code: http.StatusBadRequest}
	_, err := Do(context.Background(), Policy{MaxAttempts: 5, BaseDelay: time.Second}, nil, func(context.Context) (int, error) {
		calls++
		return 0, fatal
	}, WithSleeper(func(time.Duration) { t.Fatal("fatal errors must not sleep") }))
	if !errors.Is(err, fatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Fatal("fatal error should not be reported as exhaustion")
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoExhaustionWrapsLastError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, nil, func(context.Context) (string, error) {
		calls++
		return "", &statusErr{code: 503 + calls}
	}, WithSleeper(func(time.Duration) {}))
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("attempts = %d", exhausted.Attempts)
	}
	var last *statusErr
	if !errors.As(err, &last) || last.code != 506 {
		t.Fatalf("expected last error to be wrapped, got %v", exhausted.Last)
	}
}

func TestDoHonoursRetryAfterCappedByPolicy(t *testing.T) {
	var slept []time.Duration
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 5 * time.Second}, nil,
		func(context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, &statusErr{code: http.StatusServiceUnavailable, after: time.Minute}
			}
			return 1, nil
		}, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 1 || slept[0] != 5*time.Second {
		t.Fatalf("expected capped Retry-After sleep, got %v", slept)
	}
}

func TestDoKeepsBackoffWhenRetryAfterIsShorter(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
	var slept []time.Duration
	calls := 0
	_, err := Do(context.Background(), policy, nil, func(context.Context) (int, error) {
		calls++
		if calls <= 2 {
			return 0, &statusErr{code: http.StatusTooManyRequests, after: time.Second}
		}
		return 1, nil
	}, WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 4*time.Second {
		t.Fatalf("expected backoff schedule 2s, 4s, got %v", slept)
	}
}

func TestDoStopsOnParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Do(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}, nil, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, &statusErr{code: http.StatusBadGateway}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestDoAttemptTimeoutIsRetried(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), Policy{MaxAttempts: 2, AttemptTimeout: 10 * time.Millisecond}, nil,
		func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return "", ctx.Err()
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestPolicyDelay(t *testing.T) {
	p := Policy{BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second}
	for i, w := range want {
		if got := p.Delay(i + 1); got != w {
			t.Fatalf("Delay(%d) = %s, want %s", i+1, got, w)
		}
	}
	if (Policy{}).Delay(3) != 0 {
		t.Fatal("zero base delay should not wait")
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", &statusErr{code: 429}, true},
		{"408", &statusErr{code: 408}, true},
		{"500", &statusErr{code: 500}, true},
		{"504", &statusErr{code: 504}, true},
		{"400", &statusErr{code: 400}, false},
		{"401", &statusErr{code: 401}, false},
		{"marker", services.Wrap(services.ErrTransient, "audio", "synthesize", "flaky", nil), true},
		{"refused", fmt.Errorf("dial: %w", syscall.ECONNREFUSED), true},
		{"reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"eof", io.ErrUnexpectedEOF, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("bad payload"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d, ok := ParseRetryAfter("3"); !ok || d != 3*time.Second {
		t.Fatalf("unexpected parse: %s %v", d, ok)
	}
	if _, ok := ParseRetryAfter("-1"); ok {
		t.Fatal("negative seconds should be rejected")
	}
	if _, ok := ParseRetryAfter("soon"); ok {
		t.Fatal("garbage should be rejected")
	}
}
