package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, errBoom, 3, 1, false},
		{"succeeds after failures", 2, errBoom, 3, 3, false},
		{"runs out of attempts", 5, errBoom, 3, 3, true},
		{"permanent stops early", 5, Permanent(errBoom), 3, 1, true},
		{"cancellation is not retried", 5, context.Canceled, 3, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			got, err := Retry(context.Background(), fastRetry(tt.attempts), func(context.Context) (int, error) {
				calls++
				if calls <= tt.failures {
					return 0, tt.err
				}
				return 42, nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !tt.wantErr && got != 42 {
				t.Errorf("result = %d, want 42", got)
			}
		})
	}
}

func TestRetry_UnwrapsPermanent(t *testing.T) {
	err := RetryFunc(context.Background(), fastRetry(3), func(context.Context) error {
		return Permanent(errBoom)
	})
	if err != errBoom {
		t.Errorf("err = %v, want the original error", err)
	}
}

func TestRetry_OnRetryAndContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(10)
	cfg.OnRetry = func(attempt int, _ error, _ time.Duration) {
		if attempt == 2 {
			cancel()
		}
	}
	err := RetryFunc(ctx, cfg, func(context.Context) error { return errBoom })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, Multiplier: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second}
	for i, w := range want {
		if got := Backoff(i+1, cfg); got != w {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, w)
		}
	}

	cfg.Jitter = 0.5
	for i := 0; i < 50; i++ {
		if got := Backoff(1, cfg); got < 50*time.Millisecond || got > 150*time.Millisecond {
			t.Fatalf("jittered backoff %v out of range", got)
		}
	}
}

func TestCircuitBreaker_Transitions(t *testing.T) {
	now := time.Now()
	var transitions []string
	cb := NewCircuitBreaker("host", BreakerConfig{
		MaxFailures: 2,
		OpenTimeout: time.Minute,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})
	cb.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_ = cb.Execute(func() error { return errBoom })
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}
	if err := cb.Execute(func() error { t.Error("called while open"); return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("err = %v, want ErrCircuitOpen", err)
	}

	now = now.Add(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open", cb.State())
	}
	_ = cb.Execute(func() error { return errBoom })
	if cb.State() != StateOpen {
		t.Fatalf("failed probe should reopen, state = %s", cb.State())
	}

	now = now.Add(time.Minute)
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %s, want closed", cb.State())
	}

	want := []string{"closed>open", "open>half-open", "half-open>open", "open>half-open", "half-open>closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	ignored := errors.New("client error")
	cb := NewCircuitBreaker("host", BreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != ignored },
	})
	for i := 0; i < 3; i++ {
		_ = cb.Execute(func() error { return ignored })
	}
	if cb.State() != StateClosed {
		t.Errorf("ignored errors opened the circuit")
	}
}

func TestBreakers_PerKey(t *testing.T) {
	b := NewBreakers(BreakerConfig{MaxFailures: 1})
	_ = b.Get("a").Execute(func() error { return errBoom })
	if b.Get("a").State() != StateOpen {
		t.Error("breaker a should be open")
	}
	if b.Get("b").State() != StateClosed {
		t.Error("breaker b should be unaffected")
	}
	if b.Get("a") != b.Get("a") {
		t.Error("expected the same breaker per key")
	}
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(2, 0)
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Execute(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}
	wg.Wait()
	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if b.InUse() != 0 || b.Capacity() != 2 {
		t.Errorf("InUse = %d Capacity = %d", b.InUse(), b.Capacity())
	}
}

func TestBulkhead_Full(t *testing.T) {
	b := NewBulkhead(1, 5*time.Millisecond)
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	if err := b.Execute(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("err = %v, want ErrBulkheadFull", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewBulkhead(1, 0).Execute(ctx, func(context.Context) error { return nil }); err != nil {
		t.Errorf("free slot should be taken even with a done context: %v", err)
	}
}
