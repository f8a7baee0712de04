package retry

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestRunSucceedsAfterFailures(t *testing.T) {
	calls := 0
	res := Run(t.Context(), Policy{Attempts: 3, Delay: time.Millisecond}, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	if res.Err != nil {
		t.Fatalf("Err = %v, want nil", res.Err)
	}
	if res.Value != "ok" {
		t.Errorf("Value = %q, want %q", res.Value, "ok")
	}
	if res.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", res.Attempts)
	}
}

func TestRunReturnsLastErrorUnchanged(t *testing.T) {
	first := errors.New("first")
	calls := 0
	res := Run(t.Context(), Policy{Attempts: 2}, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, first
		}
		return 0, os.ErrPermission
	})

	if res.Err != os.ErrPermission {
		t.Errorf("Err = %v, want os.ErrPermission itself", res.Err)
	}
	if res.Attempts != 2 || calls != 2 {
		t.Errorf("Attempts = %d, calls = %d, want 2", res.Attempts, calls)
	}
}

func TestRunAtLeastOnce(t *testing.T) {
	calls := 0
	_, err := Do(t.Context(), Policy{Attempts: 0}, func(context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("nope")
	})
	if err == nil || calls != 1 {
		t.Errorf("calls = %d, err = %v, want 1 call and an error", calls, err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan Result[int], 1)
	go func() {
		done <- Run(ctx, Policy{Attempts: 5, Delay: time.Hour}, func(context.Context) (int, error) {
			return 0, errors.New("fail")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("Err = %v, want context.Canceled", res.Err)
		}
		if res.Attempts != 1 {
			t.Errorf("Attempts = %d, want 1", res.Attempts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	res := Run(ctx, DefaultPolicy(), func(context.Context) (int, error) {
		t.Error("operation should not run")
		return 0, nil
	})
	if !errors.Is(res.Err, context.Canceled) || res.Attempts != 0 {
		t.Errorf("res = %+v, want canceled with no attempts", res)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Attempts != 3 || p.Delay != 2*time.Second {
		t.Errorf("DefaultPolicy() = %+v, want 3 attempts, 2s delay", p)
	}
}
