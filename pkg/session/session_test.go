package session

import (
	"context"
	"sync"
	"testing"
	"time"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/flame"
)

func newTestEngine(t *testing.T) *flame.Engine {
	t.Helper()
	e, err := flame.New(flame.Config{Width: 16, Height: 16, Quality: flame.Interactive, Seed: 5})
	if err != nil {
		t.Fatalf("flame.New: %v", err)
	}
	return e
}

func TestRegistryCreateGetDelete(t *testing.T) {
	reg := NewRegistry(time.Minute)

	sess, err := reg.Create(newTestEngine(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session ID should not be empty")
	}

	got, err := reg.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != sess {
		t.Error("Get returned a different session")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d, want 1", reg.Len())
	}

	if err := reg.Delete(sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := reg.Get(sess.ID); !flameerrors.Is(err, flameerrors.ErrCodeSessionNotFound) {
		t.Errorf("Get after Delete = %v, want SESSION_NOT_FOUND", err)
	}
	if err := reg.Delete(sess.ID); !flameerrors.Is(err, flameerrors.ErrCodeSessionNotFound) {
		t.Errorf("second Delete = %v, want SESSION_NOT_FOUND", err)
	}
}

func TestRegistryUniqueIDs(t *testing.T) {
	reg := NewRegistry(time.Minute)
	e := newTestEngine(t)
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		sess, err := reg.Create(e)
		if err != nil {
			t.Fatal(err)
		}
		if seen[sess.ID] {
			t.Fatalf("duplicate ID %s", sess.ID)
		}
		seen[sess.ID] = true
	}
	if ids := reg.IDs(); len(ids) != 10 {
		t.Errorf("IDs has %d entries, want 10", len(ids))
	}
}

func TestRegistryExpiry(t *testing.T) {
	reg := NewRegistry(time.Millisecond)
	sess, err := reg.Create(newTestEngine(t))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if !sess.IsExpired() {
		t.Error("session should be expired")
	}
	if _, err := reg.Get(sess.ID); !flameerrors.Is(err, flameerrors.ErrCodeSessionNotFound) {
		t.Errorf("Get on expired session = %v", err)
	}
	if reg.Len() != 0 {
		t.Errorf("expired session should be removed on Get, Len = %d", reg.Len())
	}
}

func TestRegistryCleanup(t *testing.T) {
	reg := NewRegistry(time.Millisecond)
	for i := 0; i < 3; i++ {
		if _, err := reg.Create(newTestEngine(t)); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(5 * time.Millisecond)

	if n := reg.Cleanup(); n != 3 {
		t.Errorf("Cleanup removed %d, want 3", n)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d after Cleanup", reg.Len())
	}
}

func TestRegistryMaxSessions(t *testing.T) {
	reg := NewRegistry(time.Minute)
	reg.SetMaxSessions(2)
	e := newTestEngine(t)

	for i := 0; i < 2; i++ {
		if _, err := reg.Create(e); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}
	if _, err := reg.Create(e); !flameerrors.Is(err, flameerrors.ErrCodeTooManySessions) {
		t.Errorf("third Create = %v, want TOO_MANY_SESSIONS", err)
	}
}

func TestSessionDoExtendsDeadline(t *testing.T) {
	sess := New(newTestEngine(t), time.Hour)
	before := sess.ExpiresAt()
	time.Sleep(2 * time.Millisecond)

	err := sess.Do(func(e *flame.Engine) error {
		e.Step()
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !sess.ExpiresAt().After(before) {
		t.Error("Do should extend the idle deadline")
	}
}

func TestSessionDoSerializes(t *testing.T) {
	sess := New(newTestEngine(t), time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sess.Do(func(e *flame.Engine) error {
				e.Step()
				return nil
			})
		}()
	}
	wg.Wait()

	var iters int
	_ = sess.Do(func(e *flame.Engine) error {
		iters = e.Iterations()
		return nil
	})
	// Interactive mode freezes after InteractiveMaxIters+1 steps.
	if iters != flame.InteractiveMaxIters+1 {
		t.Errorf("Iterations = %d, want %d", iters, flame.InteractiveMaxIters+1)
	}
}

func TestJanitor(t *testing.T) {
	reg := NewRegistry(time.Millisecond)
	if _, err := reg.Create(newTestEngine(t)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	swept := make(chan int, 1)
	go reg.Janitor(ctx, 2*time.Millisecond, func(n int) {
		select {
		case swept <- n:
		default:
		}
	})
	defer cancel()

	select {
	case n := <-swept:
		if n != 1 {
			t.Errorf("swept %d sessions, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("janitor never swept")
	}
}
