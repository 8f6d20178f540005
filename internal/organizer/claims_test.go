package organizer

import (
	"sync"
	"testing"
	"time"
)

func TestClaimSetSerializesSameKey(t *testing.T) {
	claims := newClaimSet()
	release := claims.acquire("/out/a.jpg")

	acquired := make(chan struct{})
	go func() {
		r := claims.acquire("/out/a.jpg")
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second claim on the same key must block")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second claim never acquired")
	}

	other := claims.acquire("/out/b.jpg")
	other()
}

func TestClaimSetDropsReleasedEntries(t *testing.T) {
	claims := newClaimSet()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claims.acquire("/out/shared")()
		}()
	}
	wg.Wait()
	if n := claims.size(); n != 0 {
		t.Fatalf("expected empty claim set, got %d entries", n)
	}
}
