package pipeline

import (
	"fmt"
	"sync"
	"testing"
)

func TestRegistryAcquireReleaseCycle(t *testing.T) {
	r := NewRegistry()

	if !r.TryAcquire("conn_1", "scan_a") {
		t.Fatal("first acquire should succeed")
	}
	if r.TryAcquire("conn_1", "scan_b") {
		t.Fatal("second acquire on busy connection should fail")
	}

	active, ok := r.ActiveScan("conn_1")
	if !ok || active != "scan_a" {
		t.Fatalf("expected active scan_a, got %q (%v)", active, ok)
	}
	if !r.InFlight("scan_a") {
		t.Fatal("scan_a should be in flight")
	}

	r.Release("conn_1")

	if r.InFlight("scan_a") {
		t.Fatal("scan_a should be released")
	}
	if !r.TryAcquire("conn_1", "scan_b") {
		t.Fatal("acquire after release should succeed")
	}
}

func TestRegistryIndependentConnections(t *testing.T) {
	r := NewRegistry()

	if !r.TryAcquire("conn_1", "scan_a") || !r.TryAcquire("conn_2", "scan_b") {
		t.Fatal("distinct connections must not block each other")
	}
}

func TestRegistryReleaseWithoutAcquire(t *testing.T) {
	r := NewRegistry()
	r.Release("conn_unknown") // must not panic
}

func TestRegistryConcurrentAcquire(t *testing.T) {
	r := NewRegistry()

	const attempts = 50
	wins := make(chan string, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scanID := fmt.Sprintf("scan_%d", i)
			if r.TryAcquire("conn_shared", scanID) {
				wins <- scanID
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d: %v", len(winners), winners)
	}
}
