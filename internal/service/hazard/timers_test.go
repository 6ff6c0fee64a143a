package hazard

import (
	"testing"
	"time"
)

func TestCooldownQueue_ExpireInOrder(t *testing.T) {
	q := newCooldownQueue()
	base := time.Unix(0, 0)

	q.start("c", base.Add(3*time.Second))
	q.start("a", base.Add(1*time.Second))
	q.start("b", base.Add(2*time.Second))

	next, ok := q.next()
	if !ok || !next.Equal(base.Add(time.Second)) {
		t.Fatalf("Expected earliest expiry at 1s, got %v (%v)", next, ok)
	}

	expired := q.expire(base.Add(2 * time.Second))
	if len(expired) != 2 || expired[0] != "a" || expired[1] != "b" {
		t.Errorf("Expected [a b], got %v", expired)
	}
	if q.active("a") || q.active("b") || !q.active("c") {
		t.Error("Only c should remain active")
	}
}

func TestCooldownQueue_Cancel(t *testing.T) {
	q := newCooldownQueue()
	base := time.Unix(0, 0)

	q.start("a", base.Add(time.Second))
	q.start("b", base.Add(2*time.Second))
	q.start("c", base.Add(3*time.Second))
	q.cancel("b")
	q.cancel("missing")

	if q.Len() != 2 || q.active("b") {
		t.Fatalf("Expected b cancelled, remaining %v", q.labels())
	}
	expired := q.expire(base.Add(10 * time.Second))
	if len(expired) != 2 || expired[0] != "a" || expired[1] != "c" {
		t.Errorf("Expected [a c], got %v", expired)
	}
}

func TestCooldownQueue_Clear(t *testing.T) {
	q := newCooldownQueue()
	q.start("a", time.Unix(1, 0))
	q.clear()

	if q.Len() != 0 || q.active("a") {
		t.Error("Expected empty queue after clear")
	}
	if _, ok := q.next(); ok {
		t.Error("Expected no next expiry")
	}
}
