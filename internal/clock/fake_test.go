package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	var got []string
	c.AfterFunc(2*time.Second, func() { got = append(got, "b") })
	c.AfterFunc(1*time.Second, func() { got = append(got, "a") })
	c.AfterFunc(5*time.Second, func() { got = append(got, "c") })

	c.Advance(3 * time.Second)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected fire order: %v", got)
	}
	if c.Pending() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", c.Pending())
	}
	if !c.Now().Equal(time.Unix(3, 0)) {
		t.Fatalf("unexpected now: %v", c.Now())
	}
}

func TestFake_StopPreventsFire(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatalf("expected first Stop to report true")
	}
	if tm.Stop() {
		t.Fatalf("expected second Stop to report false")
	}

	c.Advance(time.Minute)
	if fired {
		t.Fatalf("stopped timer fired")
	}
}

func TestFake_CallbackSchedulesDueTimer(t *testing.T) {
	c := NewFake(time.Unix(0, 0))

	var chain []time.Time
	c.AfterFunc(time.Second, func() {
		chain = append(chain, c.Now())
		c.AfterFunc(time.Second, func() { chain = append(chain, c.Now()) })
	})

	c.Advance(10 * time.Second)
	if len(chain) != 2 {
		t.Fatalf("expected chained timer to fire, got %d calls", len(chain))
	}
	if !chain[1].Equal(time.Unix(2, 0)) {
		t.Fatalf("chained timer fired at %v", chain[1])
	}
}
