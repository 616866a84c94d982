package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_DeliversToVisitorOnly(t *testing.T) {
	h := NewHub(4)
	a, cancelA := h.Subscribe("a")
	defer cancelA()
	b, cancelB := h.Subscribe("b")
	defer cancelB()

	h.Publish(context.Background(), Event{Kind: EventStateChanged, VisitorID: "a"})

	select {
	case ev := <-a:
		assert.Equal(t, EventStateChanged, ev.Kind)
	default:
		t.Fatal("expected event for subscriber a")
	}
	select {
	case ev := <-b:
		t.Fatalf("unexpected event for subscriber b: %+v", ev)
	default:
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe("a")
	defer cancel()

	for i := 0; i < 10; i++ {
		h.Publish(context.Background(), Event{Kind: EventMessageAppended, VisitorID: "a"})
	}
	assert.Len(t, ch, 1)
}

func TestHub_CancelClosesAndUnregisters(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe("a")
	require.Equal(t, 1, h.Subscribers("a"))

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers("a"))

	// publishing after cancel must not panic
	h.Publish(context.Background(), Event{VisitorID: "a"})
}

func TestMultiSink_FansOut(t *testing.T) {
	r1, r2 := &recordingSink{}, &recordingSink{}
	MultiSink{r1, nil, r2}.Publish(context.Background(), Event{Kind: EventHistoryCleared})
	assert.Equal(t, []EventKind{EventHistoryCleared}, r1.kinds())
	assert.Equal(t, []EventKind{EventHistoryCleared}, r2.kinds())
}
