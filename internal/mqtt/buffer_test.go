package mqtt

import "testing"

func TestReplayQueueEmptyDrain(t *testing.T) {
	q := newReplayQueue(8)
	if got := q.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestReplayQueuePushAndDrainInOrder(t *testing.T) {
	q := newReplayQueue(8)
	for i := 0; i < 5; i++ {
		q.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}

	got := q.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if got := q.drainAll(); got != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got))
	}
}

func TestReplayQueueEvictsOldest(t *testing.T) {
	q := newReplayQueue(4)

	// Push capacity+2 items; the oldest 2 are evicted.
	for i := 0; i < 6; i++ {
		q.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}

	got := q.drainAll()
	if len(got) != 4 {
		t.Fatalf("expected 4 items, got %d", len(got))
	}
	for i := 0; i < 4; i++ {
		want := byte(i + 2)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestReplayQueueLen(t *testing.T) {
	q := newReplayQueue(8)
	if q.len() != 0 {
		t.Errorf("expected len 0, got %d", q.len())
	}
	q.push(bufferedMsg{topic: Topic})
	q.push(bufferedMsg{topic: TopicSystem})
	if q.len() != 2 {
		t.Errorf("expected len 2, got %d", q.len())
	}
	q.drainAll()
	if q.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", q.len())
	}
}

func TestReplayQueuePreservesFields(t *testing.T) {
	q := newReplayQueue(8)
	q.push(bufferedMsg{
		topic:    TopicSystem,
		payload:  []byte(`{"system":{}}`),
		qos:      1,
		retained: true,
	})

	got := q.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != TopicSystem {
		t.Errorf("topic: got %s, want %s", got[0].topic, TopicSystem)
	}
	if got[0].qos != 1 || !got[0].retained {
		t.Errorf("qos/retained not preserved: %+v", got[0])
	}
}

func TestReplayQueueRefillsAfterDrain(t *testing.T) {
	q := newReplayQueue(4)
	for i := 0; i < 6; i++ {
		q.push(bufferedMsg{topic: Topic, payload: []byte{byte(i)}})
	}
	q.drainAll()

	q.push(bufferedMsg{topic: Topic, payload: []byte{0x7F}})
	got := q.drainAll()
	if len(got) != 1 || got[0].payload[0] != 0x7F {
		t.Errorf("queue should accept fresh messages after a drain, got %v", got)
	}
}
