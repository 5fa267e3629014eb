package mqtt

import "log"

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// replayQueue is a bounded FIFO holding messages while the broker is
// unreachable. When full it evicts the oldest entry, so a long outage keeps
// the most recent window of events. Not safe for concurrent use; caller
// must synchronize.
type replayQueue struct {
	msgs    []bufferedMsg
	max     int
	evicted bool // true if any message was dropped since last drain
}

func newReplayQueue(max int) *replayQueue {
	return &replayQueue{max: max}
}

func (q *replayQueue) push(msg bufferedMsg) {
	if len(q.msgs) == q.max {
		if !q.evicted {
			log.Printf("mqtt: replay queue full (%d messages), dropping oldest", q.max)
			q.evicted = true
		}
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = msg
		return
	}
	q.msgs = append(q.msgs, msg)
}

// drainAll hands the queued messages to the caller and resets the queue.
func (q *replayQueue) drainAll() []bufferedMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	q.evicted = false
	return out
}

func (q *replayQueue) len() int {
	return len(q.msgs)
}
