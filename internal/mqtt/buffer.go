package mqtt

// bufferedMsg is a serialized message held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox queues messages while the broker is unreachable. A retained
// message replaces any queued retained message on the same topic, since
// the broker keeps only the last one. When full the oldest message goes.
// Not safe for concurrent use; the caller synchronizes.
type outbox struct {
	msgs     []bufferedMsg
	capacity int
	overflow bool // set once a message is dropped, cleared on drain
}

func newOutbox(capacity int) *outbox {
	if capacity < 1 {
		capacity = 1
	}
	return &outbox{msgs: make([]bufferedMsg, 0, capacity), capacity: capacity}
}

// push queues m. It reports true for the first drop since the last drain.
func (o *outbox) push(m bufferedMsg) (firstDrop bool) {
	if m.retained {
		o.remove(func(q bufferedMsg) bool { return q.retained && q.topic == m.topic })
	}
	if len(o.msgs) == o.capacity {
		copy(o.msgs, o.msgs[1:])
		o.msgs = o.msgs[:len(o.msgs)-1]
		firstDrop = !o.overflow
		o.overflow = true
	}
	o.msgs = append(o.msgs, m)
	return firstDrop
}

func (o *outbox) remove(match func(bufferedMsg) bool) {
	kept := o.msgs[:0]
	for _, q := range o.msgs {
		if !match(q) {
			kept = append(kept, q)
		}
	}
	clear(o.msgs[len(kept):])
	o.msgs = kept
}

// drain returns the queued messages oldest first and empties the outbox.
func (o *outbox) drain() []bufferedMsg {
	if len(o.msgs) == 0 {
		return nil
	}
	out := make([]bufferedMsg, len(o.msgs))
	copy(out, o.msgs)
	clear(o.msgs)
	o.msgs = o.msgs[:0]
	o.overflow = false
	return out
}

func (o *outbox) len() int {
	return len(o.msgs)
}
