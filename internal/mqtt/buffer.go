package mqtt

// outbound is a serialized message held for replay after reconnection.
type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a fixed-capacity FIFO of lifecycle messages published while
// the link was down. Telemetry reports never go through it: a stale report
// is worse than none, the next cycle sends a fresh one.
// Not safe for concurrent use; callers synchronize.
type backlog struct {
	buf      []outbound
	head     int // next write position
	count    int
	overflow bool
}

func newBacklog(capacity int) *backlog {
	if capacity < 1 {
		capacity = 1
	}
	return &backlog{buf: make([]outbound, capacity)}
}

// push appends msg, overwriting the oldest entry when full. It reports
// true the first time an entry is lost since the last drain.
func (b *backlog) push(msg outbound) bool {
	capacity := len(b.buf)
	b.buf[b.head] = msg
	b.head = (b.head + 1) % capacity
	if b.count < capacity {
		b.count++
		return false
	}
	first := !b.overflow
	b.overflow = true
	return first
}

// drain returns the held messages oldest first and empties the backlog.
func (b *backlog) drain() []outbound {
	if b.count == 0 {
		return nil
	}
	capacity := len(b.buf)
	out := make([]outbound, b.count)
	start := (b.head - b.count + capacity) % capacity
	for i := range out {
		out[i] = b.buf[(start+i)%capacity]
	}
	b.count, b.head, b.overflow = 0, 0, false
	return out
}

func (b *backlog) len() int {
	return b.count
}
