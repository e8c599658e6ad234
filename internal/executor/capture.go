package executor

import (
	"sync"
)

// capture is an io.Writer that keeps the first limit bytes and the last
// limit bytes of a stream and counts what it drops in between. Keeping the
// tail means the harness value survives a solution that floods stdout.
type capture struct {
	mu    sync.Mutex
	limit int
	head  []byte
	tail  []byte
	total int
}

func newCapture(limit int) *capture {
	return &capture{limit: limit}
}

func (c *capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p)
	c.total += n

	if room := c.limit - len(c.head); room > 0 {
		k := min(room, len(p))
		c.head = append(c.head, p[:k]...)
		p = p[k:]
	}
	if len(p) == 0 {
		return n, nil
	}

	if len(p) >= c.limit {
		c.tail = append(c.tail[:0], p[len(p)-c.limit:]...)
		return n, nil
	}
	c.tail = append(c.tail, p...)
	if over := len(c.tail) - c.limit; over > 0 {
		c.tail = append(c.tail[:0], c.tail[over:]...)
	}
	return n, nil
}

// String returns at most limit bytes, the head of the stream.
func (c *capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.head)
}

// Truncated reports whether String() lost anything.
func (c *capture) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total > len(c.head)
}

// result splits the captured stream into user logs and the harness value.
// Logs and value are each capped at limit; truncated is set when anything
// was cut.
func (c *capture) result(marker string) (logs, value string, ok, truncated bool) {
	c.mu.Lock()
	head, tail := string(c.head), string(c.tail)
	lost := c.total > len(c.head)+len(c.tail)
	c.mu.Unlock()

	if !lost {
		logs, value, ok = splitOutput(head+tail, marker)
		if len(logs) > c.limit {
			logs, truncated = logs[:c.limit], true
		}
		if len(value) > c.limit {
			value, truncated = value[:c.limit], true
		}
		return logs, value, ok, truncated
	}

	if _, v, found := splitOutput(tail, marker); found {
		return head, v, true, true
	}
	return head, "", false, true
}
