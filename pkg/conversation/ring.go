package conversation

// entry is one retained history item. vec is the mean embedding of its
// known tokens, nil when none were known. stale entries came from a
// snapshot and are re-embedded on the next update.
type entry struct {
	text  string
	vec   []float32
	stale bool
}

// ring is a fixed-capacity FIFO that overwrites its oldest entry when full.
type ring struct {
	buf  []entry
	head int
	size int
}

func newRing(capacity int) ring {
	return ring{buf: make([]entry, capacity)}
}

func (r *ring) push(e entry) {
	r.buf[(r.head+r.size)%len(r.buf)] = e
	if r.size < len(r.buf) {
		r.size++
		return
	}
	r.head = (r.head + 1) % len(r.buf)
}

// entries returns the retained entries oldest first.
func (r *ring) entries() []entry {
	out := make([]entry, r.size)
	for i := range out {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *ring) reset() {
	clear(r.buf)
	r.head, r.size = 0, 0
}
