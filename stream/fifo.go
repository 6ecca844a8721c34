package stream

// byteFIFO is the rolling buffer of bytes already pulled from the transport
// but not yet consumed by the current frame. It is shared between the
// magic-word synchroniser and the buffered assembler and owned exclusively
// by one reader.
type byteFIFO struct {
	buf []byte
}

// push appends transport bytes to the tail.
func (f *byteFIFO) push(p []byte) {
	f.buf = append(f.buf, p...)
}

// pop removes and returns the head byte, reporting false when empty.
func (f *byteFIFO) pop() (byte, bool) {
	if len(f.buf) == 0 {
		return 0, false
	}
	b := f.buf[0]
	f.buf = f.buf[1:]
	return b, true
}

// take moves up to len(dst) bytes from the head into dst and returns the
// count moved.
func (f *byteFIFO) take(dst []byte) int {
	n := copy(dst, f.buf)
	f.buf = f.buf[n:]
	return n
}

// len returns the number of buffered bytes.
func (f *byteFIFO) len() int {
	return len(f.buf)
}

// clear discards all buffered bytes so the next call resynchronises from
// fresh transport data.
func (f *byteFIFO) clear() {
	f.buf = f.buf[:0]
}
