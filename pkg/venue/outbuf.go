package venue

// outputBufferCapacity is the fixed arena size of the transmit scratch
// buffer.
const outputBufferCapacity = 4000

// outputHeaderPrefix is the number of bytes reserved at the front of the
// arena so the WebSocket frame header can be written directly before the
// payload with no memmove. The largest possible header is 14 bytes
// (2 fixed header bytes + 8 extended-length bytes + 4 mask bytes); 16 keeps the
// payload aligned to a round offset.
const outputHeaderPrefix = 16

// OutputMessage is the WebSocket's transmit scratch arena: a fixed 4000
// byte array with begin starting at offset 16 and end tracking the
// append cursor. Reset rewinds end back to begin; append operations
// advance end. It never allocates after construction.
type OutputMessage struct {
	buffer [outputBufferCapacity]byte
	begin  int
	end    int
}

// newOutputMessage returns a buffer already positioned at the reserved
// prefix offset.
func newOutputMessage() *OutputMessage {
	m := &OutputMessage{}
	m.Reset()
	return m
}

// Reset rewinds the append cursor back to the reserved prefix, discarding
// any previously written payload.
func (m *OutputMessage) Reset() {
	m.begin = outputHeaderPrefix
	m.end = outputHeaderPrefix
}

// WriteByte appends a single byte.
func (m *OutputMessage) WriteByte(b byte) {
	m.buffer[m.end] = b
	m.end++
}

// WriteString appends the bytes of s.
func (m *OutputMessage) WriteString(s string) {
	m.end += copy(m.buffer[m.end:], s)
}

// Write appends a raw byte slice, satisfying io.Writer.
func (m *OutputMessage) Write(p []byte) (int, error) {
	n := copy(m.buffer[m.end:], p)
	m.end += n
	return n, nil
}

// Payload returns the bytes written since the last Reset — the region
// [begin, end) — without the reserved header prefix.
func (m *OutputMessage) Payload() []byte {
	return m.buffer[m.begin:m.end]
}

// headerRoom returns the writable slice immediately before begin, used by
// the framer to prefix the frame header with no copy.
func (m *OutputMessage) headerRoom() []byte {
	return m.buffer[:m.begin]
}
