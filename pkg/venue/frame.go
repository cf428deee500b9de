package venue

import (
	"crypto/rand"
	"fmt"
	"net"
)

// fixedMask is the constant client-to-server mask applied to every
// outbound frame when a WebSocket is constructed without an explicit
// MaskSource — acceptable under RFC 6455 but atypical; WithRandomMask
// restores a fresh per-frame mask instead.
var fixedMask = [4]byte{0x12, 0x34, 0x56, 0x78}

// secWebSocketKey is the constant handshake key the source client always
// sends; the gateway never validates Sec-WebSocket-Accept on this path.
const secWebSocketKey = "dGhlIHNhbXBsZSBub25jZQ=="

// MaskSource produces a fresh 4-byte client-to-server mask for one
// outbound frame.
type MaskSource func() [4]byte

// Option configures a WebSocket at construction time.
type Option func(*WebSocket)

// WithMaskSource overrides the mask used for outbound frames. The
// default is the fixed mask {0x12,0x34,0x56,0x78}.
func WithMaskSource(src MaskSource) Option {
	return func(w *WebSocket) { w.maskSource = src }
}

// WithRandomMask selects a fresh crypto/rand mask per outbound frame,
// an alternative to the fixed mask.
func WithRandomMask() Option {
	return WithMaskSource(func() [4]byte {
		var m [4]byte
		_, _ = rand.Read(m[:])
		return m
	})
}

// WithReadAhead sets the Socket's read-ahead buffer capacity.
func WithReadAhead(n int) Option {
	return func(w *WebSocket) { w.readAhead = n }
}

// WebSocket holds one Socket, a use-mask policy, and one OutputMessage.
// The OutputMessage is a process-exposed singleton per WebSocket:
// OutputMessage resets it, SendLastOutputMessage consumes it.
type WebSocket struct {
	sock       *Socket
	useMask    bool
	maskSource MaskSource
	out        *OutputMessage
	readAhead  int
}

// Handshake performs the fixed HTTP upgrade request over conn, then
// returns a ready WebSocket. Any read failure during the handshake
// latches the underlying socket closed and reports Closed.
func Handshake(conn net.Conn, host string, port int, path string, useMask bool, opts ...Option) (*WebSocket, Status) {
	w := &WebSocket{
		useMask:    useMask,
		maskSource: func() [4]byte { return fixedMask },
		readAhead:  DefaultReadAhead,
	}
	for _, opt := range opts {
		opt(w)
	}

	w.sock = NewSocket(conn, w.readAhead)
	w.out = newOutputMessage()

	req := fmt.Sprintf(
		"GET /%s HTTP/1.1\r\nHost: %s:%d\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: %s\r\nSec-WebSocket-Version: 13\r\n\r\n",
		path, host, port, secWebSocketKey,
	)
	if st := w.sock.Write([]byte(req)); st != Success {
		return w, Closed
	}

	var line [4096]byte
	for {
		n, st := w.readLine(line[:])
		if st != Success {
			return w, Closed
		}
		if n == 0 {
			break // blank CRLF-only line: end of headers
		}
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}
	return w, Success
}

// readLine reads one CRLF-terminated line (without the CRLF) into buf,
// returning its length. A zero-length result means the line was empty
// (the blank line that ends the HTTP response headers).
func (w *WebSocket) readLine(buf []byte) (int, Status) {
	var pair [2]byte
	if st := w.sock.Read(pair[:]); st != Success {
		return 0, st
	}
	n := 0
	for pair[0] != '\r' || pair[1] != '\n' {
		if n >= len(buf) {
			return 0, Closed
		}
		buf[n] = pair[0]
		n++
		pair[0] = pair[1]
		if st := w.sock.Read(pair[1:2]); st != Success {
			return 0, st
		}
	}
	return n, Success
}

// IsClosed reports whether the underlying socket has latched closed.
func (w *WebSocket) IsClosed() bool {
	return w.sock.IsClosed()
}

// Conn exposes the raw connection so a supervisor can force-close it to
// trigger a connection rotation.
func (w *WebSocket) Conn() net.Conn {
	return w.sockConn()
}

func (w *WebSocket) sockConn() net.Conn {
	return w.sock.conn
}

// OutputMessage returns the WebSocket's transmit scratch buffer, reset
// and ready for the caller to append a new payload.
func (w *WebSocket) OutputMessage() *OutputMessage {
	w.out.Reset()
	return w.out
}

type wsHeader struct {
	fin        bool
	opcode     Opcode
	mask       bool
	n0         int
	headerSize int
	n          uint64
	maskingKey [4]byte
}

// readHeader reads one frame header (2 fixed bytes plus the variable
// extended-length/mask-key tail) using readFirstTwo for the first two bytes, so
// the caller can choose a blocking or non-blocking first read.
func (w *WebSocket) readHeader(readFirstTwo func(dst []byte) Status) (wsHeader, Status) {
	var h wsHeader
	var first [2]byte
	if st := readFirstTwo(first[:]); st != Success {
		return h, st
	}

	h.fin = first[0]&0x80 == 0x80
	h.opcode = Opcode(first[0] & 0x0f)
	h.mask = first[1]&0x80 == 0x80
	h.n0 = int(first[1] & 0x7f)
	h.headerSize = 2
	switch h.n0 {
	case 126:
		h.headerSize += 2
	case 127:
		h.headerSize += 8
	}
	if h.mask {
		h.headerSize += 4
	}

	var restBuf [12]byte
	rest := restBuf[:h.headerSize-2]
	if st := w.sock.Read(rest); st != Success {
		return h, st
	}

	i := 0
	switch {
	case h.n0 < 126:
		h.n = uint64(h.n0)
	case h.n0 == 126:
		h.n = uint64(rest[0])<<8 | uint64(rest[1])
		i = 2
	default: // 127
		for _, b := range rest[:8] {
			h.n = h.n<<8 | uint64(b)
		}
		i = 8
		if h.n&0x8000000000000000 != 0 {
			// RFC 6455: the most significant bit MUST be 0.
			w.sock.closed = true
			return h, Closed
		}
	}
	if h.mask {
		copy(h.maskingKey[:], rest[i:i+4])
	}
	return h, Success
}

// GetMessage reads one logical message (one or more frames joined by
// fin=0 continuations) into dst starting at start, writing defragmented
// unmasked payload bytes and returning the exclusive end offset. A
// trailing nul terminator is written at dst[end] on success, so dst must
// reserve one extra byte of capacity past the data it will hold.
//
// Interleaved PING frames are answered with a PONG and otherwise
// skipped. A PONG returns immediately with Success if returnOnPong is
// set; otherwise its payload is discarded and the loop continues. Any
// other opcode, including CLOSE, latches the socket closed.
//
// If returnOnNoData is set, a NoData from the socket before any byte of
// the very first frame's header arrives is propagated as NoData;
// subsequent reads within the same message always block.
func (w *WebSocket) GetMessage(dst []byte, start int, returnOnNoData, returnOnPong bool) (int, Status) {
	end := start
	first := true
	for {
		readFirst := w.sock.Read
		if first && returnOnNoData {
			readFirst = func(b []byte) Status { return w.sock.ReadNonBlocking(b, nil) }
		}
		h, st := w.readHeader(readFirst)
		if st != Success {
			return end, st
		}
		first = false

		switch h.opcode {
		case OpText, OpBinary, OpContinuation:
			var maskPtr *[4]byte
			if h.mask {
				maskPtr = &h.maskingKey
			}
			payload := dst[end : end+int(h.n)]
			var rst Status
			if maskPtr != nil {
				rst = w.sock.ReadMasked(payload, *maskPtr)
			} else {
				rst = w.sock.Read(payload)
			}
			if rst != Success {
				return end, rst
			}
			end += int(h.n)
			if h.fin {
				dst[end] = 0
				return end, Success
			}

		case OpPing:
			if h.n > maxControlFramePayload {
				w.sock.closed = true
				return end, Closed
			}
			var scratch [maxControlFramePayload]byte
			payload := scratch[:h.n]
			var rst Status
			if h.mask {
				rst = w.sock.ReadMasked(payload, h.maskingKey)
			} else {
				rst = w.sock.Read(payload)
			}
			if rst != Success {
				return end, rst
			}
			out := w.OutputMessage()
			out.Write(payload)
			if st := w.sendLastOutputMessage(OpPong); st != Success {
				return end, st
			}
			// The PONG consumed the reusable OutputMessage; the
			// message currently being assembled in dst is unaffected.

		case OpPong:
			if h.n > 0 {
				var discard [maxControlFramePayload]byte
				payload := discard[:h.n]
				var rst Status
				if h.mask {
					rst = w.sock.ReadMasked(payload, h.maskingKey)
				} else {
					rst = w.sock.Read(payload)
				}
				if rst != Success {
					return end, rst
				}
			}
			if returnOnPong {
				return end, Success
			}

		default:
			w.sock.closed = true
			return end, Closed
		}
	}
}

// sendLastOutputMessage computes the frame header from the current
// OutputMessage payload length, writes it into the reserved prefix
// immediately before the payload, masks the payload in place if
// useMask is set, and transmits header and payload in one Write.
func (w *WebSocket) sendLastOutputMessage(opcode Opcode) Status {
	payload := w.out.Payload()
	n := len(payload)

	var mask [4]byte
	if w.useMask {
		mask = w.maskSource()
	}

	var headerBuf [14]byte
	header := headerBuf[:0]
	header = append(header, 0x80|byte(opcode))
	maskBit := byte(0)
	if w.useMask {
		maskBit = 0x80
	}
	switch {
	case n < 126:
		header = append(header, byte(n)|maskBit)
	case n <= 0xffff:
		header = append(header, 126|maskBit, byte(n>>8), byte(n))
	default:
		header = append(header,
			127|maskBit,
			byte(n>>56), byte(n>>48), byte(n>>40), byte(n>>32),
			byte(n>>24), byte(n>>16), byte(n>>8), byte(n),
		)
	}
	if w.useMask {
		header = append(header, mask[:]...)
		xorMask(payload, mask)
	}

	room := w.out.headerRoom()
	copy(room[len(room)-len(header):], header)
	frame := w.out.buffer[w.out.begin-len(header) : w.out.end]

	return w.sock.Write(frame)
}

// SendLastOutputMessage is the exported entry point used by callers once
// they have appended a payload via OutputMessage.
func (w *WebSocket) SendLastOutputMessage(opcode Opcode) Status {
	return w.sendLastOutputMessage(opcode)
}

// xorMask XORs payload in place with a repeating 4-byte mask, one byte
// at a time, so a length that is not a multiple of 4 needs no special
// tail handling and no byte past the payload is touched.
func xorMask(payload []byte, mask [4]byte) {
	for i := range payload {
		payload[i] ^= mask[i&3]
	}
}
