package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"sync/atomic"
	"time"

	"github.com/orderfeed/client/pkg/venue"
)

// maxJitter bounds the random sleep a worker takes before each (re)connect
// attempt, so a restart storm across N workers doesn't hammer the gateway
// in lockstep.
const maxJitter = 250 * time.Millisecond

// messageBufferSize is the scratch buffer each worker reuses across
// GetMessage calls. It reserves one byte on each side of the usable
// range for the '{'/'}' normalization receiveLoop performs in place.
const messageBufferSize = 64 * 1024

// WorkerConfig is the per-worker configuration a Supervisor hands to
// every worker it starts.
type WorkerConfig struct {
	Host        string
	Port        int
	Path        string
	UseMask     bool
	Cred        Credentials
	Subscribe   SubscribeTemplate
	NonBlocking bool // true selects returnOnNoData=true reads (the inverse of the "wait" toggle)
	FineCap     uint64 // per-worker; supervisor.New gives workers 0-1 an unbounded override
}

// Dialer is the subset of internal/dial.Dialer a worker needs, kept as
// an interface here so tests can substitute an in-memory connection.
type Dialer interface {
	Dial(ctx context.Context) (net.Conn, error)
}

// Worker runs one connection's login/subscribe/receive-react loop
// forever, reconnecting with jitter until ctx is canceled.
type Worker struct {
	id     int
	cfg    WorkerConfig
	dialer Dialer
	ring   *DuplicateRing
	logger *slog.Logger

	conn  atomic.Pointer[net.Conn]
	ready atomic.Bool
}

// NewWorker returns a worker ready to Run.
func NewWorker(id int, cfg WorkerConfig, dialer Dialer, ring *DuplicateRing, logger *slog.Logger) *Worker {
	return &Worker{
		id:     id,
		cfg:    cfg,
		dialer: dialer,
		ring:   ring,
		logger: logger.With("component", fmt.Sprintf("worker-%d", id)),
	}
}

// Ready reports whether this worker has completed at least one
// login+subscribe handshake.
func (w *Worker) Ready() bool {
	return w.ready.Load()
}

// ForceClose closes the worker's current raw connection, if any,
// causing its in-flight read to observe venue.Closed and the worker to
// restart its connect loop. This is the watchdog's rotation mechanism.
func (w *Worker) ForceClose() {
	if p := w.conn.Load(); p != nil && *p != nil {
		_ = (*p).Close()
	}
}

// Run loops forever: connect, login, subscribe, receive-react, until
// ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	for ctx.Err() == nil {
		jitter := time.Duration(rand.Int63n(int64(maxJitter)))
		select {
		case <-ctx.Done():
			return
		case <-time.After(jitter):
		}

		if err := w.runOnce(ctx); err != nil {
			w.logger.Warn("connection cycle ended", "error", err)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) error {
	conn, err := w.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	w.conn.Store(&conn)
	defer func() {
		w.conn.Store(nil)
		_ = conn.Close()
	}()

	ws, status := venue.Handshake(conn, w.cfg.Host, w.cfg.Port, w.cfg.Path, w.cfg.UseMask)
	if status != venue.Success {
		return fmt.Errorf("handshake: %s", status)
	}

	loginStart := time.Now()
	if err := w.login(ws); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	w.logger.Info("login complete", "elapsed", time.Since(loginStart))

	if err := w.subscribe(ws); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	w.ready.Store(true)

	return w.receiveLoop(ctx, ws)
}

func (w *Worker) login(ws *venue.WebSocket) error {
	out := ws.OutputMessage()
	out.WriteString(loginFrame(w.cfg.Cred, time.Now().Unix()))
	if st := ws.SendLastOutputMessage(venue.OpText); st != venue.Success {
		return fmt.Errorf("send: %s", st)
	}

	var buf [4096]byte
	_, st := ws.GetMessage(buf[:], 0, false, false)
	if st != venue.Success {
		return fmt.Errorf("recv: %s", st)
	}
	return nil
}

func (w *Worker) subscribe(ws *venue.WebSocket) error {
	out := ws.OutputMessage()
	out.WriteString(subscribeFrame(w.cfg.Subscribe))
	if st := ws.SendLastOutputMessage(venue.OpText); st != venue.Success {
		return fmt.Errorf("send: %s", st)
	}

	var buf [4096]byte
	_, st := ws.GetMessage(buf[:], 0, false, false)
	if st != venue.Success {
		return fmt.Errorf("recv: %s", st)
	}
	return nil
}

// receiveLoop reads one message at a time, extracts its order records,
// dedupes each against the shared ring, replies to the survivors, and
// restarts the connection once the fine accumulator exceeds the
// worker's cap.
func (w *Worker) receiveLoop(ctx context.Context, ws *venue.WebSocket) error {
	extractor := venue.NewExtractor()
	var buf [messageBufferSize]byte
	// Reserve one byte on each side of the usable range for the
	// '{'/'}' normalization below; start writing one byte in.
	const pad = 1
	var fine uint64

	for {
		if ctx.Err() != nil {
			return nil
		}

		end, st := ws.GetMessage(buf[:], pad, w.cfg.NonBlocking, false)
		switch st {
		case venue.NoData:
			continue
		case venue.Closed:
			return fmt.Errorf("recv: %s", st)
		}

		msg := normalize(buf[:], pad, end)
		if len(msg) == 0 {
			continue
		}
		if !extractor.Extract(msg) {
			w.logger.Debug("skipping malformed frame")
			continue
		}

		for _, rec := range extractor.Records() {
			if !w.emit(ws, &rec, &fine) {
				continue
			}
		}

		if fine > w.cfg.FineCap {
			return fmt.Errorf("fine cap exceeded: %d", fine)
		}
	}
}

// normalize wraps a bare `"data":[...]` fragment into a complete JSON
// object by inserting the missing outer braces in place, reusing the
// one byte of slack reserved on each side of [begin,end) rather than
// allocating.
func normalize(buf []byte, begin, end int) []byte {
	if begin >= end {
		return nil
	}
	if buf[begin] != '{' {
		begin--
		buf[begin] = '{'
	}
	if buf[end-1] != '}' {
		buf[end] = '}'
		end++
	}
	return buf[begin:end]
}

// emit derives the record's order id, dedupes it against the shared
// ring, and either drops it (accruing a fine) or writes and sends a
// reply frame. It returns true if a reply was sent.
func (w *Worker) emit(ws *venue.WebSocket, rec *venue.Record, fine *uint64) bool {
	ordID := rec.Fields[venue.FieldOrderID]
	state := rec.Fields[venue.FieldState]
	id, ok := OrderID(ordID, state)
	if !ok {
		return false
	}

	count := w.ring.QueryAndRegister(id.Uint64())
	if count > 0 {
		*fine += (uint64(1) << (count - 1)) - 1
		return false
	}

	out := ws.OutputMessage()
	venue.WriteReply(out, rec, w.cfg.Cred.APIKey, w.cfg.Cred.Sign)
	return ws.SendLastOutputMessage(venue.OpText) == venue.Success
}
