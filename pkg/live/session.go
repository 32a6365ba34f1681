package live

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weft-ui/weft/pkg/component"
	"github.com/weft-ui/weft/pkg/fragment"
	"github.com/weft-ui/weft/pkg/reactive"
	"github.com/weft-ui/weft/pkg/telemetry"
	"github.com/weft-ui/weft/pkg/wire"
)

// Session is one client connection: a runtime, its remote surface, and
// the event loop that drives both. All runtime access happens on the
// loop goroutine; the read loop and outside callers reach it through the
// events and dispatch channels.
type Session struct {
	id      string
	conn    *websocket.Conn
	cfg     *Config
	logger  *slog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	rt      *component.Runtime
	surface *RemoteSurface
	root    *component.Instance
	spec    *fragment.ComponentSpec

	events    chan *wire.Event
	dispatch  chan func()
	done      chan struct{}
	closeOnce sync.Once

	writeMu sync.Mutex
}

func generateSessionID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("live: session id entropy unavailable: %v", err))
	}
	return hex.EncodeToString(b[:])
}

func newSession(conn *websocket.Conn, spec *fragment.ComponentSpec, cfg *Config, logger *slog.Logger, metrics *telemetry.Metrics, tracer *telemetry.Tracer) *Session {
	s := &Session{
		id:       generateSessionID(),
		conn:     conn,
		cfg:      cfg,
		metrics:  metrics,
		tracer:   tracer,
		spec:     spec,
		events:   make(chan *wire.Event, cfg.EventQueueSize),
		dispatch: make(chan func(), cfg.EventQueueSize),
		done:     make(chan struct{}),
	}
	s.logger = logger.With("session", s.id)

	surface := NewRemoteSurface()
	opts := []component.Option{
		component.WithLogger(s.logger),
		component.WithDispatcher(s.Dispatch),
	}
	if cfg.FlushCap > 0 {
		opts = append(opts, component.WithFlushCap(cfg.FlushCap))
	}
	if metrics != nil {
		opts = append(opts, component.WithObserver(metrics))
	}
	s.surface = surface
	s.rt = component.New(surface, opts...)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Runtime returns the session's component runtime. Loop-only.
func (s *Session) Runtime() *component.Runtime {
	return s.rt
}

// Dispatch queues fn onto the session loop. Safe from any goroutine;
// dropped if the session is closed.
func (s *Session) Dispatch(fn func()) {
	select {
	case s.dispatch <- fn:
	case <-s.done:
	}
}

// Done closes when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close tears the session down. Idempotent, safe from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		if s.metrics != nil {
			s.metrics.SessionClosed()
		}
	})
}

// run is the session event loop. It mounts the root component, then
// serves events, dispatched work and heartbeats until the session
// closes. Runs on its own goroutine; the runtime is touched nowhere
// else.
func (s *Session) run() {
	defer s.Close()

	root, err := s.rt.Mount(s.spec)
	if err != nil {
		s.logger.Error("root mount failed", "err", err)
		s.sendError(1, "mount failed")
		return
	}
	s.root = root
	s.settleAndFlush(context.Background())

	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case ev := <-s.events:
			s.handleEvent(ev)
		case fn := <-s.dispatch:
			s.runDispatched(fn)
			s.settleAndFlush(context.Background())
		case <-ping.C:
			s.writeFrame(wire.NewFrame(wire.FrameControl, wire.EncodeControl(wire.ControlPing)))
		case <-s.done:
			s.root.Destroy()
			return
		}
	}
}

func (s *Session) handleEvent(ev *wire.Event) {
	ctx, span := s.tracer.StartEvent(context.Background(), s.id, ev.Component, ev.Name)

	inst := s.rt.Instance(ev.Component)
	if inst == nil {
		s.logger.Warn("event for unknown component", "component", ev.Component, "event", ev.Name)
		if s.metrics != nil {
			s.metrics.EventHandled("error")
		}
		s.tracer.EndEvent(span, errors.New("unknown component"))
		return
	}

	err := s.safeEmit(inst, ev)
	if s.metrics != nil {
		if err != nil {
			s.metrics.EventHandled("error")
		} else {
			s.metrics.EventHandled("ok")
		}
	}
	s.settleAndFlush(ctx)
	s.tracer.EndEvent(span, err)
}

// safeEmit fires the handler with panic isolation so one bad handler
// cannot take the session down.
func (s *Session) safeEmit(inst *component.Instance, ev *wire.Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
			s.logger.Error("event handler panicked",
				"component", inst.Name(), "event", ev.Name,
				"panic", rec, "stack", string(debug.Stack()))
		}
	}()
	args := make([]any, len(ev.Args))
	for i, a := range ev.Args {
		args[i] = a
	}
	inst.Emit(ev.Name, args...)
	return nil
}

func (s *Session) runDispatched(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("dispatched work panicked", "panic", rec, "stack", string(debug.Stack()))
		}
	}()
	fn()
}

// settleAndFlush flushes pending updates and ships the resulting ops.
func (s *Session) settleAndFlush(ctx context.Context) {
	_, span := s.tracer.StartFlush(ctx, s.id)
	err := s.rt.Settle()
	if err != nil {
		if errors.Is(err, reactive.ErrSchedulerOverflow) {
			s.logger.Error("update storm, closing session", "err", err)
			s.sendError(2, "update storm")
			s.tracer.EndEvent(span, err)
			s.Close()
			return
		}
		s.logger.Warn("settle finished with errors", "err", err)
	}
	s.tracer.EndEvent(span, err)

	batch := s.surface.TakeBatch()
	if batch == nil {
		return
	}
	payload := wire.EncodeOps(batch)
	if werr := s.writeFrame(wire.NewFrame(wire.FrameOps, payload)); werr != nil {
		s.logger.Error("ops write failed", "err", werr)
		s.Close()
		return
	}
	if s.metrics != nil {
		s.metrics.OpsSent(len(batch.Ops), len(payload))
	}
}

func (s *Session) sendError(code uint16, msg string) {
	s.writeFrame(wire.NewFrame(wire.FrameError, wire.EncodeError(&wire.ErrorFrame{Code: code, Message: msg})))
}

func (s *Session) writeFrame(f *wire.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(websocket.BinaryMessage, f.Encode())
}

// readLoop reads frames off the connection until it fails or the session
// closes. Blocks; the server runs it on the connection's goroutine.
func (s *Session) readLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.cfg.MaxMessageSize)

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "err", err)
			}
			return
		}

		frame, err := wire.DecodeFrame(msg)
		if err != nil {
			s.logger.Error("frame decode error", "err", err)
			continue
		}

		switch frame.Type {
		case wire.FrameEvent:
			ev, err := wire.DecodeEvent(frame.Payload)
			if err != nil {
				s.logger.Error("event decode error", "err", err)
				continue
			}
			select {
			case s.events <- ev:
			default:
				s.logger.Warn("event queue full, dropping", "event", ev.Name)
				if s.metrics != nil {
					s.metrics.EventHandled("dropped")
				}
			}

		case wire.FrameControl:
			code, err := wire.DecodeControl(frame.Payload)
			if err != nil {
				continue
			}
			if code == wire.ControlPing {
				s.writeFrame(wire.NewFrame(wire.FrameControl, wire.EncodeControl(wire.ControlPong)))
			}

		case wire.FrameAck:
			// Acks are informational until resumable sessions land.

		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type.String())
		}
	}
}
