// Package server runs the framed ISO-8583 TCP front end: one listener, a
// bounded worker pool, and a read-process-write loop per switch
// connection.
package server

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pridebank/atmgw/internal/iso"
	"github.com/pridebank/atmgw/internal/logging"
)

// Handler produces a response for one decoded inbound message. A nil
// response means nothing is written back.
type Handler interface {
	Process(ctx context.Context, req *iso.Message) *iso.Message
}

// Options configure the listener and its connection pool.
type Options struct {
	Addr        string
	Threads     int
	ReadTimeout time.Duration
}

// Server accepts switch connections and drives the exchange loop over
// each one until the peer disconnects or the read deadline passes.
type Server struct {
	opts    Options
	dict    *iso.Dictionary
	handler Handler
	log     logging.Logger

	workers *semaphore.Weighted

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]net.Conn

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds a server. Run starts it.
func New(opts Options, dict *iso.Dictionary, handler Handler, log logging.Logger) *Server {
	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}
	return &Server{
		opts:    opts,
		dict:    dict,
		handler: handler,
		log:     log.Module("server"),
		workers: semaphore.NewWeighted(int64(threads)),
		conns:   make(map[string]net.Conn),
	}
}

// Run binds the listener and serves until the context is cancelled or
// the listener fails. Cancellation closes the listener and every open
// connection, then returns nil.
func (s *Server) Run(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.opts.Addr)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.log.Info("listening", "addr", listener.Addr().String(), "threads", s.opts.Threads)

	g, gCtx := errgroup.WithContext(s.ctx)
	g.Go(func() error { return s.acceptLoop(gCtx) })
	g.Go(func() error {
		<-gCtx.Done()
		s.closeAll()
		return gCtx.Err()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Stop asks a running server to shut down. Safe to call more than once.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Addr returns the bound listener address, or "" before Run binds it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn("accept failed", "error", err.Error())
			continue
		}

		// The pool bounds concurrent exchanges; further connections
		// queue here until a worker frees up.
		if err := s.workers.Acquire(ctx, 1); err != nil {
			conn.Close()
			return err
		}

		go func() {
			defer s.workers.Release(1)
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn reads framed requests until the peer goes away. A frame
// that cannot be parsed gets a minimal format-error decline and the loop
// keeps going; a failed write drops the connection.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	s.track(connID, conn)
	defer s.untrack(connID)
	defer conn.Close()

	s.log.Info("connection open", "conn_id", connID, "remote", conn.RemoteAddr().String())

	for {
		if ctx.Err() != nil {
			return
		}

		if s.opts.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
		}

		req, err := iso.ReadMessage(conn, s.dict)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.log.Info("connection closed by peer", "conn_id", connID)
			case isTimeout(err):
				s.log.Info("connection idle, dropping", "conn_id", connID)
			case errors.Is(err, iso.ErrFrameIncomplete):
				s.log.Warn("connection truncated mid-frame", "conn_id", connID, "error", err.Error())
			case errors.Is(err, iso.ErrFrameMalformed):
				s.log.Warn("unparseable frame", "conn_id", connID, "error", err.Error())
				if werr := s.writeReject(conn); werr != nil {
					s.log.Error("reject write failed", "conn_id", connID, "error", werr.Error())
					return
				}
				continue
			default:
				s.log.Warn("read failed", "conn_id", connID, "error", err.Error())
			}
			return
		}

		resp := s.handler.Process(ctx, req)
		if resp == nil {
			continue
		}

		if err := iso.WriteMessage(conn, resp); err != nil {
			s.log.Error("write failed",
				"conn_id", connID,
				"mti", iso.FormatMTI(resp.MTI()),
				"error", err.Error())
			return
		}

		s.log.Debug("exchange complete",
			"conn_id", connID,
			"request_mti", iso.FormatMTI(req.MTI()),
			"response_mti", iso.FormatMTI(resp.MTI()))
	}
}

// writeReject answers a frame the codec could not parse with a minimal
// format-error decline so the switch is not left waiting on a timeout.
func (s *Server) writeReject(conn net.Conn) error {
	resp := iso.NewMessage(iso.MTIFinancialResponse)
	resp.SetField(39, iso.NewText(iso.TypeAlpha, "30", 2))
	return iso.WriteMessage(conn, resp)
}

func (s *Server) track(id string, conn net.Conn) {
	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
	for _, c := range s.conns {
		c.Close()
	}
}

func isTimeout(err error) bool {
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
