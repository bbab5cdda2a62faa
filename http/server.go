package http

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type Server struct {
	Name string
	// Directory is the served directory for /files/, empty when not configured.
	Directory string
	Handler   Handler
	Pool      *WorkerPool
	Logger    *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	closed   atomic.Bool
}

func NewServer(name string, handler Handler, pool *WorkerPool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		Name:    name,
		Handler: handler,
		Pool:    pool,
		Logger:  logger,
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener and hands each one to the pool. It
// returns ErrServerClosed after Close or once ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	defer listener.Close()

	if s.closed.Load() {
		return ErrServerClosed
	}

	stop := context.AfterFunc(ctx, func() {
		_ = s.Close()
	})
	defer stop()

	s.Logger.Info("listening", "server", s.Name, "addr", listener.Addr().String())

	var tempDelay time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return ErrServerClosed
			}

			// Back off on accept failures such as running out of file
			// descriptors instead of spinning.
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay = min(2*tempDelay, time.Second)
			}
			s.Logger.Error("failed to accept connection", "error", err)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		connectionCount.Add(ctx, 1)

		task := ConnTask{
			ID:        uuid.NewString(),
			Conn:      conn,
			Directory: s.Directory,
			Handler:   s.Handler,
			Logger:    s.Logger,
		}
		if err := s.Pool.Execute(task); err != nil {
			conn.Close()
			if errors.Is(err, ErrPoolClosed) {
				return err
			}
			s.Logger.Error("failed to queue connection", "conn.id", task.ID, "error", err)
		}
	}
}

// ServeConn serves a single request on conn in the calling goroutine and
// closes it.
func (s *Server) ServeConn(ctx context.Context, conn net.Conn) error {
	return ConnTask{
		ID:        uuid.NewString(),
		Conn:      conn,
		Directory: s.Directory,
		Handler:   s.Handler,
		Logger:    s.Logger,
	}.Run(ctx)
}

// Close stops the accept loop. Connections already queued keep being served
// by the pool, which has its own Close.
func (s *Server) Close() error {
	s.closed.Store(true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// ConnTask is the pool task for one accepted connection. It carries copies of
// everything the handler needs so workers share no mutable state.
type ConnTask struct {
	ID        string
	Conn      net.Conn
	Directory string
	Handler   Handler
	Logger    *slog.Logger
}

// Run reads one request, dispatches it and writes the response. Any failure
// abandons the connection; a peer that closes before sending anything is
// not an error.
func (task ConnTask) Run(ctx context.Context) error {
	defer task.Conn.Close()

	logger := task.Logger.With("conn.id", task.ID, "remote", task.Conn.RemoteAddr().String())
	br := bufio.NewReaderSize(task.Conn, DefaultReadBufferSize)
	bw := bufio.NewWriterSize(task.Conn, DefaultWriteBufferSize)

	req, err := ReadRequest(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			logger.Debug("connection closed before request")
			return nil
		}
		return fmt.Errorf("conn %s: %w", task.ID, err)
	}

	for _, line := range req.Ignored {
		logger.Debug("unhandled request line", "line", line)
	}

	reqCtx := NewRequestCtx(ctx, task.ID, task.Directory, logger)
	reqCtx.Request = *req

	if err := task.Handler(reqCtx); err != nil {
		return fmt.Errorf("conn %s: %s %s: %w", task.ID, req.Method, req.Path, err)
	}

	if err := reqCtx.Response.Write(bw); err != nil {
		return fmt.Errorf("conn %s: %w", task.ID, err)
	}

	return nil
}
