package mjpeg

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/events"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/frame"
	"github.com/HajjSalad/RaspberryPi-Cam-Streamer/internal/logging"
)

// DefaultAddr is where the MJPEG stream listens.
const DefaultAddr = ":8080"

// FrameSource hands out encoded frames ready to send. Next blocks until
// a frame is available or the context ends; the caller owns the
// returned frame and must Release it.
type FrameSource interface {
	Next(ctx context.Context) (*frame.Frame, error)
}

// Server accepts MJPEG viewers one at a time. The accept loop is
// deliberately serial: a connected viewer is served to completion
// before the next connection is taken, and waiting clients sit in the
// kernel accept queue meanwhile.
type Server struct {
	addr   string
	source FrameSource
	bus    *events.Bus
	logger logging.Logger

	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	closed   bool
	mu       sync.Mutex

	viewerActive atomic.Bool
	viewerAddr   atomic.Value // string, empty when no viewer
}

// NewServer creates an MJPEG server that pulls frames from source.
func NewServer(addr string, source FrameSource, bus *events.Bus) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Server{
		addr:   addr,
		source: source,
		bus:    bus,
		logger: logging.GetLogger("mjpeg"),
	}
}

// Start begins listening for viewers. IPv4 only, matching how camera
// dashboards and overlay tools are pointed at the stream by address.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp4", s.addr)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.listener = ln
	s.cancel = cancel
	s.closed = false
	s.mu.Unlock()

	s.logger.Info("MJPEG server started", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(ctx)

	return nil
}

// Addr returns the bound listen address. Nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ViewerActive reports whether a viewer is currently being served.
func (s *Server) ViewerActive() bool {
	return s.viewerActive.Load()
}

// ViewerAddr returns the connected viewer's remote address, or the
// empty string when nobody is watching.
func (s *Server) ViewerAddr() string {
	addr, _ := s.viewerAddr.Load().(string)
	return addr
}

// acceptLoop takes viewers one at a time and serves each inline.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()

			if closed {
				return
			}
			s.logger.Error("Failed to accept connection", "error", err)
			continue
		}

		s.serveViewer(ctx, conn)
	}
}

// serveViewer streams frames to one connection until it dies or the
// server shuts down.
func (s *Server) serveViewer(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.logger.Info("Viewer connected", "remote", remote)

	s.viewerAddr.Store(remote)
	s.viewerActive.Store(true)
	defer func() {
		s.viewerAddr.Store("")
		s.viewerActive.Store(false)
	}()
	defer conn.Close()

	if s.bus != nil {
		s.bus.Publish(events.ViewerConnectedEvent{
			RemoteAddr: remote,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
	}

	session := NewSession(conn)
	reason := "connection lost"

	if err := session.Begin(); err != nil {
		s.logger.Warn("Failed to send stream header", "remote", remote, "error", err)
	} else {
		for {
			f, err := s.source.Next(ctx)
			if err != nil {
				reason = "server shutdown"
				break
			}

			err = session.SendFrame(f.Bytes())
			f.Release()
			if err != nil {
				s.logger.Debug("Frame send failed", "remote", remote, "error", err)
				break
			}
		}
	}

	s.logger.Info("Viewer disconnected",
		"remote", remote,
		"frames_sent", session.FramesSent(),
		"bytes_sent", session.BytesSent(),
		"duration", session.Duration().Round(time.Millisecond),
		"reason", reason)

	if s.bus != nil {
		s.bus.Publish(events.ViewerDisconnectedEvent{
			RemoteAddr: remote,
			FramesSent: session.FramesSent(),
			BytesSent:  session.BytesSent(),
			DurationMs: session.Duration().Milliseconds(),
			Reason:     reason,
			Timestamp:  time.Now().Format(time.RFC3339),
		})
	}
}

// Stop closes the listener, aborts the active viewer session, and
// waits for the accept loop to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	listener := s.listener
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	var err error
	if listener != nil {
		err = listener.Close()
	}

	s.wg.Wait()
	s.logger.Info("MJPEG server stopped")
	return err
}
