// Package mjpeg serves the camera feed as motion JPEG over a raw TCP
// socket: one HTTP response that never ends, carrying JPEG frames as
// multipart/x-mixed-replace parts. Browsers render it natively.
package mjpeg

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Boundary separates frames inside the multipart stream.
const Boundary = "frame"

// ErrConnectionLost means the viewer went away mid-write.
var ErrConnectionLost = errors.New("viewer connection lost")

// sessionHeader opens the HTTP response. It is sent once per viewer;
// everything after it is multipart frame data until the socket closes.
var sessionHeader = []byte("HTTP/1.1 200 OK\r\n" +
	"Connection: close\r\n" +
	"Cache-Control: no-cache\r\n" +
	"Content-Type: multipart/x-mixed-replace; boundary=" + Boundary + "\r\n" +
	"\r\n")

// writeTimeout bounds each socket write so a wedged viewer cannot hang
// the sender forever. Slow viewers are already absorbed by frame drops
// upstream; this only catches connections that stopped draining at all.
const writeTimeout = 10 * time.Second

// Session writes the MJPEG stream for one viewer and keeps its
// delivery counters.
type Session struct {
	conn    net.Conn
	head    []byte
	frames  uint64
	bytes   uint64
	started time.Time
}

// NewSession wraps an accepted viewer connection.
func NewSession(conn net.Conn) *Session {
	return &Session{
		conn:    conn,
		head:    make([]byte, 0, 96),
		started: time.Now(),
	}
}

// Begin sends the multipart response header.
func (s *Session) Begin() error {
	if err := s.write(sessionHeader); err != nil {
		return err
	}
	return nil
}

// SendFrame writes one JPEG payload as a multipart part: the boundary
// and part headers, the payload, and the closing CRLF, in that order.
func (s *Session) SendFrame(payload []byte) error {
	s.head = s.head[:0]
	s.head = append(s.head, "--"+Boundary+"\r\nContent-Type: image/jpeg\r\nContent-Length: "...)
	s.head = strconv.AppendInt(s.head, int64(len(payload)), 10)
	s.head = append(s.head, "\r\n\r\n"...)

	if err := s.write(s.head); err != nil {
		return err
	}
	if err := s.write(payload); err != nil {
		return err
	}
	if err := s.write([]byte("\r\n")); err != nil {
		return err
	}

	s.frames++
	s.bytes += uint64(len(payload))
	return nil
}

func (s *Session) write(p []byte) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	if _, err := s.conn.Write(p); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	return nil
}

// FramesSent returns how many frames this session delivered.
func (s *Session) FramesSent() uint64 { return s.frames }

// BytesSent returns the JPEG payload bytes this session delivered,
// excluding part headers.
func (s *Session) BytesSent() uint64 { return s.bytes }

// Duration returns how long the session has been running.
func (s *Session) Duration() time.Duration { return time.Since(s.started) }
