package sync

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// Server accepts TCP subscribers for the hub.
type Server struct {
	Addr   string
	Hub    *Hub
	Logger *slog.Logger
}

func NewServer(addr string, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Addr: addr, Hub: hub, Logger: logger}
}

// Run listens on Addr until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is done. ln and every TCP
// subscriber are closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Logger.Info("tcp sync listening", "addr", ln.Addr().String())
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()
	defer s.Hub.CloseTCP()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Logger.Warn("tcp accept failed", "error", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if _, err := conn.Write(s.Hub.welcome("tcp")); err != nil {
			_ = conn.Close()
			continue
		}
		s.Hub.Add(conn)
		s.Logger.Info("tcp client connected", "remote", conn.RemoteAddr().String())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Logger.Info("tcp client disconnected", "remote", c.RemoteAddr().String())
			}()

			// subscribers only listen; drain whatever they send
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
