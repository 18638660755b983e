// Package httpd is a minimal HTTP/1.1 server serving GET requests for files
// under a document root. One request per connection, Connection: close
// always; concurrency is bounded by a fixed worker pool.
package httpd

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/rdesarz/go-http-server/content"
	"github.com/rdesarz/go-http-server/utils"
)

// Config is read-only after startup.
type Config struct {
	// Addr is the host:port to bind.
	Addr string
	// Workers is the size of the connection worker pool.
	Workers int
	// QueueSize bounds the pending connection queue. A full queue blocks
	// the accept loop, which is the server's backpressure.
	QueueSize int
	// IOTimeout is the per-connection read/write deadline. Zero disables.
	IOTimeout time.Duration
	// MaxHeaderBytes bounds the request head. Zero means the default.
	MaxHeaderBytes int
}

// Server is a running HTTP file server.
type Server struct {
	cfg      Config
	resolver *content.Resolver
	logger   *log.Logger

	ln   net.Listener
	jobs chan net.Conn
	wg   sync.WaitGroup
}

// StartHTTPServer binds cfg.Addr and serves until Close. The accept loop and
// worker pool run on their own goroutines; the returned handle exposes the
// bound address and lifecycle.
func StartHTTPServer(cfg Config, resolver *content.Resolver, logger *log.Logger) (*Server, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = cfg.Workers
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	ln, err := utils.ListenTCP(cfg.Addr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
		ln:       ln,
		jobs:     make(chan net.Conn, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	go s.acceptLoop()

	logger.Printf("http server listening on %s, workers=%d queue=%d", ln.Addr(), cfg.Workers, cfg.QueueSize)
	return s, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Close stops accepting and waits for queued and in-flight connections to
// be handled.
func (s *Server) Close() error {
	err := s.ln.Close()
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer close(s.jobs)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if !errors.Is(err, net.ErrClosed) {
				s.logger.Printf("accept: %v", err)
			}
			return
		}
		s.jobs <- conn
	}
}

func (s *Server) worker() {
	defer s.wg.Done()
	for conn := range s.jobs {
		s.handle(conn)
	}
}
