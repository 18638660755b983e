package httpd

import (
	"errors"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/rdesarz/go-http-server/content"
)

// conn carries one accepted connection through the
// parse -> resolve -> respond -> close chain. Exactly one response is
// written per connection, best effort, then the socket closes.
type conn struct {
	id    string
	srv   *Server
	sock  net.Conn
	start time.Time

	req  *Request
	code int
	mime string
	body []byte
}

type stateFunc func(*conn) stateFunc

func (s *Server) handle(sock net.Conn) {
	c := &conn{
		id:    uuid.NewString()[:8],
		srv:   s,
		sock:  sock,
		start: time.Now(),
	}
	for state := readRequest; state != nil; {
		state = state(c)
	}
}

func readRequest(c *conn) stateFunc {
	if t := c.srv.cfg.IOTimeout; t > 0 {
		c.sock.SetDeadline(time.Now().Add(t))
	}
	req, err := ReadRequest(c.sock, c.srv.cfg.MaxHeaderBytes)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedMethod):
			c.code = 501
		case errors.Is(err, ErrInvalidPath):
			c.code = 403
		default:
			c.code = 400
		}
		return respondError
	}
	c.req = req
	return resolveFile
}

func resolveFile(c *conn) stateFunc {
	f, err := c.srv.resolver.Resolve(c.req.Path)
	switch {
	case err == nil:
		c.code, c.mime, c.body = 200, f.Mime, f.Data
		return respond
	case errors.Is(err, content.ErrNotFound):
		c.code = 404
	case errors.Is(err, content.ErrForbidden):
		c.code = 403
	default:
		c.srv.logger.Printf("%s resolve %s: %v", c.id, c.req.Path, err)
		c.code = 500
	}
	return respondError
}

func respondError(c *conn) stateFunc {
	if c.code == 404 {
		if page, ok := c.srv.resolver.NotFoundPage(); ok {
			c.mime, c.body = "text/html", page
			return respond
		}
	}
	if _, err := c.sock.Write(BuildError(c.code)); err != nil {
		c.srv.logger.Printf("%s write: %v", c.id, err)
	}
	return closeConn
}

func respond(c *conn) stateFunc {
	if _, err := c.sock.Write(BuildResponse(c.code, c.mime, c.body)); err != nil {
		c.srv.logger.Printf("%s write: %v", c.id, err)
	}
	return closeConn
}

func closeConn(c *conn) stateFunc {
	c.sock.Close()
	target := "-"
	if c.req != nil {
		target = c.req.Method + " " + c.req.Path
	}
	c.srv.logger.Printf("%s %s %s -> %d %dB in %s",
		c.id, c.sock.RemoteAddr(), target, c.code, len(c.body),
		time.Since(c.start).Round(time.Millisecond))
	return nil
}
