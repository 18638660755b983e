package httpd

import (
	"bufio"
	"io"
	"net/url"
	"path"
	"strings"
)

// DefaultMaxHeaderBytes bounds the request head (request line plus headers)
// when the caller does not set a limit.
const DefaultMaxHeaderBytes = 8 << 10

// Header is a single request header. Arrival order is preserved.
type Header struct {
	Name  string
	Value string
}

// Request is one parsed request head. Path is percent-decoded, normalized
// and rooted at "/"; it never contains ".." segments. Immutable once built.
type Request struct {
	Method  string
	Path    string
	Version string
	Headers []Header
}

// Get returns the first value of the named header, matched
// case-insensitively, or "".
func (r *Request) Get(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// headReader reads CRLF-terminated lines while counting consumed bytes so a
// slow-drip or oversized head fails with ErrTooLarge instead of buffering
// without bound.
type headReader struct {
	br  *bufio.Reader
	n   int
	max int
}

func (h *headReader) line() (string, error) {
	s, err := h.br.ReadString('\n')
	h.n += len(s)
	if h.n >= h.max {
		return "", ErrTooLarge
	}
	if err != nil {
		return "", ErrMalformed
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// ReadRequest reads exactly one request head from r: a request line, zero or
// more header lines, and the terminating blank line. It never reads past the
// blank line and never reads more than maxHeaderBytes in total.
func ReadRequest(r io.Reader, maxHeaderBytes int) (*Request, error) {
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}
	hr := &headReader{
		br:  bufio.NewReader(io.LimitReader(r, int64(maxHeaderBytes))),
		max: maxHeaderBytes,
	}

	line, err := hr.line()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return nil, ErrMalformed
	}
	req := &Request{Method: fields[0], Version: fields[2]}
	if !strings.HasPrefix(req.Version, "HTTP/") {
		return nil, ErrMalformed
	}
	if req.Method != "GET" {
		return nil, ErrUnsupportedMethod
	}
	if req.Path, err = normalizeTarget(fields[1]); err != nil {
		return nil, err
	}

	for {
		line, err := hr.line()
		if err != nil {
			return nil, err
		}
		if line == "" {
			return req, nil
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			return nil, ErrMalformed
		}
		req.Headers = append(req.Headers, Header{
			Name:  strings.TrimSpace(line[:i]),
			Value: strings.TrimSpace(line[i+1:]),
		})
	}
}

// normalizeTarget strips the query, percent-decodes the target and
// normalizes it, rejecting any form that would climb above "/". This is the
// first traversal defense; the file resolver re-checks the canonical
// on-disk path.
func normalizeTarget(target string) (string, error) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	decoded, err := url.PathUnescape(target)
	if err != nil {
		return "", ErrInvalidPath
	}
	if !strings.HasPrefix(decoded, "/") {
		return "", ErrInvalidPath
	}
	depth := 0
	for _, seg := range strings.Split(decoded[1:], "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return "", ErrInvalidPath
			}
		default:
			depth++
		}
	}
	return path.Clean(decoded), nil
}
