package httpd

import (
	"bytes"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rdesarz/go-http-server/content"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func startTestServer(t *testing.T, root string) *Server {
	t.Helper()
	resolver, err := content.NewResolver(root, "", 8)
	if err != nil {
		t.Fatalf("NewResolver error: %v", err)
	}
	srv, err := StartHTTPServer(Config{
		Addr:      "127.0.0.1:0",
		Workers:   2,
		QueueSize: 4,
		IOTimeout: 2 * time.Second,
	}, resolver, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("StartHTTPServer error: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv
}

// roundTrip sends raw bytes and returns the full response; the server
// closes the connection after one response.
func roundTrip(t *testing.T, srv *Server, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("write: %v", err)
	}
	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(resp)
}

func responseBody(t *testing.T, resp string) string {
	t.Helper()
	i := strings.Index(resp, "\r\n\r\n")
	if i < 0 {
		t.Fatalf("no head terminator in %q", resp)
	}
	return resp[i+4:]
}

func TestServeExistingHTMLFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "hello.html", []byte("<p>Hi</p>"))
	srv := startTestServer(t, root)

	resp := roundTrip(t, srv, "GET /hello.html HTTP/1.1\r\nHost: x\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status got=%q", resp)
	}
	if !strings.Contains(resp, "Content-Type: text/html\r\n") {
		t.Fatalf("missing content type: %q", resp)
	}
	if !strings.Contains(resp, "Content-Length: 9\r\n") {
		t.Fatalf("missing content length: %q", resp)
	}
	if !strings.Contains(resp, "Connection: close\r\n") {
		t.Fatalf("missing connection close: %q", resp)
	}
	if got := responseBody(t, resp); got != "<p>Hi</p>" {
		t.Fatalf("body got=%q", got)
	}
}

func TestServeBinaryFileByteIdentical(t *testing.T) {
	root := t.TempDir()
	payload := make([]byte, 512)
	for i := range payload {
		payload[i] = byte(i)
	}
	writeFile(t, root, "logo.png", payload)
	srv := startTestServer(t, root)

	resp := roundTrip(t, srv, "GET /logo.png HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("status got=%q", resp[:minInt(len(resp), 40)])
	}
	if !strings.Contains(resp, "Content-Type: image/png\r\n") {
		t.Fatalf("missing png content type")
	}
	if got := responseBody(t, resp); !bytes.Equal([]byte(got), payload) {
		t.Fatalf("body not byte-identical to file: got %d bytes", len(got))
	}
}

func TestServeMissingFile(t *testing.T) {
	srv := startTestServer(t, t.TempDir())
	resp := roundTrip(t, srv, "GET /missing.html HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("status got=%q", resp)
	}
}

func TestServeCustomNotFoundPage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "404.html", []byte("<h1>gone</h1>"))
	srv := startTestServer(t, root)

	resp := roundTrip(t, srv, "GET /missing.html HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 404 Not Found\r\n") {
		t.Fatalf("status got=%q", resp)
	}
	if !strings.Contains(resp, "Content-Type: text/html\r\n") {
		t.Fatalf("custom page should be html: %q", resp)
	}
	if got := responseBody(t, resp); got != "<h1>gone</h1>" {
		t.Fatalf("body got=%q", got)
	}
}

func TestTraversalNeverServed(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, parent, "secret.txt", []byte("top secret"))
	srv := startTestServer(t, root)

	resp := roundTrip(t, srv, "GET /../secret.txt HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 403 ") && !strings.HasPrefix(resp, "HTTP/1.1 404 ") {
		t.Fatalf("traversal status got=%q", resp)
	}
	if strings.Contains(resp, "top secret") {
		t.Fatalf("traversal leaked file content")
	}
	if strings.Contains(resp, parent) {
		t.Fatalf("response leaked filesystem path")
	}
}

func TestMalformedRequestLine(t *testing.T) {
	srv := startTestServer(t, t.TempDir())
	resp := roundTrip(t, srv, "BADLINE\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 400 Bad Request\r\n") {
		t.Fatalf("status got=%q", resp)
	}
}

func TestUnsupportedMethod(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "hello.html", []byte("<p>Hi</p>"))
	srv := startTestServer(t, root)

	resp := roundTrip(t, srv, "POST /hello.html HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(resp, "HTTP/1.1 501 Not Implemented\r\n") {
		t.Fatalf("status got=%q", resp)
	}
}

func TestRepeatedGETIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("stable content"))
	srv := startTestServer(t, root)

	first := roundTrip(t, srv, "GET /a.txt HTTP/1.1\r\n\r\n")
	second := roundTrip(t, srv, "GET /a.txt HTTP/1.1\r\n\r\n")
	if first != second {
		t.Fatalf("repeated GET not byte-identical")
	}
}

func TestConcurrentConnections(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", []byte("payload"))
	srv := startTestServer(t, root)

	done := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			conn, err := net.Dial("tcp", srv.Addr().String())
			if err != nil {
				done <- err.Error()
				return
			}
			defer conn.Close()
			conn.Write([]byte("GET /a.txt HTTP/1.1\r\n\r\n"))
			resp, _ := io.ReadAll(conn)
			done <- string(resp)
		}()
	}
	for i := 0; i < 8; i++ {
		resp := <-done
		if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
			t.Fatalf("concurrent request %d got=%q", i, resp)
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
