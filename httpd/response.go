package httpd

import (
	"bytes"
	"strconv"
)

// Reason phrases for the codes this server emits.
var statusText = map[int]string{
	200: "OK",
	400: "Bad Request",
	403: "Forbidden",
	404: "Not Found",
	500: "Internal Server Error",
	501: "Not Implemented",
}

// StatusText returns the reason phrase for code. Codes outside the table
// collapse to 500's phrase.
func StatusText(code int) string {
	if s, ok := statusText[code]; ok {
		return s
	}
	return statusText[500]
}

// BuildResponse serializes one complete HTTP/1.1 response. Content-Length
// always equals len(body) and the connection is always marked closed.
func BuildResponse(code int, contentType string, body []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(body) + 128)
	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(code))
	buf.WriteByte(' ')
	buf.WriteString(StatusText(code))
	buf.WriteString("\r\n")
	writeHeaderLine(&buf, "Content-Type", contentType)
	writeHeaderLine(&buf, "Content-Length", strconv.Itoa(len(body)))
	writeHeaderLine(&buf, "Connection", "close")
	buf.WriteString("\r\n")
	buf.Write(body)
	return buf.Bytes()
}

// BuildError builds a minimal plain-text error response. The body carries
// only the code and phrase, never a filesystem path.
func BuildError(code int) []byte {
	body := strconv.Itoa(code) + " " + StatusText(code) + "\n"
	return BuildResponse(code, "text/plain", []byte(body))
}

func writeHeaderLine(buf *bytes.Buffer, name, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString("\r\n")
}
