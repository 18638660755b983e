package httpd

import "errors"

// Parse failures. The connection handler maps each to a status code.
var (
	ErrMalformed         = errors.New("httpd: malformed request")
	ErrUnsupportedMethod = errors.New("httpd: unsupported method")
	ErrInvalidPath       = errors.New("httpd: invalid request path")
	ErrTooLarge          = errors.New("httpd: request head too large")
)
