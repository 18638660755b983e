// Package tftpd serves the document root read-only over TFTP.
package tftpd

import (
	"io"
	"log"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	tftp "github.com/pin/tftp/v3"
)

// cleanName maps a requested TFTP filename onto a root-relative path.
// Reports false for names with no usable path.
func cleanName(name string) (string, bool) {
	rel := strings.TrimPrefix(path.Clean("/"+strings.TrimSpace(name)), "/")
	if rel == "" || rel == "." {
		return "", false
	}
	return rel, true
}

// StartTFTPServer serves read requests for files under fs, the same bound
// document root the HTTP frontend uses. Write requests are rejected.
func StartTFTPServer(addr string, fs billy.Filesystem, logger *log.Logger) (*tftp.Server, error) {
	readHandler := func(filename string, rf io.ReaderFrom) error {
		rel, ok := cleanName(filename)
		if !ok {
			return os.ErrNotExist
		}
		f, err := fs.Open(rel)
		if err != nil {
			logger.Printf("read %q: %v", filename, err)
			return err
		}
		defer f.Close()
		_, err = rf.ReadFrom(f)
		return err
	}

	// Write handler not used.
	srv := tftp.NewServer(readHandler, nil)
	srv.SetTimeout(5 * time.Second)

	go func() {
		logger.Printf("TFTP server listening on %s", addr)
		if err := srv.ListenAndServe(addr); err != nil {
			logger.Printf("TFTP server error: %v", err)
		}
	}()
	return srv, nil
}
