// Package nfsd exports the document root read-only over NFS.
package nfsd

import (
	"log"
	"net"

	"github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// handleCacheLimit bounds the NFS file-handle cache.
const handleCacheLimit = 1024

// StartNFSServer exports fs on addr. The export is wrapped read-only, so
// mutating RPCs fail with a permission error.
func StartNFSServer(addr string, fs billy.Filesystem, logger *log.Logger) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	handler := nfshelper.NewNullAuthHandler(nfshelper.NewROFS(fs))
	cached := nfshelper.NewCachingHandler(handler, handleCacheLimit)

	go func() {
		logger.Printf("NFS server listening on %s", ln.Addr())
		if err := nfs.Serve(ln, cached); err != nil {
			logger.Printf("NFS server error: %v", err)
		}
	}()
	return ln, nil
}
