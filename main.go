package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rdesarz/go-http-server/content"
	"github.com/rdesarz/go-http-server/httpd"
	"github.com/rdesarz/go-http-server/nfsd"
	"github.com/rdesarz/go-http-server/tftpd"
	"github.com/rdesarz/go-http-server/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5666", "address to serve HTTP on (host:port)")
	root := flag.String("root", ".", "document root directory")
	workers := flag.Int("workers", 4, "connection worker pool size")
	queue := flag.Int("queue", 64, "pending connection queue size")
	index := flag.String("index", "", "index file name served for directory requests (empty disables)")
	timeout := flag.Duration("timeout", 30*time.Second, "per-connection read/write deadline")
	cacheEntries := flag.Int("cache", 128, "max entries in the file content cache (0 disables)")
	maxHeader := flag.Int("maxheader", httpd.DefaultMaxHeaderBytes, "max request head size in bytes")
	// TFTP flags
	tftpEnable := flag.Bool("tftp", false, "also serve the document root read-only over TFTP")
	tftpAddr := flag.String("tftp-addr", ":69", "TFTP listen address")
	// NFS flags
	nfsEnable := flag.Bool("nfs", false, "also export the document root read-only over NFS")
	nfsAddr := flag.String("nfs-addr", ":2049", "NFS listen address")
	flag.Parse()

	utils.MustPort(*addr)

	resolver, err := content.NewResolver(*root, *index, *cacheEntries)
	if err != nil {
		log.Fatalf("document root failure: %v", err)
	}

	loggerHTTP := log.New(os.Stdout, "http ", log.LstdFlags)
	srv, err := httpd.StartHTTPServer(httpd.Config{
		Addr:           *addr,
		Workers:        *workers,
		QueueSize:      *queue,
		IOTimeout:      *timeout,
		MaxHeaderBytes: *maxHeader,
	}, resolver, loggerHTTP)
	if err != nil {
		log.Fatalf("start http failure: %v", err)
	}
	defer srv.Close()

	if *tftpEnable {
		loggerTFTP := log.New(os.Stdout, "tftp ", log.LstdFlags)
		if _, err := tftpd.StartTFTPServer(*tftpAddr, resolver.FS(), loggerTFTP); err != nil {
			log.Fatalf("start tftp failure: %v", err)
		}
	}

	if *nfsEnable {
		loggerNFS := log.New(os.Stdout, "nfs ", log.LstdFlags)
		if _, err := nfsd.StartNFSServer(*nfsAddr, resolver.FS(), loggerNFS); err != nil {
			log.Fatalf("start nfs failure: %v", err)
		}
	}

	// Block until termination signal to keep goroutine servers alive
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received signal %s, exiting", sig)
}
