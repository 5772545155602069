// Command altaird runs the NAT-traversal coordination daemon: a STUN
// binding server and a WebSocket signaling server, side by side in one
// process.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/saintparish4/altair/internal/signaling"
	"github.com/saintparish4/altair/internal/stunserver"
)

func main() {
	stunAddr := envOrDefault("ALTAIR_STUN_ADDR", fmt.Sprintf(":%d", stunserver.DefaultPort))
	signalAddr := envOrDefault("ALTAIR_SIGNAL_ADDR", ":3479")

	fs := flag.NewFlagSet("altaird", flag.ExitOnError)
	stunAddrFlag := fs.String("stun-addr", stunAddr, "UDP address for the STUN binding server")
	signalAddrFlag := fs.String("signal-addr", signalAddr, "TCP address for the WebSocket signaling server")
	stunWorkers := fs.Int("stun-workers", 0, "STUN worker pool size (0 selects runtime.GOMAXPROCS(0))")
	verbose := fs.Bool("verbose", false, "enable STUN and signaling server logs (errors, dropped packets, disconnects)")
	fs.Parse(os.Args[1:])

	logger := log.New(os.Stderr, "", log.LstdFlags)
	stunLogger := log.New(io.Discard, "", 0)
	if *verbose {
		stunLogger = log.New(os.Stderr, "[stun] ", log.LstdFlags)
	}

	workers := *stunWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	stunSrv, err := stunserver.Bind(stunserver.Config{
		Addr:    *stunAddrFlag,
		Workers: workers,
		Logger:  stunLogger,
	})
	if err != nil {
		logger.Fatalf("bind stun server: %v", err)
	}

	signalCfg := signaling.DefaultConfig()
	signalCfg.Addr = *signalAddrFlag
	if *verbose {
		signalCfg.Logger = logger
	} else {
		signalCfg.Logger = log.New(io.Discard, "", 0)
	}
	signalSrv := signaling.NewServer(signalCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stunErr := make(chan error, 1)
	go func() { stunErr <- stunSrv.Run(ctx) }()

	signalErr := make(chan error, 1)
	go func() { signalErr <- signalSrv.Start() }()

	logger.Printf("altaird up: stun=%s signal=%s workers=%d", *stunAddrFlag, *signalAddrFlag, workers)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("received %v, shutting down", sig)
	case err := <-stunErr:
		logger.Printf("stun server exited: %v", err)
	case err := <-signalErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Printf("signaling server exited: %v", err)
		}
	}

	cancel()
	stunSrv.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := signalSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("signaling shutdown: %v", err)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
