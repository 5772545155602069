package stunclient

import (
	"context"
	"testing"
	"time"

	"github.com/saintparish4/altair/internal/stunserver"
)

func TestDiscoverAgainstLocalServer(t *testing.T) {
	cfg := stunserver.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.Workers = 2

	srv, err := stunserver.Bind(cfg)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Run(ctx)

	client := NewClient(srv.LocalAddr().String())
	client.Timeout = 2 * time.Second

	endpoint, err := client.Discover()
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if endpoint.IP != "127.0.0.1" {
		t.Fatalf("expected loopback address, got %s", endpoint.IP)
	}
	if endpoint.Port == 0 {
		t.Fatalf("expected a non-zero ephemeral port, got %d", endpoint.Port)
	}
}

func TestDiscoverTimesOutAgainstSilentServer(t *testing.T) {
	// A UDP socket nobody answers on: Discover must time out rather than
	// hang, using the well-known TEST-NET-1 address which will not
	// route a reply back.
	client := NewClient("192.0.2.1:3478")
	client.Timeout = 100 * time.Millisecond

	if _, err := client.Discover(); err == nil {
		t.Fatal("expected Discover to time out against an unreachable server")
	}
}
