// Command altairctl is a small operator CLI for exercising a running
// altaird deployment from the outside: discovering your own public
// endpoint via STUN, and (§6.7) pinging a signaling server's health
// endpoint.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/saintparish4/altair/pkg/stunclient"
)

const defaultSTUNServer = "stun.l.google.com:19302"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "discover":
		err = discoverCommand()
	case "health":
		err = healthCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func discoverCommand() error {
	stunServer := os.Getenv("STUN_SERVER")
	if stunServer == "" {
		stunServer = defaultSTUNServer
	}

	fmt.Printf("Discovering public endpoint using STUN server: %s\n", stunServer)

	client := stunclient.NewClient(stunServer)
	endpoint, err := client.Discover()
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	fmt.Printf("\nDiscovered public endpoint: %s\n", endpoint)
	fmt.Printf("  IP:   %s\n", endpoint.IP)
	fmt.Printf("  Port: %d\n", endpoint.Port)
	return nil
}

func healthCommand(args []string) error {
	addr := "http://localhost:3479/health"
	if len(args) > 0 {
		addr = args[0]
	}

	resp, err := http.Get(addr)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	fmt.Printf("%s -> %s\n", addr, resp.Status)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: %s", resp.Status)
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: altairctl <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  discover         Discover your public IP and port using STUN")
	fmt.Println("  health [addr]    Check a signaling server's /health endpoint")
	fmt.Println("  help             Show this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  STUN_SERVER      STUN server address (default: %s)\n", defaultSTUNServer)
	fmt.Println()
	fmt.Println("Example:")
	fmt.Println("  altairctl discover")
	fmt.Println("  STUN_SERVER=stun.ekiga.net:3478 altairctl discover")
	fmt.Println("  altairctl health http://localhost:3479/health")
}
