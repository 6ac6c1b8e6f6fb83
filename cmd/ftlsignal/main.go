// Command ftlsignal runs the FTL ingest listener and the WebRTC signaling
// listener side by side against one shared channel registry.
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	gorillaws "github.com/gorilla/websocket"
	"github.com/n0remac/ftlsignal/examplehost"
	"github.com/n0remac/ftlsignal/ingest"
	"github.com/n0remac/ftlsignal/registry"
	"github.com/n0remac/ftlsignal/signaling"
	wsutil "github.com/n0remac/ftlsignal/websocket"
	"github.com/pion/webrtc/v4"
)

type config struct {
	ingestAddr    string
	signalingAddr string
	minPort       int
	maxPort       int
	iceServers    []webrtc.ICEServer
}

func loadConfig() config {
	cfg := config{
		ingestAddr:    envOr("FTL_INGEST_ADDR", ":8084"),
		signalingAddr: envOr("FTL_SIGNALING_ADDR", ":9050"),
		minPort:       envIntOr("FTL_INGEST_PORT_MIN", 10100),
		maxPort:       envIntOr("FTL_INGEST_PORT_MAX", 10200),
	}
	if stun := os.Getenv("FTL_STUN_SERVER"); stun != "" {
		cfg.iceServers = []webrtc.ICEServer{{URLs: []string{stun}}}
	} else {
		cfg.iceServers = []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[CONFIG] invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func main() {
	cfg := loadConfig()

	channels := registry.NewChannelRegistry()
	viewers := registry.NewViewerSet()
	host := examplehost.New(channels, examplehost.LoadStreamKeysFromEnv(), uint16(cfg.minPort), uint16(cfg.maxPort))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go runIngestListener(ctx, cfg.ingestAddr, host)
	go runSignalingListener(ctx, cfg.signalingAddr, channels, viewers, cfg.iceServers)

	waitForShutdown()
	log.Println("[MAIN] shutting down")
}

func waitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}

func runIngestListener(ctx context.Context, addr string, host *examplehost.Host) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("[FTL] listen %s: %v", addr, err)
	}
	log.Printf("[FTL] listening on %s", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Printf("[FTL] accept error: %v", err)
			return
		}
		go func() {
			log.Printf("[FTL] publisher connected: %s", conn.RemoteAddr())
			session, err := ingest.NewSession(conn, host)
			if err != nil {
				log.Printf("[FTL] session setup failed: %v", err)
				conn.Close()
				return
			}
			session.Serve(ctx)
		}()
	}
}

func runSignalingListener(ctx context.Context, addr string, channels *registry.ChannelRegistry, viewers *registry.ViewerSet, iceServers []webrtc.ICEServer) {
	mux := http.NewServeMux()
	upgrader := wsutil.NewUpgrader(envOr("FTL_ALLOWED_ORIGIN", "https://example.invalid"))
	wsutil.WithWS("/ws", mux, upgrader, func(conn *gorillaws.Conn) {
		signaling.NewSession(conn, channels, viewers, iceServers).Serve()
	})

	log.Printf("[SIGNAL] listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("[SIGNAL] listen %s: %v", addr, err)
	}
}
