// Package websocket provides the WebSocket upgrade helpers shared by the
// signaling listener: an origin policy driven by an environment variable,
// and a small helper for mounting an upgrade handler on a mux.
package websocket

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/websocket"
)

// NewUpgrader builds an Upgrader whose CheckOrigin allows any origin unless
// FTL_ENVIRONMENT is "production", in which case only allowedOrigin is
// accepted. Empty Origin headers are always allowed, since same-origin and
// many non-browser WebSocket clients omit them.
func NewUpgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if os.Getenv("FTL_ENVIRONMENT") != "production" {
				return true
			}
			return origin == allowedOrigin
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// WithWS mounts handler at path on mux, upgrading each incoming request with
// upgrader before delegating to handler.
func WithWS(path string, mux *http.ServeMux, upgrader websocket.Upgrader, handler func(*websocket.Conn)) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logError("ws upgrade failed", err, map[string]interface{}{"path": path})
			return
		}
		logInfo("ws connected", map[string]interface{}{"path": path})
		handler(conn)
	})
}

func logInfo(msg string, meta map[string]interface{}) {
	log.Printf("[WS] %s | %v", msg, meta)
}

func logError(msg string, err error, meta map[string]interface{}) {
	log.Printf("[WS] %s: %v | %v", msg, err, meta)
}
