package gateway

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
	}
}

// NewHandler builds the routed, CORS-wrapped handler.
func NewHandler(cfg ServerConfig, api *API, ws *WebSocketHandler) http.Handler {
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	if ws != nil {
		ws.RegisterRoutes(mux)
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

// NewServer returns an HTTP/1.1 + h2c server for the board.
func NewServer(cfg ServerConfig, api *API, ws *WebSocketHandler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(NewHandler(cfg, api, ws), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
