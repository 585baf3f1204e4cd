package front

import (
	"context"
	"embed"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var staticFS embed.FS

// ServerOpts holds configuration for the front-channel HTTP server.
type ServerOpts struct {
	Hub            *Hub
	Port           int
	AllowAnyOrigin bool // permit cross-origin WebSocket upgrades
	Out            io.Writer
}

// StartServer launches the front-channel HTTP server: the demo page, the
// WebSocket endpoint, health, and metrics. It blocks until ctx is
// cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, opts ServerOpts) error {
	if opts.Hub == nil {
		return fmt.Errorf("front: hub is required")
	}
	if opts.Port <= 0 {
		opts.Port = 3000
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if opts.AllowAnyOrigin {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" {
				// Non-browser clients often omit Origin. Allow them.
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return false
			}
			return strings.EqualFold(u.Host, r.Host)
		},
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	index, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return fmt.Errorf("front: embedded page: %w", err)
	}
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", index)
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		opts.Hub.ServeConn(conn)
	})

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Front channel listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("front: %w", err)
	}
	return nil
}
