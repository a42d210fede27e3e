package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// hmrPath is the websocket endpoint for hot module replacement.
const hmrPath = "/__hmr"

func newServeCommand(g *globals) *cobra.Command {
	var port int
	var host string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve compiled modules with hot module replacement",
		Long: `Compiles the source directory and serves every component as an ES module.
Components are recompiled as they change and connected clients are told
which modules to reload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, g, host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to serve on (defaults to serve.port from vuec.yaml)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (defaults to serve.host from vuec.yaml)")

	return cmd
}

// module is the latest compile of one component.
type module struct {
	Source  string    `json:"source"`
	URL     string    `json:"url"`
	Version int       `json:"version"`
	Failed  bool      `json:"failed"`
	Errors  []string  `json:"errors,omitempty"`
	Updated time.Time `json:"updated"`

	code      string
	sourceMap string
}

// hmrMessage is exchanged with clients over the HMR websocket.
type hmrMessage struct {
	Type    string   `json:"type"`
	URL     string   `json:"url,omitempty"`
	Version int      `json:"version,omitempty"`
	Errors  []string `json:"errors,omitempty"`
	Modules int      `json:"modules,omitempty"`
}

// hmrClient serializes writes to one connection.
type hmrClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *hmrClient) send(msg hmrMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type devServer struct {
	builder   *builder
	modules   cmap.ConcurrentMap[string, *module]
	clients   map[*hmrClient]bool
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
	log       zerolog.Logger
}

func newDevServer(b *builder, log zerolog.Logger) *devServer {
	return &devServer{
		builder: b,
		modules: cmap.New[*module](),
		clients: make(map[*hmrClient]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins in dev mode
				return true
			},
		},
		log: log,
	}
}

func runServe(cmd *cobra.Command, g *globals, host string, port int) error {
	cfg, log, err := g.load(cmd)
	if err != nil {
		return err
	}

	// CLI takes precedence
	if port != 0 {
		cfg.Serve.Port = port
	}
	if host != "" {
		cfg.Serve.Host = host
	}

	b, cleanup := newBuilder(g, cfg, log)
	defer cleanup()
	s := newDevServer(b, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := discover([]string{b.srcDir})
	if err != nil {
		return err
	}
	if err := s.rebuild(ctx, files); err != nil {
		return err
	}

	w, err := newWatcher(b.srcDir, log)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", b.srcDir, err)
	}
	defer w.Close()
	go w.run(ctx, func(set changeSet) {
		s.remove(set.Removed)
		if b.cache != nil {
			for _, f := range set.Changed {
				b.cache.InvalidateByDependency(f)
			}
		}
		if err := s.rebuild(ctx, set.Changed); err != nil {
			log.Error().Err(err).Msg("rebuild failed")
		}
	})

	addr := net.JoinHostPort(cfg.Serve.Host, strconv.Itoa(cfg.Serve.Port))
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "🚀 Serving %d module(s) at http://%s\n", s.modules.Count(), addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *devServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(hmrPath, s.handleWebSocket)
	mux.HandleFunc("/__modules", s.serveIndex)
	mux.HandleFunc("/", s.serveModule)
	return mux
}

// moduleURL is the path a component is served at.
func (s *devServer) moduleURL(source string) string {
	return "/" + filepath.ToSlash(s.builder.rel(source)) + ".js"
}

// rebuild compiles files and applies the results.
func (s *devServer) rebuild(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	units, err := s.builder.build(ctx, files)
	if err != nil {
		return err
	}
	s.apply(units)
	return nil
}

// apply stores each unit as the latest version of its module and notifies
// clients with UPDATE, or ERROR when the compile failed.
func (s *devServer) apply(units []unit) {
	for _, u := range units {
		m := &module{Source: u.Path, URL: s.moduleURL(u.Path), Updated: time.Now()}
		if u.Result != nil {
			for _, d := range u.Result.Errors {
				m.Errors = append(m.Errors, d.Error())
			}
		}
		if u.Failed() {
			m.Failed = true
			if len(m.Errors) == 0 && u.Err != nil {
				m.Errors = []string{u.Err.Error()}
			}
		} else {
			m.code = u.Result.Code
			m.sourceMap = u.Result.Map
		}

		s.modules.Upsert(m.URL, m, func(exist bool, old, next *module) *module {
			next.Version = 1
			if exist {
				next.Version = old.Version + 1
			}
			return next
		})

		msg := hmrMessage{Type: "UPDATE", URL: m.URL, Version: m.Version}
		if m.Failed {
			msg = hmrMessage{Type: "ERROR", URL: m.URL, Version: m.Version, Errors: m.Errors}
			s.log.Warn().Str("file", u.Path).Strs("errors", m.Errors).Msg("compile failed")
		} else {
			s.log.Info().Str("url", m.URL).Int("version", m.Version).Bool("cached", u.Cached).Msg("module updated")
		}
		s.notifyClients(msg)
	}
}

// remove drops deleted components and tells clients to reload.
func (s *devServer) remove(files []string) {
	for _, f := range files {
		url := s.moduleURL(f)
		s.modules.Remove(url)
		if s.builder.cache != nil {
			s.builder.cache.InvalidateByDependency(f)
		}
		s.log.Info().Str("url", url).Msg("module removed")
		s.notifyClients(hmrMessage{Type: "REMOVE", URL: url})
	}
}

func (s *devServer) serveModule(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Path
	wantMap := strings.HasSuffix(url, ".js.map")
	url = strings.TrimSuffix(url, ".map")

	m, ok := s.modules.Get(url)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")

	if m.Failed {
		http.Error(w, strings.Join(m.Errors, "\n"), http.StatusInternalServerError)
		return
	}
	if wantMap {
		if m.sourceMap == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(m.sourceMap))
		return
	}

	code := m.code
	if m.sourceMap != "" {
		code += "//# sourceMappingURL=" + path.Base(url) + ".map\n"
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Write([]byte(code))
}

// serveIndex lists every module, sorted by URL.
func (s *devServer) serveIndex(w http.ResponseWriter, r *http.Request) {
	list := make([]*module, 0, s.modules.Count())
	for _, m := range s.modules.Items() {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].URL < list[j].URL })

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		s.log.Error().Err(err).Msg("encode module index")
	}
}

func (s *devServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	client := &hmrClient{conn: conn}
	s.clientsMu.Lock()
	s.clients[client] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client)
		s.clientsMu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Msg("websocket error")
			}
			return
		}

		var msg hmrMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.log.Warn().Err(err).Msg("malformed websocket message")
			continue
		}

		switch msg.Type {
		case "HELLO":
			if err := client.send(hmrMessage{Type: "ACK", Modules: s.modules.Count()}); err != nil {
				return
			}
		default:
			s.log.Debug().Str("type", msg.Type).Msg("unknown websocket message type")
		}
	}
}

func (s *devServer) notifyClients(msg hmrMessage) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for client := range s.clients {
		if err := client.send(msg); err != nil {
			s.log.Warn().Err(err).Msg("failed to send message to client")
		}
	}
}
