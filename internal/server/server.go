package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ragbot-core/server/internal/article"
	logx "github.com/ragbot-core/server/pkg/logger"
)

// Config carries the HTTP listener settings.
type Config struct {
	Addr            string `envconfig:"HTTP_ADDR" default:":8080"`
	ShutdownTimeout int    `envconfig:"HTTP_SHUTDOWN_TIMEOUT_SEC" default:"10"`
}

// Server owns the route table and the services behind it.
type Server struct {
	cfg      Config
	chat     ChatService
	answerer Answerer
	searcher Searcher
	articles *article.Store

	simplePersona string
	botName       string
}

// Options bundles the service dependencies and persona strings.
type Options struct {
	Chat          ChatService
	Answerer      Answerer
	Searcher      Searcher
	Articles      *article.Store
	SimplePersona string
	BotName       string
}

func New(cfg Config, opts Options) *Server {
	articles := opts.Articles
	if articles == nil {
		articles = article.NewStore()
	}
	return &Server{
		cfg:           cfg,
		chat:          opts.Chat,
		answerer:      opts.Answerer,
		searcher:      opts.Searcher,
		articles:      articles,
		simplePersona: opts.SimplePersona,
		botName:       opts.BotName,
	}
}

// Routes builds the endpoint table. Every handler is wrapped in the recover
// middleware so a panic still yields the uniform failure envelope.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bot/simple", s.handleSimple)
	mux.HandleFunc("/bot/history", s.handleHistory)
	mux.HandleFunc("/bot/stream", s.handleStream)
	mux.HandleFunc("/bot/translate", s.handleTranslate)
	mux.HandleFunc("/bot/search", s.handleSearch)
	mux.HandleFunc("/qna", s.handleQnA)
	mux.HandleFunc("/article", s.handleArticles)
	mux.HandleFunc("/article/", s.handleArticleByID)
	return s.recoverMiddleware(mux)
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logx.Error().Any("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				writeEnvelope(w, Envelope{Code: http.StatusInternalServerError, Data: nil, Msg: "server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logx.Info().Msg("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
