package main

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rather/internal/auth"
	"rather/internal/ratelimiter"
	"rather/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type application struct {
	config      config
	store       store.Storage
	logger      *zap.SugaredLogger
	verifier    *auth.SessionVerifier
	rateLimiter *ratelimiter.FixedWindowRateLimiter
}

type config struct {
	addr        string
	env         string
	db          dbConfig
	session     sessionConfig
	auth        basicConfig
	rateLimiter ratelimiter.Config
}

type sessionConfig struct {
	secret     string
	cookieName string
	rootAppURL string
}

type basicConfig struct {
	user string
	pass string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Cookie"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(app.RateLimiterMiddleware)

	// Every inbound request passes the session gate; asset paths and the
	// basic-auth'd operational endpoints are exempted inside the middleware.
	r.Use(app.SessionAuthMiddleware)

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)

		r.Route("/questions", func(r chi.Router) {
			r.Post("/", app.createQuestionHandler)
			r.Get("/", app.listQuestionsHandler)
			r.Patch("/{questionID}", app.updateQuestionHandler)
			r.Delete("/{questionID}", app.archiveQuestionHandler)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", app.createSessionHandler)
			r.Post("/{sessionID}/end", app.endSessionHandler)
			r.Get("/{sessionID}/answers", app.listSessionAnswersHandler)
		})

		r.Post("/answers", app.recordAnswerHandler)
	})

	return r
}

func (app *application) run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
