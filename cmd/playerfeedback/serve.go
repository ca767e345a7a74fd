package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	playerfeedback "github.com/goliatone/go-playerfeedback"
	"github.com/goliatone/go-playerfeedback/pkg/config"
	"github.com/goliatone/go-playerfeedback/pkg/contract"
	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/form"
	"github.com/goliatone/go-playerfeedback/pkg/model"
	"github.com/goliatone/go-playerfeedback/pkg/renderers/vanilla"
	"github.com/goliatone/go-playerfeedback/pkg/submission"
)

const (
	collectorPath = "/feedback"
	submitPath    = "/submit"
	assetsPrefix  = "/assets/"

	maxFormMemory = 1 << 20
)

const pageShell = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>Player feedback</title></head>
<body>
%s
</body>
</html>
`

func runServe(ctx context.Context, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "widget configuration file (json or yaml)")
	addr := fs.String("addr", "127.0.0.1:8080", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	if cfg.URL == "" {
		cfg.URL = collectorPath
	}
	c, err := contract.New(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics, err := submission.NewMetrics(reg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(cfg, c, reg, metrics, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("playerfeedback: serving demo", "addr", *addr, "collector", c.Path())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newRouter(cfg model.Config, c *contract.Contract, reg *prometheus.Registry, metrics *submission.Metrics, logger *slog.Logger) http.Handler {
	d := &demo{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", d.page)
	r.Post(submitPath, d.submit)
	r.Handle(assetsPrefix+"*", http.StripPrefix(assetsPrefix, playerfeedback.AssetsHandler()))
	r.Get("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(c.JSON())
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Post(c.Path(), collect(c, metrics, logger))
	return r
}

// demo serves the widget as a plain HTML page. The page carries no script,
// so the form is rendered inline and posts to submitPath, where a widget built
// for that request runs the submission server side against the collector.
type demo struct {
	cfg    model.Config
	logger *slog.Logger
}

func (d *demo) widget(r *http.Request) (*playerfeedback.Widget, error) {
	cfg := d.cfg
	cfg.URL = targetURL(r, cfg.URL)
	cfg.Placement = model.PlacementInline
	if cfg.UserIP == "" {
		cfg.UserIP = clientIP(r)
	}
	return playerfeedback.Init(nil, cfg,
		playerfeedback.WithLogger(d.logger),
		playerfeedback.WithEnvironment(device.Environment{UserAgent: r.UserAgent()}),
		playerfeedback.WithStylesheet(assetsPrefix+vanilla.StylesheetName),
		playerfeedback.WithDecorators(model.DecoratorFunc(func(f *model.FormModel) error {
			f.Action = submitPath
			return nil
		})),
	)
}

func (d *demo) page(w http.ResponseWriter, r *http.Request) {
	widget, err := d.widget(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer widget.Stop()
	d.render(w, r, widget, http.StatusOK)
}

func (d *demo) submit(w http.ResponseWriter, r *http.Request) {
	widget, err := d.widget(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer widget.Stop()

	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := applyForm(widget.Form(), r.PostForm); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	status := http.StatusOK
	ch, err := widget.Submit(r.Context())
	var verr *submission.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	default:
		if outcome := <-ch; !outcome.Success() {
			status = http.StatusBadGateway
		}
	}
	d.render(w, r, widget, status)
}

func (d *demo) render(w http.ResponseWriter, r *http.Request, widget *playerfeedback.Widget, status int) {
	out, contentType, err := widget.Render(r.Context(), playerfeedback.DefaultRenderer)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	fmt.Fprintf(w, pageShell, out)
}

// applyForm copies what a browser posts for the rendered form into f.
func applyForm(f *form.Form, values url.Values) error {
	for _, id := range values[submission.FieldFeedback] {
		if err := f.Select(id); err != nil {
			return err
		}
	}
	for _, field := range f.Model().Fields {
		if field.FreeText == nil {
			continue
		}
		if text := values.Get(field.FreeText.Name); text != "" {
			if err := f.SetText(field.Value, text); err != nil {
				return err
			}
		}
	}
	return nil
}

// targetURL resolves a relative collector URL against the request host.
func targetURL(r *http.Request, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() {
		return raw
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: r.Host}).ResolveReference(u).String()
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// collect validates a submission against the contract and logs it.
func collect(c *contract.Contract, metrics *submission.Metrics, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		if err := c.ValidateRequest(req); err != nil {
			metrics.Observe(submission.ResultInvalid, time.Since(start))
			logger.Warn("playerfeedback: rejected submission",
				"request_id", middleware.GetReqID(req.Context()),
				"error", err,
			)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}

		values := req.MultipartForm.Value
		logger.Info("playerfeedback: feedback received",
			"request_id", middleware.GetReqID(req.Context()),
			"feedback", values[submission.FieldFeedback],
			"platform", first(values[submission.FieldPlatform]),
			"user_ip", first(values[submission.FieldUserIP]),
			"error", first(values[submission.FieldError]),
		)
		metrics.Observe(submission.ResultSuccess, time.Since(start))
		fmt.Fprintln(w, "stored")
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
