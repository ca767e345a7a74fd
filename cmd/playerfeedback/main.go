// Command playerfeedback renders the feedback widget, prints its endpoint
// contract, collects and sends feedback from the terminal, or serves a demo
// page with a local collector.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	playerfeedback "github.com/goliatone/go-playerfeedback"
	"github.com/goliatone/go-playerfeedback/pkg/config"
	"github.com/goliatone/go-playerfeedback/pkg/contract"
	"github.com/goliatone/go-playerfeedback/pkg/device"
	"github.com/goliatone/go-playerfeedback/pkg/renderers/tui"
)

const usage = `usage: playerfeedback <command> [flags]

commands:
  render     render the widget (html or tui)
  contract   print the OpenAPI description of the feedback endpoint
  send       collect feedback in the terminal and submit it
  serve      serve a demo page and a local feedback collector
`

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("playerfeedback: load .env: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "render":
		err = runRender(ctx, os.Args[2:], os.Stdout)
	case "contract":
		err = runContract(ctx, os.Args[2:], os.Stdout)
	case "send":
		err = runSend(ctx, os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(ctx, os.Args[2:], logger)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("playerfeedback %s: %v", os.Args[1], err)
	}
}

func logLevel() slog.Level {
	var level slog.Level
	if raw := os.Getenv("PLAYERFEEDBACK_LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			return level
		}
	}
	return slog.LevelInfo
}

func runRender(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	configPath := fs.String("config", "", "widget configuration file (json or yaml)")
	renderer := fs.String("renderer", playerfeedback.DefaultRenderer, "renderer to use (vanilla, tui)")
	output := fs.String("output", "", "output file (stdout if empty)")
	open := fs.Bool("open", false, "render a modal widget in its open state")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	w, err := playerfeedback.Init(nil, cfg)
	if err != nil {
		return err
	}
	if *open {
		w.Open()
	}
	data, _, err := w.Render(ctx, *renderer)
	if err != nil {
		return err
	}
	return write(out, *output, data)
}

func runContract(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("contract", flag.ContinueOnError)
	configPath := fs.String("config", "", "widget configuration file (json or yaml)")
	format := fs.String("format", "yaml", "output format (json, yaml)")
	output := fs.String("output", "", "output file (stdout if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	c, err := contract.New(ctx, cfg)
	if err != nil {
		return err
	}

	var data []byte
	switch *format {
	case "json":
		data = append(c.JSON(), '\n')
	case "yaml":
		if data, err = c.YAML(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	return write(out, *output, data)
}

func runSend(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	configPath := fs.String("config", "", "widget configuration file (json or yaml)")
	userAgent := fs.String("user-agent", "", "user agent reported with the submission")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	w, err := playerfeedback.Init(nil, cfg,
		playerfeedback.WithEnvironment(device.Environment{UserAgent: *userAgent}),
	)
	if err != nil {
		return err
	}
	defer w.Stop()

	session, err := tui.NewSession(w, tui.WithPromptDriver(tui.NewSurveyDriver(out)))
	if err != nil {
		return err
	}
	outcome, err := session.Run(ctx)
	switch {
	case errors.Is(err, tui.ErrDeclined), errors.Is(err, tui.ErrAborted):
		return nil
	case err != nil:
		return err
	}
	if !outcome.Success() {
		return fmt.Errorf("submission failed: %w", outcome.Err)
	}
	return nil
}

func write(out io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := out.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(out, "written to %s\n", path)
	return nil
}
