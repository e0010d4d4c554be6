// asciicam turns screen, camera and still images into ASCII art.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/asciicam/internal/clipboard"
	"github.com/GriffinCanCode/asciicam/internal/config"
	"github.com/GriffinCanCode/asciicam/internal/engine"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/render"
	"github.com/GriffinCanCode/asciicam/internal/rpc"
	"github.com/GriffinCanCode/asciicam/internal/scheduler"
	"github.com/GriffinCanCode/asciicam/internal/server"
	"github.com/GriffinCanCode/asciicam/internal/source"
	"github.com/GriffinCanCode/asciicam/internal/terminal"
)

const usage = `usage: asciicam <command> [flags]

commands:
  render <image>        print an image as text
  live                  preview the screen or camera in the terminal
  serve                 run the HTTP, WebSocket and gRPC servers
  remote <addr> <image> render an image on a remote server
  decode                read pasted text on stdin and print the bare grid
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	cmd, args := os.Args[1], os.Args[2:]

	var logOut io.Writer = os.Stderr
	if cmd == "live" {
		// The preview owns the terminal.
		logOut = io.Discard
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "render":
		err = runRender(ctx, cfg, args)
	case "live":
		err = runLive(ctx, cfg, args)
	case "serve":
		err = runServe(ctx, cfg, args)
	case "remote":
		err = runRemote(ctx, cfg, args)
	case "decode":
		err = runDecode(os.Stdin, os.Stdout)
	case "help", "-h", "--help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		if logOut == io.Discard {
			fmt.Fprintln(os.Stderr, "asciicam:", err)
		}
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func runRender(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	pf := addParamFlags(fs)
	filter := fs.String("filter", string(render.FilterBox), "resampling filter: box, bilinear, catmullrom, nearest")
	copyOut := fs.Bool("copy", false, "also copy the text to the clipboard")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("render needs exactly one image path")
	}

	p, err := pf.params(cfg.Params())
	if err != nil {
		return err
	}
	frame, err := source.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	oneshot := scheduler.NewOneshot(render.ParseFilter(*filter))
	defer oneshot.Close()
	res, err := oneshot.Render(ctx, frame, p)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, res.Text)
	if *copyOut {
		if err := clipboard.NewSystem().Write(res.Text); err != nil {
			return err
		}
		slog.Info("copied to clipboard", "bytes", len(res.Text))
	}
	return nil
}

func runLive(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("live", flag.ExitOnError)
	pf := addParamFlags(fs)
	sf := addSourceFlags(fs, cfg)
	_ = fs.Parse(args)

	p, err := pf.params(cfg.Params())
	if err != nil {
		return err
	}
	renderer, err := scheduler.NewRenderer(render.FilterBox)
	if err != nil {
		return err
	}
	defer renderer.Close()

	store := params.NewStore(p)
	loop := scheduler.NewLoop(renderer, store, loopConfig(cfg))
	src, err := source.New(sf.options())
	if err != nil {
		return err
	}
	if err := loop.Start(ctx, src); err != nil {
		return err
	}
	defer loop.Stop()

	screen, err := terminal.NewScreen()
	if err != nil {
		return err
	}
	preview := terminal.New(screen, renderer, store, newCopier(cfg, renderer)).WithNotices(loop.Notices())
	return preview.Run(ctx)
}

func runServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	httpAddr := fs.String("http", cfg.HTTPAddr, "HTTP listen address")
	grpcAddr := fs.String("grpc", cfg.GRPCAddr, "gRPC listen address, empty to disable")
	pf := addParamFlags(fs)
	sf := addSourceFlags(fs, cfg)
	_ = fs.Parse(args)

	p, err := pf.params(cfg.Params())
	if err != nil {
		return err
	}
	renderer, err := scheduler.NewRenderer(render.FilterBox)
	if err != nil {
		return err
	}
	defer renderer.Close()

	store := params.NewStore(p)
	oneshot := scheduler.NewOneshot(render.FilterBox)
	defer oneshot.Close()
	loop := scheduler.NewLoop(renderer, store, loopConfig(cfg))

	srv := server.New(server.Deps{
		Frames:   renderer,
		Renderer: oneshot,
		Params:   store,
		Copier:   newCopier(cfg, renderer),
		Notices:  loop.Notices(),
	})
	defer srv.Close()

	src, err := source.New(sf.options())
	if err != nil {
		return err
	}
	// A missing source is reported as a notice; uploads still work.
	if err := loop.Start(ctx, src); err != nil {
		slog.Warn("live source unavailable", "source", sf.kind, "error", err)
	}
	defer loop.Stop()

	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		slog.Info("asciicam server starting", "http", *httpAddr, "grpc", *grpcAddr, "source", sf.kind)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	if *grpcAddr != "" {
		lis, err := net.Listen("tcp", *grpcAddr)
		if err != nil {
			return err
		}
		grpcServer := rpc.NewServer(rpc.NewService(oneshot, store.Snapshot))
		defer grpcServer.GracefulStop()
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				errc <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errc:
		slog.Error("server error", "error", err)
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	return nil
}

func runRemote(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("remote", flag.ExitOnError)
	pf := addParamFlags(fs)
	_ = fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("remote needs an address and an image path")
	}

	pt, err := pf.patch()
	if err != nil {
		return err
	}
	img, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		return err
	}

	client, err := rpc.Dial(fs.Arg(0))
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	text, err := client.Render(ctx, img, pt)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}

// runDecode prints the grid carried by text copied with the DARK target.
func runDecode(r io.Reader, w io.Writer) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	for _, line := range engine.Lines(engine.Unfence(string(data))) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func loopConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{
		RefreshRate:     float64(cfg.RefreshRate),
		SkipSimilar:     cfg.SkipSimilarFrames,
		MaxHashDistance: cfg.MaxHashDistance,
	}
}

func newCopier(cfg *config.Config, r *scheduler.Renderer) *clipboard.Exporter {
	var w clipboard.Writer = clipboard.Disabled{}
	if cfg.ClipboardEnabled {
		w = clipboard.NewSystem()
	}
	return clipboard.NewExporter(w, func() (string, bool) {
		out, ok := r.Latest()
		return out.Text, ok
	})
}
