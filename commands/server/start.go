package server

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iov-one/swapchain/errors"
	"github.com/iov-one/swapchain/x/utils"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind    = "bind"
	flagDebug   = "debug"
	flagMetrics = "metrics"
)

// Options are passed to the AppGenerator.
type Options struct {
	Home   string
	Logger log.Logger
	Debug  bool
	// Metrics is nil unless a metrics address was given.
	Metrics *utils.Metrics
}

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(*Options) (abci.Application, error)

type startFlags struct {
	bind    string
	debug   bool
	metrics string
}

func parseFlags(args []string) (startFlags, error) {
	var f startFlags
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&f.bind, flagBind, "tcp://localhost:26658", "address server listens on")
	fs.BoolVar(&f.debug, flagDebug, false, "call stack returned on error")
	fs.StringVar(&f.metrics, flagMetrics, "", "address prometheus metrics are served on, disabled when empty")
	err := fs.Parse(args)
	return f, err
}

// StartCmd initializes the application and serves it over the abci socket
// until the process receives SIGINT or SIGTERM.
func StartCmd(gen AppGenerator, logger log.Logger, home string, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case s := <-sig:
			logger.Info("Shutting down", "signal", s.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return serve(ctx, gen, logger, home, args)
}

// serve runs the abci server, and the metrics server when requested, until
// the context is cancelled.
func serve(ctx context.Context, gen AppGenerator, logger log.Logger, home string, args []string) error {
	flags, err := parseFlags(args)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	opts := &Options{
		Home:   home,
		Logger: logger,
		Debug:  flags.debug,
	}
	if flags.metrics != "" {
		opts.Metrics = utils.NewMetrics()
		addr, stop, err := serveMetrics(flags.metrics, opts.Metrics)
		if err != nil {
			return err
		}
		defer stop()
		logger.Info("Serving metrics", "addr", addr)
	}

	// Generate the app in the proper dir
	app, err := gen(opts)
	if err != nil {
		return err
	}

	logger.Info("Starting ABCI app", "bind", flags.bind)
	svr, err := server.NewServer(flags.bind, "socket", app)
	if err != nil {
		return errors.Wrap(errors.ErrNetwork, err.Error())
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrap(errors.ErrNetwork, err.Error())
	}

	<-ctx.Done()
	return svr.Stop()
}

// serveMetrics exposes m under /metrics. It returns the address it listens
// on and a function stopping the server.
func serveMetrics(addr string, m *utils.Metrics) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(errors.ErrNetwork, "metrics listener: %s", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux}
	go srv.Serve(ln)
	return ln.Addr().String(), func() { srv.Close() }, nil
}
