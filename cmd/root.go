package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gwbench/internal/banner"
	"gwbench/internal/cli"
	"gwbench/internal/metrics"
	"gwbench/internal/report"
	"gwbench/internal/runner"
	"gwbench/internal/stats"
	"gwbench/internal/storage"
	"gwbench/internal/sysres"
	"gwbench/internal/transport"
	"gwbench/internal/tui"
	tuiconfig "gwbench/internal/tui/config"
)

const (
	exitOK    = 0
	exitSetup = 1
	exitUsage = 2
)

// exitError carries the process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return Run(os.Args[1:], os.Stdout, os.Stderr)
}

// Run executes args with the given output streams. Stdout receives only the
// report.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "gwbench: %v\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// flag parsing and argument errors
	return exitUsage
}

// NewRootCmd builds the command tree with its own configuration registry.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "gwbench",
		Short: "gwbench - load generator for S3-style object gateways",
		Long: `
gwbench preloads a bucket with a fixed object population, then drives a
mixed read/write workload from concurrent workers for a fixed duration and
prints throughput and latency percentiles.

The report goes to stdout as "key value" lines; progress and logs go to stderr.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(v, cfgFile); err != nil {
				return &exitError{code: exitUsage, err: err}
			}
			return initLogging(v, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd, v)
		},
	}

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), banner.GetString())
		cmd.Usage()
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gwbench.yaml)")
	pf.String("log-level", "warn", "log level: debug, info, warn, error")
	pf.String("history-db", "", "run history database (default is $HOME/.gwbench/history.db)")

	f := rootCmd.Flags()
	f.String("endpoint", "", "gateway base URL, http:// or https:// (required)")
	f.String("bucket", "prompt-cache", "target bucket")
	f.Bool("create-bucket", false, "create the bucket before preloading")
	f.Int("objects", 100, "number of objects to preload")
	f.Int("object-bytes", 65536, "size of each preloaded or written object")
	f.Int("range-bytes", 16384, "bytes per ranged read, 0 reads whole objects")
	f.Int("duration", 30, "run length in seconds")
	f.Int("threads", 4, "number of workers")
	f.Float64("write-ratio", 0, "probability of a write after each read")
	f.Bool("random", false, "random preload payloads instead of a per-index byte pattern")
	f.Bool("insecure", false, "skip TLS certificate verification")

	f.Int64("seed", 0, "worker RNG seed, 0 seeds from the clock")
	f.Int("hotset-size", 0, "number of hot keys, 0 disables the hot set")
	f.Float64("hotset-traffic", 0.9, "share of reads that go to the hot set")
	f.Duration("timeout", 0, "per-request timeout, 0 waits forever")
	f.Duration("connect-timeout", 5*time.Second, "connect and TLS handshake timeout")
	f.Bool("skip-preload", false, "assume the objects already exist")
	f.Bool("prometheus", false, "print the report in Prometheus text format")
	f.Bool("gateway-metrics", false, "append the gateway's /metrics page to the report")
	f.Float64("rate-limit", 0, "cap on total reads per second, 0 is unlimited")
	f.Bool("http2", false, "use HTTP/2 (ALPN on https, prior knowledge on http)")
	f.String("access-key", "", "access key for SigV4 signing")
	f.String("secret-key", "", "secret key for SigV4 signing")
	f.String("region", "us-east-1", "SigV4 signing region")
	f.Duration("wait-ready", 0, "wait up to this long for the endpoint to answer")
	f.String("metrics-addr", "", "serve live Prometheus metrics on this address during the run")
	f.Bool("tui", false, "show the live dashboard on stderr")
	f.StringP("out", "o", "", "write <prefix>_summary.json and <prefix>.csv")
	f.String("parquet-dir", "", "write per-request samples as Parquet into this directory")
	f.Bool("history", false, "store the run summary in the history database")

	v.BindPFlags(pf)
	v.BindPFlags(f)

	rootCmd.AddCommand(newDummyCmd(v), newHistoryCmd(v))
	return rootCmd
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("gwbench")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return errors.Wrap(v.ReadInConfig(), "read config")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(home)
	v.SetConfigType("yaml")
	v.SetConfigName(".gwbench")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}
	return nil
}

func initLogging(v *viper.Viper, w io.Writer) error {
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	log.SetLevel(level)
	return nil
}

func configFromViper(v *viper.Viper) runner.Config {
	return runner.Config{
		Endpoint:      v.GetString("endpoint"),
		Bucket:        v.GetString("bucket"),
		CreateBucket:  v.GetBool("create-bucket"),
		Objects:       v.GetInt("objects"),
		ObjectBytes:   v.GetInt("object-bytes"),
		RangeBytes:    v.GetInt("range-bytes"),
		Duration:      time.Duration(v.GetInt("duration")) * time.Second,
		Threads:       v.GetInt("threads"),
		WriteRatio:    v.GetFloat64("write-ratio"),
		Random:        v.GetBool("random"),
		Insecure:      v.GetBool("insecure"),
		Seed:          v.GetInt64("seed"),
		HotsetSize:    v.GetInt("hotset-size"),
		HotsetTraffic: v.GetFloat64("hotset-traffic"),
		SkipPreload:   v.GetBool("skip-preload"),
		RateLimit:     v.GetFloat64("rate-limit"),
		WaitReady:     v.GetDuration("wait-ready"),
		RecordSamples: v.GetString("out") != "" || v.GetString("parquet-dir") != "",
	}
}

func transportOptions(v *viper.Viper, cfg runner.Config) transport.Options {
	opts := transport.Options{
		Endpoint:       cfg.Endpoint,
		Insecure:       cfg.Insecure,
		HTTP2:          v.GetBool("http2"),
		ConnectTimeout: v.GetDuration("connect-timeout"),
		RequestTimeout: v.GetDuration("timeout"),
	}
	ak, sk := v.GetString("access-key"), v.GetString("secret-key")
	if ak != "" && sk != "" {
		opts.Signer = transport.NewSigner(ak, sk, v.GetString("region"))
	}
	return opts
}

// setupExit maps a setup failure to its exit code.
func setupExit(err error) error {
	if errors.Is(err, runner.ErrInvalidEndpoint) || errors.Is(err, runner.ErrInvalidConfig) ||
		errors.Is(err, transport.ErrUnsupportedScheme) {
		return &exitError{code: exitUsage, err: err}
	}
	return &exitError{code: exitSetup, err: err}
}

func runStress(cmd *cobra.Command, v *viper.Viper) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg := configFromViper(v)
	useTUI := v.GetBool("tui")
	if useTUI && cfg.Endpoint == "" && cli.Interactive() {
		edited, err := editConfig(cfg, stderr)
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		cfg = edited
	}
	if err := cfg.Validate(); err != nil {
		return setupExit(err)
	}
	opts := transportOptions(v, cfg)
	dialer, err := transport.NewHTTPDialer(opts)
	if err != nil {
		return setupExit(errors.Wrap(runner.ErrInvalidEndpoint, err.Error()))
	}

	if _, err := sysres.RaiseOpenFiles(uint64(cfg.Threads) + 64); err != nil {
		log.Warnf("%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interactive := cli.Interactive() && !useTUI
	if interactive {
		cli.PrintHeader(stderr, cfg, opts.HTTP2)
	}

	updates := make(runner.StatsUpdateChan, 100)
	r := runner.NewRunner(cfg, dialer, updates)

	var bar *cli.PreloadBar
	if interactive && !cfg.SkipPreload {
		bar = cli.NewPreloadBar(stderr, cfg.Objects)
		r.Progress = bar.Observe
	}
	keys, err := r.Setup(ctx)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.Errorf("setup failed: %v", err)
		return setupExit(err)
	}

	if addr := v.GetString("metrics-addr"); addr != "" {
		srv, err := metrics.Listen(addr, r.Snapshot)
		if err != nil {
			return &exitError{code: exitSetup, err: err}
		}
		go srv.Serve(ctx)
	}

	runID := storage.NewID()
	startedAt := time.Now()
	res, err := load(ctx, cancel, r, keys, useTUI, interactive, stderr)
	if err != nil {
		return &exitError{code: exitSetup, err: err}
	}
	elapsed := time.Since(startedAt)
	summary := stats.Summarize(res, cfg.Duration)

	prom := v.GetBool("prometheus")
	if prom {
		err = report.WritePrometheus(stdout, summary)
	} else {
		err = report.WriteText(stdout, summary)
	}
	if err != nil {
		return &exitError{code: exitSetup, err: err}
	}
	if v.GetBool("gateway-metrics") {
		body, fetchErr := fetchGatewayMetrics(context.Background(), dialer)
		report.WriteGatewayMetrics(stdout, body, fetchErr, prom)
	}

	if interactive {
		cli.PrintSummary(stderr, summary, elapsed)
	}

	info := report.RunInfo{
		ID:        runID,
		StartedAt: startedAt,
		Endpoint:  cfg.Endpoint,
		Bucket:    cfg.Bucket,
		Objects:   cfg.Objects,
		Threads:   cfg.Threads,
		Duration:  cfg.Duration.String(),
	}
	writeExports(v, info, cfg, summary, res.Samples, opts.HTTP2)
	return nil
}

// editConfig shows the run form and returns the submitted config.
func editConfig(cfg runner.Config, out io.Writer) (runner.Config, error) {
	final, err := tea.NewProgram(tuiconfig.NewModel(cfg), tea.WithOutput(out)).Run()
	if err != nil {
		return cfg, err
	}
	m := final.(tuiconfig.Model)
	if !m.Submitted {
		return cfg, errors.New("run cancelled")
	}
	return m.GetConfig()
}

// load runs the timed phase with the chosen progress display.
func load(ctx context.Context, cancel context.CancelFunc, r *runner.Runner, keys []string,
	useTUI, interactive bool, stderr io.Writer) (stats.Result, error) {

	if useTUI {
		type outcome struct {
			res stats.Result
			err error
		}
		p := tui.NewProgram(tui.NewModel(r.Cfg, r.Updates, cancel), stderr)
		done := make(chan outcome, 1)
		go func() {
			start := time.Now()
			res, err := r.Load(ctx, keys)
			p.Send(tui.DoneMsg{Summary: stats.Summarize(res, r.Cfg.Duration), Elapsed: time.Since(start), Err: err})
			done <- outcome{res, err}
		}()
		if _, err := p.Run(); err != nil {
			log.Warnf("dashboard: %v", err)
		}
		o := <-done
		return o.res, o.err
	}

	if interactive {
		monCtx, stopMon := context.WithCancel(ctx)
		finished := make(chan struct{})
		go func() {
			cli.Monitor(monCtx, stderr, r.Updates)
			close(finished)
		}()
		res, err := r.Load(ctx, keys)
		stopMon()
		<-finished
		return res, err
	}

	return r.Load(ctx, keys)
}

func fetchGatewayMetrics(ctx context.Context, d transport.Dialer) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, err := d.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return transport.FetchMetrics(ctx, conn)
}

// writeExports saves the optional files. Failures are logged; the report on
// stdout is already complete.
func writeExports(v *viper.Viper, info report.RunInfo, cfg runner.Config, s stats.Summary, samples []stats.Sample, http2 bool) {
	if prefix := v.GetString("out"); prefix != "" {
		if err := report.ExportSummary(info, s, prefix+"_summary.json"); err != nil {
			log.Errorf("write summary: %v", err)
		}
		if err := report.ExportCSV(samples, cfg.Threads, prefix+".csv"); err != nil {
			log.Errorf("write samples: %v", err)
		}
		log.Infof("reports saved to %s{_summary.json,.csv}", prefix)
	}

	if dir := v.GetString("parquet-dir"); dir != "" {
		path, err := report.ExportParquet(samples, info.ID, dir)
		if err != nil {
			log.Errorf("write parquet: %v", err)
		} else {
			log.Infof("samples saved to %s", path)
		}
	}

	if v.GetBool("history") {
		if err := saveHistory(v, info, cfg, s, http2); err != nil {
			log.Errorf("save history: %v", err)
		}
	}
}

func saveHistory(v *viper.Viper, info report.RunInfo, cfg runner.Config, s stats.Summary, http2 bool) error {
	store, err := openHistory(v)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Save(&storage.HistoryItem{
		ID:        info.ID,
		Timestamp: info.StartedAt,
		Config: storage.RunConfig{
			Endpoint:    cfg.Endpoint,
			Bucket:      cfg.Bucket,
			Objects:     cfg.Objects,
			ObjectBytes: cfg.ObjectBytes,
			RangeBytes:  cfg.RangeBytes,
			DurationSec: cfg.Duration.Seconds(),
			Threads:     cfg.Threads,
			WriteRatio:  cfg.WriteRatio,
			HTTP2:       http2,
		},
		Summary: storage.RunSummary{
			Requests:       s.Requests,
			Errors:         s.Errors,
			Writes:         s.Writes,
			BytesRead:      s.BytesRead,
			QPS:            s.QPS,
			ThroughputMBps: s.ThroughputMBps,
			P50Ms:          s.P50,
			P95Ms:          s.P95,
			P99Ms:          s.P99,
			MeanMs:         s.Mean,
		},
	})
}

func openHistory(v *viper.Viper) (*storage.Store, error) {
	path := v.GetString("history-db")
	if path == "" {
		var err error
		if path, err = storage.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return storage.Open(path)
}
