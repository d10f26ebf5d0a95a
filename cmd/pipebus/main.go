package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pipebus/pipebus/internal/config"
	"github.com/pipebus/pipebus/internal/logger"
	"github.com/pipebus/pipebus/pkg/fifo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	// CLI flags
	cfgFile   string
	logLevel  string
	logFormat string
	logOutput string
	pipeRoot  string

	// listen flags
	interval    string
	historySize int
	quitMessage string

	// send flags
	retries       int
	retryInterval string
	guarantee     bool
	wait          bool
	count         int
	sendInterval  string

	// Global variables
	rootLog *logger.Logger
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pipebus",
	Short: "Pipebus - Line-oriented message bus over named pipes",
	Long: `Pipebus runs a polling worker on a filesystem named pipe (FIFO) and
dispatches each newline-delimited message to a matching handler, or writes
messages into such a pipe from another process.

Any process can also talk to a pipebus worker with plain shell tools:

  $ echo status > /tmp/mybus.fifo`,
}

// listenCmd runs a worker that prints every message it receives
var listenCmd = &cobra.Command{
	Use:   "listen <pipe-name>",
	Short: "Run a worker loop on the named pipe and print received messages",
	Args:  cobra.ExactArgs(1),
	RunE:  runListen,
}

// sendCmd writes messages into the named pipe
var sendCmd = &cobra.Command{
	Use:   "send <pipe-name> <message>",
	Short: "Write a message into the named pipe",
	Args:  cobra.ExactArgs(2),
	RunE:  runSend,
}

// runListen executes the listen subcommand
func runListen(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	pipeCfg := cfg.Pipe
	if pipeRoot != "" {
		pipeCfg.Root = pipeRoot
	}
	if historySize >= 0 {
		pipeCfg.HistorySize = historySize
	}
	tick, err := parseDuration(interval, pipeCfg.Interval)
	if err != nil {
		return fmt.Errorf("invalid interval: %w", err)
	}

	w, err := fifo.NewWorker(args[0], pipeCfg, rootLog)
	if err != nil {
		return err
	}

	// Empty heartbeat first: it is the most common message by far
	w.Subscribe(func(msg, origin string) error { return nil }, "")
	w.Subscribe(fifo.Quit, quitMessage)
	w.SubscribeWildcard(func(msg, origin string) error {
		fmt.Printf("%s: %s\n", origin, msg)
		return nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootLog.Info("Listening", "pipe", args[0], "path", w.Path(), "quit_message", quitMessage)
	if err := w.Run(ctx, tick); err != nil && ctx.Err() == nil {
		return err
	}

	stats := w.Stats()
	rootLog.Info("Worker finished",
		"ticks", stats.Ticks,
		"dispatched", stats.MessagesDispatched,
		"unmatched", stats.MessagesUnmatched)
	return nil
}

// runSend executes the send subcommand
func runSend(cmd *cobra.Command, args []string) error {
	if err := setup(); err != nil {
		return err
	}

	clientCfg := cfg.Client
	if pipeRoot != "" {
		clientCfg.Root = pipeRoot
	}
	if retries >= 0 {
		clientCfg.Retries = retries
	}
	clientCfg.GuaranteeDelivery = guarantee
	backoff, err := parseDuration(retryInterval, clientCfg.RetryInterval)
	if err != nil {
		return fmt.Errorf("invalid retry-interval: %w", err)
	}
	clientCfg.RetryInterval = backoff

	pause, err := parseDuration(sendInterval, 0)
	if err != nil {
		return fmt.Errorf("invalid send-interval: %w", err)
	}

	c, err := fifo.NewClient(args[0], clientCfg, rootLog)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for i := 0; i < count; i++ {
		if wait {
			err = c.Put(ctx, args[1])
		} else {
			err = c.Write(ctx, args[1])
		}
		if err != nil {
			return err
		}
		if pause > 0 && i < count-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}

	stats := c.Stats()
	rootLog.Debug("Send finished",
		"written", stats.MessagesWritten,
		"dropped", stats.MessagesDropped,
		"retries", stats.Retries)
	return nil
}

// setup initializes the logger and loads configuration
func setup() error {
	if err := initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	loaded, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg = loaded

	if rootLog.Enabled(logger.LevelDebug) {
		if data, err := yaml.Marshal(cfg); err == nil {
			rootLog.Debug("Configuration loaded", "config", string(data))
		}
	}
	return nil
}

// initLogger initializes the global logger based on CLI flags
func initLogger() error {
	lcfg := config.DefaultLoggingConfig()
	if logLevel != "" {
		lcfg.Level = logLevel
	}
	if logFormat != "" {
		lcfg.Format = logFormat
	}
	if logOutput != "" {
		lcfg.Output = logOutput
	}

	log, err := logger.New(lcfg)
	if err != nil {
		return err
	}
	rootLog = log
	return nil
}

// parseDuration parses a duration string with a fallback default
func parseDuration(s string, defaultDuration time.Duration) (time.Duration, error) {
	if s == "" {
		return defaultDuration, nil
	}
	return time.ParseDuration(s)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format (json, text)")
	rootCmd.PersistentFlags().StringVar(&logOutput, "log-output", "",
		"Log output (stdout, stderr, or file path)")
	rootCmd.PersistentFlags().StringVar(&pipeRoot, "root", "",
		"Directory under which relative pipe names resolve (default /tmp)")

	listenCmd.Flags().StringVar(&interval, "interval", "",
		"Sleep between polling ticks (e.g. 100ms)")
	listenCmd.Flags().IntVar(&historySize, "history-size", -1,
		"Dispatched-message history bound, 0 disables")
	listenCmd.Flags().StringVar(&quitMessage, "quit-message", "quit",
		"Message that stops the worker")

	sendCmd.Flags().IntVar(&retries, "retries", -1,
		"Write attempts while no reader is attached")
	sendCmd.Flags().StringVar(&retryInterval, "retry-interval", "",
		"Sleep between write attempts (e.g. 100ms)")
	sendCmd.Flags().BoolVar(&guarantee, "guarantee", false,
		"Fail instead of dropping when retries are exhausted")
	sendCmd.Flags().BoolVar(&wait, "wait", false,
		"Wait indefinitely for a reader instead of using the retry budget")
	sendCmd.Flags().IntVar(&count, "count", 1,
		"Number of times to send the message")
	sendCmd.Flags().StringVar(&sendInterval, "send-interval", "",
		"Sleep between repeated sends")

	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(sendCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
