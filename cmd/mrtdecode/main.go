// Command mrtdecode decodes MRT dump files (plain, bzip2, gzip, or zstd
// compressed) and optionally persists or publishes the decoded records.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/route-beacon/mrt-decoder/internal/archive"
	"github.com/route-beacon/mrt-decoder/internal/config"
	"github.com/route-beacon/mrt-decoder/internal/health"
	"github.com/route-beacon/mrt-decoder/internal/metrics"
	"github.com/route-beacon/mrt-decoder/internal/mrt"
	"github.com/route-beacon/mrt-decoder/internal/publish"
	"github.com/route-beacon/mrt-decoder/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "decode":
		runDecode()
	case "migrate":
		runMigrate()
	case "maintenance":
		runMaintenance()
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: mrtdecode <command> [options] [files...]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  decode        Decode one or more MRT dump files")
	fmt.Println("  migrate       Run database migrations for the optional Postgres sink")
	fmt.Println("  maintenance   Run partition maintenance (create new, drop old)")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>   Path to configuration YAML file")
	fmt.Println("  --log-level <lvl> Override log level (debug, info, warn, error)")
}

func parseFlags(args []string) (configPath, logLevel string, files []string) {
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				configPath = args[i+1]
				i++
			}
		case "--log-level":
			if i+1 < len(args) {
				logLevel = args[i+1]
				i++
			}
		default:
			files = append(files, args[i])
		}
	}
	return
}

func loadConfig(args []string) (*config.Config, string, []string, *zap.Logger) {
	configPath, logLevelOverride, files := parseFlags(args)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if logLevelOverride != "" {
		cfg.Service.LogLevel = logLevelOverride
	}

	logger := initLogger(cfg.Service.LogLevel)
	return cfg, configPath, files, logger
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zap.DebugLevel
	case "warn":
		zapLevel = zap.WarnLevel
	case "error":
		zapLevel = zap.ErrorLevel
	default:
		zapLevel = zap.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func migrationsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "migrations"
	}
	return filepath.Join(filepath.Dir(exe), "migrations")
}

func runDecode() {
	cfg, _, files, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "decode: at least one file argument is required")
		os.Exit(1)
	}

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pool *pgxpool.Pool
	var writer *store.Writer
	if cfg.StorageEnabled() {
		p, err := store.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer p.Close()
		pool = p
		writer = store.NewWriter(p, logger.Named("store"), cfg.Postgres.CompressRaw)
	}

	var publisher *publish.Publisher
	if cfg.PublishEnabled() {
		tlsCfg, err := cfg.Kafka.BuildTLSConfig()
		if err != nil {
			logger.Fatal("failed to build TLS config", zap.Error(err))
		}
		saslMech := cfg.Kafka.BuildSASLMechanism()
		topics := publish.Topics{
			Rib:     cfg.Kafka.Topics.Rib,
			State:   cfg.Kafka.Topics.State,
			Message: cfg.Kafka.Topics.Message,
		}
		p, err := publish.NewPublisher(cfg.Kafka.Brokers, topics, cfg.Kafka.ClientID, tlsCfg, saslMech, logger.Named("publish"))
		if err != nil {
			logger.Fatal("failed to create Kafka publisher", zap.Error(err))
		}
		publisher = p
		defer publisher.Close()
	}

	var healthSrv *health.Server
	if pool != nil || publisher != nil {
		var storePinger, publishPinger health.Pinger
		if pool != nil {
			storePinger = pool
		}
		if publisher != nil {
			publishPinger = publisher
		}
		healthSrv = health.NewServer(cfg.Service.HTTPListen, storePinger, publishPinger, logger.Named("health"))
		if err := healthSrv.Start(); err != nil {
			logger.Fatal("failed to start health server", zap.Error(err))
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(cfg.Decode.ConcurrentFiles, runtime.NumCPU())))

	for _, fname := range files {
		fname := fname
		g.Go(func() error {
			return decodeFile(gctx, fname, cfg.Decode.Verbose, writer, publisher, logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("decode finished with errors", zap.Error(err))
		if healthSrv != nil {
			healthSrv.Shutdown(context.Background())
		}
		os.Exit(1)
	}

	if healthSrv != nil {
		healthSrv.Shutdown(context.Background())
	}
	logger.Info("decode complete", zap.Int("files", len(files)))
}

func decodeFile(ctx context.Context, fname string, verbose bool, writer *store.Writer, publisher *publish.Publisher, logger *zap.Logger) error {
	rc, err := archive.Open(fname)
	if err != nil {
		return fmt.Errorf("decode %s: %w", fname, err)
	}
	defer rc.Close()

	counted := &countingReader{r: rc}
	defer func() {
		metrics.BytesProcessedTotal.WithLabelValues(fname).Add(float64(counted.n))
	}()

	fileLogger := logger.Named("decode").With(zap.String("file", fname))

	var ribCount, stateCount, msgCount int

	sinks := mrt.Sinks{
		Dump: func(rib *mrt.Rib, peer *mrt.PeerContext) {
			ribCount++
			metrics.RecordsDecodedTotal.WithLabelValues("rib", "").Inc()
			if writer != nil {
				if _, err := writer.FlushRibs(ctx, []store.RibRow{{Rib: rib, Peer: peer}}); err != nil {
					fileLogger.Warn("store: flush rib failed", zap.Error(err))
				}
			}
			if publisher != nil {
				if err := publisher.PublishRib(ctx, rib); err != nil {
					fileLogger.Warn("publish: rib failed", zap.Error(err))
				}
			}
		},
		State: func(st *mrt.BgpState) {
			stateCount++
			metrics.RecordsDecodedTotal.WithLabelValues("state", "").Inc()
			if writer != nil {
				if _, err := writer.FlushStates(ctx, []*mrt.BgpState{st}); err != nil {
					fileLogger.Warn("store: flush state failed", zap.Error(err))
				}
			}
			if publisher != nil {
				if err := publisher.PublishState(ctx, st); err != nil {
					fileLogger.Warn("publish: state failed", zap.Error(err))
				}
			}
		},
		Message: func(msg *mrt.BgpMsg) {
			msgCount++
			metrics.RecordsDecodedTotal.WithLabelValues("message", "").Inc()
			if writer != nil {
				if _, err := writer.FlushMessages(ctx, []*mrt.BgpMsg{msg}); err != nil {
					fileLogger.Warn("store: flush message failed", zap.Error(err))
				}
			}
			if publisher != nil {
				if err := publisher.PublishMessage(ctx, msg); err != nil {
					fileLogger.Warn("publish: message failed", zap.Error(err))
				}
			}
		},
	}

	parser := mrt.NewParser(sinks, verbose, fileLogger)
	if err := parser.Run(ctx, counted); err != nil {
		return fmt.Errorf("decode %s: %w", fname, err)
	}

	summary, _ := json.Marshal(map[string]int{"ribs": ribCount, "states": stateCount, "messages": msgCount})
	fmt.Printf("%s: %s\n", fname, summary)
	return nil
}

func runMigrate() {
	cfg, _, _, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	if !cfg.StorageEnabled() {
		fmt.Fprintln(os.Stderr, "migrate: postgres.dsn is not configured")
		os.Exit(1)
	}

	logger.Info("running migrations", zap.String("dsn", redactDSN(cfg.Postgres.DSN)))

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := store.RunMigrations(ctx, pool, migrationsDir(), logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("migrations complete")
}

func runMaintenance() {
	cfg, _, _, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	if !cfg.StorageEnabled() {
		fmt.Fprintln(os.Stderr, "maintenance: postgres.dsn is not configured")
		os.Exit(1)
	}

	logger.Info("running partition maintenance", zap.Int("retention_days", cfg.Postgres.RetentionDays))

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	pm := store.NewPartitionManager(pool, cfg.Postgres.RetentionDays, logger)
	if err := pm.Run(ctx); err != nil {
		logger.Fatal("maintenance failed", zap.Error(err))
	}

	logger.Info("partition maintenance complete")
}

// countingReader tallies bytes read off the decompressed MRT stream so
// decodeFile can report mrtdecode_bytes_processed_total per source file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		re := regexp.MustCompile(`password\s*=\s*\S+`)
		return re.ReplaceAllString(dsn, "password=***")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
