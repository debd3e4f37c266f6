// cmd/kvvaultd is the main entrypoint for the key/value server.
//
// Configuration is read from a YAML file (default ./kvvault.yaml) and may
// be overridden by flags.
//
// Example:
//
//	./kvvaultd --bind-host 0.0.0.0 --bind-port 6666 --backup-dir /var/lib/kvvault
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kvvault/internal/backup"
	"kvvault/internal/clock"
	"kvvault/internal/config"
	"kvvault/internal/crypto"
	"kvvault/internal/facade"
	"kvvault/internal/kvstore"
	"kvvault/internal/rpc"
	"kvvault/internal/supervisor"
	"kvvault/internal/worker"
)

const (
	cleanupTaskName = "cleanup"
	metricsTaskName = "metrics_collection"
)

var (
	configPath       string
	bindHost         string
	bindPort         int
	backupDir        string
	maxBackups       int
	cleanupFrequency int
	metricsInterval  int
	refreshInterval  int
	manifestPath     string
	workerPoolSize   int
	collectMetrics   bool
	secretKeyEnv     string
)

func main() {
	root := &cobra.Command{
		Use:   "kvvaultd",
		Short: "In-memory multi-tenant key/value server",
		RunE:  run,
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "./kvvault.yaml", "path to the YAML configuration file")
	flags.StringVar(&bindHost, "bind-host", "", "override: address to bind the RPC listener to")
	flags.IntVar(&bindPort, "bind-port", 0, "override: port to bind the RPC listener to")
	flags.StringVar(&backupDir, "backup-dir", "", "override: directory for rotating backup snapshots")
	flags.IntVar(&maxBackups, "max-backups", 0, "override: number of rotated snapshots to keep per store")
	flags.IntVar(&cleanupFrequency, "cleanup-frequency", 0, "override: seconds between expiry sweeps")
	flags.IntVar(&metricsInterval, "metrics-interval", 0, "override: seconds between metrics samples")
	flags.IntVar(&refreshInterval, "refresh-interval", 0, "override: seconds between manifest reloads")
	flags.StringVar(&manifestPath, "manifest-path", "", "override: path to the service manifest file")
	flags.IntVar(&workerPoolSize, "worker-pool-size", 0, "override: bounded connection-handler pool size")
	flags.BoolVar(&collectMetrics, "collect-metrics", false, "override: run the metrics collection task")
	flags.StringVar(&secretKeyEnv, "secret-key-env", "", "override: environment variable holding the secrets key")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(&cfg, cmd)

	rootClock := clock.Real{}
	eng := kvstore.New(rootClock, kvstore.Config{
		CleanupFrequency: time.Duration(cfg.CleanupFrequency) * time.Second,
		MetricsInterval:  time.Duration(cfg.MetricsInterval) * time.Second,
		BackupDir:        cfg.BackupDir,
		MaxBackups:       cfg.MaxBackups,
	})

	for _, name := range []string{worker.MetricsStoreName, facade.SecretsStoreName, facade.PathsStoreName, facade.PipelinesStoreName} {
		if _, err := eng.CreateStore(name); err != nil && err != kvstore.ErrAlreadyExists {
			return fmt.Errorf("create store %s: %w", name, err)
		}
	}

	rotator := backup.New(cfg.BackupDir, cfg.MaxBackups)
	if err := backup.Restore(eng, cfg.BackupDir, eng.ListStores()); err != nil {
		log.Printf("kvvaultd: restore from backup: %v", err)
	}

	resolver := crypto.EnvKeyResolver{Var: cfg.SecretKeyEnv}
	secretKey, err := resolver.ResolveKey()
	if err != nil {
		return fmt.Errorf("resolve secrets key: %w", err)
	}
	cipher, err := crypto.NewCipher(secretKey)
	if err != nil {
		return fmt.Errorf("build secrets cipher: %w", err)
	}

	sup := supervisor.New()

	cleanupWorker := worker.NewCleanup(eng, rotator, time.Duration(cfg.CleanupFrequency)*time.Second)
	sup.Register(cleanupTaskName, supervisor.Task{Start: cleanupWorker.Start, Stop: cleanupWorker.Stop})

	metricsWorker := worker.NewMetrics(eng, sup, time.Duration(cfg.MetricsInterval)*time.Second)
	if cfg.CollectMetrics {
		sup.Register(metricsTaskName, supervisor.Task{Start: metricsWorker.Start, Stop: metricsWorker.Stop})
	}
	sup.Start("")

	registry := rpc.NewRegistry()
	registry.Register(facade.EngineServiceURI, facade.NewEngineService(eng))
	registry.Register("internal_metrics", facade.NewInternal(eng))
	registry.Register("secrets", facade.NewSecrets(eng, cipher))
	registry.Register("paths", facade.NewPaths(eng))
	registry.Register("pipelines", facade.NewPipelines(eng))

	manifest := rpc.NewManifest(cfg.ManifestPath, registry, rpc.Factories{
		"facade.Internal":  func() rpc.Service { return facade.NewInternal(eng) },
		"facade.Secrets":   func() rpc.Service { return facade.NewSecrets(eng, cipher) },
		"facade.Paths":     func() rpc.Service { return facade.NewPaths(eng) },
		"facade.Pipelines": func() rpc.Service { return facade.NewPipelines(eng) },
	})
	manifestStop := make(chan struct{})
	go manifest.RefreshLoop(time.Duration(cfg.RefreshInterval)*time.Second, manifestStop)

	server := rpc.NewServer(registry, cfg.WorkerPoolSize)
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(cfg.BindHost, cfg.BindPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("kvvaultd: received %s, shutting down", sig)
	case err := <-serveErr:
		if err != nil {
			log.Printf("kvvaultd: server error: %v", err)
		}
	}

	close(manifestStop)
	sup.Shutdown("")
	server.Shutdown()
	for uri, svc := range registry.All() {
		if sd, ok := svc.(rpc.Shutdowner); ok {
			log.Printf("kvvaultd: shutting down service %s", uri)
			sd.Shutdown()
		}
	}

	log.Println("kvvaultd: shutdown complete")
	return nil
}

func applyOverrides(cfg *config.Config, cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("bind-host") {
		cfg.BindHost = bindHost
	}
	if flags.Changed("bind-port") {
		cfg.BindPort = bindPort
	}
	if flags.Changed("backup-dir") {
		cfg.BackupDir = backupDir
	}
	if flags.Changed("max-backups") {
		cfg.MaxBackups = maxBackups
	}
	if flags.Changed("cleanup-frequency") {
		cfg.CleanupFrequency = cleanupFrequency
	}
	if flags.Changed("metrics-interval") {
		cfg.MetricsInterval = metricsInterval
	}
	if flags.Changed("refresh-interval") {
		cfg.RefreshInterval = refreshInterval
	}
	if flags.Changed("manifest-path") {
		cfg.ManifestPath = manifestPath
	}
	if flags.Changed("worker-pool-size") {
		cfg.WorkerPoolSize = workerPoolSize
	}
	if flags.Changed("collect-metrics") {
		cfg.CollectMetrics = collectMetrics
	}
	if flags.Changed("secret-key-env") {
		cfg.SecretKeyEnv = secretKeyEnv
	}
}
