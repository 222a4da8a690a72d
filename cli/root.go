// Package cli provides the command-line entry point for the code-graph
// query engine: configuration loading via Viper, service wiring (document
// store, cache, guidance, graph service, tool gateway, HTTP API, SSE
// transport), and graceful shutdown handling.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/evalgo-org/grafo-query/cache"
	"github.com/evalgo-org/grafo-query/common"
	"github.com/evalgo-org/grafo-query/config"
	"github.com/evalgo-org/grafo-query/gateway"
	"github.com/evalgo-org/grafo-query/graph"
	"github.com/evalgo-org/grafo-query/guidance"
	"github.com/evalgo-org/grafo-query/httpapi"
	"github.com/evalgo-org/grafo-query/sse"
	"github.com/evalgo-org/grafo-query/store"
	"github.com/evalgo-org/grafo-query/version"
)

// cfgFile holds the path to the configuration file specified via the
// --config flag. When empty, initConfig falls back to searching for
// .grafo-query.yaml in the home and working directories.
var cfgFile string

// RootCmd is the entry point for the grafo-query server process: it loads
// configuration from flags/env/file, connects the document store and
// cache, and serves both the REST API and the SSE tool-gateway transport
// from one Echo instance.
var RootCmd = &cobra.Command{
	Use:   "grafo-query",
	Short: "a versioned code-graph query engine and tool gateway",
	Long: `grafo-query

Serves per-version reads over a MongoDB-backed code graph: search, graph
traversal (callers/callees/inheritance), impact analysis, and project
structure, through both a REST API and an MCP-style SSE tool gateway.`,
	Run: runServer,
}

// versionCmd prints the binary's module version and dependency manifest as
// embedded by the Go toolchain at build time.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print build and dependency information",
	Run: func(cmd *cobra.Command, args []string) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(version.GetBuildInfo())
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.grafo-query.yaml)")

	RootCmd.PersistentFlags().String("port", "", "HTTP server port")
	RootCmd.PersistentFlags().String("mongo-uri", "", "MongoDB connection URI")
	RootCmd.PersistentFlags().String("mongo-database", "", "MongoDB database name")
	RootCmd.PersistentFlags().String("redis-addr", "", "Redis address (host:port); empty disables the cache")
	RootCmd.PersistentFlags().String("redis-password", "", "Redis password")
	RootCmd.PersistentFlags().Int("redis-db", 0, "Redis database index")
	RootCmd.PersistentFlags().String("guidance-db", "", "path to the bbolt guidance database file")
	RootCmd.PersistentFlags().String("default-version", "", "graph version used when a request omits one")
	RootCmd.PersistentFlags().String("jwt-secret", "", "JWT signing secret; empty disables auth middleware")
	RootCmd.PersistentFlags().String("api-key", "", "API key required on /cache management routes; empty disables the check")
	RootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().String("log-format", "", "log format (text or json)")

	viper.BindPFlag("port", RootCmd.PersistentFlags().Lookup("port"))
	viper.BindPFlag("mongo.uri", RootCmd.PersistentFlags().Lookup("mongo-uri"))
	viper.BindPFlag("mongo.database", RootCmd.PersistentFlags().Lookup("mongo-database"))
	viper.BindPFlag("redis.addr", RootCmd.PersistentFlags().Lookup("redis-addr"))
	viper.BindPFlag("redis.password", RootCmd.PersistentFlags().Lookup("redis-password"))
	viper.BindPFlag("redis.db", RootCmd.PersistentFlags().Lookup("redis-db"))
	viper.BindPFlag("guidance.db", RootCmd.PersistentFlags().Lookup("guidance-db"))
	viper.BindPFlag("default_version", RootCmd.PersistentFlags().Lookup("default-version"))
	viper.BindPFlag("jwt.secret", RootCmd.PersistentFlags().Lookup("jwt-secret"))
	viper.BindPFlag("api.key", RootCmd.PersistentFlags().Lookup("api-key"))
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", RootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig wires Viper's config-file search path and environment variable
// mapping, mirroring the teacher's config-file-then-env-then-flag
// precedence.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".grafo-query")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// runServer loads and validates configuration, connects the document store
// and cache, seeds the guidance database, wires the graph service into both
// the REST API and the tool gateway's SSE transport, and serves both from
// one Echo instance built by httpapi.NewEchoServer until an interrupt or
// SIGTERM arrives.
func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := common.NewLogger(common.LoggerConfig{
		Level:      common.LogLevel(cfg.Service.LogLevel),
		Format:     cfg.Service.LogFormat,
		Service:    cfg.Service.Name,
		TimeFormat: time.RFC3339,
	})

	ctx := context.Background()

	storeClient, err := store.Connect(ctx, store.Config{
		URI:      cfg.Store.URI,
		Database: cfg.Store.Database,
	}, logger)
	if err != nil {
		log.Fatalf("failed to connect to document store: %v", err)
	}
	defer storeClient.Close(ctx)

	var cacheClient *cache.Client
	if cfg.Cache.Addr != "" {
		cacheClient, err = cache.Connect(ctx, cache.Config{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("cache unavailable, continuing without it")
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	guidanceStore, err := guidance.Open(cfg.Guidance.DBPath, logger)
	if err != nil {
		log.Fatalf("failed to open guidance database: %v", err)
	}
	defer guidanceStore.Close()

	graphService := graph.New(storeClient, cacheClient, logger)
	toolGateway := gateway.New(graphService, guidanceStore, logger)

	serverCfg := httpapi.DefaultServerConfig()
	serverCfg.Port = httpapi.GetPortInt(cfg.Service.Port, serverCfg.Port)
	e := httpapi.NewEchoServer(serverCfg)
	e.HTTPErrorHandler = httpapi.CustomHTTPErrorHandler

	if cfg.Service.JWTSecret != "" {
		e.Use(echojwt.WithConfig(echojwt.Config{
			SigningKey: []byte(cfg.Service.JWTSecret),
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/health"
			},
		}))
	}

	api := httpapi.New(graphService, storeClient, cacheClient, cfg.Service.DefaultVersion, cfg.Service.APIKey, logger)
	api.Register(e)

	sseServer := sse.New(toolGateway, cfg.Service.DefaultVersion, logger)
	e.GET("/sse", sseServer.HandleStream)
	e.POST("/messages", sseServer.HandleMessage)

	go func() {
		logger.Infof("grafo-query listening on port %d", serverCfg.Port)
		if err := httpapi.StartServer(e, serverCfg); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	if err := httpapi.GracefulShutdown(e, serverCfg.ShutdownTimeout); err != nil {
		log.Fatal(err)
	}
}
