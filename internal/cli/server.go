package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeJamon/goswapd/internal/api/feed"
	"github.com/LeJamon/goswapd/internal/api/jsonrpc"
	"github.com/LeJamon/goswapd/internal/config"
	admingrpc "github.com/LeJamon/goswapd/internal/grpc"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// serverCmd represents the server command (default action)
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the swap engine daemon",
	Long: `Start the goswapd daemon which provides:
- HTTP JSON-RPC API for submissions and state queries
- WebSocket feed for applied-operation events
- Optional gRPC admin surface for state export
- Health check endpoint

This is the default command when no subcommand is specified.`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Running the bare binary starts the daemon.
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	if !quiet {
		fmt.Printf("Starting goswapd %s\n", rootCmd.Version)
		fmt.Printf("  network:   %s\n", cfg.NetworkName)
		fmt.Printf("  data dir:  %s\n", cfg.Node.DataDir)
		fmt.Printf("  store:     %s (%s)\n", cfg.Store.Backend, cfg.StorePath())
		if cfg.History.Enabled {
			fmt.Printf("  history:   %s (%s)\n", cfg.History.Driver, cfg.HistoryDSN())
		}
		fmt.Println()
	}

	n, err := openNode(cfg)
	if err != nil {
		return err
	}
	defer n.Close()

	var hub *feed.Hub
	if cfg.API.Feed.Enabled {
		hub = feed.NewHub()
		defer hub.Close()
	}

	services := jsonrpc.Services{
		Ledger:  n.ledger,
		Engine:  n.engine,
		History: n.operations,
		Version: rootCmd.Version,
	}
	if hub != nil {
		services.Publisher = hub
	}
	rpc := jsonrpc.NewServer(services)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	var servers []*http.Server

	if cfg.API.JSONRPC.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/", rpc)
		mux.HandleFunc("/health", handleHealth)
		servers = append(servers, groupServe(group, "json-rpc", cfg.API.JSONRPC.Address, mux))
	}

	if cfg.API.Feed.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/", hub)
		mux.Handle("/ws", hub)
		servers = append(servers, groupServe(group, "feed", cfg.API.Feed.Address, mux))
	}

	var admin *admingrpc.Server
	if cfg.API.GRPC.Enabled {
		gcfg := admingrpc.DefaultServerConfig()
		gcfg.Address = cfg.API.GRPC.Address
		gcfg.MaxRecvMsgSize = cfg.API.GRPC.MaxRecvMsgSize
		gcfg.MaxSendMsgSize = cfg.API.GRPC.MaxSendMsgSize
		admin, err = admingrpc.NewServerWithInterceptors(gcfg, n.ledger)
		if err != nil {
			return fmt.Errorf("building admin server: %w", err)
		}
		if err := admin.StartAsync(); err != nil {
			return fmt.Errorf("starting admin server: %w", err)
		}
	}

	if len(servers) == 0 && admin == nil {
		log.Printf("warning: no API surface enabled, the daemon only holds the store open")
	}

	if !quiet {
		fmt.Println("Serving:")
		if cfg.API.JSONRPC.Enabled {
			fmt.Printf("  - JSON-RPC:  http://%s/\n", cfg.API.JSONRPC.Address)
			fmt.Printf("  - Health:    http://%s/health\n", cfg.API.JSONRPC.Address)
		}
		if cfg.API.Feed.Enabled {
			fmt.Printf("  - Feed:      ws://%s/ws\n", cfg.API.Feed.Address)
		}
		if cfg.API.GRPC.Enabled {
			fmt.Printf("  - Admin:     grpc://%s\n", cfg.API.GRPC.Address)
		}
		fmt.Println()
	}

	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("http shutdown: %v", err)
			}
		}
		if admin != nil {
			admin.Stop()
		}
		if hub != nil {
			hub.Close()
		}
		return nil
	})

	return group.Wait()
}

// groupServe starts an HTTP server on its own goroutine and returns it for
// shutdown. Server close is reported as success.
func groupServe(group *errgroup.Group, name, addr string, handler http.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: handler}
	group.Go(func() error {
		log.Printf("%s listening on %s", name, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	return srv
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"goswapd"}`))
}
