// Flowclass - forwarding-equivalence-class reachability analyzer
//
// A CLI for answering reachability questions over a network data plane
// snapshot (FIBs, interface ACLs, topology) loaded from a YAML file:
//
//	flowclass query topo.yaml --dst-ip 10.1.2.3 --from r1 --to r2 --action accept
//	flowclass stats topo.yaml                   # EC/link counts after bulk load
//	flowclass shell topo.yaml                   # interactive query REPL
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowclass/flowclass/pkg/cache"
	"github.com/flowclass/flowclass/pkg/engine"
	"github.com/flowclass/flowclass/pkg/fixture"
	"github.com/flowclass/flowclass/pkg/util"
)

// App holds CLI state shared across all commands.
type App struct {
	backendName string
	redisAddr   string
	verbose     bool
	jsonOutput  bool
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "flowclass",
	Short:         "Forwarding-equivalence-class reachability analyzer",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Flowclass answers reachability questions over a data-plane snapshot.

A topology YAML file supplies per-router FIBs, interface ACL bindings,
and the physical links between routers. Flowclass partitions packet
header space into equivalence classes, labels every forwarding-graph
edge with the classes it carries, and searches the labelled graph for a
concrete flow witnessing the asked-for disposition.

  flowclass query topo.yaml --dst-ip 10.1.2.3 --from r1 --to r2 --action accept
  flowclass stats topo.yaml
  flowclass shell topo.yaml`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			return util.SetLogLevel("debug")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&app.backendName, "backend", "classic", "EC representation: classic or doc")
	rootCmd.PersistentFlags().StringVar(&app.redisAddr, "redis", "", "Redis address for a shared query cache (host:port)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(shellCmd)
}

// backend resolves the --backend flag.
func (a *App) backend() (engine.BackendType, error) {
	switch a.backendName {
	case "classic":
		return engine.Classic, nil
	case "doc":
		return engine.DifferenceOfCubes, nil
	default:
		return 0, fmt.Errorf("%w: %q (use classic or doc)", util.ErrInvalidBackend, a.backendName)
	}
}

// loadEngine parses the topology file and bulk-constructs an engine.
func (a *App) loadEngine(path string) (*engine.Engine, error) {
	backend, err := a.backend()
	if err != nil {
		return nil, err
	}

	doc, err := fixture.Load(path)
	if err != nil {
		return nil, err
	}
	routers, acls, links, err := doc.ToEngineInputs()
	if err != nil {
		return nil, err
	}

	if a.redisAddr == "" {
		return engine.New(routers, acls, links, backend)
	}

	// The Redis cache decodes stored paths against the live graph, so
	// the engine is built first and the cache attached after.
	e, err := engine.New(routers, acls, links, backend)
	if err != nil {
		return nil, err
	}
	store := cache.NewRedisStore(a.redisAddr, 0, e.Graph(), 0)
	if err := store.Connect(cmdContext()); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", a.redisAddr, err)
	}
	e.SetCache(store)
	return e, nil
}
