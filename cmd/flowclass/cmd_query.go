package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowclass/flowclass/pkg/packet"
)

var queryFlags struct {
	dstIP    string
	srcIP    string
	protocol int
	dstPort  int
	srcPort  int
	from     []string
	to       []string
	action   string
}

var queryCmd = &cobra.Command{
	Use:   "query <topology.yaml>",
	Short: "Run one reachability query",
	Long: `Query loads a topology snapshot, bulk-builds the equivalence-class
index, and searches for one concrete flow witnessing the requested
disposition.

  flowclass query topo.yaml --dst-ip 10.1.2.3 --from r1 --to r2 --action accept
  flowclass query topo.yaml --dst-ip 10.0.0.0/8 --from edge1 --to core1 --action drop`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(queryFlags.from) == 0 || len(queryFlags.to) == 0 {
			return fmt.Errorf("--from and --to are both required")
		}

		flags, err := packet.ParseDisposition(queryFlags.action)
		if err != nil {
			return err
		}
		hs, err := headerFromFlags(queryFlags.dstIP, queryFlags.srcIP,
			queryFlags.protocol, queryFlags.dstPort, queryFlags.srcPort)
		if err != nil {
			return err
		}

		e, err := app.loadEngine(args[0])
		if err != nil {
			return err
		}

		ans, err := e.Reachable(cmdContext(), hs, flags, queryFlags.from, queryFlags.to)
		if err != nil {
			return err
		}
		printAnswer(ans, app.jsonOutput)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryFlags.dstIP, "dst-ip", "", "destination IP or CIDR")
	queryCmd.Flags().StringVar(&queryFlags.srcIP, "src-ip", "", "source IP or CIDR")
	queryCmd.Flags().IntVar(&queryFlags.protocol, "protocol", -1, "IP protocol number")
	queryCmd.Flags().IntVar(&queryFlags.dstPort, "dst-port", -1, "destination port")
	queryCmd.Flags().IntVar(&queryFlags.srcPort, "src-port", -1, "source port")
	queryCmd.Flags().StringSliceVar(&queryFlags.from, "from", nil, "source routers (repeatable)")
	queryCmd.Flags().StringSliceVar(&queryFlags.to, "to", nil, "sink routers (repeatable)")
	queryCmd.Flags().StringVar(&queryFlags.action, "action", "any", "disposition to witness: accept, deny-in, deny-out, deny, null-route, no-route, drop, any")
	queryCmd.Flags().BoolVar(&app.jsonOutput, "json", false, "machine-readable output")
}
