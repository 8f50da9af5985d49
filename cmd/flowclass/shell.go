package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flowclass/flowclass/pkg/cli"
	"github.com/flowclass/flowclass/pkg/engine"
	"github.com/flowclass/flowclass/pkg/packet"
)

var shellCmd = &cobra.Command{
	Use:   "shell <topology.yaml>",
	Short: "Interactive query REPL over one loaded topology",
	Long: `Shell loads a topology once and lets you issue repeated reachability
queries against the same engine instance, amortizing the bulk-load cost
across an investigation session.

  flowclass> reach 10.1.2.3 from r1 to r2
  flowclass> reach 10.0.0.0/8 from edge1 to core1 action drop
  flowclass> stats
  flowclass> quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := app.loadEngine(args[0])
		if err != nil {
			return err
		}
		return NewShell(e, args[0]).Run()
	},
}

// Shell is an interactive REPL bound to one loaded engine.
type Shell struct {
	eng      *engine.Engine
	topoName string
	reader   *bufio.Reader
	commands map[string]func(args []string)
}

// NewShell creates an interactive shell over a loaded engine.
func NewShell(e *engine.Engine, topoName string) *Shell {
	s := &Shell{
		eng:      e,
		topoName: topoName,
		reader:   bufio.NewReader(os.Stdin),
	}
	s.commands = map[string]func(args []string){
		"reach": s.cmdReach,
		"stats": func([]string) { s.cmdStats() },
		"help":  func([]string) { s.cmdHelp() },
		"?":     func([]string) { s.cmdHelp() },
	}
	return s
}

// Run starts the interactive shell loop.
func (s *Shell) Run() error {
	stats := s.eng.Stats()
	fmt.Printf("Loaded %s: %d equivalence classes over %d links.\n",
		cli.Bold(s.topoName), stats.ECs, stats.Links)
	fmt.Println("Type 'help' for available commands.")

	for {
		fmt.Printf("flowclass> ")

		line, err := s.reader.ReadString('\n')
		if err != nil { // EOF
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		cmd := args[0]

		switch cmd {
		case "quit", "exit", "q":
			return nil
		default:
			if fn, ok := s.commands[cmd]; ok {
				fn(args[1:])
			} else {
				fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
			}
		}
	}
}

// cmdReach parses and runs one query:
//
//	reach <dst-ip[/len]> from <r1[,r2...]> to <r3[,r4...]> [action <name>]
func (s *Shell) cmdReach(args []string) {
	var dst, action string
	var from, to []string
	action = "any"

	i := 0
	if i < len(args) && args[i] != "from" {
		dst = args[i]
		i++
	}
	for i < len(args) {
		switch args[i] {
		case "from":
			if i+1 < len(args) {
				from = strings.Split(args[i+1], ",")
				i += 2
				continue
			}
		case "to":
			if i+1 < len(args) {
				to = strings.Split(args[i+1], ",")
				i += 2
				continue
			}
		case "action":
			if i+1 < len(args) {
				action = args[i+1]
				i += 2
				continue
			}
		}
		fmt.Printf("Usage: reach <dst-ip> from <routers> to <routers> [action <name>]\n")
		return
	}

	if len(from) == 0 || len(to) == 0 {
		fmt.Println("Both 'from' and 'to' router sets are required.")
		return
	}

	flags, err := packet.ParseDisposition(action)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	hs, err := headerFromFlags(dst, "", -1, -1, -1)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	ans, err := s.eng.Reachable(cmdContext(), hs, flags, from, to)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printAnswer(ans, false)
}

func (s *Shell) cmdStats() {
	stats := s.eng.Stats()
	fmt.Printf("Equivalence classes: %d\n", stats.ECs)
	fmt.Printf("Live rectangles:     %d\n", stats.LiveRects)
	fmt.Printf("Graph links:         %d\n", stats.Links)
}

func (s *Shell) cmdHelp() {
	fmt.Println(`Commands:
  reach <dst-ip> from <routers> to <routers> [action <name>]
        Find one flow witnessing the disposition (default action: any).
        Router sets are comma-separated. Actions: accept, deny-in,
        deny-out, deny, null-route, no-route, drop, any.
  stats
        Show equivalence-class and graph sizes.
  help
        Show this help.
  quit
        Exit the shell.`)
}
