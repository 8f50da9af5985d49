package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/flowclass/flowclass/pkg/cli"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/packet"
	"github.com/flowclass/flowclass/pkg/reachability"
)

func cmdContext() context.Context {
	return context.Background()
}

// headerFromFlags builds a header-space predicate from the query flags
// that were actually set; an unset flag leaves its field unconstrained.
func headerFromFlags(dstIP, srcIP string, protocol, dstPort, srcPort int) (packet.HeaderSpace, error) {
	hs := packet.NewHeaderSpace()

	include := func(f packet.Field, cidr string) error {
		if cidr == "" {
			return nil
		}
		rng, err := cidrRange(cidr)
		if err != nil {
			return err
		}
		hs = hs.Include(f, rng)
		return nil
	}
	if err := include(packet.FieldDstIP, dstIP); err != nil {
		return hs, err
	}
	if err := include(packet.FieldSrcIP, srcIP); err != nil {
		return hs, err
	}

	if protocol >= 0 {
		hs = hs.Include(packet.FieldIPProtocol, packet.Range{Lo: int64(protocol), Hi: int64(protocol) + 1})
	}
	if dstPort >= 0 {
		hs = hs.Include(packet.FieldDstPort, packet.Range{Lo: int64(dstPort), Hi: int64(dstPort) + 1})
	}
	if srcPort >= 0 {
		hs = hs.Include(packet.FieldSrcPort, packet.Range{Lo: int64(srcPort), Hi: int64(srcPort) + 1})
	}

	return hs, nil
}

// cidrRange accepts "10.0.0.0/8" or a bare address ("10.0.0.1" = /32).
func cidrRange(s string) (packet.Range, error) {
	if !strings.Contains(s, "/") {
		s += "/32"
	}
	rng, _, err := geom.PrefixRange(s)
	return rng, err
}

// formatIPValue renders a header value as a dotted quad when the field
// is an IP address, or decimal otherwise.
func formatIPValue(f packet.Field, v int64) string {
	if f == packet.FieldDstIP || f == packet.FieldSrcIP {
		return fmt.Sprintf("%d.%d.%d.%d", byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
	return fmt.Sprintf("%d", v)
}

// printAnswer renders a query result: the disposition, the example
// header, and the hop-by-hop trace table.
func printAnswer(ans reachability.AnswerElement, jsonOutput bool) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(answerJSON(ans))
		return
	}

	if !ans.Found() {
		fmt.Println(cli.Dim("no flow matches the query"))
		return
	}

	verdict := cli.Green(ans.Disposition.String())
	if ans.Disposition != packet.DispositionAccept {
		verdict = cli.Red(ans.Disposition.String())
	}
	fmt.Printf("Disposition: %s  (equivalence class %d)\n", verdict, ans.Alpha)

	if len(ans.ExampleHeader) > 0 {
		fmt.Print("Example header:")
		for f, v := range ans.ExampleHeader {
			fmt.Printf(" %s=%s", f, formatIPValue(f, v))
		}
		fmt.Println()
	}

	tbl := cli.NewTable("HOP", "FROM", "OUT-IFACE", "TO", "IN-IFACE")
	for i, l := range ans.Path {
		tbl.Row(fmt.Sprintf("%d", i+1), l.Source.Name, l.SourceIface, l.Target.Name, l.TargetIface)
	}
	tbl.Flush()
}

// answerJSON is the machine-readable form of an AnswerElement.
func answerJSON(ans reachability.AnswerElement) map[string]interface{} {
	out := map[string]interface{}{
		"found": ans.Found(),
	}
	if !ans.Found() {
		return out
	}
	out["disposition"] = ans.Disposition.String()
	out["alpha"] = ans.Alpha

	header := map[string]string{}
	for f, v := range ans.ExampleHeader {
		header[f.String()] = formatIPValue(f, v)
	}
	out["example_header"] = header

	hops := make([]map[string]string, 0, len(ans.Path))
	for _, l := range ans.Path {
		hops = append(hops, map[string]string{
			"from":      l.Source.Name,
			"out_iface": l.SourceIface,
			"to":        l.Target.Name,
			"in_iface":  l.TargetIface,
		})
	}
	out["path"] = hops
	return out
}
