// Package testutil provides fixture builders shared across package
// tests: small router/ACL/topology inputs and header-space helpers for
// exercising the engine end to end.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/flowclass/flowclass/pkg/engine"
	"github.com/flowclass/flowclass/pkg/geom"
	"github.com/flowclass/flowclass/pkg/packet"
)

// Router builds a RouterInput with the given interfaces (no ACL
// bindings) and FIB rows supplied as prefix/interface pairs.
func Router(name string, ifaces []string, fib ...engine.FIBEntry) engine.RouterInput {
	inputs := make([]engine.InterfaceInput, 0, len(ifaces))
	for _, i := range ifaces {
		inputs = append(inputs, engine.InterfaceInput{Name: i})
	}
	return engine.RouterInput{Name: name, Interfaces: inputs, FIB: fib}
}

// FIB is shorthand for one forwarding-table row.
func FIB(prefix, iface string) engine.FIBEntry {
	return engine.FIBEntry{Prefix: prefix, Interface: iface}
}

// LinearTopology links routers in a chain: routers[i] egresses out its
// last interface into routers[i+1]'s first interface.
func LinearTopology(routers []engine.RouterInput) []engine.LinkInput {
	var links []engine.LinkInput
	for i := 0; i+1 < len(routers); i++ {
		a, b := routers[i], routers[i+1]
		links = append(links, engine.LinkInput{
			RouterA: a.Name, IfaceA: a.Interfaces[len(a.Interfaces)-1].Name,
			RouterB: b.Name, IfaceB: b.Interfaces[0].Name,
		})
	}
	return links
}

// DstIPHeader returns a header space constraining only the destination
// IP, to the single address given in dotted CIDR-free form.
func DstIPHeader(t *testing.T, addr string) packet.HeaderSpace {
	t.Helper()
	rng, _, err := geom.PrefixRange(addr + "/32")
	if err != nil {
		t.Fatalf("bad address %q: %v", addr, err)
	}
	return packet.NewHeaderSpace().Include(packet.FieldDstIP, rng)
}

// DenyLine builds an ACL line dropping the given destination prefix.
func DenyLine(t *testing.T, dstPrefix string) engine.ACLLine {
	t.Helper()
	rng, _, err := geom.PrefixRange(dstPrefix)
	if err != nil {
		t.Fatalf("bad prefix %q: %v", dstPrefix, err)
	}
	return engine.ACLLine{
		Match:  packet.NewHeaderSpace().Include(packet.FieldDstIP, rng),
		Action: engine.Deny,
	}
}

// RedisAddr returns the address of the test Redis instance, or "" if
// FLOWCLASS_TEST_REDIS_ADDR is unset.
func RedisAddr() string {
	return os.Getenv("FLOWCLASS_TEST_REDIS_ADDR")
}

// SkipIfNoRedis skips the test unless a test Redis instance is
// reachable.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not available: set FLOWCLASS_TEST_REDIS_ADDR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
}
