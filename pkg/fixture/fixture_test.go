package fixture

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
routers:
  r1:
    interfaces:
      ifaceA:
        outbound_acl: block-telnet
    fib:
      - prefix: 10.0.0.0/8
        interface: ifaceA
  r2:
    interfaces:
      ifaceB: {}
acls:
  block-telnet:
    lines:
      - action: deny
        dst_port: 23
links:
  - router_a: r1
    iface_a: ifaceA
    router_b: r2
    iface_b: ifaceB
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "topo.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	doc, err := Load(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Routers) != 2 {
		t.Fatalf("expected 2 routers, got %d", len(doc.Routers))
	}
	if len(doc.ACLs) != 1 {
		t.Fatalf("expected 1 ACL, got %d", len(doc.ACLs))
	}
}

func TestLoad_UnknownACLReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topo.yaml")
	bad := `
routers:
  r1:
    interfaces:
      ifaceA:
        outbound_acl: ghost
`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a validation error for an undefined ACL reference")
	}
}

func TestToEngineInputs(t *testing.T) {
	doc, err := Load(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	routers, acls, links, err := doc.ToEngineInputs()
	if err != nil {
		t.Fatal(err)
	}
	if len(routers) != 2 || len(acls) != 1 || len(links) != 1 {
		t.Fatalf("unexpected conversion shape: routers=%d acls=%d links=%d", len(routers), len(acls), len(links))
	}
	if routers[0].Name != "r1" {
		t.Fatalf("expected sorted router order starting with r1, got %s", routers[0].Name)
	}
}
