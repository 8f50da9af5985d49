// Package fixture loads router/ACL/topology definitions from YAML into
// the input types pkg/engine.New consumes.
package fixture

// Document is the top-level shape of one topology YAML file: the
// routers (interfaces, ACL bindings, FIB), the named ACLs those
// bindings reference, and the physical links between router
// interfaces.
type Document struct {
	Routers map[string]RouterDef `yaml:"routers"`
	ACLs    map[string]ACLDef    `yaml:"acls"`
	Links   []LinkDef            `yaml:"links"`
}

// RouterDef defines one router's interfaces and forwarding table.
type RouterDef struct {
	Interfaces map[string]InterfaceDef `yaml:"interfaces"`
	FIB        []FIBDef                `yaml:"fib"`
}

// InterfaceDef names the ACLs, if any, bound to an interface's
// outbound and inbound directions.
type InterfaceDef struct {
	OutboundACL string `yaml:"outbound_acl,omitempty"`
	InboundACL  string `yaml:"inbound_acl,omitempty"`
}

// FIBDef is one forwarding-table row: a destination prefix and the
// egress interface ("null_interface" for a null route).
type FIBDef struct {
	Prefix    string `yaml:"prefix"`
	Interface string `yaml:"interface"`
}

// ACLDef is a named, ordered access list.
type ACLDef struct {
	Lines []ACLLineDef `yaml:"lines"`
}

// ACLLineDef is one ACL line: a match predicate and a verdict. Only the
// match fields actually present are applied; an absent field is
// unconstrained for that line.
type ACLLineDef struct {
	Action   string `yaml:"action"` // "accept" or "deny"
	DstIP    string `yaml:"dst_ip,omitempty"`
	SrcIP    string `yaml:"src_ip,omitempty"`
	Protocol *int   `yaml:"protocol,omitempty"`
	DstPort  *int   `yaml:"dst_port,omitempty"`
	SrcPort  *int   `yaml:"src_port,omitempty"`
}

// LinkDef is one directed physical link between two router interfaces.
type LinkDef struct {
	RouterA string `yaml:"router_a"`
	IfaceA  string `yaml:"iface_a"`
	RouterB string `yaml:"router_b"`
	IfaceB  string `yaml:"iface_b"`
}
