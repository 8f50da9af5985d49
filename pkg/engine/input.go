package engine

import "github.com/flowclass/flowclass/pkg/packet"

// Action is an ACL line's verdict.
type Action int

const (
	Accept Action = iota
	Deny
)

// ACLLine is one line of an interface access list: a header-space
// predicate and the verdict applied when it matches.
type ACLLine struct {
	Match  packet.HeaderSpace
	Action Action
}

// ACLInput is a named, ordered access list. Line index determines
// priority: the first line is highest.
type ACLInput struct {
	Lines []ACLLine
}

// InterfaceInput names one router interface and, optionally, the ACLs
// bound to its outbound and inbound directions (by name, looked up in
// the acls map passed to New).
type InterfaceInput struct {
	Name        string
	OutboundACL string
	InboundACL  string
}

// FIBEntry is one forwarding-table row: a destination prefix and the
// egress interface, or the reserved "null_interface" name for a null
// route.
type FIBEntry struct {
	Prefix    string
	Interface string
}

// RouterInput describes one router's interfaces and FIB.
type RouterInput struct {
	Name       string
	Interfaces []InterfaceInput
	FIB        []FIBEntry
}

// LinkInput is one directed physical link between two router
// interfaces.
type LinkInput struct {
	RouterA, IfaceA string
	RouterB, IfaceB string
}
