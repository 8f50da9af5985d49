package fixture

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load parses a topology YAML file and validates cross-references
// before any engine construction begins.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: reading %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("fixture: parsing %s: %w", path, err)
	}

	if err := validate(&doc); err != nil {
		return nil, fmt.Errorf("fixture: validating %s: %w", path, err)
	}

	return &doc, nil
}

func validate(doc *Document) error {
	if len(doc.Routers) == 0 {
		return fmt.Errorf("at least one router is required")
	}

	for name, r := range doc.Routers {
		for ifaceName, iface := range r.Interfaces {
			if iface.OutboundACL != "" {
				if _, ok := doc.ACLs[iface.OutboundACL]; !ok {
					return fmt.Errorf("router %s interface %s: outbound_acl %q is not defined", name, ifaceName, iface.OutboundACL)
				}
			}
			if iface.InboundACL != "" {
				if _, ok := doc.ACLs[iface.InboundACL]; !ok {
					return fmt.Errorf("router %s interface %s: inbound_acl %q is not defined", name, ifaceName, iface.InboundACL)
				}
			}
		}
		for i, entry := range r.FIB {
			if entry.Prefix == "" {
				return fmt.Errorf("router %s: fib entry %d: prefix is required", name, i)
			}
			if entry.Interface == "" {
				return fmt.Errorf("router %s: fib entry %d: interface is required", name, i)
			}
		}
	}

	for i, link := range doc.Links {
		if _, ok := doc.Routers[link.RouterA]; !ok {
			return fmt.Errorf("link %d: router_a %q is not defined", i, link.RouterA)
		}
		if _, ok := doc.Routers[link.RouterB]; !ok {
			return fmt.Errorf("link %d: router_b %q is not defined", i, link.RouterB)
		}
	}

	for name, acl := range doc.ACLs {
		for i, line := range acl.Lines {
			if line.Action != "accept" && line.Action != "deny" {
				return fmt.Errorf("acl %s: line %d: action must be 'accept' or 'deny', got %q", name, i, line.Action)
			}
		}
	}

	return nil
}
