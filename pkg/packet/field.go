// Package packet defines the closed set of header fields the engine can
// model, the header-space predicate built from them, and the disposition
// flags a reachability query asks about.
package packet

import "fmt"

// Field is one of the bit-fields the engine may model. The engine
// (pkg/engine) builds its pkg/geom factory space from only the fields
// actually referenced by some ACL, and always enables FieldDstIP.
type Field int

const (
	FieldDstIP Field = iota
	FieldSrcIP
	FieldDstPort
	FieldSrcPort
	FieldIPProtocol
	FieldICMPType
	FieldICMPCode
	FieldTCPFlagFIN
	FieldTCPFlagSYN
	FieldTCPFlagRST
	FieldTCPFlagPSH
	FieldTCPFlagACK
	FieldTCPFlagURG
	FieldTCPFlagECE
	FieldTCPFlagCWR

	numFields
)

var fieldNames = [numFields]string{
	FieldDstIP:      "dstIp",
	FieldSrcIP:      "srcIp",
	FieldDstPort:    "dstPort",
	FieldSrcPort:    "srcPort",
	FieldIPProtocol: "ipProtocol",
	FieldICMPType:   "icmpType",
	FieldICMPCode:   "icmpCode",
	FieldTCPFlagFIN: "tcpFlagFin",
	FieldTCPFlagSYN: "tcpFlagSyn",
	FieldTCPFlagRST: "tcpFlagRst",
	FieldTCPFlagPSH: "tcpFlagPsh",
	FieldTCPFlagACK: "tcpFlagAck",
	FieldTCPFlagURG: "tcpFlagUrg",
	FieldTCPFlagECE: "tcpFlagEce",
	FieldTCPFlagCWR: "tcpFlagCwr",
}

func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// NumFields is the size of the closed field set.
const NumFields = int(numFields)

// TCPFlagFields lists the eight individual TCP flag fields, in bit order.
var TCPFlagFields = []Field{
	FieldTCPFlagFIN, FieldTCPFlagSYN, FieldTCPFlagRST, FieldTCPFlagPSH,
	FieldTCPFlagACK, FieldTCPFlagURG, FieldTCPFlagECE, FieldTCPFlagCWR,
}

// Domain returns the field's full half-open value range. IP fields are
// 32-bit address space; ports are 16-bit; protocol/ICMP type/code are
// 8-bit; TCP flags are single bits.
func (f Field) Domain() Range {
	switch f {
	case FieldDstIP, FieldSrcIP:
		return Range{Lo: 0, Hi: 1 << 32}
	case FieldDstPort, FieldSrcPort:
		return Range{Lo: 0, Hi: 1 << 16}
	case FieldIPProtocol, FieldICMPType, FieldICMPCode:
		return Range{Lo: 0, Hi: 1 << 8}
	default:
		return Range{Lo: 0, Hi: 2} // single-bit TCP flag
	}
}
