// Package parser turns the line-based output of BIRD's "show protocols
// all" command into structured BGP peer records.
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pablomonte/bird-peers/pkg/types"
)

const (
	// Field codes BIRD prefixes reply lines with.
	codeProtocolSummary = 1002 // one condensed status line per protocol
	codeProtocolDetail  = 1006 // start of a multi-line detail block

	protocolBGP = "BGP"
)

// Router-level banner and housekeeping codes that carry no peer data.
// Declared as plain decimal integers: a leading-zero literal (0001)
// would be octal and silently match the wrong codes.
var ignoredFieldCodes = map[int]bool{
	0:    true, // end of reply
	1:    true, // greeting banner
	2002: true, // protocol table header
}

var routesRe = regexp.MustCompile(`^(\d+) imported, (\d+) exported`)

// routeChangeFields are the detail rows carrying churn counters. Each
// value holds exactly five cells in this fixed order.
var (
	routeChangeFields = map[string]bool{
		"import updates":   true,
		"import withdraws": true,
		"export updates":   true,
		"export withdraws": true,
	}
	routeChangeOutcomes = []string{"received", "rejected", "filtered", "ignored", "accepted"}
)

// Parser converts one full BIRD reply into peer records. The zero value
// is not usable; construct with New. The now function anchors relative
// timestamps and defaults to time.Now.
type Parser struct {
	now func() time.Time
}

// New creates a Parser that resolves timestamps against the wall clock.
func New() *Parser {
	return &Parser{now: time.Now}
}

// NewWithNow creates a Parser with an injected clock, for tests and
// replay tooling that need a fixed reference instant.
func NewWithNow(now func() time.Time) *Parser {
	return &Parser{now: now}
}

// ParsePeers scans a full reply and returns every BGP peer found, in
// the order BIRD emitted them, each summary line merged with its detail
// block. Non-BGP protocols are dropped, as are detail blocks that do
// not follow a BGP summary.
func (p *Parser) ParsePeers(data string) ([]types.PeerDetail, error) {
	// An explicit index is shared between the outer scan and the
	// detail-block consumption below, so end-of-input without a
	// trailing blank line terminates the block cleanly.
	lines := strings.Split(data, "\n")
	now := p.now()

	var peers []types.PeerDetail
	var pending *types.PeerSummary

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])

		code, rest, ok := SplitFieldCode(line)
		if !ok || ignoredFieldCodes[code] {
			continue
		}

		switch code {
		case codeProtocolSummary:
			summary, err := parseSummary(rest, now)
			if err != nil {
				return nil, err
			}
			if summary.Protocol != protocolBGP {
				pending = nil
				continue
			}
			pending = summary

		case codeProtocolDetail:
			block := []string{rest}
			for i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
				i++
				block = append(block, strings.TrimSpace(lines[i]))
			}
			if pending == nil {
				// Detail of a non-BGP protocol, already consumed above.
				continue
			}
			detail, err := parseDetail(block)
			if err != nil {
				return nil, err
			}
			detail.PeerSummary = *pending
			peers = append(peers, *detail)
			pending = nil
		}
	}

	return peers, nil
}

// SplitFieldCode extracts the numeric field code from a reply line. The
// line must start with a decimal digit run followed by a space or dash;
// the code and its separator are stripped from the returned remainder.
// Lines without such a prefix are returned unchanged with ok == false.
func SplitFieldCode(line string) (code int, rest string, ok bool) {
	n := 0
	for n < len(line) && line[n] >= '0' && line[n] <= '9' {
		n++
	}
	if n == 0 || n >= len(line) || (line[n] != ' ' && line[n] != '-') {
		return 0, line, false
	}

	// Always base 10: BIRD's zero-padded codes must never be read as octal.
	code, err := strconv.Atoi(line[:n])
	if err != nil {
		return 0, line, false
	}

	return code, strings.TrimSpace(line[n+1:]), true
}

// parseSummary parses one protocol table row, like:
//
//	PS1      BGP      T_PS1    start  Jun13       Passive
//
// Columns are name, protocol, table, daemon state, last change, session
// state. The session state column is missing entirely for peers that
// never came up.
func parseSummary(line string, now time.Time) (*types.PeerSummary, error) {
	cols := strings.Fields(line)
	if len(cols) < 5 {
		return nil, fmt.Errorf("malformed protocol summary line %q", line)
	}

	summary := &types.PeerSummary{
		Name:     cols[0],
		Protocol: cols[1],
	}
	if len(cols) > 5 {
		summary.State = cols[5]
		summary.Up = types.IsEstablished(summary.State)
	}

	lastChange, err := ParseLastChange(cols[4], now)
	if err != nil {
		return nil, err
	}
	summary.LastChange = lastChange

	return summary, nil
}

// parseDetail parses a peer's detail block, like:
//
//	Description:    Peering AS8954 - InTouch
//	Preference:     100
//	Routes:         24 imported, 23 exported, 0 preferred
//	Route change stats:     received   rejected   filtered    ignored   accepted
//	  Import updates:             50          3          19         0          0
//	  Import withdraws:            0          0        ---          0          0
//	  BGP state:          Established
//	    Neighbor ID:      85.184.4.5
//
// Field names are matched case-insensitively; unknown fields are
// ignored so new BIRD versions do not break parsing.
func parseDetail(block []string) (*types.PeerDetail, error) {
	detail := &types.PeerDetail{RouteChanges: types.RouteStats{}}

	for _, line := range block {
		field, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch {
		case field == "routes":
			m := routesRe.FindStringSubmatch(value)
			if m == nil {
				return nil, fmt.Errorf("malformed routes field %q", value)
			}
			// Both submatches are digit runs, Atoi cannot fail here.
			detail.RoutesImported, _ = strconv.Atoi(m[1])
			detail.RoutesExported, _ = strconv.Atoi(m[2])

		case routeChangeFields[field]:
			cells := strings.Fields(value)
			if len(cells) != len(routeChangeOutcomes) {
				return nil, fmt.Errorf("malformed route change row %q: %q", field, value)
			}
			keyBase := strings.ReplaceAll(field, " ", "_")
			for k, cell := range cells {
				key := keyBase + "_" + routeChangeOutcomes[k]
				if err := applyRouteStat(detail.RouteChanges, key, cell); err != nil {
					return nil, err
				}
			}

		case field == "neighbor id":
			detail.RouterID = value

		case field == "description":
			detail.Description = value
		}
	}

	return detail, nil
}

// applyRouteStat records one churn counter cell. The "---" placeholder
// means the counter does not apply to that direction/outcome pair and
// produces no entry at all.
func applyRouteStat(stats types.RouteStats, key, cell string) error {
	cell = strings.TrimSpace(cell)
	if cell == "---" {
		return nil
	}

	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil || v < 0 {
		return fmt.Errorf("malformed route change counter %s: %q", key, cell)
	}
	stats[key] = v

	return nil
}
