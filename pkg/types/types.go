package types

import (
	"fmt"
	"strings"
	"time"
)

// StateEstablished is the session state BIRD reports once a BGP peering
// is up. Comparison is always case-insensitive.
const StateEstablished = "Established"

// RouteStats is a sparse mapping of route-churn counters, keyed as
// "<direction>_<event>_<outcome>" (e.g. "import_updates_accepted").
// A missing key means BIRD reported that cell as not applicable ("---"),
// which is different from a zero count.
type RouteStats map[string]int64

// PeerSummary holds the fields from one line of the BIRD protocol table.
type PeerSummary struct {
	Name       string    // protocol instance name, unique per response
	Protocol   string    // protocol type, e.g. "BGP"
	LastChange time.Time // last state change, resolved against query time
	State      string    // session state token; empty if the peer never came up
	Up         bool      // true iff State case-folds to "established"
}

// PeerDetail is a PeerSummary merged with the extended attributes from
// the peer's multi-line detail block.
type PeerDetail struct {
	PeerSummary

	Description    string     // operator-set description, may be empty
	RouterID       string     // "Neighbor ID" field, empty if not reported
	RoutesImported int        // from the "Routes" line
	RoutesExported int        // from the "Routes" line
	RouteChanges   RouteStats // sparse churn counters
}

// String returns a human-readable representation of the peer
func (p PeerSummary) String() string {
	return fmt.Sprintf("Peer{Name: %s, Protocol: %s, State: %s, LastChange: %s}",
		p.Name, p.Protocol, p.State, p.LastChange.Format("2006-01-02 15:04"))
}

// IsEstablished reports whether a state token means the session is up.
func IsEstablished(state string) bool {
	return strings.EqualFold(state, StateEstablished)
}

// IsValid checks if the peer record has all required fields
func (p PeerDetail) IsValid() bool {
	return p.Name != "" && p.Protocol != "" && !p.LastChange.IsZero()
}
