// Package discovery covers both halves of making peers findable: mDNS
// advertisement of this daemon, and the Zabbix low-level-discovery
// document describing the BGP peers it sees.
package discovery

import (
	"encoding/json"

	"github.com/pablomonte/bird-peers/pkg/types"
)

// Item identifies one BGP peer in a low-level-discovery document. The
// bracketed keys are Zabbix LLD macro names.
type Item struct {
	PeerName  string `json:"{#PEERNAME}"`
	ProtoName string `json:"{#PROTONAME}"`
}

// Document is a Zabbix low-level-discovery payload.
type Document struct {
	Data []Item `json:"data"`
}

// BuildDocument creates a discovery document from parsed peers. Only
// peers carrying a description are listed: the description is the
// operator-facing peer name, and sessions without one are not meant to
// be monitored individually.
func BuildDocument(peers []types.PeerDetail) Document {
	doc := Document{Data: []Item{}}

	for _, peer := range peers {
		if peer.Description == "" {
			continue
		}
		doc.Data = append(doc.Data, Item{
			PeerName:  peer.Description,
			ProtoName: peer.Name,
		})
	}

	return doc
}

// Render returns the document as indented JSON.
func (d Document) Render() ([]byte, error) {
	return json.MarshalIndent(d, "", "\t")
}
