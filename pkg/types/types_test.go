package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeerSummary_String(t *testing.T) {
	summary := PeerSummary{
		Name:       "PS1",
		Protocol:   "BGP",
		State:      "Established",
		LastChange: time.Date(2011, time.June, 13, 14, 20, 0, 0, time.UTC),
	}

	assert.Equal(t,
		"Peer{Name: PS1, Protocol: BGP, State: Established, LastChange: 2011-06-13 14:20}",
		summary.String())
}

func TestIsEstablished(t *testing.T) {
	tests := []struct {
		state string
		want  bool
	}{
		{state: "Established", want: true},
		{state: "established", want: true},
		{state: "ESTABLISHED", want: true},
		{state: "Passive", want: false},
		{state: "Idle", want: false},
		{state: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEstablished(tt.state))
		})
	}
}

func TestPeerDetail_IsValid(t *testing.T) {
	valid := PeerDetail{
		PeerSummary: PeerSummary{
			Name:       "PS1",
			Protocol:   "BGP",
			LastChange: time.Now(),
		},
	}
	assert.True(t, valid.IsValid())

	tests := []struct {
		name   string
		mutate func(*PeerDetail)
	}{
		{name: "missing name", mutate: func(p *PeerDetail) { p.Name = "" }},
		{name: "missing protocol", mutate: func(p *PeerDetail) { p.Protocol = "" }},
		{name: "zero last change", mutate: func(p *PeerDetail) { p.LastChange = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peer := valid
			tt.mutate(&peer)
			assert.False(t, peer.IsValid())
		})
	}
}
