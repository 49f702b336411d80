package discovery

import (
	"fmt"

	"github.com/hashicorp/mdns"
)

const serviceName = "_bird-peers._tcp"

// Announce advertises this daemon via mDNS so mesh tooling can find its
// metrics endpoint without static configuration. Host name and
// addresses are derived from the local system. The returned server must
// be shut down by the caller.
func Announce(nodeName string, port int, info string) (*mdns.Server, error) {
	service, err := mdns.NewMDNSService(nodeName, serviceName, "", "", port, nil, []string{info})
	if err != nil {
		return nil, fmt.Errorf("failed to build mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	return server, nil
}
