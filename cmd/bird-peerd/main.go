package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pablomonte/bird-peers/pkg/birdc"
	"github.com/pablomonte/bird-peers/pkg/discovery"
	"github.com/pablomonte/bird-peers/pkg/metrics"
	"github.com/pablomonte/bird-peers/pkg/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var (
	socketPath    = flag.String("socket", "/var/run/bird/bird.ctl", "BIRD control socket path")
	nodeName      = flag.String("node", "node1", "Node name for etcd keys and mDNS advertisement")
	interval      = flag.Duration("interval", 30*time.Second, "Poll interval")
	readTimeout   = flag.Duration("timeout", 5*time.Second, "Per-read timeout on the BIRD socket")
	metricsAddr   = flag.String("metrics-addr", ":2112", "Metrics HTTP server address")
	etcdEndpoints = flag.String("etcd", "", "etcd endpoints (comma-separated, empty disables publication)")
	discoveryMode = flag.Bool("discovery", false, "Print a Zabbix discovery document and exit")
	verbose       = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	client := birdc.NewWithTimeout(*socketPath, *readTimeout)

	if *discoveryMode {
		if err := printDiscovery(client); err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		return
	}

	log.Println("============================================")
	log.Println("BIRD Peer Status Daemon")
	log.Println("============================================")
	log.Printf("Node name: %s", *nodeName)
	log.Printf("BIRD socket: %s", *socketPath)
	log.Printf("Poll interval: %s", *interval)
	log.Printf("Metrics address: %s", *metricsAddr)
	log.Printf("etcd endpoints: %s", *etcdEndpoints)
	log.Printf("Verbose: %v", *verbose)
	log.Println()

	// Start Prometheus metrics HTTP server
	log.Println("Starting metrics HTTP server...")
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			log.Printf("⚠ Metrics server error: %v", err)
		}
	}()
	log.Printf("✓ Metrics available at http://localhost%s/metrics", *metricsAddr)
	log.Println()

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		log.Println("Shutting down gracefully...")
		cancel()
	}()

	// Connect to etcd if publication is enabled
	var etcdCli *clientv3.Client
	if *etcdEndpoints != "" {
		log.Println("Connecting to etcd...")
		cli, err := clientv3.New(clientv3.Config{
			Endpoints:   []string{*etcdEndpoints},
			DialTimeout: 5 * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to connect to etcd: %v", err)
		}
		defer cli.Close()
		etcdCli = cli
		log.Println("✓ Connected to etcd")
	} else {
		log.Println("⚠ etcd publication disabled (no -etcd endpoints)")
	}

	// Start mDNS service advertisement
	log.Println()
	log.Println("Starting mDNS service advertisement...")
	mdnsServer, err := discovery.Announce(*nodeName, metricsPort(*metricsAddr), "bird-peers")
	if err != nil {
		log.Printf("⚠ mDNS advertisement failed: %v", err)
	} else {
		defer mdnsServer.Shutdown()
		log.Printf("✓ Advertising as '%s._bird-peers._tcp.local'", *nodeName)
	}

	log.Println()
	log.Println("✓ Daemon running (Ctrl+C to stop)")
	log.Println("============================================")
	log.Println()

	// First poll right away, then on the ticker
	poll(ctx, client, etcdCli)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Context cancelled, exiting...")
			return

		case <-ticker.C:
			poll(ctx, client, etcdCli)
		}
	}
}

// poll runs one BIRD query and pushes the result into metrics and,
// when configured, etcd. Failures never stop the loop.
func poll(ctx context.Context, client *birdc.Client, etcdCli *clientv3.Client) {
	start := time.Now()
	peers, err := client.AllPeers(ctx)
	if err != nil {
		log.Printf("❌ BIRD query failed: %v", err)
		metrics.QueriesTotal.WithLabelValues("error").Inc()
		return
	}
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	metrics.QueriesTotal.WithLabelValues("success").Inc()
	metrics.BGPPeers.Set(float64(len(peers)))

	if *verbose {
		log.Printf("📡 BIRD: %d BGP peers", len(peers))
		for i, peer := range peers {
			log.Printf("   [%d] %v", i+1, peer)
		}
	}

	for _, peer := range peers {
		up := 0.0
		if peer.Up {
			up = 1.0
		}
		metrics.PeerUp.WithLabelValues(peer.Name).Set(up)
		metrics.PeerRoutes.WithLabelValues(peer.Name, "imported").Set(float64(peer.RoutesImported))
		metrics.PeerRoutes.WithLabelValues(peer.Name, "exported").Set(float64(peer.RoutesExported))

		if etcdCli != nil {
			publishPeer(ctx, etcdCli, peer)
		}
	}
}

// publishPeer stores one peer's state in etcd at /bgp/peers/<node>/<peer>
func publishPeer(ctx context.Context, cli *clientv3.Client, peer types.PeerDetail) {
	peerJSON, err := json.Marshal(peer)
	if err != nil {
		log.Printf("⚠ Failed to marshal peer JSON: %v", err)
		metrics.EtcdPublishErrors.Inc()
		return
	}

	key := "/bgp/peers/" + *nodeName + "/" + peer.Name
	if _, err := cli.Put(ctx, key, string(peerJSON)); err != nil {
		log.Printf("⚠ Failed to publish %s to etcd: %v", peer.Name, err)
		metrics.EtcdPublishErrors.Inc()
	}
}

// printDiscovery queries BIRD once and writes the Zabbix discovery
// document to stdout.
func printDiscovery(client *birdc.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	peers, err := client.AllPeers(ctx)
	if err != nil {
		return err
	}

	doc, err := discovery.BuildDocument(peers).Render()
	if err != nil {
		return err
	}

	fmt.Println(string(doc))
	return nil
}

// metricsPort extracts the port number from a listen address like
// ":2112" or "0.0.0.0:2112", falling back to 2112.
func metricsPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 2112
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 2112
	}
	return port
}
