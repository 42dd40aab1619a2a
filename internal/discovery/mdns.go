// ABOUTME: mDNS service discovery for audiospy servers
// ABOUTME: Servers advertise _audiospy._tcp; clients browse for them once
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/audiospy/audiospy-go/internal/version"
	"github.com/audiospy/audiospy-go/pkg/audio"
	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD service advertised by servers
const ServiceType = "_audiospy._tcp"

// ServerTXT returns the TXT records a server advertises for its format
func ServerTXT(cfg audio.Config) []string {
	return []string{"version=" + version.Version, "format=" + cfg.String()}
}

// TXTValue returns the value of key in TXT records of the form key=value
func TXTValue(txt []string, key string) (string, bool) {
	for _, rec := range txt {
		if k, v, ok := strings.Cut(rec, "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

// Config holds discovery configuration
type Config struct {
	ServiceName string
	Port        int
	TXT         []string
	Logger      *slog.Logger
}

// Manager handles mDNS operations
type Manager struct {
	config Config
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
	server *mdns.Server
}

// ServerInfo describes a discovered server
type ServerInfo struct {
	Name string
	Host string
	Port int
	Info []string
}

// String renders "IP PORT", the client's positional arguments
func (s ServerInfo) String() string {
	return s.Host + " " + strconv.Itoa(s.Port)
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		config: config,
		log:    config.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Advertise announces the server on every non-loopback IPv4 address until
// Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.config.TXT,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}
	m.server = server

	m.log.Info("advertising mDNS service", "name", m.config.ServiceName, "port", m.config.Port, "type", ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse queries the local network once and returns the servers that
// answered within timeout, sorted by address
func (m *Manager) Browse(timeout time.Duration) ([]ServerInfo, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	collected := make(chan []ServerInfo, 1)

	go func() {
		seen := make(map[string]bool)
		var servers []ServerInfo
		for entry := range entries {
			info, ok := entryToServer(entry)
			if !ok || seen[info.String()] {
				continue
			}
			seen[info.String()] = true
			m.log.Debug("discovered server", "name", info.Name, "host", info.Host, "port", info.Port)
			servers = append(servers, info)
		}
		collected <- servers
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Domain = "local"
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entries)
	servers := <-collected
	if err != nil {
		return nil, fmt.Errorf("mdns query: %w", err)
	}

	sortServers(servers)
	return servers, nil
}

// Stop withdraws the advertisement
func (m *Manager) Stop() {
	m.cancel()
}

// entryToServer converts an mDNS answer; entries without an IPv4 address
// are skipped since the client only dials IPv4
func entryToServer(entry *mdns.ServiceEntry) (ServerInfo, bool) {
	if entry == nil || entry.AddrV4 == nil || entry.Port <= 0 {
		return ServerInfo{}, false
	}
	return ServerInfo{
		Name: entry.Name,
		Host: entry.AddrV4.String(),
		Port: entry.Port,
		Info: entry.InfoFields,
	}, true
}

func sortServers(servers []ServerInfo) {
	sort.Slice(servers, func(i, j int) bool {
		if servers[i].Host != servers[j].Host {
			return servers[i].Host < servers[j].Host
		}
		return servers[i].Port < servers[j].Port
	})
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
