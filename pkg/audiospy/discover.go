// ABOUTME: Server discovery for library users
// ABOUTME: Browses the local network for advertised audiospy servers
package audiospy

import (
	"time"

	"github.com/audiospy/audiospy-go/internal/discovery"
)

// ServerInfo describes a discovered server
type ServerInfo = discovery.ServerInfo

// Discover lists the servers that answer within timeout
func Discover(timeout time.Duration) ([]ServerInfo, error) {
	mgr := discovery.NewManager(discovery.Config{})
	defer mgr.Stop()
	return mgr.Browse(timeout)
}
