// ABOUTME: Version information for audiospy
// ABOUTME: Reported by --version and in mDNS TXT records
package version

// Version is overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.1.0"

const (
	Product      = "audiospy"
	Manufacturer = "audiospy contributors"
)
