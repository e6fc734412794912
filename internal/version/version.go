// ABOUTME: Build version information
// ABOUTME: Product identity reported by the decoder CLI
package version

// Version is overridden at build time with -ldflags "-X .../version.Version=..."
var Version = "0.1.0"

const (
	Product      = "neteq-decode"
	Manufacturer = "Resonate"
)
