// ABOUTME: Version and product identifiers
// ABOUTME: Shown in the TUI header and by the -version flag
package version

// Version is overridden at build time with -ldflags "-X .../version.Version=..."
var Version = "0.1.0"

// Product is the name shown to users
const Product = "Walkie"

// String returns "Product Version"
func String() string {
	return Product + " " + Version
}
