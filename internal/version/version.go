// ABOUTME: Build identity constants
// ABOUTME: Product name, manufacturer and version reported by binaries and the service
package version

const (
	// Version is the release version
	Version = "0.3.0"

	// Product is the product name
	Product = "umxconv"

	// Manufacturer is the publisher name
	Manufacturer = "Sendspin"
)
