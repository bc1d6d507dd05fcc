// ABOUTME: Compact index codec package for Unreal package files
// ABOUTME: Encodes and decodes the signed variable-length integers used by UMX tables
// Package compact implements the compact index, the signed variable-length
// integer used throughout Unreal packages for table indices and sizes.
//
// The first byte carries the sign in bit 7, a continuation flag in bit 6 and
// the low six bits of the magnitude. Up to three further bytes carry seven
// bits each with bit 7 as the continuation flag, and a fifth byte carries the
// remaining eight bits raw. The largest encodable magnitude is therefore
// 2^35 - 1 (see MaxMagnitude).
//
// Example:
//
//	b, err := compact.Encode(-2)   // []byte{0x82}
//	v, n, err := compact.Decode(b) // -2, 1
package compact
