// ABOUTME: Unreal package (UMX) builder package
// ABOUTME: Wraps a tracker module in a package exporting one Music object
// Package umx builds Unreal music packages (.umx) around a finished tracker
// module.
//
// A package is a 64-byte header followed by the name table, the exported
// Music object, the import table and the export table. The header and the
// export entry hold offsets and sizes of sections that come after them, so a
// package is built in two steps: every section is encoded first, a Layout is
// planned from their lengths, and the header and export table are then
// written from that Layout.
//
// The package GUID is a random version 4 UUID read from the io.Reader given
// to New, normally crypto/rand.Reader.
//
// Example:
//
//	b := umx.New(rand.Reader)
//	pkg, err := b.Build(itModule, umx.SanitizeName("My Song!")) // exports "MySong"
package umx
