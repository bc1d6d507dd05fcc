// ABOUTME: UMX package layout and serialization
// ABOUTME: Plans section offsets from encoded lengths, then writes header and tables
package umx

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

const (
	// Signature is the package tag, stored little-endian (C1 83 2A 9E)
	Signature = 0x9E2A83C1

	// Version is the package file version understood by the target engine
	Version = 69

	// HeaderSize is the size of the fixed package header
	HeaderSize = 0x40

	// MaxNameLength is the longest name the one-byte length prefix allows
	MaxNameLength = 0xFF - 1

	// PkgAllowDownload lets clients download the package from servers
	PkgAllowDownload = 0x0001

	generationCount = 1
)

var (
	// ErrSecureRandomUnavailable is returned when the package GUID cannot be generated
	ErrSecureRandomUnavailable = errors.New("secure random source unavailable")

	// ErrInvalidName is returned for empty or over-long names
	ErrInvalidName = errors.New("invalid name")

	// ErrEmptyModule is returned when there is no module to embed
	ErrEmptyModule = errors.New("empty music data")
)

// Layout is the byte plan of a package
type Layout struct {
	NameOffset   int
	NameSize     int
	MusicOffset  int
	MusicSize    int
	ImportOffset int
	ImportSize   int
	ExportOffset int
	ExportSize   int
}

// Total returns the size of the whole package
func (l Layout) Total() int {
	return l.ExportOffset + l.ExportSize
}

// PlanLayout places the sections after the header in file order:
// names, music, imports, exports
func PlanLayout(nameSize, musicSize, importSize, exportSize int) Layout {
	l := Layout{
		NameOffset: HeaderSize,
		NameSize:   nameSize,
		MusicSize:  musicSize,
		ImportSize: importSize,
		ExportSize: exportSize,
	}
	l.MusicOffset = l.NameOffset + l.NameSize
	l.ImportOffset = l.MusicOffset + l.MusicSize
	l.ExportOffset = l.ImportOffset + l.ImportSize
	return l
}

// Builder assembles packages. It holds no per-package state.
type Builder struct {
	random io.Reader
}

// New creates a builder reading GUID bytes from random
func New(random io.Reader) *Builder {
	return &Builder{random: random}
}

// Build wraps an IT module in a package exporting it as a Music object
// named name. The name is sanitized with SanitizeName first.
func (b *Builder) Build(module []byte, name string) ([]byte, error) {
	if len(module) == 0 {
		return nil, ErrEmptyModule
	}

	asset := SanitizeName(name)
	if asset == "" {
		return nil, fmt.Errorf("%w: %q has no usable characters", ErrInvalidName, name)
	}

	guid, err := b.newGUID()
	if err != nil {
		return nil, err
	}

	names := DefaultNames(asset)
	imports := DefaultImports()
	exports := []Export{DefaultExport()}

	// Pass 1: encode everything whose bytes do not depend on offsets
	nameBytes, err := encodeNames(names)
	if err != nil {
		return nil, err
	}
	importBytes, err := encodeImports(imports)
	if err != nil {
		return nil, err
	}
	musicSize, err := musicObjectSize(len(module))
	if err != nil {
		return nil, err
	}

	// The export entry only depends on the music object's size and position,
	// both known once the name table is encoded
	musicOffset := HeaderSize + len(nameBytes)
	var exportBytes []byte
	for _, exp := range exports {
		entry, err := encodeExport(exp, musicSize, musicOffset)
		if err != nil {
			return nil, err
		}
		exportBytes = append(exportBytes, entry...)
	}

	layout := PlanLayout(len(nameBytes), musicSize, len(importBytes), len(exportBytes))

	// Pass 2: emit from the plan
	out := make([]byte, 0, layout.Total())
	out = appendHeader(out, layout, guid, len(names), len(imports), len(exports))
	out = append(out, nameBytes...)
	out, err = appendMusicObject(out, module, layout)
	if err != nil {
		return nil, err
	}
	out = append(out, importBytes...)
	out = append(out, exportBytes...)

	if len(out) != layout.Total() {
		return nil, fmt.Errorf("package size %d does not match layout %d", len(out), layout.Total())
	}
	return out, nil
}

func (b *Builder) newGUID() (uuid.UUID, error) {
	if b == nil || b.random == nil {
		return uuid.Nil, ErrSecureRandomUnavailable
	}
	guid, err := uuid.NewRandomFromReader(b.random)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrSecureRandomUnavailable, err)
	}
	return guid, nil
}

func appendHeader(out []byte, l Layout, guid uuid.UUID, names, imports, exports int) []byte {
	le := binary.LittleEndian

	out = le.AppendUint32(out, Signature)
	out = le.AppendUint32(out, Version)
	out = le.AppendUint32(out, PkgAllowDownload)
	out = le.AppendUint32(out, uint32(names))
	out = le.AppendUint32(out, uint32(l.NameOffset))
	out = le.AppendUint32(out, uint32(exports))
	out = le.AppendUint32(out, uint32(l.ExportOffset))
	out = le.AppendUint32(out, uint32(imports))
	out = le.AppendUint32(out, uint32(l.ImportOffset))
	out = append(out, guid[:]...)

	// One generation, repeating the current counts
	out = le.AppendUint32(out, generationCount)
	out = le.AppendUint32(out, uint32(exports))
	out = le.AppendUint32(out, uint32(names))
	return out
}
