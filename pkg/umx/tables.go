// ABOUTME: UMX name, import and export table entries
// ABOUTME: Defines the fixed tables of a single-music package and their encodings
package umx

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/umxconv/pkg/compact"
)

// Object flags
const (
	RFPublic          = 0x00000004
	RFTagExp          = 0x00000010
	RFHighlightedName = 0x00000400
	RFLoadForClient   = 0x00010000
	RFLoadForServer   = 0x00020000
	RFLoadForEdit     = 0x00040000
	RFStandalone      = 0x00080000
	RFNative          = 0x04000000
)

// Name table indices of the default names
const (
	NameIt = iota
	NameNone
	NamePackage
	NameClass
	NameMusic
	NameAsset
	NameEngine
	NameCore
)

const (
	loadEverywhere = RFLoadForClient | RFLoadForServer | RFLoadForEdit
	plainName      = RFTagExp | loadEverywhere
	nativeName     = RFTagExp | RFHighlightedName | loadEverywhere | RFNative
)

// Name is one name table entry
type Name struct {
	Value string
	Flags uint32
}

// Import is one import table entry. Package is stored as a fixed 4-byte
// value; negative values refer to other import table entries (-1 is the
// first).
type Import struct {
	ClassPackage int64
	ClassName    int64
	Package      int32
	ObjectName   int64
}

// Export is one export table entry. Its serial size and offset are not part
// of the entry; they come from the package Layout.
type Export struct {
	Class      int64 // Negative: import table reference
	Super      int64
	Package    int32
	ObjectName int64
	Flags      uint32
}

// DefaultNames returns the name table of a package exporting asset as Music
func DefaultNames(asset string) []Name {
	return []Name{
		NameIt:      {"it", plainName},
		NameNone:    {"None", nativeName},
		NamePackage: {"Package", nativeName},
		NameClass:   {"Class", nativeName},
		NameMusic:   {"Music", plainName},
		NameAsset:   {asset, plainName},
		NameEngine:  {"Engine", plainName | RFNative},
		NameCore:    {"Core", plainName | RFNative},
	}
}

// DefaultImports returns the imports of Engine.Music and the Engine package
func DefaultImports() []Import {
	return []Import{
		// Core.Class "Music" inside import -2 (Engine)
		{ClassPackage: NameCore, ClassName: NameClass, Package: -2, ObjectName: NameMusic},
		// Core.Package "Engine"
		{ClassPackage: NameCore, ClassName: NamePackage, Package: 0, ObjectName: NameEngine},
	}
}

// DefaultExport returns the export entry of the Music object
func DefaultExport() Export {
	return Export{
		Class:      -1, // import 0, Engine.Music
		Super:      0,
		Package:    0,
		ObjectName: NameAsset,
		Flags:      RFPublic | loadEverywhere | RFStandalone,
	}
}

func encodeNames(names []Name) ([]byte, error) {
	var out []byte
	for i, n := range names {
		if len(n.Value) > MaxNameLength {
			return nil, fmt.Errorf("%w: name %d is %d bytes (max %d)", ErrInvalidName, i, len(n.Value), MaxNameLength)
		}
		// Length includes the terminator
		out = append(out, byte(len(n.Value)+1))
		out = append(out, n.Value...)
		out = append(out, 0)
		out = binary.LittleEndian.AppendUint32(out, n.Flags)
	}
	return out, nil
}

func encodeImports(imports []Import) ([]byte, error) {
	var out []byte
	var err error
	for _, imp := range imports {
		if out, err = appendIndices(out, imp.ClassPackage, imp.ClassName); err != nil {
			return nil, err
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(imp.Package))
		if out, err = compact.Append(out, imp.ObjectName); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func encodeExport(exp Export, serialSize, serialOffset int) ([]byte, error) {
	out, err := appendIndices(nil, exp.Class, exp.Super)
	if err != nil {
		return nil, err
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(exp.Package))
	if out, err = compact.Append(out, exp.ObjectName); err != nil {
		return nil, err
	}
	out = binary.LittleEndian.AppendUint32(out, exp.Flags)
	if out, err = appendIndices(out, int64(serialSize)); err != nil {
		return nil, err
	}
	if serialSize > 0 {
		if out, err = compact.Append(out, int64(serialOffset)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func appendIndices(dst []byte, values ...int64) ([]byte, error) {
	var err error
	for _, v := range values {
		if dst, err = compact.Append(dst, v); err != nil {
			return nil, err
		}
	}
	return dst, nil
}
