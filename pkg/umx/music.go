// ABOUTME: UMX Music object serialization
// ABOUTME: Writes the property terminator, format name, end offset and module bytes
package umx

import (
	"encoding/binary"

	"github.com/Sendspin/umxconv/pkg/compact"
)

// The Music object has no properties, so its property list is just the
// "None" terminator. The format is the "it" name.
const (
	musicProperties = NameNone
	musicFormat     = NameIt
)

func musicObjectSize(moduleLen int) (int, error) {
	size := 4 + moduleLen // end-of-data offset + payload
	for _, v := range []int64{musicProperties, musicFormat, int64(moduleLen)} {
		n, err := compact.Size(v)
		if err != nil {
			return 0, err
		}
		size += n
	}
	return size, nil
}

func appendMusicObject(out []byte, module []byte, l Layout) ([]byte, error) {
	var err error
	if out, err = appendIndices(out, musicProperties, musicFormat); err != nil {
		return nil, err
	}
	// Absolute offset of the first byte after the object
	out = binary.LittleEndian.AppendUint32(out, uint32(l.MusicOffset+l.MusicSize))
	if out, err = compact.Append(out, int64(len(module))); err != nil {
		return nil, err
	}
	return append(out, module...), nil
}
