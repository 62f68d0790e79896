package ingest

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

// legacyEncodings is the probe chain applied to non-UTF-8 input, in order.
// Exports from the source systems are most often Windows-1252.
var legacyEncodings = []struct {
	name string
	enc  encoding.Encoding
}{
	{"windows-1252", charmap.Windows1252},
	{"iso-8859-1", charmap.ISO8859_1},
	{"cp1252", charmap.Windows1252},
}

// DecodeText strips a UTF-8 BOM and converts the input to UTF-8, probing the
// legacy single-byte encodings when the bytes are not already valid UTF-8.
// The second return value names the detected encoding.
func DecodeText(data []byte) ([]byte, string) {
	data = bytes.TrimPrefix(data, bomUTF8)
	if utf8.Valid(data) {
		return data, "utf-8"
	}

	for _, probe := range legacyEncodings {
		decoded, err := probe.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if utf8.Valid(decoded) {
			return decoded, probe.name
		}
	}

	// force-convert: Windows-1252 maps every byte
	decoded, _ := charmap.Windows1252.NewDecoder().Bytes(data)
	return decoded, "windows-1252-forced"
}
