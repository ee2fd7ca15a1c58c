package csvload

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Supported source encodings, in default priority order.
const (
	EncodingUTF8Sig = "utf-8-sig"
	EncodingUTF8    = "utf-8"
	EncodingLatin1  = "latin-1"
	EncodingCP1252  = "cp1252"
)

var (
	// ErrInvalidUTF8 is returned when a UTF-8 attempt sees an invalid byte sequence.
	ErrInvalidUTF8 = errors.New("invalid utf-8 byte sequence")
	// ErrBinaryContent is returned when decoded content contains NUL characters.
	ErrBinaryContent = errors.New("content looks binary (NUL character)")
)

var decoders = map[string]encoding.Encoding{
	EncodingUTF8Sig: unicode.UTF8BOM,
	EncodingUTF8:    unicode.UTF8,
	EncodingLatin1:  charmap.ISO8859_1,
	EncodingCP1252:  charmap.Windows1252,
}

// Decode converts raw bytes in the named encoding to UTF-8 text.
func Decode(name string, data []byte) ([]byte, error) {
	enc, ok := decoders[name]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}

	// The x/text UTF-8 decoders replace invalid sequences instead of failing.
	if name == EncodingUTF8Sig || name == EncodingUTF8 {
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%s: %w", name, ErrInvalidUTF8)
		}
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if bytes.IndexByte(out, 0) >= 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrBinaryContent)
	}
	return out, nil
}

// SupportedEncodings lists the encodings Decode accepts, in priority order.
func SupportedEncodings() []string {
	return []string{EncodingUTF8Sig, EncodingUTF8, EncodingLatin1, EncodingCP1252}
}
