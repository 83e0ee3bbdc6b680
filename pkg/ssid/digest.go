package ssid

import (
	"crypto"
	_ "crypto/md5" // registers crypto.MD5
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	"github.com/mr-tron/base58"
)

// DigestSize is the length in bytes of the digest behind every identifier.
const DigestSize = 16

const digestHash = crypto.MD5

// Format selects how digest bytes are rendered as text. Both formats have
// been published by identifier producers and consumers are bound to one of
// them, so neither replaces the other.
type Format string

const (
	// FormatHex renders 32 lowercase hexadecimal characters.
	FormatHex Format = "hex"
	// FormatBase58 renders the raw digest with the Bitcoin base-58 alphabet.
	// Leading zero bytes become '1', so IDs are usually 22 characters and
	// occasionally shorter.
	FormatBase58 Format = "base58"
)

// DefaultFormat is the format used when a caller has no preference.
const DefaultFormat = FormatHex

// ParseFormat accepts "hex" or "base58".
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", invalidInput("format", "unknown identifier format %q", s)
	}
	return f, nil
}

func (f Format) Valid() bool {
	return f == FormatHex || f == FormatBase58
}

func (f Format) String() string {
	return string(f)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, invalidInput("format", "unknown identifier format %q", string(f))
	}
	return []byte(f), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Digest hashes the UTF-8 bytes of a canonical message.
func Digest(message string) ([]byte, error) {
	if message == "" {
		return nil, invalidInput("message", "canonical message is empty")
	}
	if !utf8.ValidString(message) {
		return nil, invalidInput("message", "canonical message is not valid UTF-8")
	}
	if !digestHash.Available() {
		return nil, encodingFailure("digest algorithm %v is not available", digestHash)
	}

	h := digestHash.New()
	h.Write([]byte(message))
	return h.Sum(nil), nil
}

// IdentifierFor hashes message and renders the digest in format f.
func IdentifierFor(message string, f Format) (string, error) {
	if !f.Valid() {
		return "", invalidInput("format", "unknown identifier format %q", string(f))
	}
	sum, err := Digest(message)
	if err != nil {
		return "", err
	}
	return render(sum, f), nil
}

// ID canonicalizes e and returns its identifier in format f.
func ID(e Entity, f Format) (string, error) {
	message, err := Canonicalize(e)
	if err != nil {
		return "", err
	}
	return IdentifierFor(message, f)
}

// DecodeIdentifier recovers the digest bytes from an identifier rendered in
// format f.
func DecodeIdentifier(id string, f Format) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch f {
	case FormatHex:
		if len(id) != hex.EncodedLen(DigestSize) {
			return nil, invalidInput("id", "hex identifier must be %d characters", hex.EncodedLen(DigestSize))
		}
		for i := 0; i < len(id); i++ {
			if c := id[i]; c >= 'A' && c <= 'F' {
				return nil, invalidInput("id", "hex identifier must be lowercase")
			}
		}
		raw, err = hex.DecodeString(id)
	case FormatBase58:
		raw, err = base58.Decode(id)
	default:
		return nil, invalidInput("format", "unknown identifier format %q", string(f))
	}
	if err != nil {
		return nil, invalidInput("id", "%v", err)
	}
	if len(raw) != DigestSize {
		return nil, invalidInput("id", "decoded identifier is %d bytes, want %d", len(raw), DigestSize)
	}
	return raw, nil
}

// Convert re-renders an identifier from one format into another.
func Convert(id string, from, to Format) (string, error) {
	if !to.Valid() {
		return "", invalidInput("format", "unknown identifier format %q", string(to))
	}
	raw, err := DecodeIdentifier(id, from)
	if err != nil {
		return "", err
	}
	return render(raw, to), nil
}

// NewReference computes the identifiers of two location references in
// format f and returns the Reference that composes them.
func NewReference(fow FormOfWay, from, to LocationReference, f Format) (Reference, error) {
	fromID, err := ID(from, f)
	if err != nil {
		return Reference{}, fmt.Errorf("from location reference: %w", err)
	}
	toID, err := ID(to, f)
	if err != nil {
		return Reference{}, fmt.Errorf("to location reference: %w", err)
	}
	return Reference{FormOfWay: fow, LocationReferenceIDs: [2]string{fromID, toID}}, nil
}

func render(sum []byte, f Format) string {
	if f == FormatBase58 {
		return base58.Encode(sum)
	}
	return hex.EncodeToString(sum)
}
