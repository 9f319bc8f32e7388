// Package wire implements the compact binary form of stream configuration
// used for inter-node transport: a schema version byte followed by one flag
// byte per optional leaf and the payload only when set, in fixed declared
// field order. The format carries no length prefix; schema evolution is
// negotiated out of band and a payload from a newer schema fails decoding
// with a SchemaMismatchError.
package wire

import (
	"encoding/binary"
	"time"

	streamcfg "github.com/goliatone/go-streamcfg"
)

// SchemaVersion is the wire schema this package reads and writes.
const SchemaVersion uint8 = 1

// Leaf flags. Snapshots only ever carry absent/present; the cleared flag is
// reserved for fragment (template) transport where the authoring tri-state
// must survive the trip.
const (
	flagAbsent  byte = 0
	flagPresent byte = 1
	flagCleared byte = 2
)

// EncodeSnapshot serializes a resolved snapshot. Snapshots expose only
// present and absent leaves, so every flag byte is 0 or 1.
func EncodeSnapshot(options streamcfg.Options) []byte {
	return encodeOptions(options, false)
}

// DecodeSnapshot deserializes a snapshot produced by EncodeSnapshot. A
// cleared flag inside a snapshot payload is malformed input.
func DecodeSnapshot(data []byte) (streamcfg.Options, error) {
	return decodeOptions(data, false)
}

// EncodeFragment serializes an authoring fragment, preserving the
// inherit/explicit/cleared tag on every leaf.
func EncodeFragment(fragment streamcfg.Options) []byte {
	return encodeOptions(fragment, true)
}

// DecodeFragment deserializes a fragment produced by EncodeFragment.
func DecodeFragment(data []byte) (streamcfg.Options, error) {
	return decodeOptions(data, true)
}

func encodeOptions(options streamcfg.Options, fragment bool) []byte {
	buf := []byte{SchemaVersion}
	buf = appendNested(buf, options.Lifecycle, fragment, func(buf []byte, lc streamcfg.Lifecycle) []byte {
		buf = appendBoolLeaf(buf, lc.Enabled, fragment)
		return appendDurationLeaf(buf, lc.Retention, fragment)
	})
	buf = appendNested(buf, options.FailureStore, fragment, func(buf []byte, fs streamcfg.FailureStore) []byte {
		buf = appendBoolLeaf(buf, fs.Enabled, fragment)
		return appendDurationLeaf(buf, fs.Retention, fragment)
	})
	return buf
}

func decodeOptions(data []byte, fragment bool) (streamcfg.Options, error) {
	r := reader{buf: data, fragment: fragment}
	version, err := r.byte()
	if err != nil {
		return streamcfg.Options{}, err
	}
	if version == 0 {
		return streamcfg.Options{}, malformed("schema version must not be zero", nil)
	}
	if version > SchemaVersion {
		return streamcfg.Options{}, &streamcfg.SchemaMismatchError{Payload: version, Supported: SchemaVersion}
	}

	var options streamcfg.Options
	options.Lifecycle, err = readNested(&r, func(r *reader) (streamcfg.Lifecycle, error) {
		var lc streamcfg.Lifecycle
		var err error
		if lc.Enabled, err = r.boolLeaf(); err != nil {
			return lc, err
		}
		lc.Retention, err = r.durationLeaf()
		return lc, err
	})
	if err != nil {
		return streamcfg.Options{}, err
	}
	options.FailureStore, err = readNested(&r, func(r *reader) (streamcfg.FailureStore, error) {
		var fs streamcfg.FailureStore
		var err error
		if fs.Enabled, err = r.boolLeaf(); err != nil {
			return fs, err
		}
		fs.Retention, err = r.durationLeaf()
		return fs, err
	})
	if err != nil {
		return streamcfg.Options{}, err
	}
	if !r.exhausted() {
		return streamcfg.Options{}, malformed("trailing bytes after last field", nil)
	}
	return options, nil
}

func appendFlag[T any](buf []byte, leaf streamcfg.Optional[T], fragment bool) ([]byte, bool) {
	switch {
	case leaf.IsExplicit():
		return append(buf, flagPresent), true
	case leaf.IsCleared() && fragment:
		return append(buf, flagCleared), false
	default:
		return append(buf, flagAbsent), false
	}
}

func appendNested[T any](buf []byte, leaf streamcfg.Optional[T], fragment bool, payload func([]byte, T) []byte) []byte {
	buf, present := appendFlag(buf, leaf, fragment)
	if !present {
		return buf
	}
	value, _ := leaf.Get()
	return payload(buf, value)
}

func appendBoolLeaf(buf []byte, leaf streamcfg.Optional[bool], fragment bool) []byte {
	buf, present := appendFlag(buf, leaf, fragment)
	if !present {
		return buf
	}
	value, _ := leaf.Get()
	if value {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func appendDurationLeaf(buf []byte, leaf streamcfg.Optional[time.Duration], fragment bool) []byte {
	buf, present := appendFlag(buf, leaf, fragment)
	if !present {
		return buf
	}
	value, _ := leaf.Get()
	return binary.AppendUvarint(buf, uint64(value))
}

// reader walks a wire payload, turning truncation and invalid flags into
// MalformedInputError.
type reader struct {
	buf      []byte
	pos      int
	fragment bool
}

func (r *reader) exhausted() bool {
	return r.pos == len(r.buf)
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, malformed("unexpected end of input", nil)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// flag reads a leaf flag. Returns explicit, cleared.
func (r *reader) flag() (bool, bool, error) {
	b, err := r.byte()
	if err != nil {
		return false, false, err
	}
	switch b {
	case flagAbsent:
		return false, false, nil
	case flagPresent:
		return true, false, nil
	case flagCleared:
		if !r.fragment {
			return false, false, malformed("cleared flag inside snapshot payload", nil)
		}
		return false, true, nil
	default:
		return false, false, malformed("invalid leaf flag", nil)
	}
}

func (r *reader) boolLeaf() (streamcfg.Optional[bool], error) {
	explicit, cleared, err := r.flag()
	if err != nil {
		return streamcfg.Optional[bool]{}, err
	}
	if cleared {
		return streamcfg.Cleared[bool](), nil
	}
	if !explicit {
		return streamcfg.Inherit[bool](), nil
	}
	b, err := r.byte()
	if err != nil {
		return streamcfg.Optional[bool]{}, err
	}
	switch b {
	case 0:
		return streamcfg.Explicit(false), nil
	case 1:
		return streamcfg.Explicit(true), nil
	default:
		return streamcfg.Optional[bool]{}, malformed("invalid boolean payload", nil)
	}
}

func (r *reader) durationLeaf() (streamcfg.Optional[time.Duration], error) {
	explicit, cleared, err := r.flag()
	if err != nil {
		return streamcfg.Optional[time.Duration]{}, err
	}
	if cleared {
		return streamcfg.Cleared[time.Duration](), nil
	}
	if !explicit {
		return streamcfg.Inherit[time.Duration](), nil
	}
	nanos, err := r.uvarint()
	if err != nil {
		return streamcfg.Optional[time.Duration]{}, err
	}
	return streamcfg.Explicit(time.Duration(nanos)), nil
}

func (r *reader) uvarint() (uint64, error) {
	value, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, malformed("invalid varint", nil)
	}
	r.pos += n
	return value, nil
}

func readNested[T any](r *reader, payload func(*reader) (T, error)) (streamcfg.Optional[T], error) {
	explicit, cleared, err := r.flag()
	if err != nil {
		return streamcfg.Optional[T]{}, err
	}
	if cleared {
		return streamcfg.Cleared[T](), nil
	}
	if !explicit {
		return streamcfg.Inherit[T](), nil
	}
	value, err := payload(r)
	if err != nil {
		return streamcfg.Optional[T]{}, err
	}
	return streamcfg.Explicit(value), nil
}

func malformed(detail string, err error) error {
	return &streamcfg.MalformedInputError{Format: "wire", Detail: detail, Err: err}
}
