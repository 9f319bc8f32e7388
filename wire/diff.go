package wire

import (
	"encoding/binary"

	streamcfg "github.com/goliatone/go-streamcfg"
)

// Diff carries what a replica needs to move a versioned snapshot forward one
// version. It is an explicit tagged union with two states: unchanged (a
// single marker, no payload) and replaced (the full encoded target
// snapshot). There is no field-level delta; partial merges across layered
// optional fields are a correctness hazard that a full replacement avoids at
// the cost of bandwidth.
type Diff struct {
	BaseVersion   int64
	TargetVersion int64
	TargetID      string
	replaced      bool
	payload       []byte
}

const (
	markerUnchanged byte = 0
	markerReplaced  byte = 1
)

// New computes the diff that transforms old into target.
func New(old, target streamcfg.VersionedSnapshot) Diff {
	d := Diff{
		BaseVersion:   old.Version,
		TargetVersion: target.Version,
		TargetID:      target.ID,
	}
	if old.Options != target.Options {
		d.replaced = true
		d.payload = EncodeSnapshot(target.Options)
	}
	return d
}

// Unchanged reports whether the diff carries no payload.
func (d Diff) Unchanged() bool {
	return !d.replaced
}

// Apply transforms base into the snapshot at the diff's target version. It
// fails with a VersionGapError when the diff was computed against a
// different base version; callers must then request a full snapshot.
func Apply(d Diff, base streamcfg.VersionedSnapshot) (streamcfg.VersionedSnapshot, error) {
	if d.BaseVersion != base.Version {
		return streamcfg.VersionedSnapshot{}, &streamcfg.VersionGapError{Base: d.BaseVersion, Have: base.Version}
	}
	if !d.replaced {
		return streamcfg.VersionedSnapshot{
			Version: d.TargetVersion,
			ID:      d.TargetID,
			Options: base.Options,
		}, nil
	}
	options, err := DecodeSnapshot(d.payload)
	if err != nil {
		return streamcfg.VersionedSnapshot{}, err
	}
	return streamcfg.VersionedSnapshot{
		Version: d.TargetVersion,
		ID:      d.TargetID,
		Options: options,
	}, nil
}

// EncodeDiff serializes a diff for the replication transport: schema
// version, base and target versions, target snapshot identifier, marker
// byte, then the replacement payload when present.
func EncodeDiff(d Diff) []byte {
	buf := []byte{SchemaVersion}
	buf = binary.AppendVarint(buf, d.BaseVersion)
	buf = binary.AppendVarint(buf, d.TargetVersion)
	buf = binary.AppendUvarint(buf, uint64(len(d.TargetID)))
	buf = append(buf, d.TargetID...)
	if !d.replaced {
		return append(buf, markerUnchanged)
	}
	buf = append(buf, markerReplaced)
	return append(buf, d.payload...)
}

// DecodeDiff deserializes a diff produced by EncodeDiff. The payload of a
// replaced diff is validated eagerly so a corrupt diff fails here rather
// than at Apply time.
func DecodeDiff(data []byte) (Diff, error) {
	r := reader{buf: data}
	version, err := r.byte()
	if err != nil {
		return Diff{}, err
	}
	if version == 0 {
		return Diff{}, malformed("schema version must not be zero", nil)
	}
	if version > SchemaVersion {
		return Diff{}, &streamcfg.SchemaMismatchError{Payload: version, Supported: SchemaVersion}
	}

	var d Diff
	if d.BaseVersion, err = r.varint(); err != nil {
		return Diff{}, err
	}
	if d.TargetVersion, err = r.varint(); err != nil {
		return Diff{}, err
	}
	if d.TargetID, err = r.string(); err != nil {
		return Diff{}, err
	}
	marker, err := r.byte()
	if err != nil {
		return Diff{}, err
	}
	switch marker {
	case markerUnchanged:
		if !r.exhausted() {
			return Diff{}, malformed("trailing bytes after unchanged marker", nil)
		}
		return d, nil
	case markerReplaced:
		d.replaced = true
		// Detach from the input so callers can reuse their read buffer.
		d.payload = append([]byte(nil), data[r.pos:]...)
		if _, err := DecodeSnapshot(d.payload); err != nil {
			return Diff{}, err
		}
		return d, nil
	default:
		return Diff{}, malformed("invalid diff marker", nil)
	}
}

func (r *reader) varint() (int64, error) {
	value, n := binary.Varint(r.buf[r.pos:])
	if n <= 0 {
		return 0, malformed("invalid varint", nil)
	}
	r.pos += n
	return value, nil
}

func (r *reader) string() (string, error) {
	length, err := r.uvarint()
	if err != nil {
		return "", err
	}
	if uint64(len(r.buf)-r.pos) < length {
		return "", malformed("unexpected end of input", nil)
	}
	s := string(r.buf[r.pos : r.pos+int(length)])
	r.pos += int(length)
	return s, nil
}
