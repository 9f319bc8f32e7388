package streamcfg

import "fmt"

// MalformedInputError reports invalid or truncated input to a decode
// operation. It is terminal for the operation that raised it; no partial
// state is left behind.
type MalformedInputError struct {
	Format string // "wire" or "document"
	Detail string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("streamcfg: malformed %s input: %s: %v", e.Format, e.Detail, e.Err)
	}
	return fmt.Sprintf("streamcfg: malformed %s input: %s", e.Format, e.Detail)
}

func (e *MalformedInputError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SchemaMismatchError reports a wire payload written by a schema version
// newer than this reader supports. The format carries no length prefix, so
// the reader fails instead of silently truncating.
type SchemaMismatchError struct {
	Payload   uint8
	Supported uint8
}

func (e *SchemaMismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("streamcfg: payload schema version %d exceeds supported version %d", e.Payload, e.Supported)
}

// VersionGapError reports a diff applied against a snapshot whose version
// does not match the diff's declared base. Callers must fall back to a full
// snapshot transfer.
type VersionGapError struct {
	Base int64 // version the diff was computed against
	Have int64 // version of the snapshot it was applied to
}

func (e *VersionGapError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("streamcfg: diff base version %d does not match snapshot version %d", e.Base, e.Have)
}

// UnknownFieldError reports an unrecognized key during strict document
// decoding.
type UnknownFieldError struct {
	Field string
}

func (e *UnknownFieldError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("streamcfg: unknown document field %q", e.Field)
}
