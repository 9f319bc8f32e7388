package streamcfg

import "github.com/google/uuid"

// VersionedSnapshot tags a resolved snapshot with a monotonically increasing
// version counter. It is the unit the diff protocol operates on: created by
// the authoritative writer, superseded when a newer version is accepted,
// never mutated in place.
type VersionedSnapshot struct {
	Version int64
	ID      string
	Options Options
}

// NewVersionedSnapshot wraps options as version 1 of a metadata domain.
func NewVersionedSnapshot(options Options) VersionedSnapshot {
	return VersionedSnapshot{
		Version: 1,
		ID:      uuid.NewString(),
		Options: options.resolved(),
	}
}

// Next derives the successor snapshot holding options at version+1. The
// receiver is left untouched.
func (s VersionedSnapshot) Next(options Options) VersionedSnapshot {
	return VersionedSnapshot{
		Version: s.Version + 1,
		ID:      uuid.NewString(),
		Options: options.resolved(),
	}
}

// Equal reports structural equality of the resolved options, ignoring the
// version tag and identifier.
func (s VersionedSnapshot) Equal(other VersionedSnapshot) bool {
	return s.Options == other.Options
}
