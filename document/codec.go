// Package document implements the sparse, human-readable form of stream
// configuration served by client APIs. Absent leaves produce no key at all;
// cleared leaves in authoring fragments render as explicit nulls. Decoding is
// strict by default and routes every field through an immutable decoder table
// assembled at process start.
package document

import (
	"bytes"
	"encoding/json"
	"time"

	streamcfg "github.com/goliatone/go-streamcfg"
)

// Document field names, in the declared schema.
const (
	fieldLifecycle          = "lifecycle"
	fieldFailureStore       = "failure_store"
	fieldEnabled            = "enabled"
	fieldRetention          = "retention"
	fieldEffectiveRetention = "effective_retention"
)

// Params carries request-scoped context the encoder may fold into the
// document as derived, write-only fields. Derived fields are informational:
// they are never part of the snapshot and never accepted back on decode.
type Params struct {
	// IncludeEffectiveRetention injects the retention the cluster would
	// actually enforce for the stream, combining the snapshot's own
	// retention with the cluster-wide default.
	IncludeEffectiveRetention bool
	// GlobalRetention is the cluster-wide default retention consulted when
	// the snapshot does not pin one.
	GlobalRetention time.Duration
}

// Encode serializes a resolved snapshot as a sparse document. Present leaves
// become keys, absent leaves are omitted entirely.
func Encode(options streamcfg.Options, params Params) ([]byte, error) {
	return marshal(encodeOptions(options, params, false))
}

// EncodeFragment serializes an authoring fragment: cleared leaves render as
// explicit nulls so a template can reset inherited values.
func EncodeFragment(fragment streamcfg.Options) ([]byte, error) {
	return marshal(encodeOptions(fragment, Params{}, true))
}

func marshal(doc map[string]any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, malformed("document not serializable", err)
	}
	return data, nil
}

func encodeOptions(options streamcfg.Options, params Params, fragment bool) map[string]any {
	doc := map[string]any{}
	if lc, ok := options.Lifecycle.Get(); ok {
		doc[fieldLifecycle] = encodeLifecycle(lc, params, fragment)
	} else if fragment && options.Lifecycle.IsCleared() {
		doc[fieldLifecycle] = nil
	}
	if fs, ok := options.FailureStore.Get(); ok {
		doc[fieldFailureStore] = encodeFailureStore(fs, fragment)
	} else if fragment && options.FailureStore.IsCleared() {
		doc[fieldFailureStore] = nil
	}
	return doc
}

func encodeLifecycle(lc streamcfg.Lifecycle, params Params, fragment bool) map[string]any {
	doc := map[string]any{}
	putBool(doc, fieldEnabled, lc.Enabled, fragment)
	putDuration(doc, fieldRetention, lc.Retention, fragment)
	if params.IncludeEffectiveRetention {
		if effective, ok := effectiveRetention(lc, params); ok {
			doc[fieldEffectiveRetention] = formatDuration(effective)
		}
	}
	return doc
}

func encodeFailureStore(fs streamcfg.FailureStore, fragment bool) map[string]any {
	doc := map[string]any{}
	putBool(doc, fieldEnabled, fs.Enabled, fragment)
	putDuration(doc, fieldRetention, fs.Retention, fragment)
	return doc
}

// effectiveRetention is derived at encode time from context outside the
// snapshot: the stream's own retention wins, the cluster-wide default fills
// in otherwise.
func effectiveRetention(lc streamcfg.Lifecycle, params Params) (time.Duration, bool) {
	if retention, ok := lc.Retention.Get(); ok {
		return retention, true
	}
	if params.GlobalRetention > 0 {
		return params.GlobalRetention, true
	}
	return 0, false
}

func putBool(doc map[string]any, field string, leaf streamcfg.Optional[bool], fragment bool) {
	if value, ok := leaf.Get(); ok {
		doc[field] = value
	} else if fragment && leaf.IsCleared() {
		doc[field] = nil
	}
}

func putDuration(doc map[string]any, field string, leaf streamcfg.Optional[time.Duration], fragment bool) {
	if value, ok := leaf.Get(); ok {
		doc[field] = formatDuration(value)
	} else if fragment && leaf.IsCleared() {
		doc[field] = nil
	}
}

// DecodeOption configures document decoding.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	lenient bool
}

// WithLenient makes the decoder skip unrecognized fields instead of failing
// with an UnknownFieldError.
func WithLenient() DecodeOption {
	return func(cfg *decodeConfig) {
		cfg.lenient = true
	}
}

// Decode parses a document into a fragment: a missing key is an inherit
// leaf, an explicit null a cleared leaf, a value an explicit leaf. Derived
// fields are write-only; the decoder recognizes and skips them even in
// strict mode so served documents round-trip.
func Decode(data []byte, opts ...DecodeOption) (streamcfg.Options, error) {
	cfg := decodeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	fields, err := objectFields(data)
	if err != nil {
		return streamcfg.Options{}, err
	}
	var options streamcfg.Options
	for name, raw := range fields {
		decode, ok := optionsFields[name]
		if !ok {
			if cfg.lenient {
				continue
			}
			return streamcfg.Options{}, &streamcfg.UnknownFieldError{Field: name}
		}
		if err := decode(raw, cfg, &options); err != nil {
			return streamcfg.Options{}, err
		}
	}
	return options, nil
}

// The decode tables below are assembled once and never mutated afterwards;
// extending the schema means declaring a new entry, not teaching callers a
// new dispatch path. A nil decoder marks a write-only field.

type optionsFieldDecoder func(json.RawMessage, decodeConfig, *streamcfg.Options) error

var optionsFields = map[string]optionsFieldDecoder{
	fieldLifecycle: func(raw json.RawMessage, cfg decodeConfig, out *streamcfg.Options) error {
		if isNull(raw) {
			out.Lifecycle = streamcfg.Cleared[streamcfg.Lifecycle]()
			return nil
		}
		lc, err := decodeLifecycle(raw, cfg)
		if err != nil {
			return err
		}
		out.Lifecycle = streamcfg.Explicit(lc)
		return nil
	},
	fieldFailureStore: func(raw json.RawMessage, cfg decodeConfig, out *streamcfg.Options) error {
		if isNull(raw) {
			out.FailureStore = streamcfg.Cleared[streamcfg.FailureStore]()
			return nil
		}
		fs, err := decodeFailureStore(raw, cfg)
		if err != nil {
			return err
		}
		out.FailureStore = streamcfg.Explicit(fs)
		return nil
	},
}

type lifecycleFieldDecoder func(json.RawMessage, *streamcfg.Lifecycle) error

var lifecycleFields = map[string]lifecycleFieldDecoder{
	fieldEnabled: func(raw json.RawMessage, out *streamcfg.Lifecycle) error {
		leaf, err := boolLeaf(raw, fieldEnabled)
		if err != nil {
			return err
		}
		out.Enabled = leaf
		return nil
	},
	fieldRetention: func(raw json.RawMessage, out *streamcfg.Lifecycle) error {
		leaf, err := durationLeaf(raw, fieldRetention)
		if err != nil {
			return err
		}
		out.Retention = leaf
		return nil
	},
	fieldEffectiveRetention: nil, // write-only, derived at encode time
}

type failureStoreFieldDecoder func(json.RawMessage, *streamcfg.FailureStore) error

var failureStoreFields = map[string]failureStoreFieldDecoder{
	fieldEnabled: func(raw json.RawMessage, out *streamcfg.FailureStore) error {
		leaf, err := boolLeaf(raw, fieldEnabled)
		if err != nil {
			return err
		}
		out.Enabled = leaf
		return nil
	},
	fieldRetention: func(raw json.RawMessage, out *streamcfg.FailureStore) error {
		leaf, err := durationLeaf(raw, fieldRetention)
		if err != nil {
			return err
		}
		out.Retention = leaf
		return nil
	},
}

func decodeLifecycle(data json.RawMessage, cfg decodeConfig) (streamcfg.Lifecycle, error) {
	fields, err := objectFields(data)
	if err != nil {
		return streamcfg.Lifecycle{}, err
	}
	var lc streamcfg.Lifecycle
	for name, raw := range fields {
		decode, ok := lifecycleFields[name]
		if !ok {
			if cfg.lenient {
				continue
			}
			return streamcfg.Lifecycle{}, &streamcfg.UnknownFieldError{Field: name}
		}
		if decode == nil {
			continue
		}
		if err := decode(raw, &lc); err != nil {
			return streamcfg.Lifecycle{}, err
		}
	}
	return lc, nil
}

func decodeFailureStore(data json.RawMessage, cfg decodeConfig) (streamcfg.FailureStore, error) {
	fields, err := objectFields(data)
	if err != nil {
		return streamcfg.FailureStore{}, err
	}
	var fs streamcfg.FailureStore
	for name, raw := range fields {
		decode, ok := failureStoreFields[name]
		if !ok {
			if cfg.lenient {
				continue
			}
			return streamcfg.FailureStore{}, &streamcfg.UnknownFieldError{Field: name}
		}
		if err := decode(raw, &fs); err != nil {
			return streamcfg.FailureStore{}, err
		}
	}
	return fs, nil
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, malformed("expected a JSON object", err)
	}
	return fields, nil
}

func boolLeaf(raw json.RawMessage, field string) (streamcfg.Optional[bool], error) {
	if isNull(raw) {
		return streamcfg.Cleared[bool](), nil
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return streamcfg.Optional[bool]{}, malformed("field "+field+" must be a boolean", err)
	}
	return streamcfg.Explicit(value), nil
}

func durationLeaf(raw json.RawMessage, field string) (streamcfg.Optional[time.Duration], error) {
	if isNull(raw) {
		return streamcfg.Cleared[time.Duration](), nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return streamcfg.Optional[time.Duration]{}, malformed("field "+field+" must be a duration string", err)
	}
	d, err := parseDuration(value)
	if err != nil {
		return streamcfg.Optional[time.Duration]{}, err
	}
	return streamcfg.Explicit(d), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
