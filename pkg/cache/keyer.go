package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// SnapshotFormatVersion is part of every snapshot key; bump it when the
// serialized snapshot layout changes.
const SnapshotFormatVersion = 1

// Keyer generates cache keys.
type Keyer interface {
	// SnapshotKey returns the key of the snapshot of a classpath, identified
	// by its content fingerprint, scanned with the given options.
	SnapshotKey(fingerprint string, opts SnapshotKeyOpts) string
}

// SnapshotKeyOpts lists the scan options that change a snapshot.
type SnapshotKeyOpts struct {
	AcceptPackages             []string `json:"accept,omitempty"`
	AcceptPackagesNonRecursive []string `json:"accept_nonrecursive,omitempty"`
	RejectPackages             []string `json:"reject,omitempty"`
	AcceptClasses              []string `json:"accept_classes,omitempty"`
	RejectClasses              []string `json:"reject_classes,omitempty"`
	InfoClasses                bool     `json:"info_classes"`
	ClassInfo                  bool     `json:"class_info"`
	Dependencies               bool     `json:"dependencies"`
	ConstantPool               bool     `json:"constant_pool"`
	InvisibleAnnotations       bool     `json:"invisible_annotations"`
	StrictNames                bool     `json:"strict_names"`
}

// normalized sorts the rule lists; rule order does not change a scan.
func (o SnapshotKeyOpts) normalized() SnapshotKeyOpts {
	for _, list := range []*[]string{
		&o.AcceptPackages, &o.AcceptPackagesNonRecursive, &o.RejectPackages,
		&o.AcceptClasses, &o.RejectClasses,
	} {
		s := append([]string(nil), (*list)...)
		sort.Strings(s)
		*list = s
	}
	return o
}

// DefaultKeyer keys a snapshot by the SHA-256 digest of the format version,
// the classpath fingerprint and the normalized options.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey returns "snapshot:<sha256>".
func (k *DefaultKeyer) SnapshotKey(fingerprint string, opts SnapshotKeyOpts) string {
	return "snapshot:" + digest(SnapshotFormatVersion, fingerprint, opts.normalized())
}

// ScopedKeyer puts snapshot keys under a namespace, keeping apart the
// snapshots of projects that share one Redis instance. It backs the
// cache.prefix setting.
type ScopedKeyer struct {
	inner Keyer
	scope string
}

// NewScopedKeyer prefixes the keys of inner, or of the default keyer when
// inner is nil, with scope. An empty scope returns inner unchanged.
func NewScopedKeyer(inner Keyer, scope string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	if scope == "" {
		return inner
	}
	return &ScopedKeyer{inner: inner, scope: scope}
}

// SnapshotKey returns the inner key behind the scope.
func (k *ScopedKeyer) SnapshotKey(fingerprint string, opts SnapshotKeyOpts) string {
	return k.scope + k.inner.SnapshotKey(fingerprint, opts)
}

// digest hashes the JSON encoding of parts. Snapshot keys and file cache
// entry names are built from it; the full 64 hex characters are kept.
func digest(parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var (
	_ Keyer = (*DefaultKeyer)(nil)
	_ Keyer = (*ScopedKeyer)(nil)
)
