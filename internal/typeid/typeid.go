// Package typeid generates the prefixed, sortable identifiers used for board
// objects, layers, history snapshots, assets and editing sessions.
package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixObject   = "obj"
	PrefixLayer    = "layer"
	PrefixSnapshot = "snap"
	PrefixAsset    = "asset"
	PrefixSession  = "sess"
)

// New returns a fresh id with the given prefix, e.g. obj_01h455vb4pex5vsknk084sn02q.
func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewObjectID() string   { return New(PrefixObject) }
func NewLayerID() string    { return New(PrefixLayer) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewAssetID() string    { return New(PrefixAsset) }
func NewSessionID() string  { return New(PrefixSession) }

// Validate reports whether id parses as a typeid carrying prefix.
func Validate(id, prefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("id %q: %w", id, err)
	}
	if got := parsed.Prefix(); got != prefix {
		return fmt.Errorf("id %q: prefix %q, want %q", id, got, prefix)
	}
	return nil
}
