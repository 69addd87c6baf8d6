package cache

import (
	"strconv"

	"github.com/matzehuels/autoinstall/pkg/buildinfo"
)

// Key type names, passed to cache hooks.
const (
	KeyTypeParse = "parse"
)

// Keyer builds cache keys.
type Keyer interface {
	// ParseKey identifies the import specifiers of one file version.
	ParseKey(path string, commonJS bool, content []byte) string
}

// DefaultKeyer produces unprefixed keys of the form "parse:<blake3>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ParseKey hashes the build, path, the CommonJS flag and the content
// together. The path is part of the key because the grammar is chosen by
// extension; the build is part of it so a new release never reads specifiers
// extracted by an older parser.
func (DefaultKeyer) ParseKey(path string, commonJS bool, content []byte) string {
	return hashKey(KeyTypeParse, buildID(), path, strconv.FormatBool(commonJS), Hash(content))
}

func buildID() string {
	return buildinfo.Version + "+" + buildinfo.Commit
}

// ScopedKeyer wraps a Keyer with a prefix.
//
// Example usage:
//
//	// One namespace per project root in a shared Redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "project:"+Hash([]byte(root))[:12]+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ParseKey generates a prefixed parse key.
func (k *ScopedKeyer) ParseKey(path string, commonJS bool, content []byte) string {
	return k.prefix + k.inner.ParseKey(path, commonJS, content)
}

// Prefix returns the scope prefix.
func (k *ScopedKeyer) Prefix() string { return k.prefix }
