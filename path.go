package objpath

import (
	"fmt"
	"path"
	"strings"
)

// Separator is the key separator used to express directories.
const Separator = "/"

// PathInfo identifies a location in a named container: a slash-separated key,
// which may be empty for the container root. PathInfo is a value type; methods
// that derive new paths never modify the receiver.
type PathInfo struct {
	container string
	// key is normalized: no empty segments, no leading or trailing separator.
	key string
	// trailing is set when the path was written with a trailing separator.
	trailing bool
}

// NewPath returns a PathInfo for the container and key elements. Each element
// may include separators; empty segments are dropped.
func NewPath(container string, elems ...string) PathInfo {
	return PathInfo{container: container}.Join(elems...)
}

// ParsePath parses strings like "s3://bucket/a/b", "bucket/a/b", or "bucket".
// Any URL scheme is accepted and discarded.
func ParsePath(s string) (PathInfo, error) {
	if _, after, found := strings.Cut(s, "://"); found {
		s = after
	}
	container, key, _ := strings.Cut(s, Separator)
	if container == "" {
		return PathInfo{}, fmt.Errorf("parsing path %q: missing container name", s)
	}
	return NewPath(container, key), nil
}

// Container returns p's container name.
func (p PathInfo) Container() string { return p.container }

// Key returns p's normalized key. It is empty for the container root.
func (p PathInfo) Key() string { return p.key }

// IsRoot returns true if p is the container root.
func (p PathInfo) IsRoot() bool { return p.key == "" }

// TrailingSlash reports whether p was written with a trailing separator (or
// created with AsDir). Such paths only name directories.
func (p PathInfo) TrailingSlash() bool { return p.trailing }

// Segments returns a new slice with the segments of p's key.
func (p PathInfo) Segments() []string {
	if p.key == "" {
		return []string{}
	}
	return strings.Split(p.key, Separator)
}

// Join returns a new PathInfo with elems appended to p's key.
func (p PathInfo) Join(elems ...string) PathInfo {
	segs := make([]string, 0, strings.Count(p.key, Separator)+len(elems)+1)
	if p.key != "" {
		segs = append(segs, p.key)
	}
	trailing := p.trailing
	for _, e := range elems {
		if e == "" {
			continue
		}
		trailing = strings.HasSuffix(e, Separator)
		for _, s := range strings.Split(e, Separator) {
			if s != "" {
				segs = append(segs, s)
			}
		}
	}
	key := strings.Join(segs, Separator)
	return PathInfo{
		container: p.container,
		key:       key,
		trailing:  trailing && key != "",
	}
}

// AsDir returns a copy of p marked with a trailing separator.
func (p PathInfo) AsDir() PathInfo {
	p.trailing = p.key != ""
	return p
}

// Name returns the last segment of p's key, or the container name for the
// container root.
func (p PathInfo) Name() string {
	if p.key == "" {
		return p.container
	}
	return path.Base(p.key)
}

// Parent returns the directory containing p. The parent of the container root
// is the container root.
func (p PathInfo) Parent() PathInfo {
	parent := PathInfo{container: p.container}
	if i := strings.LastIndex(p.key, Separator); i > 0 {
		parent.key = p.key[:i]
		parent.trailing = true
	}
	return parent
}

// HasPrefix reports whether p is dir or is located under dir.
func (p PathInfo) HasPrefix(dir PathInfo) bool {
	if p.container != dir.container {
		return false
	}
	if dir.key == "" || p.key == dir.key {
		return true
	}
	return strings.HasPrefix(p.key, dir.key+Separator)
}

// Rel returns p's key relative to dir. The boolean is false if p is not
// under dir.
func (p PathInfo) Rel(dir PathInfo) (string, bool) {
	if !p.HasPrefix(dir) {
		return "", false
	}
	if dir.key == "" {
		return p.key, true
	}
	return strings.TrimPrefix(strings.TrimPrefix(p.key, dir.key), Separator), true
}

// Equal reports whether p and other name the same container and key.
func (p PathInfo) Equal(other PathInfo) bool {
	return p.container == other.container && p.key == other.key
}

// Compare orders paths by container and then by key, using the byte-wise
// order object stores use for listings.
func (p PathInfo) Compare(other PathInfo) int {
	if c := strings.Compare(p.container, other.container); c != 0 {
		return c
	}
	return strings.Compare(p.key, other.key)
}

// String returns "container/key", keeping a trailing separator if p has one.
func (p PathInfo) String() string {
	s := p.container
	if p.key != "" {
		s += Separator + p.key
	}
	if p.trailing {
		s += Separator
	}
	return s
}

// URL returns p as a URL with the given scheme ("s3://container/key").
func (p PathInfo) URL(scheme string) string {
	return scheme + "://" + p.String()
}

// dirPrefix is the listing prefix for objects under p.
func (p PathInfo) dirPrefix() string {
	if p.key == "" {
		return ""
	}
	return p.key + Separator
}

func (p PathInfo) valid() bool {
	return p.container != ""
}
