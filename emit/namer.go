package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/spvcross/ir"
)

// Namer assigns identifiers. Every ID keeps the name it was first given;
// user names are sanitized and escaped against the target keywords, IDs
// without a debug name fall back to "_<id>", and collisions get a numeric
// suffix.
type Namer struct {
	keywords        map[string]struct{}
	reservedPrefix  []string
	caseInsensitive bool

	usedNames map[string]struct{}
	ids       map[ir.ID]string
	members   map[memberKey]string
	counter   uint32
}

type memberKey struct {
	structID ir.ID
	index    int
}

// NamerOption configures a Namer.
type NamerOption func(*Namer)

// WithReservedPrefixes makes user names starting with any prefix escaped,
// keeping them clear of helper and builtin identifiers.
func WithReservedPrefixes(prefixes ...string) NamerOption {
	return func(n *Namer) { n.reservedPrefix = append(n.reservedPrefix, prefixes...) }
}

// CaseInsensitive makes keyword matching ignore case, as HLSL keywords
// require. Collision checks between generated names stay case-sensitive.
func CaseInsensitive() NamerOption {
	return func(n *Namer) { n.caseInsensitive = true }
}

// NewNamer creates a namer escaping the given keywords.
func NewNamer(keywords []string, opts ...NamerOption) *Namer {
	n := &Namer{
		keywords:  make(map[string]struct{}, len(keywords)),
		usedNames: make(map[string]struct{}),
		ids:       make(map[ir.ID]string),
		members:   make(map[memberKey]string),
	}
	for _, opt := range opts {
		opt(n)
	}
	for _, k := range keywords {
		n.keywords[n.fold(k)] = struct{}{}
	}
	return n
}

func (n *Namer) fold(s string) string {
	if n.caseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

// Sanitize maps a debug name to a valid C-family identifier: characters
// outside [A-Za-z0-9_] become '_', runs of underscores collapse, and a
// leading digit gets an underscore prefix. The empty string stays empty.
func Sanitize(name string) string {
	var sb strings.Builder
	lastUnderscore := false
	for _, r := range name {
		valid := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !valid {
			r = '_'
		}
		if r == '_' {
			if lastUnderscore {
				continue
			}
			lastUnderscore = true
		} else {
			lastUnderscore = false
		}
		sb.WriteRune(r)
	}
	s := sb.String()
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// Escape prefixes keywords and reserved prefixes with an underscore.
func (n *Namer) Escape(name string) string {
	if _, ok := n.keywords[n.fold(name)]; ok {
		return "_" + name
	}
	for _, p := range n.reservedPrefix {
		if strings.HasPrefix(name, p) {
			return "_" + name
		}
	}
	return name
}

// Call returns a unique identifier derived from base.
func (n *Namer) Call(base string) string {
	escaped := n.Escape(Sanitize(base))
	if escaped == "" {
		escaped = "_unnamed"
	}
	if !n.isUsed(escaped) {
		n.usedNames[escaped] = struct{}{}
		return escaped
	}
	for {
		n.counter++
		candidate := fmt.Sprintf("%s_%d", escaped, n.counter)
		if !n.isUsed(candidate) {
			n.usedNames[candidate] = struct{}{}
			return candidate
		}
	}
}

func (n *Namer) isUsed(name string) bool {
	_, used := n.usedNames[name]
	return used
}

// Reserve marks names as taken without assigning them.
func (n *Namer) Reserve(names ...string) {
	for _, name := range names {
		n.usedNames[name] = struct{}{}
	}
}

// Name returns the identifier of id, assigning it from user on first use.
// An empty or fully invalid user name yields the positional "_<id>".
func (n *Namer) Name(id ir.ID, user string) string {
	if name, ok := n.ids[id]; ok {
		return name
	}
	base := Sanitize(user)
	if base == "" || base == "_" {
		base = "_" + strconv.FormatUint(uint64(id), 10)
	}
	name := n.Call(base)
	n.ids[id] = name
	return name
}

// Set forces the identifier of id. The name is reserved but not escaped.
func (n *Namer) Set(id ir.ID, name string) {
	n.ids[id] = name
	n.Reserve(name)
}

// Lookup returns the identifier assigned to id, if any.
func (n *Namer) Lookup(id ir.ID) (string, bool) {
	name, ok := n.ids[id]
	return name, ok
}

// Member returns the identifier of member index of a struct. Members live
// in their struct's scope, so they are only escaped and deduplicated
// within the struct; unnamed members are "_m<index>".
func (n *Namer) Member(structID ir.ID, index int, user string) string {
	key := memberKey{structID, index}
	if name, ok := n.members[key]; ok {
		return name
	}
	name := n.Escape(Sanitize(user))
	if name == "" || name == "_" {
		name = "_m" + strconv.Itoa(index)
	}
	if n.memberTaken(structID, name) {
		base := name + "_" + strconv.Itoa(index)
		name = base
		for i := 1; n.memberTaken(structID, name); i++ {
			name = base + "_" + strconv.Itoa(i)
		}
	}
	n.members[key] = name
	return name
}

func (n *Namer) memberTaken(structID ir.ID, name string) bool {
	for other, taken := range n.members {
		if other.structID == structID && taken == name {
			return true
		}
	}
	return false
}
