package capi

import (
	"fmt"
	"math"
	"sort"

	"github.com/pelletier/go-toml"
	"go.uber.org/multierr"

	"github.com/gogpu/spvcross/cross"
)

// CompilerOptionsLoadTOML sets the options named in a TOML document. Keys
// are option names such as "glsl.version", usually written as tables:
//
//	[msl]
//	version = 20100
//	platform = "ios"
//
// Every key is validated like a setter call. If any key fails, all errors
// are reported together and the snapshot is left unchanged.
func (ctx *Context) CompilerOptionsLoadTOML(h CompilerOptions, doc []byte) Result {
	return ctx.call("CompilerOptionsLoadTOML", func() error {
		s, err := lookup[*optionSet](ctx, h.handle, kindOptions)
		if err != nil {
			return err
		}
		tree, err := toml.LoadBytes(doc)
		if err != nil {
			return &cross.Error{Kind: cross.ErrInvalidArgument, Message: "parse option document", Err: err}
		}
		staged := *s
		var errs error
		for _, e := range flattenTree(tree, "") {
			errs = multierr.Append(errs, staged.load(e))
		}
		if errs != nil {
			return &cross.Error{Kind: cross.ErrInvalidArgument, Message: "option document rejected", Err: errs}
		}
		*s = staged
		return nil
	})
}

// tomlEntry is one leaf of an option document.
type tomlEntry struct {
	key   string
	value any
	pos   toml.Position
}

// flattenTree lists the leaves of tree with dotted keys, sorted by key.
func flattenTree(tree *toml.Tree, prefix string) []tomlEntry {
	keys := tree.Keys()
	sort.Strings(keys)
	var out []tomlEntry
	for _, k := range keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		v := tree.GetPath([]string{k})
		if sub, ok := v.(*toml.Tree); ok {
			out = append(out, flattenTree(sub, full)...)
			continue
		}
		out = append(out, tomlEntry{key: full, value: v, pos: tree.GetPosition(k)})
	}
	return out
}

func (s *optionSet) load(e tomlEntry) error {
	opt, ok := optionsByKey[e.key]
	if !ok {
		return fmt.Errorf("%s: unknown option %q", e.pos, e.key)
	}
	spec := optionSpecs[opt]
	var v uint32
	switch x := e.value.(type) {
	case bool:
		if !spec.boolean {
			return fmt.Errorf("%s: %s takes a number", e.pos, e.key)
		}
		if x {
			v = 1
		}
	case int64:
		if spec.boolean {
			return fmt.Errorf("%s: %s takes a boolean", e.pos, e.key)
		}
		if x < 0 || x > math.MaxUint32 {
			return fmt.Errorf("%s: %s = %d is out of range", e.pos, e.key, x)
		}
		v = uint32(x)
	case string:
		n, ok := spec.names[x]
		if !ok {
			return fmt.Errorf("%s: %s does not accept %q", e.pos, e.key, x)
		}
		v = n
	default:
		return fmt.Errorf("%s: %s has unsupported value type %T", e.pos, e.key, e.value)
	}
	if err := s.set(opt, v); err != nil {
		return fmt.Errorf("%s: %w", e.pos, err)
	}
	return nil
}
