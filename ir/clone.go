package ir

// Clone returns a deep copy of the module. Records synthesized on the copy
// never leak into the original.
func (m *Module) Clone() *Module {
	out := &Module{
		Bound:          m.Bound,
		kinds:          append([]Kind(nil), m.kinds...),
		Types:          make(map[ID]*Type, len(m.Types)),
		Variables:      make(map[ID]*Variable, len(m.Variables)),
		Constants:      make(map[ID]*Constant, len(m.Constants)),
		Functions:      make(map[ID]*Function, len(m.Functions)),
		Blocks:         make(map[ID]*Block, len(m.Blocks)),
		Undefs:         make(map[ID]ID, len(m.Undefs)),
		Values:         make(map[ID]ID, len(m.Values)),
		ExtInstImports: make(map[ID]string, len(m.ExtInstImports)),
		Meta:           make(map[ID]*Meta, len(m.Meta)),
		Declarations:   append([]ID(nil), m.Declarations...),
		FunctionOrder:  append([]ID(nil), m.FunctionOrder...),
	}
	for id, t := range m.Types {
		c := *t
		c.Array = append([]uint32(nil), t.Array...)
		c.ArrayLiteral = append([]bool(nil), t.ArrayLiteral...)
		c.MemberTypes = append([]ID(nil), t.MemberTypes...)
		c.Params = append([]ID(nil), t.Params...)
		out.Types[id] = &c
	}
	for id, v := range m.Variables {
		c := *v
		out.Variables[id] = &c
	}
	for id, k := range m.Constants {
		c := *k
		c.Values = make([][]uint64, len(k.Values))
		for i, col := range k.Values {
			c.Values[i] = append([]uint64(nil), col...)
		}
		c.Subconstants = append([]ID(nil), k.Subconstants...)
		out.Constants[id] = &c
	}
	for id, f := range m.Functions {
		c := *f
		c.Parameters = append([]Parameter(nil), f.Parameters...)
		c.LocalVariables = append([]ID(nil), f.LocalVariables...)
		c.Blocks = append([]ID(nil), f.Blocks...)
		out.Functions[id] = &c
	}
	for id, b := range m.Blocks {
		out.Blocks[id] = b.clone()
	}
	for id, t := range m.Undefs {
		out.Undefs[id] = t
	}
	for id, t := range m.Values {
		out.Values[id] = t
	}
	for id, s := range m.ExtInstImports {
		out.ExtInstImports[id] = s
	}
	for id, meta := range m.Meta {
		c := &Meta{Decoration: meta.Decoration.clone()}
		if meta.Members != nil {
			c.Members = make([]Decoration, len(meta.Members))
			for i := range meta.Members {
				c.Members[i] = meta.Members[i].clone()
			}
		}
		out.Meta[id] = c
	}
	for _, ep := range m.EntryPoints {
		c := *ep
		c.Interface = append([]ID(nil), ep.Interface...)
		c.Modes = ep.Modes.Clone()
		out.EntryPoints = append(out.EntryPoints, &c)
	}
	return out
}

func (b *Block) clone() *Block {
	c := *b
	c.Ops = make([]Instruction, len(b.Ops))
	for i, in := range b.Ops {
		in.Args = append([]uint32(nil), in.Args...)
		c.Ops[i] = in
	}
	c.Phis = make([]Phi, len(b.Phis))
	for i, p := range b.Phis {
		p.Incoming = append([]PhiSource(nil), p.Incoming...)
		c.Phis[i] = p
	}
	c.Cases = append([]Case(nil), b.Cases...)
	return &c
}
