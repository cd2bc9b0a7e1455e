package msl

import (
	"fmt"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Version represents an MSL language version.
type Version struct {
	Major uint8
	Minor uint8
}

// Common MSL versions.
var (
	Version1_2 = Version{Major: 1, Minor: 2}
	Version2_0 = Version{Major: 2, Minor: 0}
	Version2_1 = Version{Major: 2, Minor: 1}
	Version2_3 = Version{Major: 2, Minor: 3}
	Version3_0 = Version{Major: 3, Minor: 0}
)

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Less reports whether v precedes other.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// Platform is the Apple platform the shader targets.
type Platform uint8

// Platforms.
const (
	PlatformMacOS Platform = iota
	PlatformIOS
)

// String returns the platform name.
func (p Platform) String() string {
	if p == PlatformIOS {
		return "ios"
	}
	return "macos"
}

// SortKey selects the order of non-builtin members in the synthesized
// stage interface structs. Builtin members always come last.
type SortKey uint8

// Interface sort keys.
const (
	// SortByLocation orders members by ascending Location.
	SortByLocation SortKey = iota
	// SortByOffset orders members by their Offset decoration, falling
	// back to declaration order.
	SortByOffset
	// SortByName orders members alphabetically.
	SortByName
)

// Options configures MSL code generation.
type Options struct {
	// LangVersion is the target MSL version.
	// Defaults to Version2_1 if zero.
	LangVersion Version

	// Platform selects macOS or iOS.
	Platform Platform

	// InterfaceSort orders the members of main0_in and main0_out.
	InterfaceSort SortKey

	// EnablePointSize keeps the PointSize builtin in vertex outputs. When
	// false, writes to it are dropped.
	EnablePointSize bool

	// EnableDecorationBinding uses the Binding decoration as the Metal
	// index of resources without an explicit override.
	EnableDecorationBinding bool

	// PadFragmentOutputs widens fragment color outputs to four
	// components.
	PadFragmentOutputs bool

	// BufferSizeBufferIndex is the buffer index of the array of buffer
	// sizes used to compute runtime array lengths.
	BufferSizeBufferIndex uint32
}

// DefaultOptions returns sensible default options for MSL generation.
func DefaultOptions() Options {
	return Options{
		LangVersion:           Version2_1,
		Platform:              PlatformMacOS,
		InterfaceSort:         SortByLocation,
		EnablePointSize:       true,
		BufferSizeBufferIndex: 25,
	}
}

// PushConstantDescriptorSet is the descriptor set that addresses the push
// constant block in a ResourceBinding. Its binding is PushConstantBinding.
const (
	PushConstantDescriptorSet = ^uint32(0)
	PushConstantBinding       = 0
)

// ResourceBinding maps the (stage, descriptor set, binding) of a resource
// to explicit Metal argument indices. Only the indices matching the kind
// of the resource are used: Buffer for buffers, Texture and Sampler for
// images, samplers and combined image-samplers.
type ResourceBinding struct {
	Stage         spirv.ExecutionModel
	DescriptorSet uint32
	Binding       uint32

	Buffer  uint32
	Texture uint32
	Sampler uint32
}

type bindingKey struct {
	stage   spirv.ExecutionModel
	set     uint32
	binding uint32
}

// ResourceKind is the Metal argument table a resource is bound in.
type ResourceKind uint8

// Resource kinds, in entry parameter order.
const (
	ResourceBuffer ResourceKind = iota
	ResourceTexture
	ResourceSampler
)

// String returns the attribute name of the kind.
func (k ResourceKind) String() string {
	switch k {
	case ResourceBuffer:
		return "buffer"
	case ResourceTexture:
		return "texture"
	default:
		return "sampler"
	}
}

// AssignedResource reports the Metal index given to a resource.
type AssignedResource struct {
	ID    ir.ID
	Name  string
	Kind  ResourceKind
	Index uint32
	// Count is the number of consecutive indices the resource occupies.
	Count uint32
	// Override is set when the index came from a ResourceBinding.
	Override bool
}

// TranslationInfo describes the generated entry function.
type TranslationInfo struct {
	// EntryPoint is the name of the emitted entry function.
	EntryPoint string

	// Resources lists the entry parameters bound to argument tables, in
	// parameter order.
	Resources []AssignedResource

	// NeedsBufferSizes reports that the entry function reads buffer sizes
	// from the buffer at Options.BufferSizeBufferIndex.
	NeedsBufferSizes bool
}

// Compile generates MSL source code for the first entry point of module.
func Compile(module *ir.Module, options Options) (string, TranslationInfo, error) {
	c, err := New(module, options)
	if err != nil {
		return "", TranslationInfo{}, fmt.Errorf("msl: %w", err)
	}
	source, err := c.Compile()
	if err != nil {
		return "", TranslationInfo{}, err
	}
	return source, c.TranslationInfo(), nil
}
