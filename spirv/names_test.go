package spirv

import "testing"

func TestBuiltInNamesRoundTrip(t *testing.T) {
	for b, name := range builtInNames {
		got, ok := ParseBuiltIn(name)
		if !ok || got != b {
			t.Errorf("ParseBuiltIn(%q) = %v, %v; want %v", name, got, ok, b)
		}
		if b.String() != name {
			t.Errorf("%d.String() = %q, want %q", uint32(b), b.String(), name)
		}
	}
}

func TestUnknownNames(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{BuiltIn(9999).String(), "BuiltIn9999"},
		{OpCode(9).String(), "Op9"},
		{StorageClass(77).String(), "StorageClass77"},
		{Decoration(4000).String(), "Decoration4000"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
	if _, ok := ParseExecutionModel("Mesh"); ok {
		t.Error("ParseExecutionModel accepted an unknown model")
	}
}

func TestExecutionModelLookup(t *testing.T) {
	tests := []struct {
		name string
		want ExecutionModel
	}{
		{"Vertex", ExecutionModelVertex},
		{"Fragment", ExecutionModelFragment},
		{"GLCompute", ExecutionModelGLCompute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseExecutionModel(tt.name)
			if !ok || got != tt.want {
				t.Fatalf("ParseExecutionModel(%q) = %v, %v", tt.name, got, ok)
			}
		})
	}
}

func TestOpcodeClasses(t *testing.T) {
	if !OpAtomicCompareExchange.IsAtomic() || OpPhi.IsAtomic() {
		t.Error("IsAtomic misclassified")
	}
	if !OpImageSampleImplicitLod.IsImageSample() || OpImageFetch.IsImageSample() {
		t.Error("IsImageSample misclassified")
	}
}
