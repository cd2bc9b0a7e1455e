package msl

import (
	"fmt"
	"strings"
)

// helperOrder fixes the order helpers are declared in. Helpers come
// after the helpers they call.
var helperOrder = []string{
	"spvFMod",
	"spvSMod",
	"spvRadians",
	"spvDegrees",
	"spvFindLSB",
	"spvFindUMSB",
	"spvFindSMSB",
	"spvDet2x2",
	"spvDet3x3",
	"spvInverse2x2",
	"spvInverse3x3",
	"spvInverse4x4",
}

// helperDeps lists the helpers each helper calls.
var helperDeps = map[string][]string{
	"spvDet3x3":     {"spvDet2x2"},
	"spvInverse3x3": {"spvDet2x2"},
	"spvInverse4x4": {"spvDet3x3"},
}

func helperRank(name string) int {
	for i, h := range helperOrder {
		if h == name {
			return i
		}
	}
	return len(helperOrder)
}

var helperSources = map[string]string{
	"spvFMod": `// Implementation of the GLSL mod() function, which is slightly different than Metal fmod()
template<typename Tx, typename Ty>
inline Tx spvFMod(Tx x, Ty y)
{
    return x - y * floor(x / y);
}
`,
	"spvSMod": `// Signed modulo taking the sign of the divisor.
template<typename T>
inline T spvSMod(T x, T y)
{
    T r = x % y;
    return select(r, r + y, (r != T(0)) && ((r < T(0)) != (y < T(0))));
}
`,
	"spvRadians": `template<typename T>
inline T spvRadians(T d)
{
    return d * T(0.01745329251);
}
`,
	"spvDegrees": `template<typename T>
inline T spvDegrees(T r)
{
    return r * T(57.2957795131);
}
`,
	"spvFindLSB": `template<typename T>
inline T spvFindLSB(T x)
{
    return select(ctz(x), T(-1), x == T(0));
}
`,
	"spvFindUMSB": `template<typename T>
inline T spvFindUMSB(T x)
{
    return select(clz(T(0)) - (clz(x) + T(1)), T(-1), x == T(0));
}
`,
	"spvFindSMSB": `template<typename T>
inline T spvFindSMSB(T x)
{
    T v = select(x, T(-1) - x, x < T(0));
    return select(clz(T(0)) - (clz(v) + T(1)), T(-1), v == T(0));
}
`,
	"spvDet2x2": `// Returns the determinant of a 2x2 matrix.
static inline __attribute__((always_inline))
float spvDet2x2(float a1, float a2, float b1, float b2)
{
    return a1 * b2 - b1 * a2;
}
`,
	"spvDet3x3": `// Returns the determinant of a 3x3 matrix.
static inline __attribute__((always_inline))
float spvDet3x3(float a1, float a2, float a3, float b1, float b2, float b3, float c1, float c2, float c3)
{
    return a1 * spvDet2x2(b2, b3, c2, c3) - b1 * spvDet2x2(a2, a3, c2, c3) + c1 * spvDet2x2(a2, a3, b2, b3);
}
`,
	"spvInverse2x2": inverseSource(2),
	"spvInverse3x3": inverseSource(3),
	"spvInverse4x4": inverseSource(4),
}

// inverseSource spells the matrix inverse helper for n x n float
// matrices as the adjugate divided by the determinant. The matrix is
// returned unchanged when it is singular.
func inverseSource(n int) string {
	var sb strings.Builder
	typ := fmt.Sprintf("float%dx%d", n, n)
	fmt.Fprintf(&sb, "// Returns the inverse of a matrix, by using the algorithm of calculating the classical\n")
	fmt.Fprintf(&sb, "// adjoint and dividing by the determinant. The contents of the matrix are changed.\n")
	fmt.Fprintf(&sb, "static inline __attribute__((always_inline))\n")
	fmt.Fprintf(&sb, "%s spvInverse%dx%d(%s m)\n{\n", typ, n, n, typ)
	fmt.Fprintf(&sb, "    %s adj;\t// The adjoint matrix (inverse after dividing by determinant)\n\n", typ)
	sb.WriteString("    // Create the transpose of the cofactors, as the classical adjoint of the matrix.\n")
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			sign := " "
			if (c+r)%2 == 1 {
				sign = "-"
			}
			if n == 2 {
				fmt.Fprintf(&sb, "    adj[%d][%d] = %sm[%d][%d];\n", c, r, sign, 1-r, 1-c)
				continue
			}
			var args []string
			for i := 0; i < n; i++ {
				if i == r {
					continue
				}
				for j := 0; j < n; j++ {
					if j == c {
						continue
					}
					args = append(args, fmt.Sprintf("m[%d][%d]", i, j))
				}
			}
			fmt.Fprintf(&sb, "    adj[%d][%d] = %sspvDet%dx%d(%s);\n", c, r, sign, n-1, n-1, strings.Join(args, ", "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("    // Calculate the determinant as a combination of the cofactors of the first row.\n")
	terms := make([]string, n)
	for r := 0; r < n; r++ {
		terms[r] = fmt.Sprintf("(adj[0][%d] * m[%d][0])", r, r)
	}
	fmt.Fprintf(&sb, "    float det = %s;\n\n", strings.Join(terms, " + "))
	sb.WriteString("    // Divide the classical adjoint matrix by the determinant.\n")
	sb.WriteString("    // If determinant is zero, matrix is not invertable, so leave it unchanged.\n")
	sb.WriteString("    return (det != 0.0f) ? (adj * (1.0f / det)) : m;\n}\n")
	return sb.String()
}
