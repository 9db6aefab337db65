package elem

import (
	"fmt"
	"unsafe"
)

// Kind identifies one of the four element types a benchmark case can run
// with. It mirrors the s/d/c/z BLAS type prefixes.
type Kind int

const (
	F32 Kind = iota
	F64
	C64
	C128
)

// Number constrains the element types the generic benchmark code accepts.
type Number interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

func (k Kind) String() string {
	switch k {
	case F32:
		return "float32"
	case F64:
		return "float64"
	case C64:
		return "complex64"
	case C128:
		return "complex128"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Size returns the element size in bytes.
func (k Kind) Size() int {
	switch k {
	case F32:
		return 4
	case F64, C64:
		return 8
	case C128:
		return 16
	default:
		return 0
	}
}

// IsComplex reports whether the kind is one of the complex variants.
func (k Kind) IsComplex() bool {
	return k == C64 || k == C128
}

// NeedsFloat64 reports whether the kind requires native double precision
// arithmetic on the device.
func (k Kind) NeedsFloat64() bool {
	return k == F64 || k == C128
}

// OpFactor returns the number of multiply-add operations per element pair:
// 1 for real kinds, 4 for complex kinds.
func (k Kind) OpFactor() int {
	if k.IsComplex() {
		return 4
	}
	return 1
}

// ParseKind converts a config string ("float32", "f32", "s", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "float32", "f32", "s":
		return F32, nil
	case "float64", "f64", "d":
		return F64, nil
	case "complex64", "c64", "c":
		return C64, nil
	case "complex128", "c128", "z":
		return C128, nil
	default:
		return 0, fmt.Errorf("unknown element kind %q", s)
	}
}

// KindOf returns the Kind for a concrete element type.
func KindOf[E Number]() Kind {
	var z E
	switch any(z).(type) {
	case float32:
		return F32
	case float64:
		return F64
	case complex64:
		return C64
	default:
		return C128
	}
}

// Scalar converts a complex multiplier to the element type. Real kinds keep
// only the real part, so an imaginary component in the configured alpha or
// beta is dropped rather than rejected.
func Scalar[E Number](v complex128) E {
	var z E
	switch p := any(&z).(type) {
	case *float32:
		*p = float32(real(v))
	case *float64:
		*p = real(v)
	case *complex64:
		*p = complex64(v)
	case *complex128:
		*p = v
	}
	return z
}

// Bytes reinterprets an element slice as raw bytes for device transfers.
// The returned slice aliases s.
func Bytes[E Number](s []E) []byte {
	if len(s) == 0 {
		return nil
	}
	n := len(s) * int(unsafe.Sizeof(s[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n)
}
