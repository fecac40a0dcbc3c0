package doc

// AttrKind discriminates the value held by an AttrValue.
type AttrKind int

const (
	AttrString AttrKind = iota
	AttrInt
	AttrFloat
	AttrBool
	AttrBlob
)

// AttrValue is a tagged-union attribute value. Downstream processing
// stages attach arbitrary named data to tokens without declaring the
// keys up front; the union keeps that open-endedness type-safe.
type AttrValue struct {
	Kind  AttrKind `json:"kind"`
	Str   string   `json:"str,omitempty"`
	Int   int64    `json:"int,omitempty"`
	Float float64  `json:"float,omitempty"`
	Bool  bool     `json:"bool,omitempty"`
	Blob  []byte   `json:"blob,omitempty"`
}

// StringAttr wraps a string value.
func StringAttr(v string) AttrValue { return AttrValue{Kind: AttrString, Str: v} }

// IntAttr wraps an integer value.
func IntAttr(v int64) AttrValue { return AttrValue{Kind: AttrInt, Int: v} }

// FloatAttr wraps a float value.
func FloatAttr(v float64) AttrValue { return AttrValue{Kind: AttrFloat, Float: v} }

// BoolAttr wraps a boolean value.
func BoolAttr(v bool) AttrValue { return AttrValue{Kind: AttrBool, Bool: v} }

// BlobAttr wraps an opaque byte value.
func BlobAttr(v []byte) AttrValue { return AttrValue{Kind: AttrBlob, Blob: v} }
