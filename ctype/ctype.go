// Package ctype implements the C type model: a tagged sum type over
// void/integer/floating/pointer/array/function/struct-or-union/enum,
// plus the storage-class and qualifier flags every Type carries, and the
// promotion/conversion utilities the parser and an external code
// generator need. The variant is a closed Kind enum over a single
// struct-of-optional-fields, the same discriminant-field idiom used for
// token kinds and AST node kinds elsewhere in this module.
package ctype

import "fmt"

// Kind discriminates the Type sum type.
type Kind int

const (
	Void Kind = iota
	Integer
	Floating
	Pointer
	Array
	Function
	StructOrUnion
	Enum
)

// IntRank is the integer conversion rank ladder from C99 §6.3.1.1:
// Bool < Char < Short < Int < Long < LongLong, kept as six distinct
// values throughout.
type IntRank int

const (
	RankBool IntRank = iota
	RankChar
	RankShort
	RankInt
	RankLong
	RankLongLong
)

// FloatRank is the floating-point rank: Float < Double < LongDouble.
type FloatRank int

const (
	RankFloat FloatRank = iota
	RankDouble
	RankLongDouble
)

// StorageClass is one of the five C storage classes a Type carries.
type StorageClass int

const (
	Auto StorageClass = iota
	Extern
	Static
	Register
	TypedefClass
)

// Field is one member of a StructOrUnion type.
type Field struct {
	Index         int
	Name          string // empty for an anonymous bitfield padding member
	Type          *Type
	BitfieldWidth *int // nil when the field is not a bitfield
}

// Enumerator is one (name, optional constant-expression) pair of an Enum.
// ValueExpr is an ast.Expression in practice; it is typed as `any` here so
// that ctype has no import-cycle dependency on ast (ast.Type references
// ctype.Type the other way around).
type Enumerator struct {
	Name      string
	ValueExpr any
}

// Param is one entry of a Function type's parameter list.
type Param struct {
	Name string // may be empty (unnamed parameter, abstract-declarator)
	Type *Type
}

// Type is the C type sum type. Kind selects which of the variant-specific
// fields below are meaningful; the storage-class/qualifier flags
// (storage_class, is_const, is_volatile) apply to every variant
// uniformly.
type Type struct {
	Kind Kind

	StorageClass StorageClass
	IsConst      bool
	IsVolatile   bool

	// Integer
	IntSigned bool
	IntRank   IntRank

	// Floating
	FloatRank FloatRank

	// Pointer
	Pointee       *Type
	PointerConst  bool
	PointerVolat  bool
	PointerRestr  bool

	// Array
	Element *Type
	// SizeExpr is an ast.Expression, or nil for an incomplete/flexible
	// array type.
	SizeExpr any

	// Function
	Return   *Type
	Params   []Param
	Variadic bool

	// StructOrUnion
	Tag         string // empty when anonymous
	IsUnion     bool
	Fields      []Field
	fieldByName map[string]int
	HasBody     bool
	Packed      bool

	// Enum
	EnumTag     string
	Enumerators []Enumerator
}

// NewVoid returns the Void type.
func NewVoid() *Type { return &Type{Kind: Void} }

// NewInteger returns an Integer type of the given signedness and rank.
func NewInteger(signed bool, rank IntRank) *Type {
	return &Type{Kind: Integer, IntSigned: signed, IntRank: rank}
}

// NewFloating returns a Floating type of the given rank.
func NewFloating(rank FloatRank) *Type {
	return &Type{Kind: Floating, FloatRank: rank}
}

// NewPointer returns a Pointer type to pointee with the given qualifiers.
func NewPointer(pointee *Type, isConst, isVolatile, isRestrict bool) *Type {
	return &Type{Kind: Pointer, Pointee: pointee, PointerConst: isConst, PointerVolat: isVolatile, PointerRestr: isRestrict}
}

// NewArray returns an Array type of element, with sizeExpr nil for an
// unsized/incomplete array.
func NewArray(element *Type, sizeExpr any) *Type {
	return &Type{Kind: Array, Element: element, SizeExpr: sizeExpr}
}

// NewFunction returns a Function type.
func NewFunction(ret *Type, params []Param, variadic bool) *Type {
	return &Type{Kind: Function, Return: ret, Params: params, Variadic: variadic}
}

// NewStructOrUnion returns a StructOrUnion type and indexes Fields by name.
func NewStructOrUnion(tag string, isUnion bool, fields []Field, hasBody, packed bool) *Type {
	t := &Type{Kind: StructOrUnion, Tag: tag, IsUnion: isUnion, Fields: fields, HasBody: hasBody, Packed: packed}
	t.reindexFields()
	return t
}

func (t *Type) reindexFields() {
	t.fieldByName = make(map[string]int, len(t.Fields))
	for i, f := range t.Fields {
		if f.Name != "" {
			t.fieldByName[f.Name] = i
		}
	}
}

// FieldByName looks up a struct/union field by name; ok is false if absent.
func (t *Type) FieldByName(name string) (Field, bool) {
	if t.fieldByName == nil {
		t.reindexFields()
	}
	i, ok := t.fieldByName[name]
	if !ok {
		return Field{}, false
	}
	return t.Fields[i], true
}

// NewEnum returns an Enum type.
func NewEnum(tag string, enumerators []Enumerator) *Type {
	return &Type{Kind: Enum, EnumTag: tag, Enumerators: enumerators}
}

// IsIntegerType reports whether t is an Integer (including _Bool, which
// C99 treats as an integer type of rank Bool).
func IsIntegerType(t *Type) bool { return t != nil && t.Kind == Integer }

// IsFloatingType reports whether t is a Floating type.
func IsFloatingType(t *Type) bool { return t != nil && t.Kind == Floating }

// IsArithmeticType reports whether t is integer or floating.
func IsArithmeticType(t *Type) bool { return IsIntegerType(t) || IsFloatingType(t) }

// IsScalarType reports whether t is arithmetic or a pointer.
func IsScalarType(t *Type) bool { return IsArithmeticType(t) || IsPointerType(t) }

// IsPointerType reports whether t is a Pointer.
func IsPointerType(t *Type) bool { return t != nil && t.Kind == Pointer }

// GetPtrType returns a (non-const, non-volatile, non-restrict) pointer to
// inner — the common case used when synthesizing pointer types (e.g. for
// Alloca's result, or decaying an array/function designator).
func GetPtrType(inner *Type) *Type {
	return NewPointer(inner, false, false, false)
}

// Equal reports structural equality between a and b: qualifiers and
// storage class participate only where semantically relevant (two
// otherwise-identical pointee types differing only in `static` are still
// equal; pointer const/volatile/restrict do participate, since those
// change the pointer type itself).
func Equal(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Void:
		return true
	case Integer:
		return a.IntSigned == b.IntSigned && a.IntRank == b.IntRank
	case Floating:
		return a.FloatRank == b.FloatRank
	case Pointer:
		return a.PointerConst == b.PointerConst &&
			a.PointerVolat == b.PointerVolat &&
			a.PointerRestr == b.PointerRestr &&
			Equal(a.Pointee, b.Pointee)
	case Array:
		return Equal(a.Element, b.Element)
	case Function:
		if a.Variadic != b.Variadic || len(a.Params) != len(b.Params) || !Equal(a.Return, b.Return) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i].Type, b.Params[i].Type) {
				return false
			}
		}
		return true
	case StructOrUnion:
		return a.Tag == b.Tag && a.IsUnion == b.IsUnion
	case Enum:
		return a.EnumTag == b.EnumTag
	}
	return false
}

// Promote implements integer promotion: Bool/Char/Short always map to
// signed int; the unsigned int result C99 gives when int cannot represent
// every value of the source type is not modeled. Types of rank Int or
// above are returned unchanged.
func Promote(t *Type) *Type {
	if t == nil || t.Kind != Integer {
		return t
	}
	if t.IntRank >= RankInt {
		return t
	}
	return NewInteger(true, RankInt)
}

// UsualArithmeticConversions computes the common type of two arithmetic
// operands per C99 §6.3.1.8: if either is floating, the result is the
// wider floating rank; otherwise both operands are promoted and the
// common integer type is chosen by rank, with the unsigned operand
// winning ties at equal rank.
func UsualArithmeticConversions(a, b *Type) *Type {
	if IsFloatingType(a) || IsFloatingType(b) {
		fa, fb := floatRankOf(a), floatRankOf(b)
		if fa >= fb {
			return NewFloating(fa)
		}
		return NewFloating(fb)
	}
	pa, pb := Promote(a), Promote(b)
	if pa.IntRank == pb.IntRank {
		if !pa.IntSigned || !pb.IntSigned {
			return NewInteger(false, pa.IntRank)
		}
		return NewInteger(true, pa.IntRank)
	}
	higher, lower := pa, pb
	if pb.IntRank > pa.IntRank {
		higher, lower = pb, pa
	}
	if higher.IntSigned == lower.IntSigned {
		return NewInteger(higher.IntSigned, higher.IntRank)
	}
	if !higher.IntSigned {
		return NewInteger(false, higher.IntRank)
	}
	// Higher rank is signed, lower is unsigned. C99 gives the signed type
	// when it can represent all values of the unsigned one; this model has
	// no target-specific width table, so it always returns unsigned at the
	// higher rank. For e.g. `long` vs `unsigned int` on LP64 that yields
	// unsigned long, where C99 yields long.
	return NewInteger(false, higher.IntRank)
}

func floatRankOf(t *Type) FloatRank {
	if IsFloatingType(t) {
		return t.FloatRank
	}
	return RankFloat
}

func (t *Type) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case Void:
		return "void"
	case Integer:
		sign := "signed"
		if !t.IntSigned {
			sign = "unsigned"
		}
		return fmt.Sprintf("%s %s", sign, rankName(t.IntRank))
	case Floating:
		return []string{"float", "double", "long double"}[t.FloatRank]
	case Pointer:
		return fmt.Sprintf("pointer to %s", t.Pointee)
	case Array:
		return fmt.Sprintf("array of %s", t.Element)
	case Function:
		return fmt.Sprintf("function returning %s", t.Return)
	case StructOrUnion:
		kw := "struct"
		if t.IsUnion {
			kw = "union"
		}
		if t.Tag == "" {
			return kw
		}
		return fmt.Sprintf("%s %s", kw, t.Tag)
	case Enum:
		if t.EnumTag == "" {
			return "enum"
		}
		return "enum " + t.EnumTag
	}
	return "<unknown type>"
}

func rankName(r IntRank) string {
	return [...]string{"bool", "char", "short", "int", "long", "long long"}[r]
}
