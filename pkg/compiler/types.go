package compiler

import "strings"

// TypeKind enumerates the primitive and composite type categories.
type TypeKind int

const (
	KindVariant TypeKind = iota // "any": the safe default for unresolved types
	KindBoolean
	KindByte
	KindInteger // 16-bit
	KindLong    // 32-bit
	KindSingle
	KindDouble
	KindCurrency // fixed-point
	KindString   // variable-length
	KindStringN  // fixed-length: String * n
	KindDate
	KindRecord // user-defined Type
	KindEnum
	KindArray // fixed-size or dynamic array of Elem
	KindClass
	KindVoid // Sub "return type"
)

var kindNames = [...]string{
	KindVariant:  "Variant",
	KindBoolean:  "Boolean",
	KindByte:     "Byte",
	KindInteger:  "Integer",
	KindLong:     "Long",
	KindSingle:   "Single",
	KindDouble:   "Double",
	KindCurrency: "Currency",
	KindString:   "String",
	KindStringN:  "String*N",
	KindDate:     "Date",
	KindRecord:   "Record",
	KindEnum:     "Enum",
	KindArray:    "Array",
	KindClass:    "Class",
	KindVoid:     "Void",
}

func (k TypeKind) String() string { return kindNames[k] }

// Type is a descriptor. Primitive descriptors are shared singletons;
// composite descriptors are built once per declaration during analysis.
type Type struct {
	Kind   TypeKind
	Name   string // record/enum/class name; empty for primitives
	Elem   *Type  // array element type
	Bounds []int  // static array bounds; nil for dynamic arrays
	StrLen int    // fixed-length string bound

	// Record fields / class members, in declaration order.
	Fields []RecordField
}

// RecordField is one field of a record or class type.
type RecordField struct {
	Name string
	Type *Type
}

func (t *Type) String() string {
	if t == nil {
		return "Variant"
	}
	switch t.Kind {
	case KindRecord, KindEnum, KindClass:
		return t.Name
	case KindArray:
		return t.Elem.String() + "()"
	default:
		return t.Kind.String()
	}
}

// FieldNamed returns the field with the given name, case-insensitively.
func (t *Type) FieldNamed(name string) (RecordField, bool) {
	for _, f := range t.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return RecordField{}, false
}

// Shared primitive descriptors.
var (
	TyVariant  = &Type{Kind: KindVariant}
	TyBoolean  = &Type{Kind: KindBoolean}
	TyByte     = &Type{Kind: KindByte}
	TyInteger  = &Type{Kind: KindInteger}
	TyLong     = &Type{Kind: KindLong}
	TySingle   = &Type{Kind: KindSingle}
	TyDouble   = &Type{Kind: KindDouble}
	TyCurrency = &Type{Kind: KindCurrency}
	TyString   = &Type{Kind: KindString}
	TyDate     = &Type{Kind: KindDate}
	TyVoid     = &Type{Kind: KindVoid}
)

// builtinTypeKinds maps type-name keywords to their descriptors.
var builtinTypeKinds = map[TokenKind]*Type{
	KwBoolean:  TyBoolean,
	KwByte:     TyByte,
	KwInteger:  TyInteger,
	KwLong:     TyLong,
	KwSingle:   TySingle,
	KwDouble:   TyDouble,
	KwCurrency: TyCurrency,
	KwString:   TyString,
	KwDate:     TyDate,
	KwVariant:  TyVariant,
	KwObject:   TyVariant,
}

// numericRank orders the numeric primitives for the widening relation.
// A value coerces implicitly to any type of equal or higher rank; the
// reverse (narrowing) is also permitted without a diagnostic, matching
// legacy semantics.
var numericRank = map[TypeKind]int{
	KindBoolean:  0,
	KindByte:     1,
	KindInteger:  2,
	KindLong:     3,
	KindCurrency: 4,
	KindSingle:   5,
	KindDouble:   6,
	KindDate:     6, // dates coerce through Double
	KindEnum:     3, // enums behave as Long
}

// IsNumeric reports whether t participates in the numeric coercion lattice.
func (t *Type) IsNumeric() bool {
	if t == nil {
		return true
	}
	_, ok := numericRank[t.Kind]
	return ok || t.Kind == KindVariant
}

// IsStringy reports whether t holds text.
func (t *Type) IsStringy() bool {
	if t == nil {
		return true
	}
	return t.Kind == KindString || t.Kind == KindStringN || t.Kind == KindVariant
}

// AssignableTo implements the coercion relation: whether a value of type t
// may be assigned to a location of type dst without a diagnostic.
func (t *Type) AssignableTo(dst *Type) bool {
	if t == nil || dst == nil {
		return true
	}
	// Variant accepts and supplies anything.
	if t.Kind == KindVariant || dst.Kind == KindVariant {
		return true
	}
	if t.IsNumeric() && dst.IsNumeric() {
		return true // widening and narrowing are both silent
	}
	if t.IsStringy() && dst.IsStringy() {
		return true
	}
	if t.Kind == KindArray && dst.Kind == KindArray {
		return t.Elem.AssignableTo(dst.Elem)
	}
	if t.Kind == dst.Kind && strings.EqualFold(t.Name, dst.Name) {
		return true
	}
	return false
}

// widen returns the wider of two numeric types per the coercion lattice.
func widen(a, b *Type) *Type {
	if a == nil || a.Kind == KindVariant || b == nil || b.Kind == KindVariant {
		return TyVariant
	}
	ra, ok1 := numericRank[a.Kind]
	rb, ok2 := numericRank[b.Kind]
	if !ok1 || !ok2 {
		return TyVariant
	}
	if ra >= rb {
		return a
	}
	return b
}

// literalType maps a NUMBER token's narrowest-fit tag to a descriptor.
func literalType(num NumericSubtype) *Type {
	switch num {
	case NumInteger:
		return TyInteger
	case NumLong:
		return TyLong
	default:
		return TyDouble
	}
}
