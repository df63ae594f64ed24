package core

// substate.go – the self-describing structured value format stored at every
// (node, partition, key) address (spec §3 Substate, §9 "Substate value
// representation"). Grounded on the teacher's use of
// github.com/ethereum/go-ethereum/rlp for canonical length-prefixed
// encoding in ledger.go; we reuse rlp for the variable-length field list and
// add an explicit one-byte type tag ourselves, since rlp alone does not
// distinguish a TypeInfo substate from an arbitrary blueprint-schema value.
//
// Round-trip encode/decode is the identity on well-formed values:
// DecodeTypeInfo or DecodeRaw applied to EncodeValue's output reproduces the
// original Go value.

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// ValueTag is the one-byte discriminant prefixed to every encoded substate
// payload so a reader can distinguish well-known schemas from opaque
// blueprint-defined payloads without consulting the blueprint's schema.
type ValueTag uint8

const (
	ValueTagTypeInfo ValueTag = iota
	ValueTagRaw               // blueprint-defined payload, schema known only to the blueprint
)

// TypeInfoKind tags the TypeInfo substate variant (spec §3 TypeInfo substate).
type TypeInfoKind uint8

const (
	TypeInfoObject TypeInfoKind = iota
	TypeInfoKeyValueStore
	TypeInfoIndex
	TypeInfoSortedIndex
)

// TypeInfoSubstate is the single substate every node carries at a fixed key
// in PartitionTypeInfo (spec §3 invariant: "Every node has exactly one
// TypeInfo substate after creation and before drop").
type TypeInfoSubstate struct {
	Kind           TypeInfoKind
	Blueprint      string // package/blueprint name, set when Kind == Object
	PackageAddr    NodeId
	Global         bool
	OuterObject    NodeId // zero NodeId when the object has no outer
	HasOuterObject bool
	SchemaHash     Hash // hash of the declared schema, set for KeyValueStore
}

type rlpTypeInfo struct {
	Kind           uint8
	Blueprint      string
	PackageAddr    []byte
	Global         bool
	OuterObject    []byte
	HasOuterObject bool
	SchemaHash     []byte
}

// EncodeValue produces the canonical on-wire representation of a substate
// payload: a one-byte tag followed by the rlp encoding of the value.
func EncodeValue(tag ValueTag, v interface{}) ([]byte, error) {
	var body interface{}
	switch tag {
	case ValueTagTypeInfo:
		ti, ok := v.(TypeInfoSubstate)
		if !ok {
			return nil, fmt.Errorf("substate: EncodeValue: TypeInfo tag requires TypeInfoSubstate, got %T", v)
		}
		body = rlpTypeInfo{
			Kind:           uint8(ti.Kind),
			Blueprint:      ti.Blueprint,
			PackageAddr:    ti.PackageAddr[:],
			Global:         ti.Global,
			OuterObject:    ti.OuterObject[:],
			HasOuterObject: ti.HasOuterObject,
			SchemaHash:     ti.SchemaHash[:],
		}
	case ValueTagRaw:
		raw, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("substate: EncodeValue: Raw tag requires []byte, got %T", v)
		}
		body = raw
	default:
		return nil, fmt.Errorf("substate: EncodeValue: unknown tag %d", tag)
	}
	enc, err := rlp.EncodeToBytes(body)
	if err != nil {
		return nil, fmt.Errorf("substate: rlp encode: %w", err)
	}
	out := make([]byte, 0, len(enc)+1)
	out = append(out, byte(tag))
	out = append(out, enc...)
	return out, nil
}

// DecodeTypeInfo decodes a TypeInfo substate previously produced by
// EncodeValue(ValueTagTypeInfo, ...).
func DecodeTypeInfo(raw []byte) (TypeInfoSubstate, error) {
	if len(raw) == 0 || ValueTag(raw[0]) != ValueTagTypeInfo {
		return TypeInfoSubstate{}, fmt.Errorf("substate: DecodeTypeInfo: not a TypeInfo payload")
	}
	var rt rlpTypeInfo
	if err := rlp.DecodeBytes(raw[1:], &rt); err != nil {
		return TypeInfoSubstate{}, fmt.Errorf("substate: rlp decode: %w", err)
	}
	var ti TypeInfoSubstate
	ti.Kind = TypeInfoKind(rt.Kind)
	ti.Blueprint = rt.Blueprint
	copy(ti.PackageAddr[:], rt.PackageAddr)
	ti.Global = rt.Global
	copy(ti.OuterObject[:], rt.OuterObject)
	ti.HasOuterObject = rt.HasOuterObject
	copy(ti.SchemaHash[:], rt.SchemaHash)
	return ti, nil
}

// DecodeRaw extracts the opaque payload bytes from a Raw-tagged value.
func DecodeRaw(raw []byte) ([]byte, error) {
	if len(raw) == 0 || ValueTag(raw[0]) != ValueTagRaw {
		return nil, fmt.Errorf("substate: DecodeRaw: not a Raw payload")
	}
	var out []byte
	if err := rlp.DecodeBytes(raw[1:], &out); err != nil {
		return nil, fmt.Errorf("substate: rlp decode: %w", err)
	}
	return out, nil
}

// Tag returns the ValueTag prefixed to an encoded substate payload.
func Tag(raw []byte) (ValueTag, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("substate: Tag: empty payload")
	}
	return ValueTag(raw[0]), nil
}
