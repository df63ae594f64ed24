package core

import "github.com/ethereum/go-ethereum/common"

// FromCommon converts an Ethereum common.Address to the kernel's Address
// type, used at the guest/host boundary where a blueprint's ABI surfaces
// go-ethereum's Address (kept from the teacher's token modules).
func FromCommon(a common.Address) Address {
	var out Address
	copy(out[:], a.Bytes())
	return out
}

// ToCommon is the inverse of FromCommon.
func ToCommon(a Address) common.Address {
	return common.BytesToAddress(a[:])
}

// HashFromCommon converts a go-ethereum Hash into the kernel's Hash type.
func HashFromCommon(h common.Hash) Hash {
	var out Hash
	copy(out[:], h.Bytes())
	return out
}

// HashToCommon is the inverse of HashFromCommon.
func HashToCommon(h Hash) common.Hash {
	return common.BytesToHash(h[:])
}
