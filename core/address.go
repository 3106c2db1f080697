package core

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ValidAddress checks that address is a 0x-prefixed, 20-byte hex string.
func ValidAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") {
		return false
	}
	if len(address) != 42 {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}

// NormalizeAddress validates address and returns its EIP-55 checksummed form.
// All normalization happens here, once, before the address enters a message
// or a challenge record.
func NormalizeAddress(address string) (string, error) {
	if !ValidAddress(address) {
		return "", ErrInvalidAddress
	}
	return common.HexToAddress(address).Hex(), nil
}
