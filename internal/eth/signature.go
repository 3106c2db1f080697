// Package eth recovers signer addresses from EIP-191 personal_sign signatures.
package eth

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/openclave/walletauth/core"
)

const signatureLength = 65 // r (32) + s (32) + v (1)

// RecoverAddress recovers the address that signed message with an EIP-191
// personal_sign signature. The signature is hex with or without a 0x prefix;
// v may be 0/1 or 27/28. Malformed input fails closed with an error.
func RecoverAddress(message, signature string) (common.Address, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: not hex", core.ErrInvalidSignature)
	}
	if len(sig) != signatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", core.ErrInvalidSignature, signatureLength, len(sig))
	}

	// Geth wants the recovery id as 0 or 1; wallets commonly emit 27/28.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("%w: invalid recovery id", core.ErrInvalidSignature)
	}

	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	digest := crypto.Keccak256Hash([]byte(prefixed))

	pub, err := crypto.SigToPub(digest.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature reports whether signature over message was produced by
// expected. Comparison is case-insensitive on the hex form.
func VerifySignature(message, signature, expected string) (bool, error) {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(recovered.Hex(), expected), nil
}
