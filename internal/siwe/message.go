// Package siwe builds EIP-4361 sign-in messages. The template is the wire
// format: issuance and verification must produce byte-identical strings from
// the same fields, so nothing here normalizes or trims its inputs.
package siwe

import (
	"fmt"
	"strconv"
	"strings"
)

// Message holds the fields of a sign-in message. All values are used verbatim;
// address checksumming and domain lowercasing happen before construction.
type Message struct {
	Domain    string
	Address   string
	Statement string
	URI       string
	Version   string
	ChainID   int64
	Nonce     string
	IssuedAt  string
}

// String renders the message in the fixed EIP-4361 layout. An empty statement
// omits the statement line but keeps the separating blank line, matching the
// reference ABNF.
func (m Message) String() string {
	var b strings.Builder

	b.WriteString(m.Domain)
	b.WriteString(" wants you to sign in with your Ethereum account:\n")
	b.WriteString(m.Address)
	b.WriteString("\n")

	if m.Statement != "" {
		b.WriteString("\n")
		b.WriteString(m.Statement)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Chain ID: %s\n", strconv.FormatInt(m.ChainID, 10))
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt)

	return b.String()
}
