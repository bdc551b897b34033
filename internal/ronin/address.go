package ronin

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress rewrites the ronin: prefix form to the 0x form.
// Only the prefix is touched; hex casing is preserved.
func NormalizeAddress(addr string) string {
	return strings.Replace(addr, "ronin:", "0x", 1)
}

// ParseAddress normalizes and validates a user-supplied address. It returns
// the normalized string (used in API paths and as the output filename) and
// the parsed address (used for comparisons).
func ParseAddress(addr string) (string, common.Address, error) {
	normalized := NormalizeAddress(addr)
	if !common.IsHexAddress(normalized) {
		return "", common.Address{}, fmt.Errorf("invalid address: %s", addr)
	}
	return normalized, common.HexToAddress(normalized), nil
}
