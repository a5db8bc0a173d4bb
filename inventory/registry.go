package inventory

import (
	"math/rand/v2"
	"strconv"
)

// RegistryIDLen is the length of a product registry ID.
const RegistryIDLen = 9

// NewRegistryID returns a random product registry ID: nine decimal digits,
// the first of which is not zero.
func NewRegistryID() string {
	return strconv.Itoa(100_000_000 + rand.IntN(900_000_000))
}

// ValidRegistryID reports whether "id" is a well-formed registry ID.
func ValidRegistryID(id string) bool {
	if len(id) != RegistryIDLen || id[0] == '0' {
		return false
	}
	for _, c := range []byte(id) {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
