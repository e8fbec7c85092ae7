package payload

import (
	"crypto/rand"
	"math/big"
	"time"
)

// saltBytes gives 128 bits of salt, enough that per-order collisions are
// not a practical concern.
const saltBytes = 16

// NewSalt returns a non-zero random order salt. It draws from the platform
// CSPRNG and falls back to a high-resolution timestamp only if the CSPRNG
// is unavailable; the fallback has reduced entropy and exists so order
// construction never fails outright.
func NewSalt() *big.Int {
	buf := make([]byte, saltBytes)
	for attempts := 0; attempts < 3; attempts++ {
		if _, err := rand.Read(buf); err != nil {
			break
		}
		salt := new(big.Int).SetBytes(buf)
		if salt.Sign() != 0 {
			return salt
		}
	}
	return timeSeededSalt()
}

func timeSeededSalt() *big.Int {
	// UnixNano is always positive and non-zero on any real clock; the XOR
	// with a second reading perturbs the low bits.
	now := time.Now().UnixNano()
	salt := big.NewInt(now ^ (time.Now().UnixNano() << 1))
	if salt.Sign() == 0 {
		salt.SetInt64(1)
	}
	return salt.Abs(salt)
}
