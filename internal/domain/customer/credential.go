package customer

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/go-faster/errors"
	"golang.org/x/crypto/bcrypt"
)

// NewDefaultCredential issues the credential for a customer created
// implicitly on first order. The plain value is random per customer; it is
// returned so it can be communicated out-of-band and is never stored.
func NewDefaultCredential() (plain, hash string, err error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", "", errors.Wrap(err, "generate credential")
	}
	plain = hex.EncodeToString(buf[:])

	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", "", errors.Wrap(err, "hash credential")
	}
	return plain, string(h), nil
}
