// Package passwords implements the master-password hashing contract:
// a one-way argon2id transform with a fresh random salt, and a
// constant-time verification against the stored record. The plaintext is
// never stored. This is the single hashing strategy for the whole system;
// service passwords stored inside items are out of its scope.
package passwords

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/clione/sikre/internal/common"
)

// argon2id parameters. Changing them only affects newly hashed passwords:
// verification always re-derives with the parameters encoded in the record.
const (
	timeCost   = 1
	memoryCost = 64 * 1024
	threads    = 4
	keyLength  = 32
	saltLength = 16
)

// Hash derives an argon2id digest over a fresh random salt and the given
// plaintext and returns the PHC-encoded record
// ($argon2id$v=19$m=...,t=...,p=...$<salt>$<digest>).
func Hash(plaintext string) (string, error) {
	salt := common.GenerateRandByteArray(saltLength)

	digest := argon2.IDKey([]byte(plaintext), salt, timeCost, memoryCost, threads, keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryCost, timeCost, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)

	return encoded, nil
}

// Check re-derives the digest for plaintext using the salt and parameters
// stored in encoded and compares the two in constant time. A mismatch is a
// false result, not an error; errors signal an unparseable record.
func Check(plaintext, encoded string) (bool, error) {
	salt, digest, time, memory, parallelism, err := decode(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, time, memory, parallelism, uint32(len(digest)))

	return subtle.ConstantTimeCompare(digest, candidate) == 1, nil
}

func decode(encoded string) (salt, digest []byte, time, memory uint32, parallelism uint8, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, fmt.Errorf("malformed password record")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("malformed password record: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, 0, 0, 0, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &parallelism); err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("malformed password record: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("malformed password record: %w", err)
	}

	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, 0, 0, 0, fmt.Errorf("malformed password record: %w", err)
	}

	return salt, digest, time, memory, parallelism, nil
}
