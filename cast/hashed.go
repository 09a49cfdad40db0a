package cast

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Hash algorithms understood by the hashed cast.
const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2i  = "argon2i"
	AlgoArgon2id = "argon2id"
)

// BcryptCost is the cost used for new bcrypt hashes.
var BcryptCost = bcrypt.DefaultCost

// Argon2Params configures new argon2 hashes.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// DefaultArgon2Params are used for argon2i and argon2id hashes.
var DefaultArgon2Params = Argon2Params{Time: 2, Memory: 64 * 1024, Threads: 2, KeyLen: 32, SaltLen: 16}

var hashPrefixes = []string{"$2a$", "$2b$", "$2y$", "$argon2i$", "$argon2id$"}

// IsHashed reports whether s already looks like a bcrypt or argon2 hash.
func IsHashed(s string) bool {
	for _, p := range hashPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Hash hashes plain with the given algorithm ("" means bcrypt).
func Hash(plain, algo string) (string, error) {
	switch strings.ToLower(algo) {
	case "", AlgoBcrypt:
		b, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case AlgoArgon2i, AlgoArgon2id:
		return hashArgon2(plain, strings.ToLower(algo), DefaultArgon2Params)
	default:
		return "", fmt.Errorf("cast: unsupported hash algorithm %q", algo)
	}
}

// VerifyHash checks a plaintext candidate against a stored hash.
func VerifyHash(plain, hash string) bool {
	switch {
	case strings.HasPrefix(hash, "$argon2"):
		return verifyArgon2(plain, hash)
	case strings.HasPrefix(hash, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
	default:
		return false
	}
}

// hashedCast hashes plaintext on input; stored hashes pass through and are
// emitted unchanged.
type hashedCast struct{}

func (hashedCast) ToProperty(v any, s Spec) (any, error) {
	str, ok := deref(v).(string)
	if !ok {
		return nil, fail(s, v, "expected a string secret", nil)
	}
	if IsHashed(str) {
		return str, nil
	}
	h, err := Hash(str, s.Arg)
	if err != nil {
		return nil, fail(s, "[secret]", "hashing failed", err)
	}
	return h, nil
}

func (hashedCast) ToOutput(v any, _ Spec) (any, error) { return deref(v), nil }

func hashArgon2(plain, variant string, p Argon2Params) (string, error) {
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2Key(variant, []byte(plain), salt, p)
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		variant, argon2.Version, p.Memory, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func argon2Key(variant string, plain, salt []byte, p Argon2Params) []byte {
	if variant == AlgoArgon2i {
		return argon2.Key(plain, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
	}
	return argon2.IDKey(plain, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

func verifyArgon2(plain, hash string) bool {
	// $variant$v=19$m=...,t=...,p=...$salt$key
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}
	var p Argon2Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	p.KeyLen = uint32(len(want))
	got := argon2Key(parts[1], []byte(plain), salt, p)
	return subtle.ConstantTimeCompare(got, want) == 1
}
