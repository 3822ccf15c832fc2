// Package hasher implements the password digest schemes.
//
// Legacy reproduces the fixed pipeline every previously stored digest was
// produced with: MD5 of the password plus a literal suffix, the hex form of
// that sum run through Ascii85, and a final SHA-384. The suffix is a constant,
// not a per-user salt, so the scheme survives only for compatibility. New
// deployments can opt into argon2id instead; Verify accepts both formats.
package hasher

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/ascii85"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const legacySuffix = "lamee"

const (
	defaultMemory     = 64 * 1024
	defaultIterations = 3
	defaultThreads    = 1
	defaultSaltLength = 16
	defaultKeyLength  = 32
)

// Legacy returns the raw SHA-384 digest of the fixed transform chain.
// The step order must not change: stored digests depend on it bit for bit.
func Legacy(password string) []byte {
	sum := md5.Sum([]byte(password + legacySuffix))
	hexSum := hex.EncodeToString(sum[:])
	a85 := make([]byte, ascii85.MaxEncodedLen(len(hexSum)))
	n := ascii85.Encode(a85, []byte(hexSum))
	out := sha512.Sum384(a85[:n])
	return out[:]
}

// LegacyHex is the storable form of Legacy.
func LegacyHex(password string) string {
	return hex.EncodeToString(Legacy(password))
}

// Hash produces a storable digest for a new password. With modern set it uses
// a randomly salted argon2id hash in PHC format, otherwise the legacy scheme.
func Hash(password string, modern bool) (string, error) {
	if modern {
		return hashArgon2id(password)
	}
	return LegacyHex(password), nil
}

// Verify reports whether password matches a stored digest of either format.
func Verify(password, stored string) bool {
	if strings.HasPrefix(stored, "$argon2id$") {
		parsed, err := parseArgon2id(stored)
		if err != nil {
			return false
		}
		return parsed.verify(password)
	}
	want, err := hex.DecodeString(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(Legacy(password), want) == 1
}

type argon2idHash struct {
	m    uint32
	t    uint32
	p    uint8
	salt []byte
	sum  []byte
}

func hashArgon2id(password string) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	salt := make([]byte, defaultSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	sum := argon2.IDKey([]byte(password), salt, defaultIterations, defaultMemory, defaultThreads, defaultKeyLength)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		defaultMemory,
		defaultIterations,
		defaultThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

func parseArgon2id(phc string) (*argon2idHash, error) {
	parts := strings.Split(phc, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, errors.New("invalid argon2id hash format")
	}
	if parts[2] != "v=19" {
		return nil, fmt.Errorf("unsupported argon2id version: %s", parts[2])
	}
	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return nil, errors.New("invalid argon2id params")
	}
	var m uint64
	var t uint64
	var p uint64
	for _, param := range params {
		kv := strings.SplitN(param, "=", 2)
		if len(kv) != 2 {
			return nil, errors.New("invalid argon2id params")
		}
		switch kv[0] {
		case "m":
			val, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return nil, errors.New("invalid argon2id memory")
			}
			m = val
		case "t":
			val, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil {
				return nil, errors.New("invalid argon2id iterations")
			}
			t = val
		case "p":
			val, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil {
				return nil, errors.New("invalid argon2id parallelism")
			}
			p = val
		default:
			return nil, errors.New("invalid argon2id params")
		}
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, errors.New("invalid argon2id salt")
	}
	sum, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, errors.New("invalid argon2id hash")
	}
	return &argon2idHash{
		m:    uint32(m),
		t:    uint32(t),
		p:    uint8(p),
		salt: salt,
		sum:  sum,
	}, nil
}

func (h *argon2idHash) verify(password string) bool {
	sum := argon2.IDKey([]byte(password), h.salt, h.t, h.m, h.p, uint32(len(h.sum)))
	return subtle.ConstantTimeCompare(sum, h.sum) == 1
}
