// internal/app/credentials.go
package app

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var (
	credAdjectives = []string{"Swift", "Bright", "Quick", "Smart", "Bold", "Wise", "Cool", "Fast"}
	credNouns      = []string{"Tiger", "Eagle", "Wolf", "Lion", "Bear", "Fox", "Hawk", "Star"}
)

const passwordAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

func randomIndex(n int) (int, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return int(idx.Int64()), nil
}

// GenerateCredentials produces a memorable username and a random password for
// a new candidate. The password is returned to the admin exactly once and
// only its bcrypt hash is stored.
func GenerateCredentials() (username, password string, err error) {
	adj, err := randomIndex(len(credAdjectives))
	if err != nil {
		return "", "", err
	}
	noun, err := randomIndex(len(credNouns))
	if err != nil {
		return "", "", err
	}
	num, err := randomIndex(1000)
	if err != nil {
		return "", "", err
	}

	username = fmt.Sprintf("%s%s%d", credAdjectives[adj], credNouns[noun], num)

	buf := make([]byte, 8)
	for i := range buf {
		idx, err := randomIndex(len(passwordAlphabet))
		if err != nil {
			return "", "", err
		}
		buf[i] = passwordAlphabet[idx]
	}
	password = string(buf)

	return username, password, nil
}
