package mock

import (
	"io"

	"golang.org/x/exp/rand"
)

// RandBytes returns size pseudo-random bytes generated from seed.
func RandBytes(seed uint64, size int64) []byte {
	genr := rand.New(rand.NewSource(seed))
	buf, err := io.ReadAll(io.LimitReader(genr, size))
	if err != nil {
		panic(err)
	}
	return buf
}
