package testutil

import (
	"fmt"
	"math/rand"
	"testing"

	"ytharvest/lib/telemetry"

	gorandom "github.com/mazen160/go-random"
)

// Setup prepares telemetry for a test package.
func Setup(t testing.TB, name string) func() {
	return telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", name))
}

// RandomString generates a random lowercase string given the pseudo
// random source, for reproducible fixtures.
func RandomString(rndm *rand.Rand, length int) string {
	str := make([]rune, length)
	for i := range length {
		str[i] = 'a' + rune(rndm.Intn(26))
	}
	return string(str)
}

// RandomToken generates an opaque token in the shape of an upstream
// continuation cursor.
func RandomToken(t testing.TB, length int) string {
	token, err := gorandom.String(length)
	if err != nil {
		t.Fatal(err)
	}
	return token
}
