package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReference generates a unique reference for payments and withdrawals
func GenerateReference(prefix string) string {
	result := make([]byte, 8)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(referenceCharset))))
		result[i] = referenceCharset[n.Int64()]
	}

	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("%s_%s_%s", prefix, timestamp, string(result))
}

// GenerateReferralCode creates a referral code of the given length
func GenerateReferralCode(length int) string {
	result := make([]byte, length)
	for i := range result {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(referenceCharset))))
		result[i] = referenceCharset[n.Int64()]
	}
	return string(result)
}
