package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{
		"9876543210",
		"6123456789",
		"+919876543210",
	}
	for _, phone := range valid {
		assert.True(t, ValidatePhoneNumber(phone), "expected %s to be valid", phone)
	}

	// Mobile numbers start 6-9 and carry exactly ten digits, with an
	// optional +91 country code.
	invalid := []string{
		"",
		"12345",
		"5876543210",
		"98765432100",
		"987654321",
		"+929876543210",
		"98765 43210",
		"abcdefghij",
	}
	for _, phone := range invalid {
		assert.False(t, ValidatePhoneNumber(phone), "expected %s to be invalid", phone)
	}
}
