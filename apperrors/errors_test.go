package apperrors

import (
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, fiber.StatusNotFound},
		{KindOTPNotFound, fiber.StatusNotFound},
		{KindForbidden, fiber.StatusForbidden},
		{KindInvalidTransition, fiber.StatusConflict},
		{KindConflict, fiber.StatusConflict},
		{KindOTPMismatch, fiber.StatusBadRequest},
		{KindOTPExpired, fiber.StatusBadRequest},
		{KindValidation, fiber.StatusBadRequest},
		{KindOTPBlocked, fiber.StatusTooManyRequests},
		{Kind("unmapped"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, New(tc.kind, "x").HTTPStatus(), "kind %s", tc.kind)
	}
}

func TestInvalidTransitionMessage(t *testing.T) {
	err := InvalidTransition("requested", "verify arrival")
	assert.Equal(t, KindInvalidTransition, err.Kind)
	assert.Equal(t, `cannot verify arrival from status "requested"`, err.Message)
}

func TestAsErrorUnwrapsThroughWrapping(t *testing.T) {
	base := NotFound("booking")
	wrapped := fmt.Errorf("loading: %w", base)

	got, ok := AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, got.Kind)

	_, ok = AsError(fmt.Errorf("plain failure"))
	assert.False(t, ok)
}
