package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const stateAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateState returns a 32 character alphanumeric CSRF state token.
func GenerateState() (string, error) {
	return gonanoid.Generate(stateAlphabet, 32)
}
