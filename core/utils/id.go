package utils

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Token lengths
const (
	ScanTokenLength = 24
	FeedTokenLength = 40
)

// GenerateOpaqueToken returns an unguessable URL-safe credential.
func GenerateOpaqueToken(length int) (string, error) {
	return gonanoid.Generate(tokenAlphabet, length)
}
