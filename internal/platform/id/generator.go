package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for prediction runs.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return v.String(), nil
}

// Static always returns the same id; used by tests that assert on output.
type Static string

func (s Static) NewID() (string, error) {
	return string(s), nil
}
