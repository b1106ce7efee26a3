package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsupportedNodeError(t *testing.T) {
	err := NewUnsupportedNode(&Block{})
	assert.EqualError(t, err, "unsupported node: *ast.Block")
}
