package idgenerator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	id1, id2 := RequestID(), RequestID()
	assert.Len(t, id1, RequestIDLength)
	assert.NotEqual(t, id1, id2)
}

func TestNodeID(t *testing.T) {
	t.Parallel()

	id := NodeID()
	assert.True(t, strings.HasPrefix(id, "node-"))
	assert.Len(t, id, len("node-")+NodeIDLength)
}
