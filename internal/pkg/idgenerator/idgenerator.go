// nolint: gochecknoglobals
package idgenerator

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	RequestIDLength               = 15
	NodeIDLength                  = 8
	EtcdNamespaceForE2ETestLength = 10
)

// alphabet used in ID generation.
var alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func RequestID() string {
	return gonanoid.MustGenerate(alphabet, RequestIDLength)
}

// NodeID generates a random node ID, it is used if the node ID is not configured in tests.
func NodeID() string {
	return "node-" + gonanoid.MustGenerate(alphabet, NodeIDLength)
}

func EtcdNamespaceForTest() string {
	return gonanoid.MustGenerate(alphabet, EtcdNamespaceForE2ETestLength)
}
