package mqttlite

import (
	"strings"

	"github.com/google/uuid"
)

const (
	clientIDPrefix = "mqttlite-"

	// maxPortableClientIDLength is the longest client identifier every
	// server must accept.
	maxPortableClientIDLength = 23
)

// GenerateClientID returns a random client identifier short enough for any
// protocol version.
func GenerateClientID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return clientIDPrefix + id[:maxPortableClientIDLength-len(clientIDPrefix)]
}
