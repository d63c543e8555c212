package mqttlite

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SHA-1 required for SCRAM-SHA-1 compatibility
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// SCRAMHash represents the hash algorithm used for SCRAM authentication.
type SCRAMHash int

const (
	SCRAMHashSHA1 SCRAMHash = iota
	SCRAMHashSHA256
	SCRAMHashSHA512
)

// String returns the MQTT authentication method name for this hash.
func (h SCRAMHash) String() string {
	switch h {
	case SCRAMHashSHA1:
		return "SCRAM-SHA-1"
	case SCRAMHashSHA512:
		return "SCRAM-SHA-512"
	default:
		return "SCRAM-SHA-256"
	}
}

func (h SCRAMHash) hashFunc() func() hash.Hash {
	switch h {
	case SCRAMHashSHA1:
		return sha1.New
	case SCRAMHashSHA512:
		return sha512.New
	default:
		return sha256.New
	}
}

func (h SCRAMHash) keySize() int {
	return h.hashFunc()().Size()
}

// SCRAM errors.
var (
	ErrSCRAMInvalidMessage  = errors.New("invalid SCRAM message")
	ErrSCRAMNonceMismatch   = errors.New("SCRAM server nonce does not extend client nonce")
	ErrSCRAMServerSignature = errors.New("SCRAM server signature mismatch")
	ErrSCRAMUnexpectedStep  = errors.New("SCRAM step out of order")
	ErrSCRAMServerRejected  = errors.New("SCRAM server rejected authentication")
)

const (
	minSCRAMIterations     = 4096
	scramClientNonceLength = 18
	scramGS2Header         = "n,,"

	// scramChannelBinding is base64("n,,").
	scramChannelBinding = "biws"
)

// SCRAMClient runs the client side of a SCRAM exchange carried in MQTT 5.0
// AUTH packets.
//
// Send ClientFirst as the authentication data of CONNECT, answer the
// server's AUTH (continue) with ClientFinal, and check the data of the
// successful CONNACK or AUTH with VerifyServerFinal.
type SCRAMClient struct {
	hash     SCRAMHash
	username string
	password string

	clientNonce     string
	clientFirstBare string
	serverSignature []byte
}

// NewSCRAMClient creates a SCRAM client for the given credentials.
func NewSCRAMClient(h SCRAMHash, username, password string) *SCRAMClient {
	return &SCRAMClient{hash: h, username: username, password: password}
}

// Method returns the authentication method name.
func (s *SCRAMClient) Method() string {
	return s.hash.String()
}

// ClientFirst returns the client-first-message.
func (s *SCRAMClient) ClientFirst() ([]byte, error) {
	nonce := make([]byte, scramClientNonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return s.clientFirst(base64.RawStdEncoding.EncodeToString(nonce)), nil
}

func (s *SCRAMClient) clientFirst(nonce string) []byte {
	s.clientNonce = nonce
	s.clientFirstBare = "n=" + scramEscape(s.username) + ",r=" + nonce
	s.serverSignature = nil
	return []byte(scramGS2Header + s.clientFirstBare)
}

// ClientFinal answers the server-first-message with the client proof.
func (s *SCRAMClient) ClientFinal(serverFirst []byte) ([]byte, error) {
	if s.clientFirstBare == "" {
		return nil, ErrSCRAMUnexpectedStep
	}

	attrs := parseSCRAMAttributes(string(serverFirst))
	nonce, saltB64, iterStr := attrs["r"], attrs["s"], attrs["i"]
	if nonce == "" || saltB64 == "" || iterStr == "" {
		return nil, ErrSCRAMInvalidMessage
	}
	if !strings.HasPrefix(nonce, s.clientNonce) || len(nonce) == len(s.clientNonce) {
		return nil, ErrSCRAMNonceMismatch
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("%w: salt: %w", ErrSCRAMInvalidMessage, err)
	}
	iterations, err := strconv.Atoi(iterStr)
	if err != nil || iterations < 1 {
		return nil, fmt.Errorf("%w: iteration count %q", ErrSCRAMInvalidMessage, iterStr)
	}

	hashFunc := s.hash.hashFunc()
	salted := pbkdf2.Key([]byte(s.password), salt, iterations, s.hash.keySize(), hashFunc)
	clientKey := scramHMAC(hashFunc, salted, "Client Key")
	serverKey := scramHMAC(hashFunc, salted, "Server Key")

	h := hashFunc()
	h.Write(clientKey)
	storedKey := h.Sum(nil)

	withoutProof := "c=" + scramChannelBinding + ",r=" + nonce
	authMessage := s.clientFirstBare + "," + string(serverFirst) + "," + withoutProof

	clientSignature := scramHMAC(hashFunc, storedKey, authMessage)
	proof := make([]byte, len(clientKey))
	for i := range clientKey {
		proof[i] = clientKey[i] ^ clientSignature[i]
	}

	s.serverSignature = scramHMAC(hashFunc, serverKey, authMessage)

	return []byte(withoutProof + ",p=" + base64.StdEncoding.EncodeToString(proof)), nil
}

// VerifyServerFinal checks the server-final-message, which proves the server
// knows the credentials.
func (s *SCRAMClient) VerifyServerFinal(serverFinal []byte) error {
	if s.serverSignature == nil {
		return ErrSCRAMUnexpectedStep
	}

	attrs := parseSCRAMAttributes(string(serverFinal))
	if e, ok := attrs["e"]; ok {
		return fmt.Errorf("%w: %s", ErrSCRAMServerRejected, e)
	}

	sig, err := base64.StdEncoding.DecodeString(attrs["v"])
	if err != nil || len(sig) == 0 {
		return ErrSCRAMInvalidMessage
	}
	if !hmac.Equal(sig, s.serverSignature) {
		return ErrSCRAMServerSignature
	}
	return nil
}

// SCRAMCredentials are the values a server stores for a SCRAM user.
type SCRAMCredentials struct {
	Hash       SCRAMHash
	Salt       []byte
	Iterations int
	StoredKey  []byte
	ServerKey  []byte
}

// ComputeSCRAMCredentials derives stored credentials from a password. It
// is what a server provisions, and lets tests play the server side.
func ComputeSCRAMCredentials(h SCRAMHash, password string, salt []byte, iterations int) *SCRAMCredentials {
	if iterations < minSCRAMIterations {
		iterations = minSCRAMIterations
	}

	hashFunc := h.hashFunc()
	salted := pbkdf2.Key([]byte(password), salt, iterations, h.keySize(), hashFunc)
	clientKey := scramHMAC(hashFunc, salted, "Client Key")

	sum := hashFunc()
	sum.Write(clientKey)

	return &SCRAMCredentials{
		Hash:       h,
		Salt:       salt,
		Iterations: iterations,
		StoredKey:  sum.Sum(nil),
		ServerKey:  scramHMAC(hashFunc, salted, "Server Key"),
	}
}

func scramHMAC(hashFunc func() hash.Hash, key []byte, msg string) []byte {
	mac := hmac.New(hashFunc, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}

// scramEscape encodes a user name as a SCRAM saslname.
func scramEscape(name string) string {
	name = strings.ReplaceAll(name, "=", "=3D")
	return strings.ReplaceAll(name, ",", "=2C")
}

// parseSCRAMAttributes splits a SCRAM message into its k=v attributes.
func parseSCRAMAttributes(msg string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(msg, ",") {
		if len(part) < 2 || part[1] != '=' {
			continue
		}
		attrs[part[:1]] = part[2:]
	}
	return attrs
}
