package report

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
)

const payloadPrefix = "reelops"

// Signer issues and checks the verification payload printed on reports:
// reelops|records|unix-seconds|sha256(csv)|signature
type Signer struct {
	key []byte
}

// NewSigner keys the HMAC with secret. Payloads signed with an empty or
// published secret prove nothing.
func NewSigner(secret string) *Signer {
	if secret == "" {
		log.Println("⚠️ report signer has no secret; QR payloads can be forged")
	}
	return &Signer{key: []byte(secret)}
}

func (s *Signer) mac(data string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// Payload signs a summary of the exported CSV body.
func (s *Signer) Payload(records int, generatedAt time.Time, csvBody []byte) string {
	sum := sha256.Sum256(csvBody)
	data := fmt.Sprintf("%s|%d|%d|%s", payloadPrefix, records, generatedAt.Unix(), hex.EncodeToString(sum[:]))
	return data + "|" + s.mac(data)
}

// Summary is what a verified payload attests to.
type Summary struct {
	Records     int       `json:"records"`
	GeneratedAt time.Time `json:"generatedAt"`
	Digest      string    `json:"digest"`
}

// Verify checks the signature and returns the decoded summary.
func (s *Signer) Verify(payload string) (Summary, bool) {
	idx := strings.LastIndex(payload, "|")
	if idx < 0 {
		return Summary{}, false
	}
	data, sig := payload[:idx], payload[idx+1:]
	if !hmac.Equal([]byte(sig), []byte(s.mac(data))) {
		return Summary{}, false
	}

	parts := strings.Split(data, "|")
	if len(parts) != 4 || parts[0] != payloadPrefix {
		return Summary{}, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return Summary{}, false
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Summary{}, false
	}
	return Summary{Records: n, GeneratedAt: time.Unix(ts, 0), Digest: parts[3]}, true
}
