package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadSigner mints and verifies expiring download tokens so export files
// can be fetched without resending the Authorization header.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewDownloadSigner builds a signer. A non-positive TTL falls back to 24h.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl}
}

// Sign returns a token binding the job ID to its file name until expiry.
func (s *DownloadSigner) Sign(jobID, fileName string) (string, time.Time, error) {
	if jobID == "" || fileName == "" {
		return "", time.Time{}, fmt.Errorf("jobID and fileName required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("download signing secret not configured")
	}

	expiresAt := time.Now().Add(s.ttl)
	payload := strings.Join([]string{jobID, strconv.FormatInt(expiresAt.Unix(), 10), fileName}, "\n")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	token := encoded + "." + s.signature(encoded)
	return token, expiresAt, nil
}

// Verify checks the token signature and expiry and returns the embedded
// job ID and file name.
func (s *DownloadSigner) Verify(token string) (jobID, fileName string, err error) {
	encoded, sig, found := strings.Cut(token, ".")
	if !found {
		return "", "", fmt.Errorf("malformed download token")
	}
	if !hmac.Equal([]byte(s.signature(encoded)), []byte(sig)) {
		return "", "", fmt.Errorf("invalid download token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", fmt.Errorf("decode download token: %w", err)
	}
	parts := strings.SplitN(string(raw), "\n", 3)
	if len(parts) != 3 {
		return "", "", fmt.Errorf("malformed download token payload")
	}

	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", "", fmt.Errorf("invalid token expiry")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return "", "", fmt.Errorf("download token expired")
	}
	return parts[0], parts[2], nil
}

func (s *DownloadSigner) signature(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
