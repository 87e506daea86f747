package main

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CSRFFieldName is the form field carrying the token, matching the upstream
// API's expected field.
const CSRFFieldName = "csrfmiddlewaretoken"

const csrfTokenMaxAge = 1 * time.Hour

var (
	csrfSecret     []byte
	csrfSecretOnce sync.Once
)

// initCSRFSecret installs the configured secret, or a random per-process
// secret for local/dev use when none is configured.
func initCSRFSecret(secret string) {
	csrfSecretOnce.Do(func() {
		if secret != "" {
			csrfSecret = []byte(secret)
			return
		}
		csrfSecret = make([]byte, 32)
		if _, err := rand.Read(csrfSecret); err != nil {
			panic("failed to generate CSRF secret: " + err.Error())
		}
	})
}

// generateCSRFToken creates a signed CSRF token for the given session ID
// Format: timestamp.signature (base64 encoded)
func generateCSRFToken(sessionID string) string {
	timestamp := time.Now().Unix()
	signature := computeCSRFSignature(sessionID, timestamp)
	return fmt.Sprintf("%d.%s", timestamp, signature)
}

// validateCSRFToken checks if a CSRF token is valid for the given session ID
func validateCSRFToken(sessionID string, token string) bool {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return false
	}

	timestamp, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return false
	}

	// Check if token has expired
	if time.Now().Unix()-timestamp > int64(csrfTokenMaxAge.Seconds()) {
		return false
	}

	// Verify signature
	expectedSignature := computeCSRFSignature(sessionID, timestamp)
	return hmac.Equal([]byte(parts[1]), []byte(expectedSignature))
}

// computeCSRFSignature generates the HMAC signature for a session ID and timestamp
func computeCSRFSignature(sessionID string, timestamp int64) string {
	data := fmt.Sprintf("%s.%d", sessionID, timestamp)

	h := hmac.New(sha256.New, csrfSecret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}
