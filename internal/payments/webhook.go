package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// signatureTolerance bounds how stale a webhook's timestamp may be before
// it is rejected, defending against replay of a captured request.
const signatureTolerance = 5 * time.Minute

// VerifyWebhookSignature checks the X-Signature header against the shared
// secret per §4.10 step 1 and the redesign's documented HMAC scheme: header
// format "t=<unix>,v1=<hex hmac-sha256 of \"<t>.<body>\">".
func VerifyWebhookSignature(secret []byte, header string, body []byte, now time.Time) error {
	timestamp, signature, err := parseSignatureHeader(header)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrWebhookSignatureInvalid, err)
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age < 0 {
		age = -age
	}
	if age > signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrWebhookSignatureInvalid)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", ErrWebhookSignatureInvalid)
	}
	if !hmac.Equal(expected, got) {
		return fmt.Errorf("%w: signature mismatch", ErrWebhookSignatureInvalid)
	}
	return nil
}

func parseSignatureHeader(header string) (int64, string, error) {
	var timestamp int64
	var signature string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			ts, err := strconv.ParseInt(kv[1], 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("invalid timestamp: %w", err)
			}
			timestamp = ts
		case "v1":
			signature = kv[1]
		}
	}
	if timestamp == 0 || signature == "" {
		return 0, "", fmt.Errorf("missing t or v1 component")
	}
	return timestamp, signature, nil
}
