package providers

import (
	"encoding/hex"
	"fmt"
	"time"
)

// TC3-HMAC-SHA256 request signing for the Tencent Cloud (DNSPod) API.
// Reference: https://cloud.tencent.com/document/api/1427/56189
//
// The JSON-serialized request body and the Unix timestamp feed a
// date-scoped derived-key HMAC chain. Content-Type and Host are the signed
// headers and must match the outgoing request byte-for-byte.

const (
	tc3Algorithm     = "TC3-HMAC-SHA256"
	tc3SignedHeaders = "content-type;host"
	tc3ContentType   = "application/json; charset=utf-8"
)

// tc3Sign computes the Authorization header for one DNSPod call. timestamp
// is Unix seconds; its UTC date scopes the derived key.
func tc3Sign(secretID, secretKey, service, host, payload string, timestamp int64) string {
	date := time.Unix(timestamp, 0).UTC().Format("2006-01-02")

	canonicalHeaders := fmt.Sprintf("content-type:%s\nhost:%s\n", tc3ContentType, host)
	canonicalRequest := fmt.Sprintf(
		"POST\n/\n\n%s\n%s\n%s",
		canonicalHeaders, tc3SignedHeaders, sha256Hex([]byte(payload)),
	)

	credentialScope := fmt.Sprintf("%s/%s/tc3_request", date, service)
	stringToSign := fmt.Sprintf(
		"%s\n%d\n%s\n%s",
		tc3Algorithm, timestamp, credentialScope, sha256Hex([]byte(canonicalRequest)),
	)

	secretDate := hmacSHA256([]byte("TC3"+secretKey), []byte(date))
	secretService := hmacSHA256(secretDate, []byte(service))
	secretSigning := hmacSHA256(secretService, []byte("tc3_request"))
	signature := hex.EncodeToString(hmacSHA256(secretSigning, []byte(stringToSign)))

	return fmt.Sprintf(
		"%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		tc3Algorithm, secretID, credentialScope, tc3SignedHeaders, signature,
	)
}
