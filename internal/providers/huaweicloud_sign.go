package providers

import (
	"encoding/hex"
	"sort"
	"strings"
)

const sdkHmacAlgorithm = "SDK-HMAC-SHA256"

// sdkHmacTimeFormat is ISO-8601 basic: 20060102T150405Z.
const sdkHmacTimeFormat = "20060102T150405Z"

// sdkHmacSign produces the Authorization header for Huawei Cloud's
// SDK-HMAC-SHA256 scheme. headers must already include X-Sdk-Date and Host;
// query is the raw (already encoded) query string without the leading "?".
func sdkHmacSign(accessKeyID, secretAccessKey, method, path, query string, headers map[string]string, body string) string {
	// Canonical URI always carries a trailing slash.
	canonicalURI := path
	if !strings.HasSuffix(canonicalURI, "/") {
		canonicalURI += "/"
	}

	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)

	lowered := make(map[string]string, len(headers))
	for name, value := range headers {
		lowered[strings.ToLower(name)] = strings.TrimSpace(value)
	}

	var canonicalHeaders strings.Builder
	for _, name := range names {
		canonicalHeaders.WriteString(name)
		canonicalHeaders.WriteString(":")
		canonicalHeaders.WriteString(lowered[name])
		canonicalHeaders.WriteString("\n")
	}
	signedHeaders := strings.Join(names, ";")

	canonicalRequest := strings.Join([]string{
		method,
		canonicalURI,
		query,
		canonicalHeaders.String(),
		signedHeaders,
		sha256Hex([]byte(body)),
	}, "\n")

	stringToSign := strings.Join([]string{
		sdkHmacAlgorithm,
		lowered["x-sdk-date"],
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signature := hex.EncodeToString(hmacSHA256([]byte(secretAccessKey), []byte(stringToSign)))

	return sdkHmacAlgorithm + " Access=" + accessKeyID +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + signature
}
