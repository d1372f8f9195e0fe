package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentEncode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "example.com"},
		{"hello world", "hello%20world"},
		{"a+b", "a%2Bb"},
		{"*", "%2A"},
		{"-_.~", "-_.~"},
		{"key=value&x", "key%3Dvalue%26x"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, percentEncode(tc.in), "input %q", tc.in)
	}
}

func TestCanonicalQueryString(t *testing.T) {
	t.Parallel()

	got := canonicalQueryString(map[string]string{
		"DomainName": "example.com",
		"Action":     "DescribeDomains",
		"PageSize":   "20",
	})
	assert.Equal(t, "Action=DescribeDomains&DomainName=example.com&PageSize=20", got)
}

// The signers are pure functions of their inputs, so the tests rebuild the
// canonical request and the HMAC chain independently and compare the full
// Authorization value.

func TestACS3SignMatchesIndependentDerivation(t *testing.T) {
	t.Parallel()

	const (
		keyID     = "testKeyId"
		keySecret = "testKeySecret"
		action    = "DescribeDomains"
		host      = "alidns.aliyuncs.com"
		version   = "2015-01-09"
		timestamp = "2024-06-01T12:00:00Z"
		nonce     = "d41d8cd9-8f00-3204-a980-0998ecf8427e"
	)
	query := canonicalQueryString(map[string]string{"PageNumber": "1", "PageSize": "20"})

	canonicalHeaders := "host:" + host + "\n" +
		"x-acs-action:" + action + "\n" +
		"x-acs-content-sha256:" + emptyBodySHA256 + "\n" +
		"x-acs-date:" + timestamp + "\n" +
		"x-acs-signature-nonce:" + nonce + "\n" +
		"x-acs-version:" + version + "\n"
	signedHeaders := "host;x-acs-action;x-acs-content-sha256;x-acs-date;x-acs-signature-nonce;x-acs-version"
	canonicalRequest := strings.Join([]string{
		"POST", "/", query, canonicalHeaders, signedHeaders, emptyBodySHA256,
	}, "\n")

	hashed := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := "ACS3-HMAC-SHA256\n" + hex.EncodeToString(hashed[:])
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(stringToSign))
	wantSignature := hex.EncodeToString(mac.Sum(nil))

	want := fmt.Sprintf(
		"ACS3-HMAC-SHA256 Credential=%s,SignedHeaders=%s,Signature=%s",
		keyID, signedHeaders, wantSignature,
	)
	got := acs3Sign(keyID, keySecret, action, host, query, version, timestamp, nonce)
	assert.Equal(t, want, got)
}

func TestACS3SignStability(t *testing.T) {
	t.Parallel()

	query := canonicalQueryString(map[string]string{"DomainName": "example.com"})
	a := acs3Sign("id", "secret", "DescribeDomainInfo", "alidns.aliyuncs.com", query, "2015-01-09", "2024-06-01T12:00:00Z", "nonce-1")
	b := acs3Sign("id", "secret", "DescribeDomainInfo", "alidns.aliyuncs.com", query, "2015-01-09", "2024-06-01T12:00:00Z", "nonce-1")
	assert.Equal(t, a, b, "same inputs must sign identically")

	c := acs3Sign("id", "secret", "DescribeDomainInfo", "alidns.aliyuncs.com", query, "2015-01-09", "2024-06-01T12:00:00Z", "nonce-2")
	assert.NotEqual(t, a, c, "nonce must change the signature")
}

func TestTC3SignMatchesIndependentDerivation(t *testing.T) {
	t.Parallel()

	const (
		secretID  = "testSecretId"
		secretKey = "testSecretKey"
		service   = "dnspod"
		host      = "dnspod.tencentcloudapi.com"
		payload   = `{"Domain":"example.com"}`
	)
	// 2024-06-01T12:00:00Z
	const timestamp int64 = 1717243200
	const date = "2024-06-01"

	sum := func(b []byte) string {
		h := sha256.Sum256(b)
		return hex.EncodeToString(h[:])
	}
	mac := func(key, data []byte) []byte {
		m := hmac.New(sha256.New, key)
		m.Write(data)
		return m.Sum(nil)
	}

	canonicalRequest := strings.Join([]string{
		"POST", "/", "",
		"content-type:application/json; charset=utf-8\nhost:" + host + "\n",
		"content-type;host",
		sum([]byte(payload)),
	}, "\n")
	scope := date + "/" + service + "/tc3_request"
	stringToSign := fmt.Sprintf("TC3-HMAC-SHA256\n%d\n%s\n%s", timestamp, scope, sum([]byte(canonicalRequest)))

	signingKey := mac(mac(mac([]byte("TC3"+secretKey), []byte(date)), []byte(service)), []byte("tc3_request"))
	wantSignature := hex.EncodeToString(mac(signingKey, []byte(stringToSign)))

	want := fmt.Sprintf(
		"TC3-HMAC-SHA256 Credential=%s/%s, SignedHeaders=content-type;host, Signature=%s",
		secretID, scope, wantSignature,
	)
	got := tc3Sign(secretID, secretKey, service, host, payload, timestamp)
	assert.Equal(t, want, got)
}

func TestSDKHmacSignMatchesIndependentDerivation(t *testing.T) {
	t.Parallel()

	const (
		keyID     = "testAccess"
		keySecret = "testSecret"
		method    = "GET"
		path      = "/v2/zones"
		query     = "limit=1"
		timestamp = "20240601T120000Z"
		host      = "dns.myhuaweicloud.com"
	)
	headers := map[string]string{
		"Host":       host,
		"X-Sdk-Date": timestamp,
	}

	canonicalRequest := strings.Join([]string{
		method,
		path + "/",
		query,
		"host:" + host + "\nx-sdk-date:" + timestamp + "\n",
		"host;x-sdk-date",
		sha256Hex([]byte("")),
	}, "\n")
	hashed := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := "SDK-HMAC-SHA256\n" + timestamp + "\n" + hex.EncodeToString(hashed[:])
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(stringToSign))
	wantSignature := hex.EncodeToString(mac.Sum(nil))

	want := "SDK-HMAC-SHA256 Access=" + keyID +
		", SignedHeaders=host;x-sdk-date" +
		", Signature=" + wantSignature
	got := sdkHmacSign(keyID, keySecret, method, path, query, headers, "")
	assert.Equal(t, want, got)
}

func TestSDKHmacSignHeaderOrderAndBody(t *testing.T) {
	t.Parallel()

	headers := map[string]string{
		"X-Sdk-Date":   "20240601T120000Z",
		"Host":         "dns.myhuaweicloud.com",
		"Content-Type": "application/json",
	}
	got := sdkHmacSign("a", "s", "POST", "/v2.1/zones/z1/recordsets", "", headers, `{"name":"www.example.com."}`)
	require.Contains(t, got, "SignedHeaders=content-type;host;x-sdk-date")

	// Canonical URI gains a trailing slash, so path and path+"/" sign the same.
	withSlash := sdkHmacSign("a", "s", "POST", "/v2.1/zones/z1/recordsets/", "", headers, `{"name":"www.example.com."}`)
	assert.Equal(t, got, withSlash)
}
