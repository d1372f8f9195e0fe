package provider

import "fmt"

// ErrorKind classifies a normalized provider fault.
type ErrorKind string

const (
	// KindNetwork is a transport failure: the request could not be sent or
	// the response could not be read. Always retryable by the caller.
	KindNetwork ErrorKind = "network"

	// KindParse means the response body did not match the expected shape.
	// Treated as a vendor protocol violation.
	KindParse ErrorKind = "parse"

	// KindSerialization is a local (de)serialization failure while building
	// a request.
	KindSerialization ErrorKind = "serialization"

	// KindInvalidCredentials means the vendor rejected the credentials.
	KindInvalidCredentials ErrorKind = "invalid_credentials"

	// KindRecordExists means an identical record already exists.
	KindRecordExists ErrorKind = "record_exists"

	// KindRecordNotFound means the record id does not exist.
	KindRecordNotFound ErrorKind = "record_not_found"

	// KindDomainNotFound means the zone does not exist in the account.
	KindDomainNotFound ErrorKind = "domain_not_found"

	// KindUnknown is the fallback for vendor codes outside the mapping table.
	// RawMessage always carries the vendor's message unmodified.
	KindUnknown ErrorKind = "unknown"
)

// ProviderError is the only fault type that crosses the provider boundary.
// It is produced exactly once, at the HTTP boundary, and never re-interpreted
// further up.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	Domain     string
	RecordID   string
	RecordName string
	Detail     string
	RawMessage string
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindNetwork:
		return fmt.Sprintf("%s: network error: %s", e.Provider, e.Detail)
	case KindParse:
		return fmt.Sprintf("%s: unexpected response: %s", e.Provider, e.Detail)
	case KindSerialization:
		return fmt.Sprintf("%s: serialization error: %s", e.Provider, e.Detail)
	case KindInvalidCredentials:
		return fmt.Sprintf("%s: invalid credentials", e.Provider)
	case KindRecordExists:
		return fmt.Sprintf("%s: record %q already exists", e.Provider, e.RecordName)
	case KindRecordNotFound:
		return fmt.Sprintf("%s: record %q not found", e.Provider, e.RecordID)
	case KindDomainNotFound:
		return fmt.Sprintf("%s: domain %q not found", e.Provider, e.Domain)
	default:
		return fmt.Sprintf("%s: provider error: %s", e.Provider, e.RawMessage)
	}
}

// Is supports errors.Is matching on Kind and Provider. A target with an empty
// Provider matches any vendor.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Provider == "" || t.Provider == e.Provider
}

// RawAPIError is a vendor's unmodified fault signal. Transient: it exists
// only between response parsing and error mapping, and is never persisted.
type RawAPIError struct {
	Code    string
	Message string
}

// ErrorContext carries call-site knowledge (which domain/record the call was
// about) into error mapping. Fields are empty when unavailable; mappers fill
// them into the normalized error as-is and never invent values.
type ErrorContext struct {
	Domain     string
	RecordID   string
	RecordName string
}

// NewNetworkError builds the transport-failure fault.
func NewNetworkError(providerName, detail string) *ProviderError {
	return &ProviderError{Kind: KindNetwork, Provider: providerName, Detail: detail}
}

// NewParseError builds the malformed-response fault. The raw body travels in
// RawMessage for diagnosis.
func NewParseError(providerName, detail, rawBody string) *ProviderError {
	return &ProviderError{Kind: KindParse, Provider: providerName, Detail: detail, RawMessage: rawBody}
}

// NewSerializationError builds the local-encoding fault.
func NewSerializationError(providerName, detail string) *ProviderError {
	return &ProviderError{Kind: KindSerialization, Provider: providerName, Detail: detail}
}

// NewUnknownError builds the fallback fault for unmapped vendor codes.
func NewUnknownError(providerName string, raw RawAPIError) *ProviderError {
	msg := raw.Message
	if raw.Code != "" {
		msg = raw.Code + ": " + raw.Message
	}
	return &ProviderError{Kind: KindUnknown, Provider: providerName, RawMessage: msg}
}
