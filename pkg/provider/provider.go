// Package provider defines the vendor-neutral contract for DNS hosting providers.
//
// Every supported vendor (Aliyun, DNSPod, Huawei Cloud, Cloudflare) is exposed
// through the single DNSProvider interface. Adapters live in internal/providers;
// this package only carries the capability contract, the credential variants,
// and the normalized error taxonomy that crosses the abstraction boundary.
//
// # Adding a vendor
//
//  1. Add a ProviderType constant and a Credentials variant.
//  2. Implement DNSProvider in internal/providers.
//  3. Register the constructor in the internal/providers factory table.
//
// Shared logic must never branch on a vendor string; vendor differences live
// entirely inside the adapter implementations.
//
// # Error handling
//
// All operations return *ProviderError on failure. Vendor fault codes are mapped
// once, at the HTTP boundary, into the fixed Kind taxonomy; callers match on
// Kind and never on raw vendor codes.
//
// # Concurrency
//
// Implementations are stateless per call and safe for concurrent use. Every
// operation takes a context and may be cancelled by the caller; the contract
// imposes no internal timeout policy beyond the underlying HTTP call.
package provider

import "context"

// ProviderType identifies a supported DNS vendor.
type ProviderType string

const (
	TypeAliyun      ProviderType = "aliyun"
	TypeDNSPod      ProviderType = "dnspod"
	TypeHuaweiCloud ProviderType = "huaweicloud"
	TypeCloudflare  ProviderType = "cloudflare"
)

// Valid reports whether t names a known vendor.
func (t ProviderType) Valid() bool {
	switch t {
	case TypeAliyun, TypeDNSPod, TypeHuaweiCloud, TypeCloudflare:
		return true
	}
	return false
}

// DNSProvider is the capability contract every vendor adapter satisfies.
//
// A DNSProvider instance is bound to one account's credentials at construction
// time and holds no other mutable state. Instances are owned by the registry
// once registered and are looked up by account id for every DNS operation.
type DNSProvider interface {
	// Name returns the vendor identifier, matching the ProviderType string.
	Name() string

	// ValidateCredentials performs a minimal authenticated round trip against
	// the vendor API. It returns false (with a nil error) when the vendor
	// explicitly rejects the credentials, and a non-nil error for transport
	// or protocol failures.
	ValidateCredentials(ctx context.Context) (bool, error)

	// ListDomains returns one page of the account's domains.
	ListDomains(ctx context.Context, page Pagination) (*PaginatedResponse[Domain], error)

	// GetDomain fetches a single domain by vendor-assigned id.
	GetDomain(ctx context.Context, domainID string) (*Domain, error)

	// ListRecords returns one page of records within a domain, optionally
	// filtered by the query.
	ListRecords(ctx context.Context, domainID string, query RecordQuery) (*PaginatedResponse[DNSRecord], error)

	// CreateRecord creates a record and returns it with the vendor-assigned id.
	CreateRecord(ctx context.Context, req CreateRecordRequest) (*DNSRecord, error)

	// UpdateRecord replaces the mutable fields of an existing record.
	UpdateRecord(ctx context.Context, recordID string, req UpdateRecordRequest) (*DNSRecord, error)

	// DeleteRecord removes a record. Vendors that address records within a
	// zone need the domain id as well.
	DeleteRecord(ctx context.Context, recordID, domainID string) error
}
