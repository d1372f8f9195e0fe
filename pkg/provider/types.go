package provider

// DomainStatus is the normalized lifecycle state of a zone.
type DomainStatus string

const (
	DomainActive  DomainStatus = "active"
	DomainPaused  DomainStatus = "paused"
	DomainPending DomainStatus = "pending"
	DomainUnknown DomainStatus = "unknown"
)

// Domain is a DNS zone owned by an account at a vendor.
type Domain struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Status      DomainStatus `json:"status"`
	RecordCount int64        `json:"recordCount,omitempty"`
}

// RecordType is a DNS resource record type. Adapters pass the value through
// verbatim; the set below covers what every supported vendor accepts.
type RecordType string

const (
	RecordA     RecordType = "A"
	RecordAAAA  RecordType = "AAAA"
	RecordCNAME RecordType = "CNAME"
	RecordTXT   RecordType = "TXT"
	RecordMX    RecordType = "MX"
	RecordNS    RecordType = "NS"
	RecordSRV   RecordType = "SRV"
	RecordCAA   RecordType = "CAA"
)

// DNSRecord is one resource record within a zone, normalized across vendors.
// Priority is only meaningful for MX/SRV records; Proxied only for vendors
// with an edge proxy (Cloudflare).
type DNSRecord struct {
	ID       string     `json:"id"`
	DomainID string     `json:"domainId"`
	Type     RecordType `json:"type"`
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	TTL      int64      `json:"ttl"`
	Priority *int64     `json:"priority,omitempty"`
	Proxied  *bool      `json:"proxied,omitempty"`
}

// CreateRecordRequest carries the fields needed to create a record.
type CreateRecordRequest struct {
	DomainID string     `json:"domainId"`
	Type     RecordType `json:"type"`
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	TTL      int64      `json:"ttl"`
	Priority *int64     `json:"priority,omitempty"`
	Proxied  *bool      `json:"proxied,omitempty"`
}

// UpdateRecordRequest carries the replacement fields for an existing record.
// The domain id is required because several vendors address records within a
// zone rather than globally.
type UpdateRecordRequest struct {
	DomainID string     `json:"domainId"`
	Type     RecordType `json:"type"`
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	TTL      int64      `json:"ttl"`
	Priority *int64     `json:"priority,omitempty"`
	Proxied  *bool      `json:"proxied,omitempty"`
}

// Pagination selects one page of a listing. Page is 1-based.
type Pagination struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"pageSize"`
}

// Normalize applies the defaults adapters rely on.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 || p.PageSize > 500 {
		p.PageSize = 100
	}
	return p
}

// RecordQuery filters a record listing. Zero values mean no filter.
type RecordQuery struct {
	Pagination
	Keyword string     `json:"keyword,omitempty"`
	Type    RecordType `json:"type,omitempty"`
}

// PaginatedResponse is one page of results plus the vendor-reported total.
type PaginatedResponse[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int64 `json:"page"`
	PageSize int64 `json:"pageSize"`
}
