package providers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/systmms/dnsops/pkg/provider"
)

const (
	aliyunDNSHost = "alidns.aliyuncs.com"
	aliyunVersion = "2015-01-09"
)

// AliyunProvider talks to the Aliyun DNS RPC API (ACS3-HMAC-SHA256).
type AliyunProvider struct {
	creds   provider.AliyunCredentials
	exec    *Executor
	baseURL string // overridden in tests
	host    string
}

func newAliyunProvider(creds provider.AliyunCredentials, exec *Executor) *AliyunProvider {
	return &AliyunProvider{
		creds:   creds,
		exec:    exec,
		baseURL: "https://" + aliyunDNSHost,
		host:    aliyunDNSHost,
	}
}

func (p *AliyunProvider) Name() string { return string(provider.TypeAliyun) }

// aliyunEnvelope probes every response for a fault before the success shape
// is decoded; Aliyun signals errors in-band with Code and Message fields.
type aliyunEnvelope struct {
	Code    string `json:"Code,omitempty"`
	Message string `json:"Message,omitempty"`
}

// request serializes params into a canonical query string, signs them with a
// fresh timestamp and nonce, and decodes the response into out.
func (p *AliyunProvider) request(ctx context.Context, action string, params map[string]string, out any, ectx provider.ErrorContext) error {
	queryString := canonicalQueryString(params)
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	nonce := uuid.NewString()

	authorization := acs3Sign(
		p.creds.AccessKeyID, p.creds.AccessKeySecret,
		action, p.host, queryString, aliyunVersion, timestamp, nonce,
	)

	url := p.baseURL + "/"
	if queryString != "" {
		url = p.baseURL + "/?" + queryString
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return provider.NewNetworkError(p.Name(), err.Error())
	}
	req.Host = p.host
	req.Header.Set("x-acs-action", action)
	req.Header.Set("x-acs-version", aliyunVersion)
	req.Header.Set("x-acs-date", timestamp)
	req.Header.Set("x-acs-signature-nonce", nonce)
	req.Header.Set("x-acs-content-sha256", emptyBodySHA256)
	req.Header.Set("Authorization", authorization)

	_, body, err := p.exec.Do(req, p.Name(), action)
	if err != nil {
		return err
	}

	var envelope aliyunEnvelope
	if err := decodeJSON(body, p.Name(), &envelope); err == nil &&
		envelope.Code != "" && envelope.Message != "" {
		return p.mapError(provider.RawAPIError{Code: envelope.Code, Message: envelope.Message}, ectx)
	}

	return decodeJSON(body, p.Name(), out)
}

// Aliyun error code mapping.
// Reference: https://api.aliyun.com/document/Alidns/2015-01-09/errorCode
func (p *AliyunProvider) mapError(raw provider.RawAPIError, ectx provider.ErrorContext) *provider.ProviderError {
	switch raw.Code {
	case "InvalidAccessKeyId.NotFound", "SignatureDoesNotMatch":
		return &provider.ProviderError{
			Kind: provider.KindInvalidCredentials, Provider: p.Name(), RawMessage: raw.Message,
		}
	case "DomainRecordDuplicate":
		return &provider.ProviderError{
			Kind: provider.KindRecordExists, Provider: p.Name(),
			RecordName: ectx.RecordName, RawMessage: raw.Message,
		}
	case "DomainRecordNotBelongToUser", "InvalidRecordId.NotFound":
		return &provider.ProviderError{
			Kind: provider.KindRecordNotFound, Provider: p.Name(),
			RecordID: ectx.RecordID, RawMessage: raw.Message,
		}
	case "InvalidDomainName.NoExist":
		return &provider.ProviderError{
			Kind: provider.KindDomainNotFound, Provider: p.Name(),
			Domain: ectx.Domain, RawMessage: raw.Message,
		}
	default:
		return provider.NewUnknownError(p.Name(), raw)
	}
}

type aliyunDomain struct {
	DomainID    string `json:"DomainId"`
	DomainName  string `json:"DomainName"`
	RecordCount int64  `json:"RecordCount"`
}

type aliyunDomainsResponse struct {
	TotalCount int64 `json:"TotalCount"`
	Domains    struct {
		Domain []aliyunDomain `json:"Domain"`
	} `json:"Domains"`
}

type aliyunRecord struct {
	RecordID string `json:"RecordId"`
	RR       string `json:"RR"`
	Type     string `json:"Type"`
	Value    string `json:"Value"`
	TTL      int64  `json:"TTL"`
	Priority int64  `json:"Priority"`
	Status   string `json:"Status"`
}

type aliyunRecordsResponse struct {
	TotalCount    int64 `json:"TotalCount"`
	DomainRecords struct {
		Record []aliyunRecord `json:"Record"`
	} `json:"DomainRecords"`
}

type aliyunRecordIDResponse struct {
	RecordID string `json:"RecordId"`
}

func (p *AliyunProvider) ValidateCredentials(ctx context.Context) (bool, error) {
	var resp aliyunDomainsResponse
	err := p.request(ctx, "DescribeDomains", map[string]string{
		"PageNumber": "1",
		"PageSize":   "1",
	}, &resp, provider.ErrorContext{})
	if err != nil {
		if credentialsRejected(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *AliyunProvider) ListDomains(ctx context.Context, page provider.Pagination) (*provider.PaginatedResponse[provider.Domain], error) {
	page = page.Normalize()
	var resp aliyunDomainsResponse
	err := p.request(ctx, "DescribeDomains", map[string]string{
		"PageNumber": strconv.FormatInt(page.Page, 10),
		"PageSize":   strconv.FormatInt(page.PageSize, 10),
	}, &resp, provider.ErrorContext{})
	if err != nil {
		return nil, err
	}

	domains := make([]provider.Domain, 0, len(resp.Domains.Domain))
	for _, d := range resp.Domains.Domain {
		domains = append(domains, provider.Domain{
			ID:          d.DomainName, // Aliyun addresses zones by name
			Name:        d.DomainName,
			Status:      provider.DomainActive,
			RecordCount: d.RecordCount,
		})
	}
	return &provider.PaginatedResponse[provider.Domain]{
		Items: domains, Total: resp.TotalCount, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *AliyunProvider) GetDomain(ctx context.Context, domainID string) (*provider.Domain, error) {
	var resp aliyunDomain
	err := p.request(ctx, "DescribeDomainInfo", map[string]string{
		"DomainName": domainID,
	}, &resp, provider.ErrorContext{Domain: domainID})
	if err != nil {
		return nil, err
	}
	return &provider.Domain{
		ID:          resp.DomainName,
		Name:        resp.DomainName,
		Status:      provider.DomainActive,
		RecordCount: resp.RecordCount,
	}, nil
}

func (p *AliyunProvider) ListRecords(ctx context.Context, domainID string, query provider.RecordQuery) (*provider.PaginatedResponse[provider.DNSRecord], error) {
	page := query.Pagination.Normalize()
	params := map[string]string{
		"DomainName": domainID,
		"PageNumber": strconv.FormatInt(page.Page, 10),
		"PageSize":   strconv.FormatInt(page.PageSize, 10),
	}
	if query.Keyword != "" {
		params["KeyWord"] = query.Keyword
	}
	if query.Type != "" {
		params["Type"] = string(query.Type)
	}

	var resp aliyunRecordsResponse
	if err := p.request(ctx, "DescribeDomainRecords", params, &resp, provider.ErrorContext{Domain: domainID}); err != nil {
		return nil, err
	}

	records := make([]provider.DNSRecord, 0, len(resp.DomainRecords.Record))
	for _, r := range resp.DomainRecords.Record {
		records = append(records, p.toRecord(r, domainID))
	}
	return &provider.PaginatedResponse[provider.DNSRecord]{
		Items: records, Total: resp.TotalCount, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *AliyunProvider) CreateRecord(ctx context.Context, req provider.CreateRecordRequest) (*provider.DNSRecord, error) {
	params := map[string]string{
		"DomainName": req.DomainID,
		"RR":         req.Name,
		"Type":       string(req.Type),
		"Value":      req.Value,
		"TTL":        strconv.FormatInt(req.TTL, 10),
	}
	if req.Priority != nil {
		params["Priority"] = strconv.FormatInt(*req.Priority, 10)
	}

	var resp aliyunRecordIDResponse
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordName: req.Name}
	if err := p.request(ctx, "AddDomainRecord", params, &resp, ectx); err != nil {
		return nil, err
	}

	return &provider.DNSRecord{
		ID:       resp.RecordID,
		DomainID: req.DomainID,
		Type:     req.Type,
		Name:     req.Name,
		Value:    req.Value,
		TTL:      req.TTL,
		Priority: req.Priority,
	}, nil
}

func (p *AliyunProvider) UpdateRecord(ctx context.Context, recordID string, req provider.UpdateRecordRequest) (*provider.DNSRecord, error) {
	params := map[string]string{
		"RecordId": recordID,
		"RR":       req.Name,
		"Type":     string(req.Type),
		"Value":    req.Value,
		"TTL":      strconv.FormatInt(req.TTL, 10),
	}
	if req.Priority != nil {
		params["Priority"] = strconv.FormatInt(*req.Priority, 10)
	}

	var resp aliyunRecordIDResponse
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordID: recordID, RecordName: req.Name}
	if err := p.request(ctx, "UpdateDomainRecord", params, &resp, ectx); err != nil {
		return nil, err
	}

	return &provider.DNSRecord{
		ID:       resp.RecordID,
		DomainID: req.DomainID,
		Type:     req.Type,
		Name:     req.Name,
		Value:    req.Value,
		TTL:      req.TTL,
		Priority: req.Priority,
	}, nil
}

func (p *AliyunProvider) DeleteRecord(ctx context.Context, recordID, domainID string) error {
	var resp aliyunRecordIDResponse
	ectx := provider.ErrorContext{Domain: domainID, RecordID: recordID}
	return p.request(ctx, "DeleteDomainRecord", map[string]string{
		"RecordId": recordID,
	}, &resp, ectx)
}

func (p *AliyunProvider) toRecord(r aliyunRecord, domainID string) provider.DNSRecord {
	rec := provider.DNSRecord{
		ID:       r.RecordID,
		DomainID: domainID,
		Type:     provider.RecordType(r.Type),
		Name:     r.RR,
		Value:    r.Value,
		TTL:      r.TTL,
	}
	if r.Type == "MX" {
		priority := r.Priority
		rec.Priority = &priority
	}
	return rec
}
