package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/systmms/dnsops/pkg/provider"
)

const cloudflareAPIBase = "https://api.cloudflare.com/client/v4"

// CloudflareProvider talks to the Cloudflare v4 API with a static bearer
// token. No request signing is involved.
type CloudflareProvider struct {
	creds   provider.CloudflareCredentials
	exec    *Executor
	baseURL string
}

func newCloudflareProvider(creds provider.CloudflareCredentials, exec *Executor) *CloudflareProvider {
	return &CloudflareProvider{creds: creds, exec: exec, baseURL: cloudflareAPIBase}
}

func (p *CloudflareProvider) Name() string { return string(provider.TypeCloudflare) }

// cfEnvelope is the uniform v4 response wrapper. Result is decoded lazily
// because its shape varies per endpoint.
type cfEnvelope struct {
	Success    bool            `json:"success"`
	Result     json.RawMessage `json:"result"`
	Errors     []cfAPIError    `json:"errors"`
	ResultInfo *cfResultInfo   `json:"result_info"`
}

type cfAPIError struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
}

type cfResultInfo struct {
	Page       int64 `json:"page"`
	PerPage    int64 `json:"per_page"`
	TotalCount int64 `json:"total_count"`
}

func (p *CloudflareProvider) request(ctx context.Context, method, path string, body any, out any, ectx provider.ErrorContext) (*cfResultInfo, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, provider.NewSerializationError(p.Name(), err.Error())
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, provider.NewNetworkError(p.Name(), err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+p.creds.APIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	_, respBody, err := p.exec.Do(req, p.Name(), method+" "+path)
	if err != nil {
		return nil, err
	}

	var envelope cfEnvelope
	if err := decodeJSON(respBody, p.Name(), &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, p.mapError(envelope.Errors, ectx)
	}
	if out != nil && envelope.Result != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return nil, provider.NewParseError(p.Name(), err.Error(), respBody)
		}
	}
	return envelope.ResultInfo, nil
}

// Cloudflare error code mapping.
// Reference: https://developers.cloudflare.com/api/
func (p *CloudflareProvider) mapError(errs []cfAPIError, ectx provider.ErrorContext) *provider.ProviderError {
	if len(errs) == 0 {
		return provider.NewUnknownError(p.Name(), provider.RawAPIError{Message: "request failed with no error detail"})
	}
	first := errs[0]
	code := strconv.FormatInt(first.Code, 10)
	switch first.Code {
	case 9109, 10000, 6003, 9103:
		return &provider.ProviderError{
			Kind: provider.KindInvalidCredentials, Provider: p.Name(), RawMessage: first.Message,
		}
	case 81057, 81058:
		return &provider.ProviderError{
			Kind: provider.KindRecordExists, Provider: p.Name(),
			RecordName: ectx.RecordName, RawMessage: first.Message,
		}
	case 81044:
		return &provider.ProviderError{
			Kind: provider.KindRecordNotFound, Provider: p.Name(),
			RecordID: ectx.RecordID, RawMessage: first.Message,
		}
	case 7003, 7000:
		return &provider.ProviderError{
			Kind: provider.KindDomainNotFound, Provider: p.Name(),
			Domain: ectx.Domain, RawMessage: first.Message,
		}
	default:
		return provider.NewUnknownError(p.Name(), provider.RawAPIError{Code: code, Message: first.Message})
	}
}

type cfZone struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type cfRecord struct {
	ID       string `json:"id"`
	ZoneID   string `json:"zone_id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	TTL      int64  `json:"ttl"`
	Priority *int64 `json:"priority,omitempty"`
	Proxied  *bool  `json:"proxied,omitempty"`
}

func cfZoneStatus(s string) provider.DomainStatus {
	switch s {
	case "active":
		return provider.DomainActive
	case "paused":
		return provider.DomainPaused
	case "pending", "initializing":
		return provider.DomainPending
	default:
		return provider.DomainUnknown
	}
}

func (p *CloudflareProvider) ValidateCredentials(ctx context.Context) (bool, error) {
	var result struct {
		Status string `json:"status"`
	}
	_, err := p.request(ctx, http.MethodGet, "/user/tokens/verify", nil, &result, provider.ErrorContext{})
	if err != nil {
		if credentialsRejected(err) {
			return false, nil
		}
		return false, err
	}
	return result.Status == "active", nil
}

func (p *CloudflareProvider) ListDomains(ctx context.Context, page provider.Pagination) (*provider.PaginatedResponse[provider.Domain], error) {
	page = page.Normalize()
	params := url.Values{}
	params.Set("page", strconv.FormatInt(page.Page, 10))
	params.Set("per_page", strconv.FormatInt(page.PageSize, 10))

	var zones []cfZone
	info, err := p.request(ctx, http.MethodGet, "/zones?"+params.Encode(), nil, &zones, provider.ErrorContext{})
	if err != nil {
		return nil, err
	}

	domains := make([]provider.Domain, 0, len(zones))
	for _, z := range zones {
		domains = append(domains, provider.Domain{
			ID:     z.ID,
			Name:   z.Name,
			Status: cfZoneStatus(z.Status),
		})
	}
	total := int64(len(domains))
	if info != nil {
		total = info.TotalCount
	}
	return &provider.PaginatedResponse[provider.Domain]{
		Items: domains, Total: total, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *CloudflareProvider) GetDomain(ctx context.Context, domainID string) (*provider.Domain, error) {
	var z cfZone
	ectx := provider.ErrorContext{Domain: domainID}
	if _, err := p.request(ctx, http.MethodGet, "/zones/"+url.PathEscape(domainID), nil, &z, ectx); err != nil {
		return nil, err
	}
	return &provider.Domain{ID: z.ID, Name: z.Name, Status: cfZoneStatus(z.Status)}, nil
}

func (p *CloudflareProvider) ListRecords(ctx context.Context, domainID string, query provider.RecordQuery) (*provider.PaginatedResponse[provider.DNSRecord], error) {
	page := query.Pagination.Normalize()
	params := url.Values{}
	params.Set("page", strconv.FormatInt(page.Page, 10))
	params.Set("per_page", strconv.FormatInt(page.PageSize, 10))
	if query.Keyword != "" {
		params.Set("name.contains", query.Keyword)
	}
	if query.Type != "" {
		params.Set("type", string(query.Type))
	}

	var records []cfRecord
	ectx := provider.ErrorContext{Domain: domainID}
	path := "/zones/" + url.PathEscape(domainID) + "/dns_records?" + params.Encode()
	info, err := p.request(ctx, http.MethodGet, path, nil, &records, ectx)
	if err != nil {
		return nil, err
	}

	items := make([]provider.DNSRecord, 0, len(records))
	for _, r := range records {
		items = append(items, toDNSRecord(r))
	}
	total := int64(len(items))
	if info != nil {
		total = info.TotalCount
	}
	return &provider.PaginatedResponse[provider.DNSRecord]{
		Items: items, Total: total, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *CloudflareProvider) CreateRecord(ctx context.Context, req provider.CreateRecordRequest) (*provider.DNSRecord, error) {
	body := map[string]any{
		"type":    string(req.Type),
		"name":    req.Name,
		"content": req.Value,
		"ttl":     req.TTL,
	}
	if req.Priority != nil {
		body["priority"] = *req.Priority
	}
	if req.Proxied != nil {
		body["proxied"] = *req.Proxied
	}

	var r cfRecord
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordName: req.Name}
	path := "/zones/" + url.PathEscape(req.DomainID) + "/dns_records"
	if _, err := p.request(ctx, http.MethodPost, path, body, &r, ectx); err != nil {
		return nil, err
	}
	rec := toDNSRecord(r)
	return &rec, nil
}

func (p *CloudflareProvider) UpdateRecord(ctx context.Context, recordID string, req provider.UpdateRecordRequest) (*provider.DNSRecord, error) {
	body := map[string]any{
		"type":    string(req.Type),
		"name":    req.Name,
		"content": req.Value,
		"ttl":     req.TTL,
	}
	if req.Priority != nil {
		body["priority"] = *req.Priority
	}
	if req.Proxied != nil {
		body["proxied"] = *req.Proxied
	}

	var r cfRecord
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordID: recordID, RecordName: req.Name}
	path := "/zones/" + url.PathEscape(req.DomainID) + "/dns_records/" + url.PathEscape(recordID)
	if _, err := p.request(ctx, http.MethodPut, path, body, &r, ectx); err != nil {
		return nil, err
	}
	rec := toDNSRecord(r)
	return &rec, nil
}

func (p *CloudflareProvider) DeleteRecord(ctx context.Context, recordID, domainID string) error {
	ectx := provider.ErrorContext{Domain: domainID, RecordID: recordID}
	path := "/zones/" + url.PathEscape(domainID) + "/dns_records/" + url.PathEscape(recordID)
	_, err := p.request(ctx, http.MethodDelete, path, nil, nil, ectx)
	return err
}

func toDNSRecord(r cfRecord) provider.DNSRecord {
	return provider.DNSRecord{
		ID:       r.ID,
		DomainID: r.ZoneID,
		Type:     provider.RecordType(r.Type),
		Name:     r.Name,
		Value:    r.Content,
		TTL:      r.TTL,
		Priority: r.Priority,
		Proxied:  r.Proxied,
	}
}
