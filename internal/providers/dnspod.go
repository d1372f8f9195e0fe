package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/systmms/dnsops/pkg/provider"
)

const (
	dnspodAPIHost = "dnspod.tencentcloudapi.com"
	dnspodService = "dnspod"
	dnspodVersion = "2021-03-23"
)

// DNSPodProvider talks to the Tencent Cloud DNSPod API (TC3-HMAC-SHA256).
type DNSPodProvider struct {
	creds   provider.DNSPodCredentials
	exec    *Executor
	baseURL string
	host    string
}

func newDNSPodProvider(creds provider.DNSPodCredentials, exec *Executor) *DNSPodProvider {
	return &DNSPodProvider{
		creds:   creds,
		exec:    exec,
		baseURL: "https://" + dnspodAPIHost,
		host:    dnspodAPIHost,
	}
}

func (p *DNSPodProvider) Name() string { return string(provider.TypeDNSPod) }

// Every Tencent response nests under "Response"; faults arrive in-band as
// Response.Error regardless of HTTP status.
type dnspodEnvelope struct {
	Response struct {
		Error *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error"`
	} `json:"Response"`
}

type dnspodBody struct {
	Response json.RawMessage `json:"Response"`
}

// request signs the JSON body with a fresh timestamp and decodes the inner
// Response object into out.
func (p *DNSPodProvider) request(ctx context.Context, action string, body any, out any, ectx provider.ErrorContext) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return provider.NewSerializationError(p.Name(), err.Error())
	}

	timestamp := time.Now().Unix()
	authorization := tc3Sign(p.creds.SecretID, p.creds.SecretKey, dnspodService, p.host, string(payload), timestamp)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/", bytes.NewReader(payload))
	if err != nil {
		return provider.NewNetworkError(p.Name(), err.Error())
	}
	req.Host = p.host
	req.Header.Set("Content-Type", tc3ContentType)
	req.Header.Set("X-TC-Action", action)
	req.Header.Set("X-TC-Version", dnspodVersion)
	req.Header.Set("X-TC-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("Authorization", authorization)

	_, respBody, err := p.exec.Do(req, p.Name(), action)
	if err != nil {
		return err
	}

	var envelope dnspodEnvelope
	if err := decodeJSON(respBody, p.Name(), &envelope); err != nil {
		return err
	}
	if envelope.Response.Error != nil {
		return p.mapError(provider.RawAPIError{
			Code:    envelope.Response.Error.Code,
			Message: envelope.Response.Error.Message,
		}, ectx)
	}

	var raw dnspodBody
	if err := decodeJSON(respBody, p.Name(), &raw); err != nil {
		return err
	}
	if raw.Response == nil {
		return provider.NewParseError(p.Name(), "missing Response object", respBody)
	}
	if err := json.Unmarshal(raw.Response, out); err != nil {
		return provider.NewParseError(p.Name(), err.Error(), respBody)
	}
	return nil
}

// DNSPod error code mapping.
// Reference: https://cloud.tencent.com/document/api/1427/56192
func (p *DNSPodProvider) mapError(raw provider.RawAPIError, ectx provider.ErrorContext) *provider.ProviderError {
	switch raw.Code {
	case "AuthFailure.SignatureFailure", "AuthFailure.SecretIdNotFound", "AuthFailure.TokenFailure":
		return &provider.ProviderError{
			Kind: provider.KindInvalidCredentials, Provider: p.Name(), RawMessage: raw.Message,
		}
	case "InvalidParameter.DomainRecordExist":
		return &provider.ProviderError{
			Kind: provider.KindRecordExists, Provider: p.Name(),
			RecordName: ectx.RecordName, RawMessage: raw.Message,
		}
	case "ResourceNotFound.NoDataOfRecord", "InvalidParameter.RecordIdInvalid":
		return &provider.ProviderError{
			Kind: provider.KindRecordNotFound, Provider: p.Name(),
			RecordID: ectx.RecordID, RawMessage: raw.Message,
		}
	case "InvalidParameterValue.DomainNotExists", "ResourceNotFound.NoDataOfDomain":
		return &provider.ProviderError{
			Kind: provider.KindDomainNotFound, Provider: p.Name(),
			Domain: ectx.Domain, RawMessage: raw.Message,
		}
	default:
		return provider.NewUnknownError(p.Name(), raw)
	}
}

type dnspodDomain struct {
	DomainID    int64  `json:"DomainId"`
	Name        string `json:"Name"`
	Status      string `json:"Status"`
	RecordCount int64  `json:"RecordCount"`
}

type dnspodDomainListResponse struct {
	DomainCountInfo struct {
		DomainTotal int64 `json:"DomainTotal"`
	} `json:"DomainCountInfo"`
	DomainList []dnspodDomain `json:"DomainList"`
}

type dnspodDomainInfoResponse struct {
	DomainInfo dnspodDomain `json:"DomainInfo"`
}

type dnspodRecord struct {
	RecordID int64  `json:"RecordId"`
	Name     string `json:"Name"`
	Type     string `json:"Type"`
	Value    string `json:"Value"`
	TTL      int64  `json:"TTL"`
	MX       int64  `json:"MX"`
	Status   string `json:"Status"`
}

type dnspodRecordListResponse struct {
	RecordCountInfo struct {
		TotalCount int64 `json:"TotalCount"`
	} `json:"RecordCountInfo"`
	RecordList []dnspodRecord `json:"RecordList"`
}

type dnspodRecordIDResponse struct {
	RecordID int64 `json:"RecordId"`
}

func dnspodStatus(s string) provider.DomainStatus {
	switch s {
	case "ENABLE":
		return provider.DomainActive
	case "PAUSE":
		return provider.DomainPaused
	default:
		return provider.DomainUnknown
	}
}

func (p *DNSPodProvider) ValidateCredentials(ctx context.Context) (bool, error) {
	var resp dnspodDomainListResponse
	err := p.request(ctx, "DescribeDomainList", map[string]any{
		"Offset": 0,
		"Limit":  1,
	}, &resp, provider.ErrorContext{})
	if err != nil {
		if credentialsRejected(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *DNSPodProvider) ListDomains(ctx context.Context, page provider.Pagination) (*provider.PaginatedResponse[provider.Domain], error) {
	page = page.Normalize()
	var resp dnspodDomainListResponse
	err := p.request(ctx, "DescribeDomainList", map[string]any{
		"Offset": (page.Page - 1) * page.PageSize,
		"Limit":  page.PageSize,
	}, &resp, provider.ErrorContext{})
	if err != nil {
		return nil, err
	}

	domains := make([]provider.Domain, 0, len(resp.DomainList))
	for _, d := range resp.DomainList {
		domains = append(domains, provider.Domain{
			ID:          d.Name, // DNSPod operations address zones by name
			Name:        d.Name,
			Status:      dnspodStatus(d.Status),
			RecordCount: d.RecordCount,
		})
	}
	return &provider.PaginatedResponse[provider.Domain]{
		Items: domains, Total: resp.DomainCountInfo.DomainTotal, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *DNSPodProvider) GetDomain(ctx context.Context, domainID string) (*provider.Domain, error) {
	var resp dnspodDomainInfoResponse
	err := p.request(ctx, "DescribeDomain", map[string]any{
		"Domain": domainID,
	}, &resp, provider.ErrorContext{Domain: domainID})
	if err != nil {
		return nil, err
	}
	return &provider.Domain{
		ID:          resp.DomainInfo.Name,
		Name:        resp.DomainInfo.Name,
		Status:      dnspodStatus(resp.DomainInfo.Status),
		RecordCount: resp.DomainInfo.RecordCount,
	}, nil
}

func (p *DNSPodProvider) ListRecords(ctx context.Context, domainID string, query provider.RecordQuery) (*provider.PaginatedResponse[provider.DNSRecord], error) {
	page := query.Pagination.Normalize()
	body := map[string]any{
		"Domain": domainID,
		"Offset": (page.Page - 1) * page.PageSize,
		"Limit":  page.PageSize,
	}
	if query.Keyword != "" {
		body["Keyword"] = query.Keyword
	}
	if query.Type != "" {
		body["RecordType"] = string(query.Type)
	}

	var resp dnspodRecordListResponse
	if err := p.request(ctx, "DescribeRecordList", body, &resp, provider.ErrorContext{Domain: domainID}); err != nil {
		return nil, err
	}

	records := make([]provider.DNSRecord, 0, len(resp.RecordList))
	for _, r := range resp.RecordList {
		records = append(records, p.toRecord(r, domainID))
	}
	return &provider.PaginatedResponse[provider.DNSRecord]{
		Items: records, Total: resp.RecordCountInfo.TotalCount, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *DNSPodProvider) CreateRecord(ctx context.Context, req provider.CreateRecordRequest) (*provider.DNSRecord, error) {
	body := map[string]any{
		"Domain":     req.DomainID,
		"SubDomain":  req.Name,
		"RecordType": string(req.Type),
		"RecordLine": "默认",
		"Value":      req.Value,
		"TTL":        req.TTL,
	}
	if req.Priority != nil {
		body["MX"] = *req.Priority
	}

	var resp dnspodRecordIDResponse
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordName: req.Name}
	if err := p.request(ctx, "CreateRecord", body, &resp, ectx); err != nil {
		return nil, err
	}

	return &provider.DNSRecord{
		ID:       strconv.FormatInt(resp.RecordID, 10),
		DomainID: req.DomainID,
		Type:     req.Type,
		Name:     req.Name,
		Value:    req.Value,
		TTL:      req.TTL,
		Priority: req.Priority,
	}, nil
}

func (p *DNSPodProvider) UpdateRecord(ctx context.Context, recordID string, req provider.UpdateRecordRequest) (*provider.DNSRecord, error) {
	id, err := strconv.ParseInt(recordID, 10, 64)
	if err != nil {
		return nil, provider.NewSerializationError(p.Name(), "record id must be numeric: "+recordID)
	}

	body := map[string]any{
		"Domain":     req.DomainID,
		"RecordId":   id,
		"SubDomain":  req.Name,
		"RecordType": string(req.Type),
		"RecordLine": "默认",
		"Value":      req.Value,
		"TTL":        req.TTL,
	}
	if req.Priority != nil {
		body["MX"] = *req.Priority
	}

	var resp dnspodRecordIDResponse
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordID: recordID, RecordName: req.Name}
	if err := p.request(ctx, "ModifyRecord", body, &resp, ectx); err != nil {
		return nil, err
	}

	return &provider.DNSRecord{
		ID:       strconv.FormatInt(resp.RecordID, 10),
		DomainID: req.DomainID,
		Type:     req.Type,
		Name:     req.Name,
		Value:    req.Value,
		TTL:      req.TTL,
		Priority: req.Priority,
	}, nil
}

func (p *DNSPodProvider) DeleteRecord(ctx context.Context, recordID, domainID string) error {
	id, err := strconv.ParseInt(recordID, 10, 64)
	if err != nil {
		return provider.NewSerializationError(p.Name(), "record id must be numeric: "+recordID)
	}

	var resp struct{}
	ectx := provider.ErrorContext{Domain: domainID, RecordID: recordID}
	return p.request(ctx, "DeleteRecord", map[string]any{
		"Domain":   domainID,
		"RecordId": id,
	}, &resp, ectx)
}

func (p *DNSPodProvider) toRecord(r dnspodRecord, domainID string) provider.DNSRecord {
	rec := provider.DNSRecord{
		ID:       strconv.FormatInt(r.RecordID, 10),
		DomainID: domainID,
		Type:     provider.RecordType(r.Type),
		Name:     r.Name,
		Value:    r.Value,
		TTL:      r.TTL,
	}
	if r.Type == "MX" {
		mx := r.MX
		rec.Priority = &mx
	}
	return rec
}
