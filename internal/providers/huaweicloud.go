package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/systmms/dnsops/pkg/provider"
)

const huaweiDNSHost = "dns.myhuaweicloud.com"

// HuaweiCloudProvider talks to the Huawei Cloud DNS API (SDK-HMAC-SHA256).
// Zones live under /v2, record sets under /v2.1.
type HuaweiCloudProvider struct {
	creds   provider.HuaweiCloudCredentials
	exec    *Executor
	baseURL string
	host    string
}

func newHuaweiCloudProvider(creds provider.HuaweiCloudCredentials, exec *Executor) *HuaweiCloudProvider {
	return &HuaweiCloudProvider{
		creds:   creds,
		exec:    exec,
		baseURL: "https://" + huaweiDNSHost,
		host:    huaweiDNSHost,
	}
}

func (p *HuaweiCloudProvider) Name() string { return string(provider.TypeHuaweiCloud) }

func (p *HuaweiCloudProvider) get(ctx context.Context, path, query string, out any, ectx provider.ErrorContext) error {
	return p.request(ctx, http.MethodGet, path, query, "", out, ectx)
}

func (p *HuaweiCloudProvider) post(ctx context.Context, path string, body, out any, ectx provider.ErrorContext) error {
	return p.requestJSON(ctx, http.MethodPost, path, body, out, ectx)
}

func (p *HuaweiCloudProvider) put(ctx context.Context, path string, body, out any, ectx provider.ErrorContext) error {
	return p.requestJSON(ctx, http.MethodPut, path, body, out, ectx)
}

func (p *HuaweiCloudProvider) delete(ctx context.Context, path string, out any, ectx provider.ErrorContext) error {
	return p.request(ctx, http.MethodDelete, path, "", "", out, ectx)
}

func (p *HuaweiCloudProvider) requestJSON(ctx context.Context, method, path string, body, out any, ectx provider.ErrorContext) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return provider.NewSerializationError(p.Name(), err.Error())
	}
	return p.request(ctx, method, path, "", string(payload), out, ectx)
}

func (p *HuaweiCloudProvider) request(ctx context.Context, method, path, query, body string, out any, ectx provider.ErrorContext) error {
	timestamp := time.Now().UTC().Format(sdkHmacTimeFormat)
	headers := map[string]string{
		"Host":       p.host,
		"X-Sdk-Date": timestamp,
	}
	if body != "" {
		headers["Content-Type"] = "application/json"
	}
	authorization := sdkHmacSign(p.creds.AccessKeyID, p.creds.SecretAccessKey, method, path, query, headers, body)

	fullURL := p.baseURL + path
	if query != "" {
		fullURL += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, strings.NewReader(body))
	if err != nil {
		return provider.NewNetworkError(p.Name(), err.Error())
	}
	req.Host = p.host
	req.Header.Set("X-Sdk-Date", timestamp)
	req.Header.Set("Authorization", authorization)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	status, respBody, err := p.exec.Do(req, p.Name(), method+" "+path)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		return p.mapError(respBody, ectx)
	}
	if out == nil || respBody == "" {
		return nil
	}
	return decodeJSON(respBody, p.Name(), out)
}

// Huawei error bodies come in two shapes: {"code","message"} and
// {"error_code","error_msg"}. Bodies matching neither are surfaced raw.
func (p *HuaweiCloudProvider) mapError(body string, ectx provider.ErrorContext) *provider.ProviderError {
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		ErrCode string `json:"error_code"`
		ErrMsg  string `json:"error_msg"`
	}
	code, message := "", ""
	if err := json.Unmarshal([]byte(body), &envelope); err == nil {
		code = envelope.Code
		message = envelope.Message
		if code == "" {
			code = envelope.ErrCode
			message = envelope.ErrMsg
		}
	}
	if code == "" {
		return provider.NewUnknownError(p.Name(), provider.RawAPIError{Message: body})
	}

	// Reference: https://support.huaweicloud.com/api-dns/ErrorCode.html
	switch code {
	case "APIGW.0301", "APIGW.0101", "APIGW.0306":
		return &provider.ProviderError{
			Kind: provider.KindInvalidCredentials, Provider: p.Name(), RawMessage: message,
		}
	case "DNS.0312":
		return &provider.ProviderError{
			Kind: provider.KindRecordExists, Provider: p.Name(),
			RecordName: ectx.RecordName, RawMessage: message,
		}
	case "DNS.0305":
		return &provider.ProviderError{
			Kind: provider.KindRecordNotFound, Provider: p.Name(),
			RecordID: ectx.RecordID, RawMessage: message,
		}
	case "DNS.0101":
		return &provider.ProviderError{
			Kind: provider.KindDomainNotFound, Provider: p.Name(),
			Domain: ectx.Domain, RawMessage: message,
		}
	default:
		return provider.NewUnknownError(p.Name(), provider.RawAPIError{Code: code, Message: message})
	}
}

type huaweiZone struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	RecordNum int64  `json:"record_num"`
}

type huaweiZonesResponse struct {
	Zones    []huaweiZone `json:"zones"`
	Metadata struct {
		TotalCount int64 `json:"total_count"`
	} `json:"metadata"`
}

type huaweiRecordSet struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Records []string `json:"records"`
	TTL     int64    `json:"ttl"`
	ZoneID  string   `json:"zone_id"`
}

type huaweiRecordSetsResponse struct {
	Recordsets []huaweiRecordSet `json:"recordsets"`
	Metadata   struct {
		TotalCount int64 `json:"total_count"`
	} `json:"metadata"`
}

func huaweiZoneStatus(s string) provider.DomainStatus {
	switch s {
	case "ACTIVE":
		return provider.DomainActive
	case "DISABLE", "FREEZE":
		return provider.DomainPaused
	case "PENDING_CREATE", "PENDING_UPDATE", "PENDING_DELETE":
		return provider.DomainPending
	default:
		return provider.DomainUnknown
	}
}

// Zone names end with a trailing dot; the trimmed form is what users see.
func trimZoneDot(name string) string { return strings.TrimSuffix(name, ".") }

func (p *HuaweiCloudProvider) ValidateCredentials(ctx context.Context) (bool, error) {
	var resp huaweiZonesResponse
	err := p.get(ctx, "/v2/zones", "limit=1", &resp, provider.ErrorContext{})
	if err != nil {
		if credentialsRejected(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *HuaweiCloudProvider) ListDomains(ctx context.Context, page provider.Pagination) (*provider.PaginatedResponse[provider.Domain], error) {
	page = page.Normalize()
	query := canonicalQueryString(map[string]string{
		"type":   "public",
		"limit":  fmt.Sprint(page.PageSize),
		"offset": fmt.Sprint((page.Page - 1) * page.PageSize),
	})

	var resp huaweiZonesResponse
	if err := p.get(ctx, "/v2/zones", query, &resp, provider.ErrorContext{}); err != nil {
		return nil, err
	}

	domains := make([]provider.Domain, 0, len(resp.Zones))
	for _, z := range resp.Zones {
		domains = append(domains, provider.Domain{
			ID:          z.ID,
			Name:        trimZoneDot(z.Name),
			Status:      huaweiZoneStatus(z.Status),
			RecordCount: z.RecordNum,
		})
	}
	return &provider.PaginatedResponse[provider.Domain]{
		Items: domains, Total: resp.Metadata.TotalCount, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *HuaweiCloudProvider) GetDomain(ctx context.Context, domainID string) (*provider.Domain, error) {
	var z huaweiZone
	ectx := provider.ErrorContext{Domain: domainID}
	if err := p.get(ctx, "/v2/zones/"+url.PathEscape(domainID), "", &z, ectx); err != nil {
		return nil, err
	}
	return &provider.Domain{
		ID:          z.ID,
		Name:        trimZoneDot(z.Name),
		Status:      huaweiZoneStatus(z.Status),
		RecordCount: z.RecordNum,
	}, nil
}

func (p *HuaweiCloudProvider) ListRecords(ctx context.Context, domainID string, query provider.RecordQuery) (*provider.PaginatedResponse[provider.DNSRecord], error) {
	page := query.Pagination.Normalize()
	// The signer takes the query verbatim, so it must already match the
	// vendor's canonical form: sorted keys, RFC 3986 escaping with %20 for
	// spaces. url.Values.Encode would emit "+".
	params := map[string]string{
		"limit":  fmt.Sprint(page.PageSize),
		"offset": fmt.Sprint((page.Page - 1) * page.PageSize),
	}
	if query.Keyword != "" {
		params["name"] = query.Keyword
	}
	if query.Type != "" {
		params["type"] = string(query.Type)
	}

	var resp huaweiRecordSetsResponse
	ectx := provider.ErrorContext{Domain: domainID}
	path := "/v2.1/zones/" + url.PathEscape(domainID) + "/recordsets"
	if err := p.get(ctx, path, canonicalQueryString(params), &resp, ectx); err != nil {
		return nil, err
	}

	// Record sets fan out to one DNSRecord per value.
	records := make([]provider.DNSRecord, 0, len(resp.Recordsets))
	for _, rs := range resp.Recordsets {
		records = append(records, p.toRecords(rs, domainID)...)
	}
	return &provider.PaginatedResponse[provider.DNSRecord]{
		Items: records, Total: resp.Metadata.TotalCount, Page: page.Page, PageSize: page.PageSize,
	}, nil
}

func (p *HuaweiCloudProvider) CreateRecord(ctx context.Context, req provider.CreateRecordRequest) (*provider.DNSRecord, error) {
	body := map[string]any{
		"name":    fqdn(req.Name),
		"type":    string(req.Type),
		"records": []string{huaweiRecordValue(req.Type, req.Value, req.Priority)},
		"ttl":     req.TTL,
	}

	var rs huaweiRecordSet
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordName: req.Name}
	path := "/v2.1/zones/" + url.PathEscape(req.DomainID) + "/recordsets"
	if err := p.post(ctx, path, body, &rs, ectx); err != nil {
		return nil, err
	}

	records := p.toRecords(rs, req.DomainID)
	if len(records) == 0 {
		return nil, provider.NewParseError(p.Name(), "created record set is empty", "")
	}
	return &records[0], nil
}

func (p *HuaweiCloudProvider) UpdateRecord(ctx context.Context, recordID string, req provider.UpdateRecordRequest) (*provider.DNSRecord, error) {
	body := map[string]any{
		"name":    fqdn(req.Name),
		"type":    string(req.Type),
		"records": []string{huaweiRecordValue(req.Type, req.Value, req.Priority)},
		"ttl":     req.TTL,
	}

	var rs huaweiRecordSet
	ectx := provider.ErrorContext{Domain: req.DomainID, RecordID: recordID, RecordName: req.Name}
	path := "/v2.1/zones/" + url.PathEscape(req.DomainID) + "/recordsets/" + url.PathEscape(recordID)
	if err := p.put(ctx, path, body, &rs, ectx); err != nil {
		return nil, err
	}

	records := p.toRecords(rs, req.DomainID)
	if len(records) == 0 {
		return nil, provider.NewParseError(p.Name(), "updated record set is empty", "")
	}
	return &records[0], nil
}

func (p *HuaweiCloudProvider) DeleteRecord(ctx context.Context, recordID, domainID string) error {
	ectx := provider.ErrorContext{Domain: domainID, RecordID: recordID}
	path := "/v2.1/zones/" + url.PathEscape(domainID) + "/recordsets/" + url.PathEscape(recordID)
	return p.delete(ctx, path, nil, ectx)
}

// fqdn appends the trailing dot Huawei requires on record set names.
func fqdn(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

// huaweiRecordValue folds MX priority into the record value, where Huawei
// keeps it.
func huaweiRecordValue(t provider.RecordType, value string, priority *int64) string {
	if t == provider.RecordMX && priority != nil {
		return fmt.Sprintf("%d %s", *priority, value)
	}
	return value
}

func (p *HuaweiCloudProvider) toRecords(rs huaweiRecordSet, domainID string) []provider.DNSRecord {
	out := make([]provider.DNSRecord, 0, len(rs.Records))
	for _, value := range rs.Records {
		rec := provider.DNSRecord{
			ID:       rs.ID,
			DomainID: domainID,
			Type:     provider.RecordType(rs.Type),
			Name:     trimZoneDot(rs.Name),
			Value:    value,
			TTL:      rs.TTL,
		}
		if rec.Type == provider.RecordMX {
			if prio, rest, ok := splitMXValue(value); ok {
				rec.Priority = &prio
				rec.Value = rest
			}
		}
		out = append(out, rec)
	}
	return out
}

func splitMXValue(value string) (int64, string, bool) {
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	var prio int64
	if _, err := fmt.Sscanf(parts[0], "%d", &prio); err != nil {
		return 0, "", false
	}
	return prio, parts[1], true
}
