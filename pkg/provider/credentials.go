package provider

import "fmt"

// Credential field keys as they appear in the raw key/value maps exchanged
// with stores and export files.
const (
	FieldAccessKeyID     = "accessKeyId"
	FieldAccessKeySecret = "accessKeySecret"
	FieldSecretID        = "secretId"
	FieldSecretKey       = "secretKey"
	FieldSecretAccessKey = "secretAccessKey"
	FieldAPIToken        = "apiToken"
)

// Credentials is the closed union of per-vendor secret material. Each variant
// holds exactly the fields that vendor's signing scheme requires. Values are
// never logged; the only representation written to disk is the encrypted map
// produced by ToMap.
type Credentials interface {
	// Type returns the vendor this credential set belongs to.
	Type() ProviderType

	// ToMap returns the raw key/value form used by stores and export files.
	ToMap() map[string]string
}

// AliyunCredentials authenticates ACS3-HMAC-SHA256 requests.
type AliyunCredentials struct {
	AccessKeyID     string
	AccessKeySecret string
}

func (AliyunCredentials) Type() ProviderType { return TypeAliyun }

func (c AliyunCredentials) ToMap() map[string]string {
	return map[string]string{
		FieldAccessKeyID:     c.AccessKeyID,
		FieldAccessKeySecret: c.AccessKeySecret,
	}
}

// DNSPodCredentials authenticates TC3-HMAC-SHA256 requests.
type DNSPodCredentials struct {
	SecretID  string
	SecretKey string
}

func (DNSPodCredentials) Type() ProviderType { return TypeDNSPod }

func (c DNSPodCredentials) ToMap() map[string]string {
	return map[string]string{
		FieldSecretID:  c.SecretID,
		FieldSecretKey: c.SecretKey,
	}
}

// HuaweiCloudCredentials authenticates SDK-HMAC-SHA256 requests.
type HuaweiCloudCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

func (HuaweiCloudCredentials) Type() ProviderType { return TypeHuaweiCloud }

func (c HuaweiCloudCredentials) ToMap() map[string]string {
	return map[string]string{
		FieldAccessKeyID:     c.AccessKeyID,
		FieldSecretAccessKey: c.SecretAccessKey,
	}
}

// CloudflareCredentials is a static bearer token.
type CloudflareCredentials struct {
	APIToken string
}

func (CloudflareCredentials) Type() ProviderType { return TypeCloudflare }

func (c CloudflareCredentials) ToMap() map[string]string {
	return map[string]string{FieldAPIToken: c.APIToken}
}

// CredentialsFromMap validates and converts a raw key/value map into the
// vendor-tagged variant for t. Missing or empty required fields fail with a
// descriptive error; extra keys are ignored.
func CredentialsFromMap(t ProviderType, m map[string]string) (Credentials, error) {
	get := func(key string) (string, error) {
		v := m[key]
		if v == "" {
			return "", fmt.Errorf("%s credentials: missing required field %q", t, key)
		}
		return v, nil
	}

	switch t {
	case TypeAliyun:
		id, err := get(FieldAccessKeyID)
		if err != nil {
			return nil, err
		}
		secret, err := get(FieldAccessKeySecret)
		if err != nil {
			return nil, err
		}
		return AliyunCredentials{AccessKeyID: id, AccessKeySecret: secret}, nil

	case TypeDNSPod:
		id, err := get(FieldSecretID)
		if err != nil {
			return nil, err
		}
		key, err := get(FieldSecretKey)
		if err != nil {
			return nil, err
		}
		return DNSPodCredentials{SecretID: id, SecretKey: key}, nil

	case TypeHuaweiCloud:
		id, err := get(FieldAccessKeyID)
		if err != nil {
			return nil, err
		}
		secret, err := get(FieldSecretAccessKey)
		if err != nil {
			return nil, err
		}
		return HuaweiCloudCredentials{AccessKeyID: id, SecretAccessKey: secret}, nil

	case TypeCloudflare:
		token, err := get(FieldAPIToken)
		if err != nil {
			return nil, err
		}
		return CloudflareCredentials{APIToken: token}, nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %q", t)
	}
}

// CredentialField describes one input of a vendor's credential form.
type CredentialField struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Secret bool   `json:"secret"`
}

// Metadata describes a vendor for catalogues and import validation.
type Metadata struct {
	Type   ProviderType      `json:"type"`
	Label  string            `json:"label"`
	Fields []CredentialField `json:"fields"`
}

// AllMetadata returns the catalogue of supported vendors in stable order.
func AllMetadata() []Metadata {
	return []Metadata{
		{
			Type:  TypeAliyun,
			Label: "Alibaba Cloud DNS",
			Fields: []CredentialField{
				{Key: FieldAccessKeyID, Label: "AccessKey ID"},
				{Key: FieldAccessKeySecret, Label: "AccessKey Secret", Secret: true},
			},
		},
		{
			Type:  TypeDNSPod,
			Label: "Tencent Cloud DNSPod",
			Fields: []CredentialField{
				{Key: FieldSecretID, Label: "SecretId"},
				{Key: FieldSecretKey, Label: "SecretKey", Secret: true},
			},
		},
		{
			Type:  TypeHuaweiCloud,
			Label: "Huawei Cloud DNS",
			Fields: []CredentialField{
				{Key: FieldAccessKeyID, Label: "Access Key ID"},
				{Key: FieldSecretAccessKey, Label: "Secret Access Key", Secret: true},
			},
		},
		{
			Type:  TypeCloudflare,
			Label: "Cloudflare",
			Fields: []CredentialField{
				{Key: FieldAPIToken, Label: "API Token", Secret: true},
			},
		},
	}
}
