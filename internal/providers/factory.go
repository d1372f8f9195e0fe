package providers

import (
	"fmt"

	"github.com/systmms/dnsops/pkg/provider"
)

// New builds the adapter matching the concrete credentials type. All adapters
// share one executor, so transport configuration, logging and metrics are set
// in a single place.
func New(creds provider.Credentials, exec *Executor) (provider.DNSProvider, error) {
	switch c := creds.(type) {
	case provider.AliyunCredentials:
		return newAliyunProvider(c, exec), nil
	case provider.DNSPodCredentials:
		return newDNSPodProvider(c, exec), nil
	case provider.HuaweiCloudCredentials:
		return newHuaweiCloudProvider(c, exec), nil
	case provider.CloudflareCredentials:
		return newCloudflareProvider(c, exec), nil
	default:
		return nil, fmt.Errorf("unsupported credentials type %T", creds)
	}
}

// NewFromMap validates a raw credential map and builds the adapter in one
// step.
func NewFromMap(t provider.ProviderType, m map[string]string, exec *Executor) (provider.DNSProvider, error) {
	creds, err := provider.CredentialsFromMap(t, m)
	if err != nil {
		return nil, err
	}
	return New(creds, exec)
}
