package providers

import (
	"errors"

	"github.com/systmms/dnsops/pkg/provider"
)

// credentialsRejected reports whether err means the vendor explicitly
// rejected the credentials, as opposed to a transport or protocol failure.
// ValidateCredentials implementations turn this case into (false, nil).
func credentialsRejected(err error) bool {
	var perr *provider.ProviderError
	return errors.As(err, &perr) && perr.Kind == provider.KindInvalidCredentials
}
