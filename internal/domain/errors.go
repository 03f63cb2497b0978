package domain

import "errors"

// Error kinds. Callers wrap them with fmt.Errorf("...: %w") and classify
// with errors.Is.
var (
	// ErrConfiguration marks a missing or invalid setting. Fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrCrypto marks unusable key material or a signing failure. Fatal.
	ErrCrypto = errors.New("crypto error")

	// ErrNetwork marks a failed upstream call: transport error, timeout,
	// non-2xx status, provider error code, or an open circuit.
	ErrNetwork = errors.New("network error")

	// ErrExternalService marks a failed generative-text call.
	ErrExternalService = errors.New("external service error")
)

// IsFatal reports whether err must abort the run.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrCrypto)
}
