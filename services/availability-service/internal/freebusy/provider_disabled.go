//go:build !protogen

package freebusy

// NewGRPCProvider is unavailable without generated proto stubs; the HTTP
// provider is the default transport in this build.
func NewGRPCProvider(_ string) (Provider, error) {
	return nil, nil
}
