//go:build !darwin && !linux && !(freebsd && (amd64 || arm64))

package gateway

import (
	"context"

	"github.com/pkg/errors"
)

// DefaultInterface is empty where no routing backend exists.
const DefaultInterface = ""

type unimplementedBackend struct{}

// systemBackend is a stub for unsupported platforms.
func systemBackend(cfg backendConfig) (Resolver, Finder, error) {
	if cfg.namespace != "" {
		return nil, nil, errors.Wrap(ErrNotImplemented, "network namespaces")
	}
	return netResolver{}, unimplementedBackend{}, nil
}

func (unimplementedBackend) Find(ctx context.Context, ref InterfaceRef) (string, error) {
	return "", ErrNotImplemented
}
