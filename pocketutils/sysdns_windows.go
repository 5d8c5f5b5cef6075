//go:build windows

package pocketutils

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var (
	dnsapi                = windows.NewLazySystemDLL("dnsapi.dll")
	dnsFlushResolverCache = dnsapi.NewProc("DnsFlushResolverCache")
)

// FlushDNS purges the resolver cache through the native DNS client API.
func FlushDNS(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ret, _, _ := dnsFlushResolverCache.Call()
	if ret == 0 {
		return errors.New("failed to flush dns cache via native api")
	}
	return nil
}
