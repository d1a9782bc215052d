//go:build windows

package ndk

import (
	"github.com/golang/glog"
	"golang.org/x/sys/windows/registry"
)

type winRegistry struct{}

func defaultRegistry() Registry { return winRegistry{} }

// QueryInstallPath reads the Path value of key under HKEY_LOCAL_MACHINE.
func (winRegistry) QueryInstallPath(key string) (string, bool) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, key, registry.QUERY_VALUE)
	if err != nil {
		glog.V(3).Infof("Open registry key %s: %v", key, err)
		return "", false
	}
	defer k.Close()

	v, _, err := k.GetStringValue("Path")
	if err != nil {
		glog.V(3).Infof("Read %s\\Path: %v", key, err)
		return "", false
	}
	return v, v != ""
}
