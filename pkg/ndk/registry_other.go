//go:build !windows

package ndk

func defaultRegistry() Registry { return noRegistry{} }
