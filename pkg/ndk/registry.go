package ndk

// Registry answers where an IDE is installed, e.g. from the Windows registry.
type Registry interface {
	QueryInstallPath(key string) (string, bool)
}

type noRegistry struct{}

func (noRegistry) QueryInstallPath(string) (string, bool) { return "", false }
