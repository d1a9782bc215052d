package ndk

import (
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// probe returns raw NDK root guesses from one source. Guesses are validated
// and deduplicated by the caller.
type probe func(l *Locator) []string

var defaultProbes = []probe{
	probeEnv,
	probeInstallDirs,
	probeIDEConfig,
	probeRegistry,
}

var (
	ndkEnvVars = []string{"ANDROID_NDK_HOME", "ANDROID_NDK_ROOT", "ANDROID_NDK", "NDK_HOME", "NDK_ROOT"}
	sdkEnvVars = []string{"ANDROID_HOME", "ANDROID_SDK_ROOT"}
)

func probeEnv(l *Locator) []string {
	var ret []string
	for _, name := range ndkEnvVars {
		if v := strings.TrimSpace(l.getenv(name)); v != "" {
			glog.V(3).Infof("%s=%s", name, v)
			ret = append(ret, l.expand(v)...)
		}
	}
	for _, name := range sdkEnvVars {
		if v := strings.TrimSpace(l.getenv(name)); v != "" {
			glog.V(3).Infof("%s=%s", name, v)
			ret = append(ret, l.sdkNDKs(v)...)
		}
	}
	return ret
}

func probeInstallDirs(l *Locator) []string {
	return lo.FlatMap(l.installDirs(), func(dir string, _ int) []string { return l.expand(dir) })
}

func probeIDEConfig(l *Locator) []string {
	var ret []string
	for _, dir := range l.ideConfigDirs() {
		for _, sdk := range l.sdkPathsFromConfigDir(dir) {
			glog.V(3).Infof("SDK %s recorded in %s", sdk, dir)
			ret = append(ret, l.subdirs(filepath.Join(sdk, "ndk"))...)
		}
	}
	return ret
}

var studioRegistryKeys = []string{
	`SOFTWARE\Android Studio`,
	`SOFTWARE\WOW6432Node\Android Studio`,
}

func probeRegistry(l *Locator) []string {
	var ret []string
	for _, key := range studioRegistryKeys {
		studio, ok := l.registry.QueryInstallPath(key)
		if !ok || studio == "" {
			continue
		}
		sdk := filepath.Join(filepath.Dir(filepath.Clean(studio)), "Sdk")
		if ok, _ := afero.DirExists(l.fs, sdk); !ok {
			continue
		}
		ret = append(ret, l.subdirs(filepath.Join(sdk, "ndk"))...)
	}
	return ret
}

// expand turns a location into guesses: the location itself, its children
// and the children of its ndk/ subdirectory.
func (l *Locator) expand(dir string) []string {
	ret := []string{dir}
	ret = append(ret, l.subdirs(dir)...)
	return append(ret, l.subdirs(filepath.Join(dir, "ndk"))...)
}

// sdkNDKs lists side-by-side NDKs of an SDK plus the legacy ndk-bundle.
func (l *Locator) sdkNDKs(sdk string) []string {
	return append(l.subdirs(filepath.Join(sdk, "ndk")), filepath.Join(sdk, "ndk-bundle"))
}

func (l *Locator) installDirs() []string {
	var ret []string
	home := l.home
	if l.goos == "windows" {
		if home != "" {
			ret = append(ret,
				filepath.Join(home, "AppData", "Local", "Android", "Sdk", "ndk"),
				filepath.Join(home, "AppData", "Local", "Android", "ndk"),
				filepath.Join(home, "Android", "Sdk", "ndk"),
			)
		}
		ret = append(ret,
			`C:\Android\ndk`,
			`C:\Android\android-ndk`,
			`D:\Android\ndk`,
			`D:\Android\android-ndk`,
			`C:\Program Files\Android\ndk`,
			`C:\Program Files (x86)\Android\ndk`,
			`D:\AppData\Android\Sdk\ndk`,
		)
		if pd := l.getenv("ProgramData"); pd != "" {
			ret = append(ret, filepath.Join(pd, "Android", "ndk"))
		}
	} else {
		if home != "" {
			ret = append(ret,
				filepath.Join(home, "AppData", "Local", "Android", "Sdk", "ndk"),
				filepath.Join(home, "Library", "Android", "sdk", "ndk"),
				filepath.Join(home, "Android", "Sdk", "ndk"),
			)
		}
		ret = append(ret, "/usr/local/android-ndk", "/opt/android-ndk")
	}
	return append(ret, l.extra...)
}

func (l *Locator) ideConfigDirs() []string {
	if l.home == "" {
		return nil
	}
	var patterns []string
	switch l.goos {
	case "windows":
		patterns = []string{
			filepath.Join(l.home, ".AndroidStudio", "config"),
			filepath.Join(l.home, "AppData", "Roaming", "Google", "AndroidStudio*"),
			filepath.Join(l.home, "AppData", "Roaming", "JetBrains", "IdeaIC*", "options"),
		}
	case "darwin":
		patterns = []string{
			filepath.Join(l.home, "Library", "Application Support", "Google", "AndroidStudio*"),
		}
	default:
		patterns = []string{
			filepath.Join(l.home, ".AndroidStudio*", "config"),
			filepath.Join(l.home, ".config", "Google", "AndroidStudio*"),
		}
	}
	var ret []string
	for _, pattern := range patterns {
		matches, err := afero.Glob(l.fs, pattern)
		if err != nil {
			glog.V(3).Infof("Bad config pattern %s: %v", pattern, err)
			continue
		}
		for _, m := range matches {
			if ok, _ := afero.DirExists(l.fs, m); ok {
				ret = append(ret, m)
			}
		}
	}
	return ret
}
