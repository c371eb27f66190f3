package xdg

import (
	"os"
	"path/filepath"
)

// XDGDirs resolves XDG Base Directory paths
type XDGDirs struct {
	configHome string
	configDirs []string
}

// NewXDGDirs reads the XDG environment, falling back to the base directory defaults
func NewXDGDirs() *XDGDirs {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = os.TempDir()
		}
	}

	xdg := &XDGDirs{}

	xdg.configHome = os.Getenv("XDG_CONFIG_HOME")
	if xdg.configHome == "" {
		xdg.configHome = filepath.Join(homeDir, ".config")
	}

	configDirsEnv := os.Getenv("XDG_CONFIG_DIRS")
	if configDirsEnv == "" {
		xdg.configDirs = []string{"/etc/xdg"}
	} else {
		xdg.configDirs = filepath.SplitList(configDirsEnv)
	}

	return xdg
}

// ConfigHome returns the base directory for user-specific configuration files
func (x *XDGDirs) ConfigHome() string {
	return x.configHome
}

// ConfigDirs returns the preference-ordered base directories for configuration files
func (x *XDGDirs) ConfigDirs() []string {
	return append([]string{x.configHome}, x.configDirs...)
}

// AppConfigDir returns the application-specific config directory
func (x *XDGDirs) AppConfigDir(appName string) string {
	return filepath.Join(x.configHome, appName)
}

// FindConfig returns the first existing file named name under appName in
// ConfigDirs, or "" if there is none.
func (x *XDGDirs) FindConfig(appName string, name string) string {
	for _, dir := range x.ConfigDirs() {
		path := filepath.Join(dir, appName, name)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

// EnsureDir creates the directory with appropriate permissions if it doesn't exist
func (x *XDGDirs) EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
