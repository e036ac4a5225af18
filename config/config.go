// Package config loads libgovideoio settings from defaults, a config.yaml
// file and LIBVIDEOIO_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/thesyncim/libgovideoio/internal/ffi"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

// EnvPrefix prefixes every environment variable, e.g. LIBVIDEOIO_LOG_LEVEL.
const EnvPrefix = "LIBVIDEOIO"

// DefaultDownloadURL is expanded with the shim version and platform key.
const DefaultDownloadURL = "https://github.com/thesyncim/libgovideoio/releases/download/shim-v{version}/libvideoio_shim_{platform}.tar.gz"

// Keys
const (
	KeyShimPath          = "shim.path"
	KeyShimSearchDirs    = "shim.search_dirs"
	KeyShimDownloadURL   = "shim.download_url"
	KeyShimSHA256        = "shim.sha256"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
	KeyCaptureAPI        = "capture.api"
	KeyCaptureExceptions = "capture.exception_mode"
)

// Config is a loaded configuration.
type Config struct {
	v *viper.Viper
}

// SearchPaths are the directories checked for config.yaml, in order.
func SearchPaths() []string {
	return []string{
		".",
		filepath.Join(xdg.ConfigHome, "libgovideoio"),
		"/etc/libgovideoio",
	}
}

// Load reads the configuration. file overrides the search for config.yaml;
// a missing config.yaml in the search paths is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()

	v.SetDefault(KeyShimPath, "")
	v.SetDefault(KeyShimSearchDirs, []string{})
	v.SetDefault(KeyShimDownloadURL, DefaultDownloadURL)
	v.SetDefault(KeyShimSHA256, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyCaptureAPI, "any")
	v.SetDefault(KeyCaptureExceptions, false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", file)
		}
		return &Config{v: v}, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range SearchPaths() {
		v.AddConfigPath(os.ExpandEnv(path))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	return &Config{v: v}, nil
}

// File returns the config file in use, or "" when running on defaults.
func (c *Config) File() string {
	return c.v.ConfigFileUsed()
}

// Set overrides a key, as command-line flags do.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// LoadOptions returns where to load the native shim from.
func (c *Config) LoadOptions() videoio.LoadOptions {
	return videoio.LoadOptions{
		Path:       c.v.GetString(KeyShimPath),
		SearchDirs: c.searchDirs(),
	}
}

func (c *Config) searchDirs() []string {
	dirs := c.v.GetStringSlice(KeyShimSearchDirs)
	// Environment values arrive as one string.
	if len(dirs) == 1 && strings.ContainsRune(dirs[0], os.PathListSeparator) {
		dirs = filepath.SplitList(dirs[0])
	}
	return dirs
}

// InstallOptions returns the shim download settings for this platform.
func (c *Config) InstallOptions() ffi.InstallOptions {
	url := strings.NewReplacer(
		"{version}", ffi.ExpectedShimVersion,
		"{platform}", ffi.PlatformKey(),
	).Replace(c.v.GetString(KeyShimDownloadURL))
	return ffi.InstallOptions{
		URL:    url,
		SHA256: c.v.GetString(KeyShimSHA256),
	}
}

// CaptureAPI returns the default capture backend.
func (c *Config) CaptureAPI() (videoio.API, error) {
	api, err := videoio.ParseAPI(c.v.GetString(KeyCaptureAPI))
	if err != nil {
		return videoio.APIAny, errors.Wrap(err, KeyCaptureAPI)
	}
	return api, nil
}

// ExceptionMode reports whether captures should raise instead of returning
// false.
func (c *Config) ExceptionMode() bool {
	return c.v.GetBool(KeyCaptureExceptions)
}

// NewLogger builds a logger from log.level and log.format ("text" or "json").
func (c *Config) NewLogger() (*logrus.Logger, error) {
	l := logrus.New()
	level, err := logrus.ParseLevel(c.v.GetString(KeyLogLevel))
	if err != nil {
		return nil, errors.Wrap(err, KeyLogLevel)
	}
	l.SetLevel(level)

	switch format := strings.ToLower(c.v.GetString(KeyLogFormat)); format {
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Errorf("%s: unknown format %q", KeyLogFormat, format)
	}
	return l, nil
}
