package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/libgovideoio/internal/ffi"
	"github.com/thesyncim/libgovideoio/pkg/videoio"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	chdirTemp(t)

	c, err := Load("")
	require.NoError(t, err)

	api, err := c.CaptureAPI()
	require.NoError(t, err)
	assert.Equal(t, videoio.APIAny, api)
	assert.False(t, c.ExceptionMode())
	assert.Equal(t, videoio.LoadOptions{SearchDirs: []string{}}, c.LoadOptions())

	opts := c.InstallOptions()
	assert.Contains(t, opts.URL, "shim-v"+ffi.ExpectedShimVersion)
	assert.Contains(t, opts.URL, ffi.PlatformKey()+".tar.gz")

	l, err := c.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}

func TestConfigFileInWorkingDir(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
shim:
  path: /opt/shim/libvideoio_shim.so
  search_dirs: [/opt/a, /opt/b]
log:
  level: debug
  format: json
capture:
  api: gstreamer
  exception_mode: true
`), 0o644))

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), c.File())

	assert.Equal(t, videoio.LoadOptions{
		Path:       "/opt/shim/libvideoio_shim.so",
		SearchDirs: []string{"/opt/a", "/opt/b"},
	}, c.LoadOptions())

	api, err := c.CaptureAPI()
	require.NoError(t, err)
	assert.Equal(t, videoio.APIGStreamer, api)
	assert.True(t, c.ExceptionMode())

	l, err := c.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("LIBVIDEOIO_CAPTURE_API", "v4l2")
	t.Setenv("LIBVIDEOIO_SHIM_SHA256", "abc")
	t.Setenv("LIBVIDEOIO_SHIM_DOWNLOAD_URL", "https://example.test/{platform}/shim.tgz")
	t.Setenv("LIBVIDEOIO_SHIM_SEARCH_DIRS", "/x"+string(os.PathListSeparator)+"/y")

	c, err := Load("")
	require.NoError(t, err)

	api, err := c.CaptureAPI()
	require.NoError(t, err)
	assert.Equal(t, videoio.APIV4L2, api)

	opts := c.InstallOptions()
	assert.Equal(t, "abc", opts.SHA256)
	assert.Equal(t, "https://example.test/"+ffi.PlatformKey()+"/shim.tgz", opts.URL)
	assert.Equal(t, []string{"/x", "/y"}, c.LoadOptions().SearchDirs)
}

func TestExplicitFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	l, err := c.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	chdirTemp(t)

	c, err := Load("")
	require.NoError(t, err)

	c.Set(KeyCaptureAPI, "betamax")
	_, err = c.CaptureAPI()
	assert.ErrorContains(t, err, KeyCaptureAPI)

	c.Set(KeyLogLevel, "loud")
	_, err = c.NewLogger()
	assert.Error(t, err)

	c.Set(KeyLogLevel, "info")
	c.Set(KeyLogFormat, "xml")
	_, err = c.NewLogger()
	assert.ErrorContains(t, err, "xml")
}
