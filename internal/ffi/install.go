package ffi

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
)

// ErrChecksumMismatch is returned when a downloaded shim archive does not
// match the expected digest.
var ErrChecksumMismatch = errors.New("shim archive checksum mismatch")

const (
	installLockDelay = 200 * time.Millisecond
	installLockTries = 50
)

// InstallOptions describes a prebuilt shim archive (.tar.gz) to install.
type InstallOptions struct {
	// URL of the archive.
	URL string
	// SHA256 is the hex digest of the archive. Required.
	SHA256 string
	// DestDir receives the library. Defaults to DefaultInstallDir().
	DestDir string
	// Client defaults to http.DefaultClient.
	Client *http.Client
}

// DefaultInstallDir is the per-user directory LoadLibrary searches.
func DefaultInstallDir() string {
	return filepath.Join(xdg.DataHome, "libgovideoio", "lib", PlatformKey())
}

// PlatformKey returns "{os}_{arch}" for the running platform.
func PlatformKey() string {
	return runtime.GOOS + "_" + runtime.GOARCH
}

// InstallShim downloads, verifies and unpacks a shim archive and returns the
// installed library path. Concurrent installs into the same directory are
// serialized with a lock file.
func InstallShim(ctx context.Context, opts InstallOptions) (string, error) {
	if opts.URL == "" {
		return "", errors.Wrap(ErrInvalidParam, "shim archive URL is empty")
	}
	if !isValidSHA256(opts.SHA256) {
		return "", errors.Wrapf(ErrInvalidParam, "invalid sha256 %q", opts.SHA256)
	}
	destDir := opts.DestDir
	if destDir == "" {
		destDir = DefaultInstallDir()
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create install dir")
	}

	libName := getLibraryName()
	libPath := filepath.Join(destDir, libName)
	err := withInstallLock(ctx, destDir, func() error {
		return downloadAndInstall(ctx, opts, destDir, libName)
	})
	if err != nil {
		return "", err
	}
	return libPath, nil
}

func withInstallLock(ctx context.Context, dir string, fn func() error) error {
	lockPath := filepath.Join(dir, ".install.lock")

	for i := 0; i < installLockTries; i++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_ = lockFile.Close()
			defer os.Remove(lockPath)
			return fn()
		}
		if !os.IsExist(err) {
			return errors.Wrap(err, "create install lock")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(installLockDelay):
		}
	}
	return errors.Errorf("timeout waiting for install lock in %s", dir)
}

func downloadAndInstall(ctx context.Context, opts InstallOptions, destDir, libName string) error {
	tmpFile, err := os.CreateTemp(destDir, "shim-download-*.tgz")
	if err != nil {
		return errors.Wrap(err, "create download temp file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		_ = tmpFile.Close()
		return errors.Wrap(err, "build download request")
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		_ = tmpFile.Close()
		return errors.Wrap(err, "download shim archive")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_ = tmpFile.Close()
		return errors.Errorf("download shim archive: unexpected status %s", resp.Status)
	}

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmpFile, hasher), resp.Body); err != nil {
		_ = tmpFile.Close()
		return errors.Wrap(err, "download shim archive")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "finalize shim archive")
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, opts.SHA256) {
		return errors.Wrapf(ErrChecksumMismatch, "expected %s, got %s", opts.SHA256, actual)
	}

	extractDir, err := os.MkdirTemp(destDir, "shim-extract-")
	if err != nil {
		return errors.Wrap(err, "create extract dir")
	}
	defer os.RemoveAll(extractDir)

	if err := extractTarGz(tmpPath, extractDir); err != nil {
		return errors.Wrap(err, "extract shim archive")
	}

	found, err := findFileByName(extractDir, libName)
	if err != nil {
		return err
	}
	finalPath := filepath.Join(destDir, libName)
	if err := moveFile(found, finalPath); err != nil {
		return errors.Wrap(err, "install shim")
	}
	if runtime.GOOS != "windows" {
		_ = os.Chmod(finalPath, 0o755)
	}
	return nil
}

func extractTarGz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer file.Close()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name := filepath.Clean(header.Name)
		if strings.HasPrefix(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("invalid archive path: %s", header.Name)
		}
		target := filepath.Join(destDir, name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		default:
			// Symlinks and devices are never part of a shim release.
			return fmt.Errorf("unsupported archive entry: %s", header.Name)
		}
	}
}

func findFileByName(root, name string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && entry.Name() == name {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errors.Errorf("file %s not found in archive", name)
	}
	return found, nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

func isValidSHA256(value string) bool {
	if len(value) != 64 {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
