//go:build integration

package integration_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nativelibs/tpbuild/internal/toolchain"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // TPBUILD_HOME
	WorkDir    string // build scratch directory
	ProjectDir string // a mock project that receives Libs/
}

// setupTestEnv creates isolated temp directories and points TPBUILD_HOME at
// one of them so no user configuration leaks into the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		WorkDir:    t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	t.Setenv("TPBUILD_HOME", env.HomeDir)
	return env
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// buildArchive returns a tar.gz whose entries live under prefix/.
func buildArchive(t *testing.T, prefix string, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{
			Name:     prefix + "/" + name,
			Mode:     0644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header: %v", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("writing tar entry: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return buf.Bytes()
}

// archiveServer serves data at every path and counts requests.
type archiveServer struct {
	*httptest.Server
	hits atomic.Int32
}

func serveArchive(t *testing.T, data []byte) *archiveServer {
	t.Helper()
	s := &archiveServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		w.Header().Set("Content-Type", "application/gzip")
		w.Write(data)
	}))
	t.Cleanup(s.Close)
	return s
}

// recordingToolchain stands in for CMake and remembers what it was asked
// to build.
type recordingToolchain struct {
	mu      sync.Mutex
	targets []string
	sources []string
}

func (r *recordingToolchain) record(name, src string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = append(r.targets, name)
	r.sources = append(r.sources, src)
}

func (r *recordingToolchain) BuildWin32(_ context.Context, req toolchain.WindowsRequest) error {
	r.record("win32", req.SourceDir)
	return nil
}

func (r *recordingToolchain) BuildWin10(_ context.Context, req toolchain.WindowsRequest) error {
	r.record("win10", req.SourceDir)
	return nil
}

func (r *recordingToolchain) BuildMacOS(_ context.Context, req toolchain.AppleRequest) error {
	r.record("macos", req.SourceDir)
	return nil
}

func (r *recordingToolchain) BuildIOS(_ context.Context, req toolchain.AppleRequest) error {
	r.record("ios", req.SourceDir)
	return nil
}

func (r *recordingToolchain) BuildAndroid(_ context.Context, req toolchain.AndroidRequest) error {
	r.record("android", req.SourceDir)
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s", path)
	}
}

func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Errorf("reading %s: %v", path, err)
		return
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("%s does not contain %q:\n%s", path, substr, data)
	}
}
