package builder

import (
	"context"

	"github.com/nativelibs/tpbuild/internal/toolchain"
)

// Fetcher downloads and unpacks a source archive. Implementations must be
// idempotent for repeated calls with the same destination.
type Fetcher interface {
	DownloadAndExtract(ctx context.Context, url, workingDir, destDir, archiveBaseName string) error
}

// Patcher applies a diff to the extracted sources. A Dispatcher calls it at
// most once.
type Patcher interface {
	ApplyPatch(ctx context.Context, patchFile, workingDir string) error
}

// Toolchain builds a target and copies the libraries into the root project.
type Toolchain interface {
	BuildWin32(ctx context.Context, req toolchain.WindowsRequest) error
	BuildWin10(ctx context.Context, req toolchain.WindowsRequest) error
	BuildMacOS(ctx context.Context, req toolchain.AppleRequest) error
	BuildIOS(ctx context.Context, req toolchain.AppleRequest) error
	BuildAndroid(ctx context.Context, req toolchain.AndroidRequest) error
}

// Copier copies a directory tree, overwriting existing files.
type Copier interface {
	CopyFolderRecursive(src, dst string) error
}
