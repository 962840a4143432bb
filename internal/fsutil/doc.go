// Package fsutil copies files and folder trees for the build pipeline.
// Folder copies merge into the destination and overwrite existing files;
// file copies keep the source permission bits except on Windows.
package fsutil
