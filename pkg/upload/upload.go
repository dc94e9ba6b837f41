// Package upload pushes baseline records and reports to remote storage
// so CI runners can share a common baseline history.
package upload

import "context"

// Uploader uploads baseline data to remote storage.
type Uploader interface {
	// Preflight verifies that the remote storage is reachable and writable.
	// Writes a small test object to the bucket to fail fast on misconfiguration.
	Preflight(ctx context.Context) error

	// UploadBaselines uploads every baseline record and the latest alias
	// found in baselineDir. Other files (the index database, editor
	// leftovers) are skipped.
	UploadBaselines(ctx context.Context, baselineDir string) error

	// UploadReport uploads a single generated report file under the
	// reports prefix.
	UploadReport(ctx context.Context, localPath string) error
}
