// Package download streams response bodies to disk.
//
// # Output Files
//
// [Create] opens a temporary file alongside the destination path. Response
// chunks are written to it as they arrive, and [File.Commit] atomically
// renames it into place once the transfer succeeds:
//
//	f, err := download.Create(destPath, logger)
//	if err != nil {
//		return err
//	}
//	defer f.Abort()
//
//	// ... write chunks ...
//
//	return f.Commit()
//
// [File.Abort] removes the temporary file and is a no-op after a successful
// Commit, so it is safe to defer. The destination path never holds a
// partially written body.
//
// # Progress
//
// [Progress] logs transfer progress through slog at most once per second.
package download
