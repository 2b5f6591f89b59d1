package domain

// Scanner discovers declarations in all manifests of one format under a root.
// Per-file failures are collected in the result, never returned as the error;
// the error is reserved for problems with the root itself.
type Scanner interface {
	Format() Format
	Scan(root string) (*ScanResult, error)
}
