package domain

// Mutator rewrites the version of a single declaration inside a manifest
// and returns the new file content. It never writes to disk: callers decide
// whether the result is persisted, so a failed mutation can never leave a
// partially written file behind.
//
// Returns ErrDeclarationNotFound when decl.Name cannot be located in content.
type Mutator interface {
	Format() Format
	Apply(content string, decl Declaration, newVersion string) (string, error)
}
