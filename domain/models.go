package domain

// Format identifies which manifest grammar produced a Declaration.
// The set is closed: adding a format means adding a scanner/mutator pair
// and handling the new tag everywhere a Format is switched on.
type Format string

const (
	FormatNix   Format = "nix"
	FormatCargo Format = "cargo"
	FormatGoMod Format = "gomod"
	FormatNpm   Format = "npm"
)

// SourceType tags where upstream version data for a declaration lives.
type SourceType string

const (
	SourceGitHub SourceType = "github"
	SourceNpm    SourceType = "npm"
	SourceCrates SourceType = "crates"
	SourceGit    SourceType = "git"
	SourceURL    SourceType = "url"
)

// UpdateStrategy is an advisory hint on how eagerly a declaration should
// be updated. It is resolved by configuration and annotations, never
// computed by scanners beyond their per-format default.
type UpdateStrategy string

const (
	StrategyConservative UpdateStrategy = "conservative"
	StrategyStable       UpdateStrategy = "stable"
	StrategyLatest       UpdateStrategy = "latest"
	StrategyAggressive   UpdateStrategy = "aggressive"
)

// SourceHint points at one place upstream versions can be fetched from.
// Order within Declaration.Sources is meaningful: the first hint is
// consulted first.
type SourceHint struct {
	SourceType SourceType `json:"source_type" yaml:"source_type"`
	Identifier string     `json:"identifier" yaml:"identifier"`
	URL        string     `json:"url,omitempty" yaml:"url,omitempty"`
}

// Annotation holds author directives extracted from a comment near a
// declaration. Boolean directives are stored with the value "true".
type Annotation struct {
	Line    int               `json:"line" yaml:"line"`
	Options map[string]string `json:"options" yaml:"options"`
}

// Declaration is one discovered dependency/version record. Its Name is
// unique only within (Path, section); the section prefix is part of the
// name (e.g. "dependencies-serde" vs "dev-serde").
type Declaration struct {
	Path           string            `json:"path" yaml:"path"`
	Format         Format            `json:"format" yaml:"format"`
	Name           string            `json:"name" yaml:"name"`
	CurrentVersion string            `json:"current_version" yaml:"current_version"`
	Sources        []SourceHint      `json:"sources" yaml:"sources"`
	UpdateStrategy UpdateStrategy    `json:"update_strategy" yaml:"update_strategy"`
	Annotations    []Annotation      `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// ScanFailure records one file that could not be scanned. Failures never
// abort a walk; they are collected alongside the successful declarations.
type ScanFailure struct {
	Path string
	Err  error
}

// ScanResult is the outcome of scanning a subtree with one or more scanners.
type ScanResult struct {
	Declarations []Declaration
	Failures     []ScanFailure
}
