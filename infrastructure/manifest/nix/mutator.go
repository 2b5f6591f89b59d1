package nix

import (
	"fmt"
	"strings"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/internal/nixast"
)

// Mutator rewrites version pins inside Nix files through span edits against
// the parsed binding tree, leaving all surrounding text untouched.
type Mutator struct{}

func NewMutator() domain.Mutator {
	return &Mutator{}
}

func (m *Mutator) Format() domain.Format { return domain.FormatNix }

func (m *Mutator) Apply(content string, decl domain.Declaration, newVersion string) (string, error) {
	file, err := nixast.Parse(content)
	if err != nil {
		return "", &domain.QueryError{Path: decl.Path, Err: err}
	}

	switch {
	case strings.HasPrefix(decl.Name, "flake-input-"):
		name := strings.TrimPrefix(decl.Name, "flake-input-")
		return updateFlakeInput(content, file, name, newVersion)
	case decl.Name == "package":
		return updatePackageVersion(content, file, newVersion)
	}
	return "", fmt.Errorf("unsupported nix declaration %q", decl.Name)
}

func updateFlakeInput(content string, file *nixast.File, name, newVersion string) (string, error) {
	var edits []nixast.Edit
	for _, node := range flakeInputURLNodes(file, name) {
		edits = append(edits, nixast.Edit{
			Start: node.Start,
			End:   node.End,
			Text:  rewriteFlakeURL(node.Value, newVersion),
		})
	}
	if len(edits) == 0 {
		return "", fmt.Errorf("flake input %q: %w", name, domain.ErrDeclarationNotFound)
	}
	return nixast.ApplyEdits(content, edits), nil
}

// flakeInputURLNodes finds the url string nodes of one input across both
// declaration shapes.
func flakeInputURLNodes(file *nixast.File, name string) []*nixast.Node {
	var nodes []*nixast.Node
	for _, set := range inputsSets(file) {
		for _, b := range set.Bindings {
			switch {
			case len(b.Path) == 2 && b.Path[0] == name && b.Path[1] == "url" &&
				b.Value.Kind == nixast.KindString:
				nodes = append(nodes, b.Value)
			case len(b.Path) == 1 && b.Path[0] == name:
				for _, inner := range b.Value.AttrSets() {
					if u := inner.Binding("url"); u != nil && u.Value.Kind == nixast.KindString {
						nodes = append(nodes, u.Value)
					}
				}
			}
		}
	}
	return nodes
}

// rewriteFlakeURL pins newVersion into a flake URL, handling each dialect:
// github: shorthand refs, explicit ?ref= parameters, and GitHub https URLs
// without a ref. Unrecognized shapes are returned unchanged.
func rewriteFlakeURL(url, newVersion string) string {
	if strings.HasPrefix(url, "github:") {
		parts := strings.Split(strings.TrimPrefix(url, "github:"), "/")
		switch {
		case len(parts) >= 3:
			return "github:" + parts[0] + "/" + parts[1] + "/" + newVersion
		case len(parts) == 2:
			return url + "/" + newVersion
		}
		return url
	}

	if idx := strings.Index(url, "?ref="); idx >= 0 {
		prefix := url[:idx+len("?ref=")]
		rest := url[len(prefix):]
		if amp := strings.Index(rest, "&"); amp >= 0 {
			return prefix + newVersion + rest[amp:]
		}
		return prefix + newVersion
	}

	if strings.HasPrefix(url, "https://github.com/") ||
		strings.HasPrefix(url, "git+https://github.com/") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		return url + sep + "ref=" + newVersion
	}

	return url
}

func updatePackageVersion(content string, file *nixast.File, newVersion string) (string, error) {
	var edits []nixast.Edit
	file.Walk(func(b *nixast.Binding) {
		if len(b.Path) == 1 && b.Path[0] == "version" &&
			b.Value.Kind == nixast.KindString && !b.Value.Interpolated {
			edits = append(edits, nixast.Edit{Start: b.Value.Start, End: b.Value.End, Text: newVersion})
		}
	})
	if len(edits) == 0 {
		return "", fmt.Errorf("package version: %w", domain.ErrDeclarationNotFound)
	}
	return nixast.ApplyEdits(content, edits), nil
}
