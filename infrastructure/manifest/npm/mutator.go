package npm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/rios0rios0/treeupdt/domain"
)

// range prefixes preserved when swapping versions, longest first
var rangePrefixes = []string{">=", "<=", "^", "~", ">", "<"}

// Mutator rewrites dependency pins in package.json. The document is fully
// regenerated with two-space indentation; key order is preserved.
type Mutator struct{}

func NewMutator() domain.Mutator {
	return &Mutator{}
}

func (m *Mutator) Format() domain.Format { return domain.FormatNpm }

func (m *Mutator) Apply(content string, decl domain.Declaration, newVersion string) (string, error) {
	if !gjson.Valid(content) {
		return "", &domain.QueryError{Path: decl.Path, Err: fmt.Errorf("invalid JSON")}
	}

	jsonPath, err := jsonPathFor(decl.Name)
	if err != nil {
		return "", err
	}

	current := gjson.Get(content, jsonPath)
	if decl.Name != "package" && !current.Exists() {
		return "", fmt.Errorf("%s: %w", decl.Name, domain.ErrDeclarationNotFound)
	}

	value := keepRangePrefix(current.String(), newVersion)
	updated, err := sjson.Set(content, jsonPath, value)
	if err != nil {
		return "", fmt.Errorf("failed to set %s: %w", jsonPath, err)
	}

	return string(pretty.PrettyOptions([]byte(updated), &pretty.Options{
		Indent:   "  ",
		SortKeys: false,
	})), nil
}

func jsonPathFor(name string) (string, error) {
	if name == "package" {
		return "version", nil
	}
	for _, section := range sections {
		p := section.prefix + "-"
		if strings.HasPrefix(name, p) {
			return section.key + "." + escapeKey(strings.TrimPrefix(name, p)), nil
		}
	}
	return "", fmt.Errorf("unsupported npm declaration %q", name)
}

// keepRangePrefix carries the old value's range operator over to the new
// version ("^4.17.0" updated to 4.18.2 stays "^4.18.2").
func keepRangePrefix(oldValue, newVersion string) string {
	for _, prefix := range rangePrefixes {
		if strings.HasPrefix(oldValue, prefix) {
			return prefix + strings.TrimLeft(newVersion, "^~><=")
		}
	}
	return newVersion
}

// escapeKey protects gjson/sjson path syntax in dependency names
// (e.g. "lodash.merge").
func escapeKey(key string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`.`, `\.`,
		`*`, `\*`,
		`?`, `\?`,
	)
	return replacer.Replace(key)
}
