package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/cravetown/internal/manifest"
	"github.com/starford/cravetown/internal/versions"
)

// VersionSchemaURI identifies the version layout resource.
const VersionSchemaURI = "cravetown://version-schema"

// VersionSchema renders the layout of a version directory as Markdown:
// the placeholder files written on creation and the manifest that
// registers versions.
func VersionSchema() string {
	var b strings.Builder
	b.WriteString("# Cravetown Version Layout\n\n")
	b.WriteString("Every version is a directory directly under the data directory " +
		"(see the `get_data_dir` tool). Its name is the version id.\n\n")
	b.WriteString("## Placeholder files\n\n")
	b.WriteString("`create_version_directory` writes these files, relative to the version directory:\n\n")
	b.WriteString("| File | Initial content |\n|---|---|\n")
	for _, f := range versions.PlaceholderSchema {
		fmt.Fprintf(&b, "| `%s` | `%s` |\n", f.Path, f.Content)
	}
	fmt.Fprintf(&b, "\n## Manifest\n\n`%s` at the data directory root records version metadata "+
		"(name, author, tags, active flag). The `%s` version and the active version cannot be deleted.\n",
		manifest.FileName, manifest.BaseVersion)
	b.WriteString("\n## Rules\n\n")
	b.WriteString("1. Paths passed to `read_json_file` and `write_json_file` are absolute.\n")
	b.WriteString("2. `write_json_file` never creates directories.\n")
	b.WriteString("3. Content is stored verbatim; it is not validated as JSON.\n")
	return b.String()
}
