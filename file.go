package liveview

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/robfig/liveview/errortypes"
)

// viewFile is a template file added to a bundle.
type viewFile struct {
	name     string // path, used to resolve imports and in errors
	ns       string // namespace of the views in the file
	content  string
	diskPath string // re-read on recompilation; empty for strings
}

// fileSection is a view declared in a template file.
type fileSection struct {
	name    string
	options map[string]string
	body    string
}

// headerRx matches a section header on its own line: <Name:> or
// <Name: option key="value">.
var headerRx = regexp.MustCompile(`(?m)^[ \t]*<([A-Za-z_][\w\-]*):((?:\s[^>]*)?)>[ \t]*\r?$`)

var optionRx = regexp.MustCompile(`([\w\-]+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+)))?`)

// parseFile splits a template file into its sections.
func parseFile(f viewFile) ([]fileSection, error) {
	var (
		sections []fileSection
		matches  = headerRx.FindAllStringSubmatchIndex(f.content, -1)
	)
	var first = len(f.content)
	if len(matches) > 0 {
		first = matches[0][0]
	}
	if lead := strings.TrimSpace(f.content[:first]); lead != "" {
		var offset = strings.Index(f.content, lead)
		return nil, fileError(f, offset, "content outside of a view section")
	}
	for i, m := range matches {
		var end = len(f.content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		sections = append(sections, fileSection{
			name:    f.content[m[2]:m[3]],
			options: parseOptions(f.content[m[4]:m[5]]),
			body:    strings.TrimSpace(f.content[m[1]:end]),
		})
	}
	return sections, nil
}

// parseOptions parses the options of a section header.  Options written
// without a value, like nonvoid, are set to "true".
func parseOptions(s string) map[string]string {
	var opts = make(map[string]string)
	for _, m := range optionRx.FindAllStringSubmatch(s, -1) {
		var val = m[2] + m[3] + m[4]
		if !strings.Contains(m[0], "=") {
			val = "true"
		}
		opts[strings.ToLower(m[1])] = val
	}
	return opts
}

func fileError(f viewFile, offset int, msg string) error {
	return errortypes.At(f.name, f.content, offset, "%s", msg)
}

// namespaceOf returns the namespace of a template file below root: its path
// without the extension, with directories separated by colons.  A file named
// index takes the namespace of its directory.
func namespaceOf(root, filename string) string {
	var rel, err = filepath.Rel(root, filename)
	if err != nil {
		rel = filename
	}
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	if rel == "index" {
		return ""
	}
	rel = strings.TrimSuffix(rel, "/index")
	return strings.Replace(rel, "/", ":", -1)
}

// joinNS joins namespace segments, skipping empty ones.
func joinNS(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ":")
}

// resolveImport returns the name of the file imported with src from the file
// named from.  A src without an extension refers to an .html file, or to the
// index.html of a directory.
func resolveImport(from, src string) []string {
	var target = path.Join(path.Dir(filepath.ToSlash(from)), src)
	if path.Ext(target) != "" {
		return []string{target}
	}
	return []string{target + ".html", target + "/index.html"}
}

// sectionSource is the template source id of a section.
func sectionSource(f viewFile, section string) string {
	return fmt.Sprintf("%s#%s", filepath.ToSlash(f.name), strings.ToLower(section))
}
