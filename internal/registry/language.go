package registry

import (
	"path"
	"strings"
)

// languageByExt maps file extensions to language tags
var languageByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".java": "java",
	".rb":   "ruby",
	".sh":   "shell",
}

// languageDirs are directory names that group snippets by language.
// Such a directory is not part of the category path.
var languageDirs = map[string]bool{
	"go": true, "golang": true,
	"python": true, "py": true,
	"javascript": true, "js": true, "node": true,
	"typescript": true, "ts": true,
	"java":  true,
	"ruby":  true,
	"shell": true, "bash": true,
}

// LanguageOf returns the language tag for a file name, or "" when the
// extension is not a snippet language.
func LanguageOf(name string) string {
	return languageByExt[strings.ToLower(path.Ext(name))]
}

// commentMarker returns the line comment token used by a language
func commentMarker(language string) string {
	switch language {
	case "python", "ruby", "shell":
		return "#"
	default:
		return "//"
	}
}

// placement derives category, group and method from a slash path relative
// to the snippet root. For "sfst/string-methods/java/basic.java" it returns
// category "string-methods", group "sfst", method "basic".
func placement(rel string) (category, group, method string) {
	dir, file := path.Split(rel)
	method = strings.TrimSuffix(file, path.Ext(file))

	dir = strings.Trim(dir, "/")
	var parts []string
	if dir != "" {
		parts = strings.Split(dir, "/")
	}
	if n := len(parts); n > 0 && languageDirs[strings.ToLower(parts[n-1])] {
		parts = parts[:n-1]
	}

	switch len(parts) {
	case 0:
		return method, "", method
	case 1:
		return parts[0], "", method
	default:
		n := len(parts)
		return parts[n-1], strings.Join(parts[:n-1], "/"), method
	}
}

// metadataDir returns the directory that holds metadata.json for a snippet
func metadataDir(rel string) string {
	dir := path.Dir(rel)
	if languageDirs[strings.ToLower(path.Base(dir))] {
		return path.Dir(dir)
	}
	return dir
}
