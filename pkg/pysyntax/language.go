package pysyntax

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/python"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
	"github.com/src-d/enry/v2"
)

// LanguageName is the enry/linguist name of the language this package parses.
const LanguageName = "Python"

// DefaultExtensions are the file extensions conventionally used for Python source.
var DefaultExtensions = []string{".py"}

var (
	pythonOnce sync.Once
	pythonLang *sitter.Language
)

// Language returns the tree-sitter Python language, initialized once.
func Language() *sitter.Language {
	pythonOnce.Do(func() {
		pythonLang = sitter.NewLanguage(python.GetLanguage())
	})

	return pythonLang
}

// HasExtension reports whether filename ends in one of the given extensions.
// Comparison is case-insensitive.
func HasExtension(filename string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}

	return slices.ContainsFunc(extensions, func(candidate string) bool {
		return strings.ToLower(candidate) == ext
	})
}

// DetectLanguage guesses the language from filename and content (shebangs,
// modelines, heuristics). Returns "" when nothing matches.
func DetectLanguage(filename string, content []byte) string {
	return enry.GetLanguage(filepath.Base(filename), content)
}
