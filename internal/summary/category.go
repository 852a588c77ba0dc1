package summary

import "strings"

// Category is the primary classification of a file
type Category string

const (
	Documentation Category = "Documentation"
	Configuration Category = "Configuration"
	Python        Category = "Python Code"
	JavaScript    Category = "JavaScript/TypeScript"
	HTMLCSS       Category = "HTML/CSS"
	Docker        Category = "Docker"
	Other         Category = "Other"
)

// Categories lists every category in report order
var Categories = []Category{Documentation, Configuration, Python, JavaScript, HTMLCSS, Docker, Other}

var (
	docSuffixes    = []string{".md", ".txt", ".rst"}
	configSuffixes = []string{".json", ".yaml", ".yml", ".toml", ".ini", ".cfg", ".env", "Dockerfile", "docker-compose.yml"}
	pySuffixes     = []string{".py"}
	jsSuffixes     = []string{".js", ".jsx", ".ts", ".tsx"}
	webSuffixes    = []string{".html", ".css", ".scss"}
)

// Classify returns the primary category of path. Rules are checked in order:
// documentation, configuration, source code, then Other. Docker is never a
// primary category; see IsDocker.
func Classify(path string) Category {
	switch {
	case hasAnySuffix(path, docSuffixes):
		return Documentation
	case hasAnySuffix(path, configSuffixes):
		return Configuration
	case hasAnySuffix(path, pySuffixes):
		return Python
	case hasAnySuffix(path, jsSuffixes):
		return JavaScript
	case hasAnySuffix(path, webSuffixes):
		return HTMLCSS
	default:
		return Other
	}
}

// IsDocker reports whether a configuration file is also listed under Docker
func IsDocker(path string) bool {
	return Classify(path) == Configuration && strings.Contains(path, "Dockerfile")
}

// IsMarkdown reports whether the file content is kept for the documentation appendix
func IsMarkdown(path string) bool {
	return strings.HasSuffix(path, ".md")
}

// IsSource reports whether files of category c are scanned for imports
func (c Category) IsSource() bool {
	return c == Python || c == JavaScript
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
