package summary

import "strings"

// importScanLines bounds how far into a file imports are looked for
const importScanLines = 50

// Technologies returns the root module names imported in the head of a source file
func Technologies(c Category, content string) []string {
	var extract func(string) string
	switch c {
	case Python:
		extract = pythonImport
	case JavaScript:
		extract = jsImport
	default:
		return nil
	}

	lines := strings.SplitN(content, "\n", importScanLines+1)
	if len(lines) > importScanLines {
		lines = lines[:importScanLines]
	}

	var techs []string
	for _, line := range lines {
		if tech := extract(line); tech != "" {
			techs = append(techs, tech)
		}
	}
	return techs
}

// pythonImport handles "import a.b" and "from a.b import c"
func pythonImport(line string) string {
	if !strings.HasPrefix(line, "import ") && !strings.HasPrefix(line, "from ") {
		return ""
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	root, _, _ := strings.Cut(fields[1], ".")
	return strings.TrimRight(root, ",")
}

// jsImport handles "import x from 'pkg/sub'" and "import 'pkg'". Relative
// imports are not technologies.
func jsImport(line string) string {
	if !strings.HasPrefix(line, "import ") {
		return ""
	}
	target := lastQuoted(line)
	if target == "" || strings.HasPrefix(target, ".") || strings.HasPrefix(target, "/") {
		return ""
	}
	parts := strings.Split(target, "/")
	if strings.HasPrefix(target, "@") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func lastQuoted(line string) string {
	end := strings.LastIndexAny(line, `'"`)
	if end <= 0 {
		return ""
	}
	quote := line[end]
	start := strings.LastIndexByte(line[:end], quote)
	if start < 0 {
		return ""
	}
	return line[start+1 : end]
}
