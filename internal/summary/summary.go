// Package summary turns an ingestion digest into a compact text report:
// file statistics by category, detected technologies, the directory tree and
// the full text of every markdown file.
package summary

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	maxFilesPerCategory = 10
	maxTechnologies     = 20
	readmePath          = "README.md"
)

var (
	rule    = strings.Repeat("=", 80)
	subRule = strings.Repeat("-", 80)
	printer = message.NewPrinter(language.English)
)

// Analysis is the structured result of scanning a digest
type Analysis struct {
	Files        []File
	ByCategory   map[Category][]string
	Technologies []string
	Markdown     []File
	TotalLines   int
}

// Analyze parses and classifies the files of a digest content blob
func Analyze(content string) *Analysis {
	a := &Analysis{
		Files:      ParseFiles(content),
		ByCategory: make(map[Category][]string, len(Categories)),
	}

	techs := make(map[string]struct{})
	for _, f := range a.Files {
		a.TotalLines += f.Lines

		cat := Classify(f.Path)
		a.ByCategory[cat] = append(a.ByCategory[cat], f.Path)
		if IsDocker(f.Path) {
			a.ByCategory[Docker] = append(a.ByCategory[Docker], f.Path)
		}
		if cat == Documentation && IsMarkdown(f.Path) {
			a.Markdown = append(a.Markdown, f)
		}
		if cat.IsSource() {
			for _, t := range Technologies(cat, f.Content) {
				techs[t] = struct{}{}
			}
		}
	}

	for t := range techs {
		a.Technologies = append(a.Technologies, t)
	}
	sort.Strings(a.Technologies)

	sort.SliceStable(a.Markdown, func(i, j int) bool {
		ri, rj := a.Markdown[i].Path == readmePath, a.Markdown[j].Path == readmePath
		if ri != rj {
			return ri
		}
		return a.Markdown[i].Path < a.Markdown[j].Path
	})

	return a
}

// MainLanguage compares the Python and JavaScript/TypeScript file counts
func (a *Analysis) MainLanguage() string {
	if len(a.ByCategory[Python]) > len(a.ByCategory[JavaScript]) {
		return "Python"
	}
	return string(JavaScript)
}

// Generate renders the report for a digest. The output depends only on its inputs.
func Generate(content, tree, summary string) string {
	return Analyze(content).Render(tree, summary)
}

// Render writes the report sections for an analysis
func (a *Analysis) Render(tree, summary string) string {
	var out []string
	add := func(lines ...string) { out = append(out, lines...) }
	header := func(title string) { add(rule, title, rule) }

	header("DETAILED REPOSITORY SUMMARY")
	add("", summary, "")

	header("FILE ANALYSIS")
	add(
		fmt.Sprintf("Total Files: %d", len(a.Files)),
		"Total Lines of Code: "+thousands(a.TotalLines),
		"",
	)
	for _, cat := range Categories {
		paths := a.ByCategory[cat]
		if len(paths) == 0 {
			continue
		}
		add(fmt.Sprintf("\n%s (%d files):", cat, len(paths)))
		for _, p := range paths[:min(len(paths), maxFilesPerCategory)] {
			add("  • " + p)
		}
		if len(paths) > maxFilesPerCategory {
			add(fmt.Sprintf("  ... and %d more", len(paths)-maxFilesPerCategory))
		}
	}

	add("")
	header("TECHNOLOGIES DETECTED")
	for _, t := range a.Technologies[:min(len(a.Technologies), maxTechnologies)] {
		add("  • " + t)
	}

	add("")
	header("PROJECT STRUCTURE")
	add(tree)

	add("")
	header("KEY INSIGHTS")
	docker := "No"
	if len(a.ByCategory[Docker]) > 0 {
		docker = "Yes"
	}
	add(
		fmt.Sprintf("  • Repository contains %d files with %s lines", len(a.Files), thousands(a.TotalLines)),
		"  • Main language: "+a.MainLanguage(),
		"  • Has Docker support: "+docker,
		fmt.Sprintf("  • Documentation files: %d", len(a.ByCategory[Documentation])),
		rule,
	)

	if len(a.Markdown) > 0 {
		add("")
		header("DOCUMENTATION CONTENT (ALL MARKDOWN FILES)")
		add(fmt.Sprintf("Found %d markdown files with documentation", len(a.Markdown)), "")
		for _, md := range a.Markdown {
			add(
				"",
				subRule,
				fmt.Sprintf("FILE: %s (%d lines)", md.Path, md.Lines),
				subRule,
				md.Content,
				"",
			)
		}
		header("END OF DOCUMENTATION CONTENT")
	}

	return strings.Join(out, "\n")
}

func thousands(n int) string {
	return printer.Sprintf("%d", n)
}
