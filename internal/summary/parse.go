package summary

import "strings"

const (
	// FileMarker introduces a file section in an ingestion digest
	FileMarker = "FILE: "
	// separatorWidth is the minimum run of '=' that makes a separator line
	separatorWidth = 40
)

var separator = strings.Repeat("=", separatorWidth)

// File is one file section recovered from a digest
type File struct {
	Path    string
	Content string
	Lines   int
}

// ParseFiles splits a digest content blob into file sections. Separator lines
// are dropped; text before the first marker belongs to no file.
func ParseFiles(content string) []File {
	var (
		files   []File
		current string
		buf     []string
	)

	flush := func() {
		if current == "" {
			return
		}
		files = append(files, File{
			Path:    current,
			Content: strings.Join(buf, "\n"),
			Lines:   len(buf),
		})
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, separator):
			continue
		case strings.HasPrefix(line, FileMarker):
			flush()
			current = strings.TrimSpace(strings.TrimPrefix(line, FileMarker))
			buf = buf[:0]
		default:
			buf = append(buf, line)
		}
	}
	// the last section has no following marker
	flush()

	return files
}
