package ingest

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kurihiro0119/devprofile-api/internal/domain"
	"github.com/kurihiro0119/devprofile-api/internal/summary"
)

// binarySniffLen is how much of a file is inspected for NUL bytes
const binarySniffLen = 8000

var contentSeparator = strings.Repeat("=", 48)

type fileEntry struct {
	path    string
	sha     string
	size    int
	content *string
	skipped string
}

// render produces the digest: a summary block, the directory tree and one
// FILE section per readable file.
func render(ref domain.RepoRef, branch string, files []*fileEntry) *domain.Digest {
	var body strings.Builder
	analyzed := 0
	for _, f := range files {
		if f.content == nil {
			continue
		}
		analyzed++
		body.WriteString(contentSeparator + "\n")
		body.WriteString(summary.FileMarker + f.path + "\n")
		body.WriteString(contentSeparator + "\n")
		body.WriteString(*f.content)
		if !strings.HasSuffix(*f.content, "\n") {
			body.WriteString("\n")
		}
		body.WriteString("\n")
	}
	content := body.String()

	var head strings.Builder
	fmt.Fprintf(&head, "Repository: %s\n", ref.FullName())
	fmt.Fprintf(&head, "Branch: %s\n", branch)
	fmt.Fprintf(&head, "Files analyzed: %d\n", analyzed)
	fmt.Fprintf(&head, "\nEstimated tokens: %s", estimateTokens(content))

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.path)
	}

	return &domain.Digest{
		Summary: head.String(),
		Tree:    renderTree(ref.Owner+"-"+ref.Repo, paths),
		Content: content,
	}
}

// estimateTokens approximates a tokenizer at four characters per token
func estimateTokens(s string) string {
	n := len(s) / 4
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

func isBinary(b []byte) bool {
	sniff := b
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return true
	}
	return !utf8.Valid(b)
}

type treeNode struct {
	name     string
	children map[string]*treeNode
}

func (n *treeNode) isDir() bool {
	return n.children != nil
}

// sorted lists files before directories, each group alphabetically
func (n *treeNode) sorted() []*treeNode {
	out := make([]*treeNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].isDir() != out[j].isDir() {
			return !out[i].isDir()
		}
		return strings.ToLower(out[i].name) < strings.ToLower(out[j].name)
	})
	return out
}

// renderTree draws paths as a directory listing under a single root
func renderTree(rootName string, paths []string) string {
	root := &treeNode{name: rootName, children: map[string]*treeNode{}}
	for _, p := range paths {
		node := root
		parts := strings.Split(p, "/")
		for i, part := range parts {
			child, ok := node.children[part]
			if !ok {
				child = &treeNode{name: part}
				if i < len(parts)-1 {
					child.children = map[string]*treeNode{}
				}
				node.children[part] = child
			}
			node = child
		}
	}

	var b strings.Builder
	b.WriteString("Directory structure:\n")
	writeNode(&b, root, "", true)
	return b.String()
}

func writeNode(b *strings.Builder, n *treeNode, prefix string, last bool) {
	connector := "├── "
	if last {
		connector = "└── "
	}
	name := n.name
	if n.isDir() {
		name += "/"
	}
	b.WriteString(prefix + connector + name + "\n")

	childPrefix := prefix + "│   "
	if last {
		childPrefix = prefix + "    "
	}
	children := n.sorted()
	for i, c := range children {
		writeNode(b, c, childPrefix, i == len(children)-1)
	}
}
