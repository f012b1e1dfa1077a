package extract

import (
	"bufio"
	"regexp"
	"strings"
)

var mdAtxHeaderRe = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
var mdFencedCodeRe = regexp.MustCompile("^\\s*(```|~~~)")
var mdListItemRe = regexp.MustCompile(`^\s*([-*+]|\d+\.)\s+\S`)

type markdownExtractor struct{}

// Extract passes Markdown text through unchanged (after the usual encoding fallback)
// and derives document-level metadata by scanning for headers, fenced code blocks, and
// list markers. The first level-1 header becomes the document title; if the document
// has no H1, the first level-2 header is used instead.
func (markdownExtractor) Extract(content []byte, _ string) (Result, error) {
	text, err := decodeText(content)
	if err != nil {
		return Result{}, err
	}

	meta := map[string]interface{}{
		"has_headers":     false,
		"has_code_blocks": false,
		"has_lists":       false,
	}

	var h1Title, h2Title string
	inFence := false
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if mdFencedCodeRe.MatchString(line) {
			inFence = !inFence
			meta["has_code_blocks"] = true
			continue
		}
		if inFence {
			continue
		}
		if m := mdAtxHeaderRe.FindStringSubmatch(line); m != nil {
			meta["has_headers"] = true
			trimmed := strings.TrimSpace(line)
			if h1Title == "" && strings.HasPrefix(trimmed, "# ") {
				h1Title = strings.TrimSpace(m[1])
			} else if h2Title == "" && strings.HasPrefix(trimmed, "## ") {
				h2Title = strings.TrimSpace(m[1])
			}
			continue
		}
		if mdListItemRe.MatchString(line) {
			meta["has_lists"] = true
		}
	}

	if h1Title != "" {
		meta["title"] = h1Title
	} else if h2Title != "" {
		meta["title"] = h2Title
	}

	return Result{Text: text, Metadata: meta}, nil
}
