package automation

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Tree limits
const (
	DefaultTreeDepth = 8
	DefaultTreeNodes = 500
	maxNodeText      = 80
)

// TreeNode is one element in an element tree.
type TreeNode struct {
	ControlType  string      `json:"controlType"`
	AutomationID string      `json:"automationId,omitempty"`
	Name         string      `json:"name,omitempty"`
	Text         string      `json:"text,omitempty"`
	Children     []*TreeNode `json:"children,omitempty"`
}

// ElementTree is the result of BuildTree.
type ElementTree struct {
	Title     string    `json:"title,omitempty"`
	Root      *TreeNode `json:"root"`
	NodeCount int       `json:"nodeCount"`
	Truncated bool      `json:"truncated"`
}

// BuildTree parses markup into an element tree. Scripts, styles and other
// noise are dropped, and anonymous layout wrappers are collapsed into their
// parent so the tree only shows elements a caller could target or read.
func BuildTree(markup string, maxDepth, maxNodes int) (*ElementTree, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultTreeDepth
	}
	if maxNodes <= 0 {
		maxNodes = DefaultTreeNodes
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	b := &treeBuilder{maxDepth: maxDepth, maxNodes: maxNodes}
	root := &TreeNode{ControlType: "document"}

	start := findBody(doc)
	if start == nil {
		start = doc
	}
	b.children(start, root, 0)

	return &ElementTree{
		Title:     extractTitle(doc),
		Root:      root,
		NodeCount: b.count,
		Truncated: b.truncated,
	}, nil
}

type treeBuilder struct {
	maxDepth  int
	maxNodes  int
	count     int
	truncated bool
}

// children walks n's children, attaching meaningful elements to parent.
func (b *treeBuilder) children(n *html.Node, parent *TreeNode, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b.truncated {
			return
		}
		if c.Type != html.ElementNode {
			continue
		}
		tag := strings.ToLower(c.Data)
		if isSkippedElement(tag) {
			continue
		}

		if !isMeaningful(c, tag) {
			// Collapse the wrapper: its children join the parent at the same depth
			b.children(c, parent, depth)
			continue
		}

		if depth >= b.maxDepth || b.count >= b.maxNodes {
			b.truncated = true
			return
		}

		node := b.node(c, tag)
		b.count++
		parent.Children = append(parent.Children, node)
		b.children(c, node, depth+1)
	}
}

func (b *treeBuilder) node(n *html.Node, tag string) *TreeNode {
	automationID := attr(n, "data-automation-id")
	if automationID == "" {
		automationID = attr(n, "id")
	}
	name := attr(n, "aria-label")
	if name == "" {
		name = attr(n, "name")
	}
	if name == "" {
		name = attr(n, "title")
	}
	if name == "" && tag == "img" {
		name = attr(n, "alt")
	}

	return &TreeNode{
		ControlType:  ControlTypeFor(tag, attr(n, "type"), attr(n, "role")),
		AutomationID: automationID,
		Name:         name,
		Text:         ownText(n),
	}
}

// isMeaningful reports whether an element belongs in the tree: it carries an
// identifier or role, is interactive, or is a structural element with its
// own semantics.
func isMeaningful(n *html.Node, tag string) bool {
	if attr(n, "id") != "" || attr(n, "data-automation-id") != "" ||
		attr(n, "role") != "" || attr(n, "aria-label") != "" {
		return true
	}
	if isInteractiveElement(tag) {
		return true
	}
	if isLayoutElement(tag) {
		return false
	}
	return isBlockElement(tag) || ownText(n) != ""
}

// ownText returns the element's direct text, excluding descendants.
func ownText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if t := strings.Join(strings.Fields(c.Data), " "); t != "" {
				parts = append(parts, t)
			}
		}
	}
	text := strings.Join(parts, " ")
	if len(text) > maxNodeText {
		text = truncateUTF8(text, maxNodeText) + "..."
	}
	return text
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !isRuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

// isSkippedElement returns true for elements that should be completely removed
func isSkippedElement(tagName string) bool {
	skipped := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"template": true,
		"head":     true,
		"meta":     true,
		"link":     true,
		"svg":      true,
	}
	return skipped[tagName]
}

// isInteractiveElement returns true for elements a caller can act on
func isInteractiveElement(tagName string) bool {
	interactive := map[string]bool{
		"a":        true,
		"button":   true,
		"input":    true,
		"select":   true,
		"option":   true,
		"textarea": true,
		"summary":  true,
		"img":      true,
		"iframe":   true,
	}
	return interactive[tagName]
}

// isLayoutElement returns true for anonymous wrappers that only affect layout
func isLayoutElement(tagName string) bool {
	layout := map[string]bool{
		"div":    true,
		"span":   true,
		"b":      true,
		"i":      true,
		"em":     true,
		"strong": true,
		"small":  true,
		"br":     true,
		"hr":     true,
	}
	return layout[tagName]
}

// isBlockElement returns true for structural elements with their own semantics
func isBlockElement(tagName string) bool {
	blocks := map[string]bool{
		"section":  true,
		"article":  true,
		"header":   true,
		"footer":   true,
		"nav":      true,
		"main":     true,
		"aside":    true,
		"h1":       true,
		"h2":       true,
		"h3":       true,
		"h4":       true,
		"h5":       true,
		"h6":       true,
		"ul":       true,
		"ol":       true,
		"li":       true,
		"table":    true,
		"tr":       true,
		"td":       true,
		"th":       true,
		"form":     true,
		"fieldset": true,
		"label":    true,
		"dialog":   true,
	}
	return blocks[tagName]
}

// extractTitle extracts the page title from the document
func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}
