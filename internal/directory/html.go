package directory

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/allanpk716/docx_mailmerge/internal/recipient"
)

// walk 先序遍历，fn 返回 false 时停止
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// findAll 按文档顺序返回满足条件的元素
func findAll(root *html.Node, match func(*html.Node) bool) []*html.Node {
	var nodes []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			nodes = append(nodes, n)
		}
		return true
	})
	return nodes
}

// findFirst 按文档顺序返回第一个满足条件的元素
func findFirst(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func isTag(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

// hasClasses 元素的 class 是否包含 classes 中的全部类名，classes 用空格分隔
func hasClasses(n *html.Node, classes string) bool {
	value, ok := attr(n, "class")
	if !ok {
		return false
	}
	have := strings.Fields(value)
	for _, want := range strings.Fields(classes) {
		found := false
		for _, c := range have {
			if c == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// text 元素的可见文本：各文本节点去掉首尾空白后用空格连接，跳过 script 和 style
func text(n *html.Node) string {
	var parts []string
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		switch {
		case c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style"):
			return
		case c.Type == html.TextNode:
			if s := strings.TrimSpace(c.Data); s != "" {
				parts = append(parts, s)
			}
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return recipient.Normalize(strings.Join(parts, " "))
}
