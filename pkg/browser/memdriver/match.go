package memdriver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mfigueira/formpilot/pkg/browser"
)

// The matcher understands the locator dialect the element resolver emits:
// simple compound CSS (tag, #id, [attr="v"], [attr*="v"], [attr]), comma
// alternatives, the position form "parent > :nth-child(n)", and the two
// text XPath forms. It is not a general selector engine.

var (
	cssCompoundRe = regexp.MustCompile(`^([a-zA-Z][\w-]*|\*)?(#[\w.:-]+)?((?:\[[^\]]+\])*)$`)
	cssAttrRe     = regexp.MustCompile(`\[([\w-]+)(\*?=)?(?:"((?:[^"\\]|\\.)*)")?\]`)

	// RE2 has no backreferences; the quote pair is captured and checked for
	// agreement in unquoteXPathLiteral.
	xpathTextRe = regexp.MustCompile(`^//\*\[normalize-space\(text\(\)\)\s*=\s*(['"])(.*)(['"])\]$`)
	xpathHasRe  = regexp.MustCompile(`^//\*\[contains\(normalize-space\(text\(\)\),\s*(['"])(.*)(['"])\)\]$`)
)

// unquoteXPathLiteral returns the literal of a quoted match, rejecting
// mismatched quote pairs like 'text".
func unquoteXPathLiteral(groups []string) (string, bool) {
	if groups[1] != groups[3] {
		return "", false
	}

	return groups[2], true
}

func (p *Page) match(loc browser.Locator) []*Element {
	if p == nil {
		return nil
	}

	if loc.By == browser.ByXPath {
		return p.matchXPath(loc.Expr)
	}

	var matches []*Element

	for _, alternative := range strings.Split(loc.Expr, ",") {
		matches = append(matches, p.matchCSS(strings.TrimSpace(alternative))...)
	}

	return matches
}

func (p *Page) matchCSS(selector string) []*Element {
	if selector == "" {
		return nil
	}

	if parent, index, ok := splitNthChild(selector); ok {
		parents := p.matchCSS(parent)
		if len(parents) == 0 {
			return nil
		}

		children := p.childrenOf(parents[0].ID)
		if index < 0 || index >= len(children) {
			return nil
		}

		return []*Element{children[index]}
	}

	groups := cssCompoundRe.FindStringSubmatch(selector)
	if groups == nil {
		return nil
	}

	tag := groups[1]
	id := strings.TrimPrefix(groups[2], "#")
	attrs := cssAttrRe.FindAllStringSubmatch(groups[3], -1)

	if tag == "" && id == "" && len(attrs) == 0 {
		return nil
	}

	var matches []*Element

	for _, el := range p.Elements {
		if tag != "" && tag != "*" && !strings.EqualFold(el.Tag, tag) {
			continue
		}

		if id != "" && el.ID != id {
			continue
		}

		if !attrsMatch(el, attrs) {
			continue
		}

		matches = append(matches, el)
	}

	return matches
}

func attrsMatch(el *Element, attrs [][]string) bool {
	for _, attr := range attrs {
		name, op := attr[1], attr[2]
		want := strings.ReplaceAll(attr[3], `\"`, `"`)

		got, ok := el.Attr(name)
		if !ok {
			return false
		}

		switch op {
		case "=":
			if got != want {
				return false
			}
		case "*=":
			if !strings.Contains(got, want) {
				return false
			}
		default: // bare [attr] presence check
		}
	}

	return true
}

// splitNthChild recognizes the position-fallback form "parent > :nth-child(n)".
// The returned index is zero-based.
func splitNthChild(selector string) (parent string, index int, ok bool) {
	marker := " > :nth-child("
	at := strings.LastIndex(selector, marker)

	if at < 0 || !strings.HasSuffix(selector, ")") {
		return "", 0, false
	}

	nth := selector[at+len(marker) : len(selector)-1]

	n, err := strconv.Atoi(nth)
	if err != nil || n < 1 {
		return "", 0, false
	}

	return strings.TrimSpace(selector[:at]), n - 1, true
}

func (p *Page) matchXPath(expr string) []*Element {
	if groups := xpathTextRe.FindStringSubmatch(expr); groups != nil {
		if text, ok := unquoteXPathLiteral(groups); ok {
			return p.matchText(text, false)
		}
	}

	if groups := xpathHasRe.FindStringSubmatch(expr); groups != nil {
		if text, ok := unquoteXPathLiteral(groups); ok {
			return p.matchText(text, true)
		}
	}

	return nil
}

func (p *Page) matchText(text string, contains bool) []*Element {
	var matches []*Element

	for _, el := range p.Elements {
		normalized := strings.TrimSpace(el.Text)

		if contains && strings.Contains(normalized, text) ||
			!contains && normalized == text {
			matches = append(matches, el)
		}
	}

	return matches
}
