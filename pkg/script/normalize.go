package script

import (
	"regexp"
	"strings"
)

// Normalize cleans a recovered body: byte-order mark, Windows line endings,
// and residual JSON string escapes from payloads that were escaped but never
// re-parsed as JSON.
func Normalize(body string) string {
	body = strings.TrimPrefix(body, "\uFEFF")
	body = strings.ReplaceAll(body, "\r\n", "\n")
	body = strings.ReplaceAll(body, "\r", "\n")

	if looksEscaped(body) {
		body = unescapeLiteral(body)
	}

	return strings.TrimSpace(body)
}

// looksEscaped detects bodies carrying literal two-character escape
// sequences but no real newlines, the signature of an unparsed escaped
// payload.
func looksEscaped(body string) bool {
	if strings.Contains(body, "\n") {
		return false
	}

	return strings.Contains(body, `\n`) || strings.Contains(body, `\"`) || strings.Contains(body, `\t`)
}

func unescapeLiteral(body string) string {
	var out strings.Builder

	out.Grow(len(body))

	for i := 0; i < len(body); i++ {
		if body[i] != '\\' || i+1 == len(body) {
			out.WriteByte(body[i])

			continue
		}

		switch body[i+1] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			// dropped; CRs carry no meaning after normalization
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		default:
			out.WriteByte(body[i])
			out.WriteByte(body[i+1])
		}

		i++
	}

	return out.String()
}

var (
	zeroArgIIFEHeadRe  = regexp.MustCompile(`^\(\s*(async\s+)?function\s*\(\s*\)`)
	zeroArgArrowHeadRe = regexp.MustCompile(`^\(\s*\(\s*\)\s*=>`)
	emptyInvocationRe  = regexp.MustCompile(`\)\s*\(\s*\)\s*;?\s*$`)
)

// RewriteIIFE turns an immediately-invoked zero-argument function expression
// into one that receives (record, executionContext), so legacy stored
// scripts written before the bindings existed still see the data.
func RewriteIIFE(body string) string {
	trimmed := strings.TrimSpace(body)

	if !emptyInvocationRe.MatchString(trimmed) {
		return body
	}

	var rewritten string

	switch {
	case zeroArgIIFEHeadRe.MatchString(trimmed):
		rewritten = zeroArgIIFEHeadRe.ReplaceAllStringFunc(trimmed, func(head string) string {
			return strings.Replace(head, "()", "(record, executionContext)", 1)
		})
	case zeroArgArrowHeadRe.MatchString(trimmed):
		rewritten = zeroArgArrowHeadRe.ReplaceAllStringFunc(trimmed, func(head string) string {
			return strings.Replace(head, "()", "(record, executionContext)", 1)
		})
	default:
		return body
	}

	return emptyInvocationRe.ReplaceAllString(rewritten, ")(record, executionContext)")
}
