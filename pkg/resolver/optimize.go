package resolver

import (
	"regexp"
	"strings"

	"github.com/mfigueira/formpilot/pkg/models"
)

const maxDurableTextLen = 48

// Auto-generated ids from UI frameworks change between deployments and make
// stored selectors rot. Matches purely numeric ids, uuid-ish hex runs, and
// common generated prefixes.
var volatileIDRe = regexp.MustCompile(
	`^\d+$|^(ext|yui|react|ember|mui|radix)[-_:]|[0-9a-f]{8}-[0-9a-f]{4}|-\d{4,}$`)

var stableAttrs = map[string]bool{
	"role":        true,
	"placeholder": true,
	"title":       true,
	"type":        true,
}

// Optimize rewrites a recorded selector into its durable subset: volatile
// ids are dropped, attributes are filtered to stable ones, long text is
// dropped, and recorded XPath/CSS snapshots are discarded in favor of the
// semantic fields. Position survives as the last resort it already is.
// Applying Optimize twice yields the same result.
func Optimize(spec *models.SelectorSpec) *models.SelectorSpec {
	if spec == nil {
		return nil
	}

	out := &models.SelectorSpec{
		Name:     spec.Name,
		Position: spec.Position,
	}

	if spec.ID != "" && !volatileIDRe.MatchString(strings.ToLower(spec.ID)) {
		out.ID = spec.ID
	}

	if len(spec.Attributes) > 0 {
		kept := make(map[string]string)

		for key, value := range spec.Attributes {
			if isStableAttr(key) {
				kept[key] = value
			}
		}

		if len(kept) > 0 {
			out.Attributes = kept
		}
	}

	if text := strings.TrimSpace(spec.Text); text != "" && len(text) <= maxDurableTextLen {
		out.Text = text
	}

	// The durable fields above regenerate better locators than a recorded
	// snapshot; keep Primary only when nothing semantic survived.
	if out.IsEmpty() {
		out.Primary = spec.Primary
	}

	return out
}

func isStableAttr(key string) bool {
	key = strings.ToLower(key)

	return strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-") || stableAttrs[key]
}
