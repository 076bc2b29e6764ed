package product

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var ligatures = strings.NewReplacer("œ", "oe", "æ", "ae", "ß", "ss")

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// GenerateSlug builds a URL slug from a wine name, suffixed with the vintage
// when one is given. Feeding a slug back in returns it unchanged.
func GenerateSlug(name string, vintage int) string {
	s := stripDiacritics(ligatures.Replace(strings.ToLower(strings.TrimSpace(name))))

	var b strings.Builder
	pendingDash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	slug := b.String()

	if vintage <= 0 {
		return slug
	}
	suffix := strconv.Itoa(vintage)
	switch {
	case slug == "":
		return suffix
	case slug == suffix, strings.HasSuffix(slug, "-"+suffix):
		return slug
	default:
		return slug + "-" + suffix
	}
}

var resizeParams = []string{"w", "h", "width", "height", "resize", "fit", "quality"}

// NormalizeImageURL turns a scraped or admin-supplied image reference into an
// absolute https URL without resize parameters. Unusable input yields "".
func NormalizeImageURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if base == "" {
			return ""
		}
		b, err := url.Parse(base)
		if err != nil || !b.IsAbs() {
			return ""
		}
		u = b.ResolveReference(u)
	}

	switch u.Scheme {
	case "https":
	case "http":
		u.Scheme = "https"
	default:
		return ""
	}
	if u.Host == "" {
		return ""
	}

	if u.RawQuery != "" {
		q := u.Query()
		for _, p := range resizeParams {
			q.Del(p)
		}
		u.RawQuery = q.Encode()
	}
	u.Fragment = ""
	return u.String()
}
