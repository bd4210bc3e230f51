package probe

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// ProfileMeta is display metadata scraped from a found profile page.
type ProfileMeta struct {
	DisplayName string
	Bio         string
	Avatar      string
}

// ExtractProfileMeta pulls OpenGraph metadata (with Twitter card fallbacks)
// from a profile page. Extraction is best-effort: a page without usable
// meta tags yields a zero value and never affects classification.
func ExtractProfileMeta(body []byte) ProfileMeta {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ProfileMeta{}
	}

	return ProfileMeta{
		DisplayName: firstMetaContent(doc, "og:title", "twitter:title"),
		Bio:         firstMetaContent(doc, "og:description", "twitter:description"),
		Avatar:      firstMetaContent(doc, "og:image", "twitter:image"),
	}
}

// IsZero reports whether no metadata was extracted.
func (m ProfileMeta) IsZero() bool {
	return m.DisplayName == "" && m.Bio == "" && m.Avatar == ""
}

func firstMetaContent(doc *goquery.Document, names ...string) string {
	for _, name := range names {
		selector := `meta[property="` + name + `"], meta[name="` + name + `"]`
		if content, ok := doc.Find(selector).First().Attr("content"); ok && content != "" {
			return content
		}
	}
	return ""
}
