package whatsapp

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a parsed copy of the page source. All phrase checks run on the
// lowercased rendered text, not on markup.
type Snapshot struct {
	doc  *goquery.Document
	text string
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

func ParseSnapshot(html string) (*Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, template").Remove()
	return &Snapshot{doc: doc, text: normalizeText(doc.Find("body").Text())}, nil
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(apostrophes.Replace(strings.ToLower(s))), " ")
}

func (s *Snapshot) Contains(phrase string) bool {
	return strings.Contains(s.text, phrase)
}

func (s *Snapshot) InvalidNumber() bool {
	return s.Contains(invalidNumberPhrase)
}

// RateLimitPhrase returns the first throttling phrase on the page.
func (s *Snapshot) RateLimitPhrase() (string, bool) {
	for _, phrase := range rateLimitPhrases {
		if s.Contains(phrase) {
			return phrase, true
		}
	}
	return "", false
}

// LoginRequired reports the QR login screen.
func (s *Snapshot) LoginRequired() bool {
	if s.doc.Find("div[data-ref]").Length() > 0 {
		return true
	}
	for _, phrase := range loginPhrases {
		if s.Contains(phrase) {
			return true
		}
	}
	return false
}

func (s *Snapshot) DeliveryMarkers() int {
	return s.doc.Find(deliveryMarkers).Length()
}

// DialogError returns the first error phrase shown in a dialog or alert.
func (s *Snapshot) DialogError() (string, bool) {
	var found string
	s.doc.Find(`div[role="dialog"], [role="alert"], [role="alertdialog"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := normalizeText(sel.Text())
		for _, phrase := range dialogErrorPhrases {
			if strings.Contains(text, phrase) {
				found = phrase
				return false
			}
		}
		return true
	})
	return found, found != ""
}
