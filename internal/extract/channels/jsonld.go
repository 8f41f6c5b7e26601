package channels

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"clinicrawl/internal/browser"
	"clinicrawl/internal/models"
)

// structuredDataPass (pass 1.75) pulls sameAs links and contactPoint phone
// numbers out of JSON-LD blocks. Malformed blocks are skipped silently;
// clinics embed a lot of broken markup.
func (e *Extractor) structuredDataPass(page browser.Page, result *models.CrawlResult) {
	html, err := page.Content()
	if err != nil {
		recordPassError(result, "structured_data", err)
		return
	}
	sameAs, phones := ParseStructuredData(html)
	for _, link := range sameAs {
		addClassified(result, link, models.MethodStructuredData)
	}
	for _, phone := range phones {
		result.AddChannel(models.SocialChannel{
			Platform:         models.PlatformPhone,
			URL:              PhoneToTelURI(phone),
			ExtractionMethod: models.MethodStructuredData,
			Confidence:       methodConfidence[models.MethodStructuredData],
		})
	}
}

// ParseStructuredData extracts sameAs URLs and telephone values from every
// JSON-LD script in the document.
func ParseStructuredData(html string) (sameAs, phones []string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload interface{}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		walkStructuredData(payload, &sameAs, &phones)
	})
	return sameAs, phones
}

// walkStructuredData recurses through arbitrary JSON-LD shapes. sameAs may
// be a string or an array; telephone appears on the entity itself or on
// nested contactPoint objects.
func walkStructuredData(node interface{}, sameAs, phones *[]string) {
	switch v := node.(type) {
	case []interface{}:
		for _, item := range v {
			walkStructuredData(item, sameAs, phones)
		}
	case map[string]interface{}:
		for key, value := range v {
			switch key {
			case "sameAs":
				switch link := value.(type) {
				case string:
					appendUnique(sameAs, link)
				case []interface{}:
					for _, item := range link {
						if s, ok := item.(string); ok {
							appendUnique(sameAs, s)
						}
					}
				}
			case "telephone":
				if s, ok := value.(string); ok && s != "" {
					appendUnique(phones, s)
				}
			default:
				walkStructuredData(value, sameAs, phones)
			}
		}
	}
}

func appendUnique(list *[]string, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	for _, existing := range *list {
		if existing == value {
			return
		}
	}
	*list = append(*list, value)
}
