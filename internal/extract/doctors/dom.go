package doctors

import (
	"strings"
	"unicode/utf8"

	"clinicrawl/internal/models"
)

// cardInfo is one roster container harvested by the selector or generic
// card scripts.
type cardInfo struct {
	Text  string `json:"text"`
	Photo string `json:"photo"`
}

// headingInfo is one short heading with its enclosing container.
type headingInfo struct {
	Text          string `json:"text"`
	ContainerText string `json:"containerText"`
	Photo         string `json:"photo"`
}

// parseCards extracts doctors from harvested cards. A card with exactly one
// valid name also contributes its classified biography lines and photo;
// multi-name cards yield name+role records only, since line attribution
// would be guesswork.
func parseCards(cards []cardInfo, source models.ExtractionSource) []models.Doctor {
	var out []models.Doctor
	for _, card := range cards {
		found := namesWithRoles(card.Text)
		if len(found) == 0 {
			continue
		}
		if len(found) == 1 {
			d := found[0]
			d.ExtractionSource = source
			d.PhotoURL = card.Photo
			attachBioLines(&d, card.Text)
			out = append(out, d)
			continue
		}
		for _, d := range found {
			d.ExtractionSource = source
			out = append(out, d)
		}
	}
	return out
}

// namesWithRoles finds validated (name, role) pairs in a blob of card text.
func namesWithRoles(text string) []models.Doctor {
	var out []models.Doctor
	seen := map[string]struct{}{}
	add := func(rawName, role string) {
		name := CleanName(rawName)
		if !IsPlausibleKoreanName(name) {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, models.Doctor{Name: name, Role: role})
	}

	for _, m := range nameThenRolePattern.FindAllStringSubmatch(text, -1) {
		add(m[1], m[2])
	}
	for _, m := range roleThenNamePattern.FindAllStringSubmatch(text, -1) {
		add(m[2], m[1])
	}
	for _, m := range spacedNamePattern.FindAllStringSubmatch(text, -1) {
		add(m[1]+m[2]+m[3], m[4])
	}
	return out
}

// attachBioLines classifies each line of the card into the three biography
// buckets.
func attachBioLines(d *models.Doctor, text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n < 3 || n > 100 {
			continue
		}
		switch classifyBioLine(line) {
		case bioEducation:
			d.Education = append(d.Education, line)
		case bioCareer:
			d.Career = append(d.Career, line)
		case bioCredentials:
			d.Credentials = append(d.Credentials, line)
		}
	}
}

const (
	textScanBefore = 100
	textScanAfter  = 800
)

// scanText is strategy S3: regex the whole page text for name+role
// adjacency and classify a context window after each hit.
func scanText(text string) []models.Doctor {
	runes := []rune(text)
	var out []models.Doctor
	seen := map[string]struct{}{}

	scan := func(matches [][]int, nameGroup, roleGroup int, spaced bool) {
		for _, m := range matches {
			var rawName, role string
			if spaced {
				rawName = text[m[2]:m[3]] + text[m[4]:m[5]]
				if m[6] >= 0 {
					rawName += text[m[6]:m[7]]
				}
				role = text[m[8]:m[9]]
			} else {
				rawName = text[m[2*nameGroup] : m[2*nameGroup+1]]
				role = text[m[2*roleGroup] : m[2*roleGroup+1]]
			}
			name := CleanName(rawName)
			if !IsPlausibleKoreanName(name) {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			d := models.Doctor{Name: name, Role: role, ExtractionSource: models.SourceDOMText}
			attachBioLines(&d, contextWindow(text, runes, m[0]))
			out = append(out, d)
		}
	}

	scan(nameThenRolePattern.FindAllStringSubmatchIndex(text, -1), 1, 2, false)
	scan(roleThenNamePattern.FindAllStringSubmatchIndex(text, -1), 2, 1, false)
	scan(spacedNamePattern.FindAllStringSubmatchIndex(text, -1), 0, 0, true)
	return out
}

// contextWindow slices 100 chars before to 800 after the match start,
// counted in runes.
func contextWindow(text string, runes []rune, byteStart int) string {
	at := utf8.RuneCountInString(text[:byteStart])
	lo := at - textScanBefore
	if lo < 0 {
		lo = 0
	}
	hi := at + textScanAfter
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}

// parseHeadings is strategy S4: a short heading counts as a name only when
// its enclosing container also talks about a clinician role.
func parseHeadings(headings []headingInfo) []models.Doctor {
	var out []models.Doctor
	seen := map[string]struct{}{}
	for _, h := range headings {
		name := CleanName(h.Text)
		if !IsPlausibleKoreanName(name) {
			continue
		}
		if !rolePattern.MatchString(h.ContainerText) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, models.Doctor{
			Name:             name,
			Role:             rolePattern.FindString(h.ContainerText),
			PhotoURL:         h.Photo,
			ExtractionSource: models.SourceDOMHeading,
		})
	}
	return out
}

// mergeDoctors folds strategy outputs in order, keeping the best-filled
// record per name.
func mergeDoctors(groups ...[]models.Doctor) []models.Doctor {
	var out []models.Doctor
	index := map[string]int{}
	for _, group := range groups {
		for _, d := range group {
			if i, ok := index[d.Name]; ok {
				out[i].Merge(d)
				continue
			}
			index[d.Name] = len(out)
			out = append(out, d)
		}
	}
	return out
}
