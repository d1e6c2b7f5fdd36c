// Package visibility finds brand mentions in model responses and turns the order
// in which brands appear into visibility scores.
package visibility

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/azure/brand-visibility-bot/internal/models"
)

// ExtractMentions returns the offsets of every case-insensitive, whole-word
// occurrence of brand in text, in order of appearance.
//
// Offsets count Unicode code points (runes), not bytes. A word character is a
// Unicode letter, a Unicode digit or an underscore; a match only counts when
// the runes on both sides of it are not word characters.
func ExtractMentions(text, brand string) []int {
	offsets := []int{}

	brand = strings.TrimSpace(brand)
	if text == "" || brand == "" {
		return offsets
	}

	pattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(brand))
	if err != nil {
		return offsets
	}

	runeOffset, byteCursor := 0, 0
	for start := 0; start < len(text); {
		loc := pattern.FindStringIndex(text[start:])
		if loc == nil || loc[0] == loc[1] {
			break
		}

		matchStart, matchEnd := start+loc[0], start+loc[1]
		if isWholeWord(text, matchStart, matchEnd) {
			runeOffset += utf8.RuneCountInString(text[byteCursor:matchStart])
			byteCursor = matchStart
			offsets = append(offsets, runeOffset)
			start = matchEnd
			continue
		}

		// Resume one rune later so an overlapping candidate is still found.
		_, size := utf8.DecodeRuneInString(text[matchStart:])
		start = matchStart + size
	}

	return offsets
}

func isWholeWord(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// BrandOffsets pairs a brand with the offsets it was found at
type BrandOffsets struct {
	Brand   string
	Offsets []int
}

// RankBrands orders the mentioned brands by their first occurrence and returns
// each brand's 1-based rank. Brands without offsets map to nil. Brands whose
// first occurrences coincide keep their input order.
func RankBrands(mentions []BrandOffsets) map[string]*int {
	type firstMention struct {
		brand  string
		offset int
	}

	ranks := make(map[string]*int, len(mentions))
	var mentioned []firstMention

	for _, m := range mentions {
		if _, seen := ranks[m.Brand]; seen {
			continue
		}
		ranks[m.Brand] = nil

		if len(m.Offsets) == 0 {
			continue
		}
		first := m.Offsets[0]
		for _, offset := range m.Offsets[1:] {
			if offset < first {
				first = offset
			}
		}
		mentioned = append(mentioned, firstMention{brand: m.Brand, offset: first})
	}

	sort.SliceStable(mentioned, func(i, j int) bool {
		return mentioned[i].offset < mentioned[j].offset
	})

	for i, m := range mentioned {
		rank := i + 1
		ranks[m.brand] = &rank
	}

	return ranks
}

// DetectMentions runs the extractor for every tracked brand against one
// response and ranks the brands that were found.
func DetectMentions(response string, brands []string) []models.BrandMention {
	found := make([]BrandOffsets, 0, len(brands))
	for _, brand := range brands {
		found = append(found, BrandOffsets{
			Brand:   brand,
			Offsets: ExtractMentions(response, brand),
		})
	}

	ranks := RankBrands(found)

	mentions := make([]models.BrandMention, 0, len(found))
	for _, f := range found {
		mentions = append(mentions, models.BrandMention{
			Name:          f.Brand,
			Mentioned:     len(f.Offsets) > 0,
			Count:         len(f.Offsets),
			Positions:     f.Offsets,
			BrandPosition: ranks[f.Brand],
		})
	}

	return mentions
}
