// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

//go:embed data/phone_codes.yaml
var phoneCodesYAML []byte

//go:embed data/cities.csv
var citiesCSV []byte

// maxCodeDigits is the longest calling code prefix in the table.
const maxCodeDigits = 4

// Candidates is a set of country names.
type Candidates map[string]bool

// Unknown is the candidate set for an input that matched nothing.
func Unknown() Candidates { return Candidates{types.UnknownValue: true} }

// IsUnknown reports whether c is exactly {Unknown}.
func (c Candidates) IsUnknown() bool {
	return len(c) == 1 && c[types.UnknownValue]
}

// Sorted returns the members in lexical order.
func (c Candidates) Sorted() []string {
	out := make([]string, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func candidatesOf(names ...string) Candidates {
	c := make(Candidates, len(names))
	for _, n := range names {
		c[n] = true
	}
	return c
}

// Tables holds the reference data for country inference.
type Tables struct {
	// PhoneCodes maps a calling code (digits only) to the countries using it.
	PhoneCodes map[string][]string

	// Cities maps a case-folded city name to the countries with such a city.
	Cities map[string][]string
}

// DefaultTables parses the embedded phone-code and city tables.
func DefaultTables() (*Tables, error) {
	phones, err := LoadPhoneCodes(bytes.NewReader(phoneCodesYAML))
	if err != nil {
		return nil, err
	}
	cities, err := LoadCities(bytes.NewReader(citiesCSV))
	if err != nil {
		return nil, err
	}
	return &Tables{PhoneCodes: phones, Cities: cities}, nil
}

// LoadPhoneCodes reads a YAML map of country name to calling codes and
// inverts it.
func LoadPhoneCodes(r io.Reader) (map[string][]string, error) {
	var byCountry map[string][]string
	if err := yaml.NewDecoder(r).Decode(&byCountry); err != nil {
		return nil, fmt.Errorf("parsing phone codes: %w", err)
	}
	out := map[string][]string{}
	for country, codes := range byCountry {
		for _, code := range codes {
			code = digits(code)
			if code == "" || len(code) > maxCodeDigits {
				return nil, fmt.Errorf("phone codes: bad code %q for %s", code, country)
			}
			out[code] = append(out[code], country)
		}
	}
	for code := range out {
		sort.Strings(out[code])
	}
	return out, nil
}

// LoadCities reads a city,country CSV with a header row.
func LoadCities(r io.Reader) (map[string][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("reading cities header: %w", err)
	}
	out := map[string][]string{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading cities: %w", err)
		}
		key := cityKey(rec[0])
		out[key] = append(out[key], strings.TrimSpace(rec[1]))
	}
	return out, nil
}

// FromPhone maps the calling code of an international number to
// candidate countries by longest-prefix match. Numbers without a leading
// "+" or "00" cannot be placed and yield {Unknown}.
func (t *Tables) FromPhone(phone string) Candidates {
	p := strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(p, "+"):
		p = p[1:]
	case strings.HasPrefix(p, "00"):
		p = p[2:]
	default:
		return Unknown()
	}
	d := digits(p)
	for n := min(maxCodeDigits, len(d)); n > 0; n-- {
		if countries, ok := t.PhoneCodes[d[:n]]; ok {
			return candidatesOf(countries...)
		}
	}
	return Unknown()
}

// CityToken returns the words after the last word containing a digit,
// which on most postal addresses is the city following the postal code.
func CityToken(address string) string {
	words := strings.FieldsFunc(address, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	last := -1
	for i, w := range words {
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			last = i
		}
	}
	if last < 0 {
		return ""
	}
	return strings.Join(words[last+1:], " ")
}

// FromAddress maps the address's city token to candidate countries. The
// longest leading run of words naming a known city wins, so "Hong Kong SAR"
// matches "Hong Kong". No match yields {Unknown}.
func (t *Tables) FromAddress(address string) Candidates {
	words := strings.Fields(CityToken(address))
	for n := len(words); n > 0; n-- {
		if countries, ok := t.Cities[cityKey(strings.Join(words[:n], " "))]; ok {
			return candidatesOf(countries...)
		}
	}
	return Unknown()
}

// Combine merges phone and address candidates: their intersection when
// non-empty; the other side when one is {Unknown}; {Unknown} when both
// are; otherwise their union.
func Combine(phone, address Candidates) Candidates {
	switch {
	case phone.IsUnknown() && address.IsUnknown():
		return Unknown()
	case phone.IsUnknown():
		return address
	case address.IsUnknown():
		return phone
	}
	both := Candidates{}
	for c := range phone {
		if address[c] {
			both[c] = true
		}
	}
	if len(both) > 0 {
		return both
	}
	union := Candidates{}
	for c := range phone {
		union[c] = true
	}
	for c := range address {
		union[c] = true
	}
	return union
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cityKey(s string) string {
	return strings.ToLower(strings.Trim(strings.TrimSpace(s), ".;:"))
}
