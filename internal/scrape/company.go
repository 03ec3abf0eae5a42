// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// Role table headings on company pages.
const (
	TableManagers     = "Managers"
	TableBoard        = "Members of the board"
	TableShareholders = "Name"
)

// CompanyPage holds everything read from a company detail page. Fields
// that could not be read are left empty and reported in Errors.
type CompanyPage struct {
	URL          string
	Description  string
	Country      string
	Industry     string
	Sector       string
	Contact      types.ContactBlock
	Managers     []types.Person
	Board        []types.Person
	Shareholders []types.Shareholder
	Errors       []error
}

// People returns managers followed by board members.
func (p CompanyPage) People() []types.Person {
	out := make([]types.Person, 0, len(p.Managers)+len(p.Board))
	out = append(out, p.Managers...)
	return append(out, p.Board...)
}

// CompanyPage fetches and parses a company detail page.
func (f *Fetcher) CompanyPage(ctx context.Context, link string) (CompanyPage, error) {
	doc, err := f.Document(ctx, link)
	if err != nil {
		return CompanyPage{URL: link}, err
	}
	return ParseCompanyPage(doc, link), nil
}

// CompanyPageURL derives a MarketScreener company page from one of the
// company's news links: everything before "news" plus "company/".
func CompanyPageURL(newsLink string) string {
	i := strings.Index(newsLink, "news")
	if i < 0 {
		return ""
	}
	return newsLink[:i] + "company/"
}

// ParseCompanyPage reads labelled cells, the contact block, role tables
// and the description from doc. It never fails as a whole.
func ParseCompanyPage(doc *goquery.Document, link string) CompanyPage {
	p := CompanyPage{URL: link}
	fail := func(field string, err error) {
		p.Errors = append(p.Errors, &ExtractionError{URL: link, Field: field, Err: err})
	}

	var ok bool
	if p.Sector, ok = LabeledCell(doc, "Sector"); !ok {
		fail("sector", ErrNotFound)
	}
	if p.Industry, ok = LabeledCell(doc, "Industry"); !ok {
		fail("industry", ErrNotFound)
	}
	p.Country, _ = LabeledCell(doc, "Country")
	p.Description = companyDescription(doc)

	contact, err := parseContact(doc)
	if err != nil {
		fail("contact", err)
	}
	p.Contact = contact

	found := map[string]bool{}
	doc.Find("div.card-content").Each(func(_ int, card *goquery.Selection) {
		heading := clean(card.Find("tr").First().Find("th").First().Text())
		switch heading {
		case TableManagers:
			p.Managers = append(p.Managers, parsePeople(card)...)
		case TableBoard:
			p.Board = append(p.Board, parsePeople(card)...)
		case TableShareholders:
			p.Shareholders = append(p.Shareholders, parseShareholders(card)...)
		default:
			return
		}
		found[heading] = true
	})
	if !found[TableManagers] {
		if execs := parseExecutiveTable(doc); len(execs) > 0 {
			p.Managers = execs
			found[TableManagers] = true
		}
	}
	for _, t := range []string{TableManagers, TableBoard, TableShareholders} {
		if !found[t] {
			fail(strings.ToLower(t)+" table", ErrNotFound)
		}
	}
	return p
}

// LabeledCell returns the text of the cell following the first td whose
// text is exactly label.
func LabeledCell(doc *goquery.Document, label string) (string, bool) {
	var value string
	var ok bool
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if clean(td.Text()) != label {
			return true
		}
		next := td.NextAllFiltered("td").First()
		if next.Length() == 0 {
			return true
		}
		value, ok = clean(next.Text()), true
		return false
	})
	return value, ok && value != ""
}

func companyDescription(doc *goquery.Document) string {
	var out string
	doc.Find("h1, h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if clean(h.Text()) != "Company Description" {
			return true
		}
		out = clean(h.NextAllFiltered("p").First().Text())
		return false
	})
	return out
}

// headers returns the cleaned header cells of a table card.
func headers(card *goquery.Selection) []string {
	var hs []string
	card.Find("th").Each(func(_ int, th *goquery.Selection) {
		hs = append(hs, clean(th.Text()))
	})
	return hs
}

func rows(card *goquery.Selection) [][]string {
	var out [][]string
	card.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, clean(td.Text()))
		})
		if len(cells) > 0 {
			out = append(out, cells)
		}
	})
	return out
}

// parsePeople reads a Managers or board table. The first column holds the
// person's name followed by a short function code, e.g. "Jane Doe CEO".
func parsePeople(card *goquery.Selection) []types.Person {
	hs := headers(card)
	var people []types.Person
	for _, cells := range rows(card) {
		var p types.Person
		for i, v := range cells {
			col := ""
			if i < len(hs) {
				col = hs[i]
			}
			switch {
			case i == 0:
				p.Name, p.Functions = splitFunction(v)
			case col == "Title":
				p.Title = v
			case col == "Age":
				p.Age = v
			case col == "Since":
				p.Since = v
			}
		}
		if p.Name != "" {
			people = append(people, p)
		}
	}
	return people
}

// splitFunction separates a trailing function code from a name.
func splitFunction(s string) (string, []string) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return s, nil
	}
	return strings.Join(fields[:len(fields)-1], " "), []string{fields[len(fields)-1]}
}

func parseShareholders(card *goquery.Selection) []types.Shareholder {
	var out []types.Shareholder
	for _, cells := range rows(card) {
		sh := types.Shareholder{Name: cells[0]}
		if len(cells) > 1 {
			sh.Equities = cells[1]
		}
		if len(cells) > 2 {
			sh.Percent = cells[2]
		}
		if len(cells) > 3 {
			sh.Valuation = cells[3]
		}
		if sh.Name != "" {
			out = append(out, sh)
		}
	}
	return out
}

// parseExecutiveTable reads the two-column executives table used by
// stock profile pages.
func parseExecutiveTable(doc *goquery.Document) []types.Person {
	var out []types.Person
	doc.Find("table.mb-6 tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 2 {
			return
		}
		name := clean(tds.Eq(0).Text())
		if name == "" {
			return
		}
		out = append(out, types.Person{Name: name, Title: clean(tds.Eq(1).Text())})
	})
	return out
}

var phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{5,}\d`)

// parseContact reads the first address element: a bold company name,
// postal lines separated by <br>, a tel: link and a website link.
func parseContact(doc *goquery.Document) (types.ContactBlock, error) {
	sel := doc.Find("address").First()
	if sel.Length() == 0 {
		return types.ContactBlock{}, ErrNotFound
	}

	var c types.ContactBlock
	c.Name = clean(sel.Find("strong, b").First().Text())

	if tel, ok := sel.Find(`a[href^="tel:"]`).First().Attr("href"); ok {
		c.Phone = strings.TrimSpace(strings.TrimPrefix(tel, "tel:"))
	}
	sel.Find(`a[href^="http"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		c.Website, _ = a.Attr("href")
		return false
	})

	body := sel.Clone()
	body.Find("strong, b, a").Remove()
	body.Find("br").ReplaceWithHtml("\n")

	var lines []string
	for _, line := range strings.Split(body.Text(), "\n") {
		line = clean(line)
		if line == "" {
			continue
		}
		if c.Phone == "" && phonePattern.MatchString(line) && !strings.ContainsAny(line, "abcdefghijklmnopqrstuvwxyz") {
			c.Phone = phonePattern.FindString(line)
			continue
		}
		if strings.HasPrefix(strings.ToLower(line), "phone") || strings.HasPrefix(strings.ToLower(line), "tel") {
			if c.Phone == "" {
				c.Phone = phonePattern.FindString(line)
			}
			continue
		}
		lines = append(lines, line)
	}
	c.Address = strings.Join(lines, ", ")
	return c, nil
}
