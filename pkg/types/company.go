// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// UnknownValue is the placeholder for fields enrichment could not resolve.
const UnknownValue = "Unknown"

// Person is an executive or board member listed on a company page.
type Person struct {
	Name      string   `json:"name" yaml:"name"`
	Age       string   `json:"age,omitempty" yaml:"age,omitempty"`
	Title     string   `json:"title" yaml:"title"`
	Since     string   `json:"since,omitempty" yaml:"since,omitempty"`
	Functions []string `json:"functions,omitempty" yaml:"functions,omitempty"`
}

// Shareholder is one row of a company's shareholder table.
type Shareholder struct {
	Name      string `json:"name" yaml:"name"`
	Equities  string `json:"equities,omitempty" yaml:"equities,omitempty"`
	Percent   string `json:"percent,omitempty" yaml:"percent,omitempty"`
	Valuation string `json:"valuation,omitempty" yaml:"valuation,omitempty"`
}

// ContactBlock is the postal and phone contact shown on a company page.
type ContactBlock struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	Phone   string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Website string `json:"website,omitempty" yaml:"website,omitempty"`
}

// CompanyRecord is one row of a scraped deal or news dataset, optionally
// enriched with company metadata.
type CompanyRecord struct {
	// Title is the listing headline.
	Title string `json:"title" yaml:"title"`

	// Link points at the article or listing detail page.
	Link string `json:"link" yaml:"link"`

	// CompanyName and CompanyLink identify the company the row is about.
	CompanyName string `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	CompanyLink string `json:"company_link,omitempty" yaml:"company_link,omitempty"`

	Ticker string `json:"ticker,omitempty" yaml:"ticker,omitempty"`

	// Date is the listing date as YYYY-MM-DD, or empty.
	Date string `json:"date" yaml:"date"`

	// Source names the site section the row came from (e.g. "IPO", "Rumors").
	Source string `json:"source" yaml:"source"`

	// Category is an optional section or badge label.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	ArticleContent string `json:"article_content,omitempty" yaml:"article_content,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
	Image          string `json:"image,omitempty" yaml:"image,omitempty"`

	Executives   []Person      `json:"executives,omitempty" yaml:"executives,omitempty"`
	Shareholders []Shareholder `json:"shareholders,omitempty" yaml:"shareholders,omitempty"`

	Country  string `json:"country,omitempty" yaml:"country,omitempty"`
	Industry string `json:"industry,omitempty" yaml:"industry,omitempty"`
	Sector   string `json:"sector,omitempty" yaml:"sector,omitempty"`
}
