// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// Snapshot formats.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

type snapshotCodec struct {
	write func(path string, records []types.CompanyRecord) error
	read  func(path string) ([]types.CompanyRecord, error)
}

var codecs = map[string]*snapshotCodec{
	FormatJSON:    {write: writeJSON, read: readJSON},
	FormatCSV:     {write: writeCSV, read: readCSV},
	FormatParquet: {write: writeParquet, read: readParquet},
}

// flatRecord is a CompanyRecord with nested fields encoded as JSON strings,
// for column-oriented formats.
type flatRecord struct {
	Title          string `parquet:"title"`
	Link           string `parquet:"link"`
	CompanyName    string `parquet:"company_name"`
	CompanyLink    string `parquet:"company_link"`
	Ticker         string `parquet:"ticker"`
	Date           string `parquet:"date"`
	Source         string `parquet:"source"`
	Category       string `parquet:"category"`
	ArticleContent string `parquet:"article_content"`
	Description    string `parquet:"description"`
	Image          string `parquet:"image"`
	Executives     string `parquet:"executives"`
	Shareholders   string `parquet:"shareholders"`
	Country        string `parquet:"country"`
	Industry       string `parquet:"industry"`
	Sector         string `parquet:"sector"`
}

var csvHeader = []string{
	"title", "link", "company_name", "company_link", "ticker", "date", "source",
	"category", "article_content", "description", "image", "executives",
	"shareholders", "country", "industry", "sector",
}

func flatten(r types.CompanyRecord) (flatRecord, error) {
	execs, err := encodeList(r.Executives)
	if err != nil {
		return flatRecord{}, err
	}
	holders, err := encodeList(r.Shareholders)
	if err != nil {
		return flatRecord{}, err
	}
	return flatRecord{
		Title: r.Title, Link: r.Link, CompanyName: r.CompanyName, CompanyLink: r.CompanyLink,
		Ticker: r.Ticker, Date: r.Date, Source: r.Source, Category: r.Category,
		ArticleContent: r.ArticleContent, Description: r.Description, Image: r.Image,
		Executives: execs, Shareholders: holders,
		Country: r.Country, Industry: r.Industry, Sector: r.Sector,
	}, nil
}

func (f flatRecord) unflatten() (types.CompanyRecord, error) {
	r := types.CompanyRecord{
		Title: f.Title, Link: f.Link, CompanyName: f.CompanyName, CompanyLink: f.CompanyLink,
		Ticker: f.Ticker, Date: f.Date, Source: f.Source, Category: f.Category,
		ArticleContent: f.ArticleContent, Description: f.Description, Image: f.Image,
		Country: f.Country, Industry: f.Industry, Sector: f.Sector,
	}
	if f.Executives != "" {
		if err := json.Unmarshal([]byte(f.Executives), &r.Executives); err != nil {
			return r, fmt.Errorf("decoding executives: %w", err)
		}
	}
	if f.Shareholders != "" {
		if err := json.Unmarshal([]byte(f.Shareholders), &r.Shareholders); err != nil {
			return r, fmt.Errorf("decoding shareholders: %w", err)
		}
	}
	return r, nil
}

func encodeList[T any](v []T) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	b, err := json.Marshal(v)
	return string(b), err
}

func (f flatRecord) row() []string {
	return []string{
		f.Title, f.Link, f.CompanyName, f.CompanyLink, f.Ticker, f.Date, f.Source,
		f.Category, f.ArticleContent, f.Description, f.Image, f.Executives,
		f.Shareholders, f.Country, f.Industry, f.Sector,
	}
}

func writeJSON(path string, records []types.CompanyRecord) error {
	if records == nil {
		records = []types.CompanyRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}

func readJSON(path string) ([]types.CompanyRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []types.CompanyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func writeCSV(path string, records []types.CompanyRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		f, err := flatten(r)
		if err != nil {
			return err
		}
		if err := w.Write(f.row()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return WriteFileAtomic(path, buf.Bytes())
}

func readCSV(path string) ([]types.CompanyRecord, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	get := func(row []string, name string) string {
		if i, ok := col[name]; ok && i < len(row) {
			return row[i]
		}
		return ""
	}

	records := make([]types.CompanyRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		f := flatRecord{
			Title: get(row, "title"), Link: get(row, "link"),
			CompanyName: get(row, "company_name"), CompanyLink: get(row, "company_link"),
			Ticker: get(row, "ticker"), Date: get(row, "date"), Source: get(row, "source"),
			Category: get(row, "category"), ArticleContent: get(row, "article_content"),
			Description: get(row, "description"), Image: get(row, "image"),
			Executives: get(row, "executives"), Shareholders: get(row, "shareholders"),
			Country: get(row, "country"), Industry: get(row, "industry"), Sector: get(row, "sector"),
		}
		r, err := f.unflatten()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func writeParquet(path string, records []types.CompanyRecord) error {
	rows := make([]flatRecord, 0, len(records))
	for _, r := range records {
		f, err := flatten(r)
		if err != nil {
			return err
		}
		rows = append(rows, f)
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func readParquet(path string) ([]types.CompanyRecord, error) {
	rows, err := parquet.ReadFile[flatRecord](path)
	if err != nil {
		return nil, err
	}
	records := make([]types.CompanyRecord, 0, len(rows))
	for _, f := range rows {
		r, err := f.unflatten()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
