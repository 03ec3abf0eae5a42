// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

func sampleRecords() []types.CompanyRecord {
	return []types.CompanyRecord{
		{
			Title:  "Acme files for IPO, with a comma",
			Link:   "https://example.com/acme",
			Date:   "2024-06-01",
			Source: "IPO",
			Executives: []types.Person{
				{Name: "Jane Doe", Title: "CEO", Functions: []string{"Chief Executive Officer", "Director"}},
			},
			Shareholders: []types.Shareholder{{Name: "Fund A", Percent: "12.5%"}},
			Country:      "Singapore",
			Industry:     "Software",
		},
		{Title: "Beta merger rumor", Link: "https://example.com/beta", Source: "Rumors"},
	}
}

func TestSnapshots_WriteReadAllFormats(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatCSV, FormatParquet} {
		t.Run(format, func(t *testing.T) {
			s := NewSnapshots(t.TempDir(), format)
			s.now = func() time.Time { return time.Date(2024, 6, 2, 15, 0, 0, 0, time.UTC) }

			snap, err := s.Write("marketinsights", sampleRecords())
			require.NoError(t, err)
			assert.Equal(t, "marketinsights_data_2024-06-02."+format, filepath.Base(snap.Path))

			got, err := s.Read(snap)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, sampleRecords()[0].Title, got[0].Title)
			assert.Equal(t, sampleRecords()[0].Executives, got[0].Executives)
			assert.Equal(t, sampleRecords()[0].Shareholders, got[0].Shareholders)
			assert.Equal(t, "Singapore", got[0].Country)
			assert.Empty(t, got[1].Executives)
		})
	}
}

func TestSnapshots_LatestByModTime(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshots(dir, FormatJSON)

	older := filepath.Join(dir, "cnbc_data_2024-06-05.json")
	newer := filepath.Join(dir, "cnbc_data_2024-06-01.json")
	other := filepath.Join(dir, "renatus_data_2024-06-09.json")
	for _, p := range []string{older, newer, other} {
		require.NoError(t, os.WriteFile(p, []byte("[]"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cnbc_notes.txt"), []byte("x"), 0o644))

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, base, base))
	require.NoError(t, os.Chtimes(newer, base.Add(time.Minute), base.Add(time.Minute)))

	snap, ok, err := s.Latest("cnbc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, newer, snap.Path, "latest is by write time, not the date in the name")
	assert.Equal(t, "2024-06-01", snap.Date)

	_, ok, err = s.Latest("stockanalysis")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSnapshots_MissingDir(t *testing.T) {
	s := NewSnapshots(filepath.Join(t.TempDir(), "nope"), FormatCSV)
	all, err := s.List("")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSnapshots_Archive(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshots(dir, FormatCSV)
	_, err := s.Write("cnbc", sampleRecords())
	require.NoError(t, err)
	_, err = s.Write("renatus", nil)
	require.NoError(t, err)

	n, err := s.Archive()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := s.List("")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	archived, err := os.ReadDir(filepath.Join(dir, ArchiveDir))
	require.NoError(t, err)
	assert.Len(t, archived, 2)
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ok     bool
	}{
		{"cnbc_data_2024-06-01.csv", "cnbc", true},
		{"market_insights_data_2024-06-01.parquet", "market_insights", true},
		{"cnbc_data_yesterday.csv", "", false},
		{"cnbc_data_2024-06-01.xlsx", "", false},
		{"_data_2024-06-01.csv", "", false},
	}
	for _, tt := range tests {
		src, _, _, ok := parseName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.source, src, tt.name)
	}
}

func TestWriteSnapshotFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.parquet")
	require.NoError(t, WriteSnapshotFile(path, sampleRecords()))

	got, err := ReadSnapshotFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Singapore", got[0].Country)

	assert.Error(t, WriteSnapshotFile(filepath.Join(t.TempDir(), "x.xlsx"), nil))
}
