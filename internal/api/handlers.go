// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NotAlvin/Argus-Pub/internal/cache"
	"github.com/NotAlvin/Argus-Pub/internal/harvest"
	"github.com/NotAlvin/Argus-Pub/internal/logging"
	"github.com/NotAlvin/Argus-Pub/pkg/types"
)

// Handler answers API requests from the snapshot directory and the
// harvest output directory.
type Handler struct {
	snaps     *cache.Snapshots
	sources   []string
	outputDir string
	log       *slog.Logger
}

// NewHandler returns a Handler. sources lists the source names reported by
// /api/sources even before they have a snapshot.
func NewHandler(snaps *cache.Snapshots, sources []string, outputDir string, log *slog.Logger) *Handler {
	return &Handler{snaps: snaps, sources: sources, outputDir: outputDir, log: logging.OrDefault(log)}
}

type sourceStatus struct {
	Name   string          `json:"name"`
	Latest *cache.Snapshot `json:"latest"`
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListSources lists every known source with its newest snapshot, if any.
func (h *Handler) ListSources(c *gin.Context) {
	out := make([]sourceStatus, 0, len(h.sources))
	for _, name := range h.sources {
		snap, ok, err := h.snaps.Latest(name)
		if err != nil {
			h.fail(c, err)
			return
		}
		st := sourceStatus{Name: name}
		if ok {
			st.Latest = &snap
		}
		out = append(out, st)
	}
	c.JSON(http.StatusOK, gin.H{"sources": out})
}

// GetSource returns the records of a source's newest snapshot. The optional
// country and industry query parameters filter records case-insensitively.
func (h *Handler) GetSource(c *gin.Context) {
	name := c.Param("name")
	snap, ok, err := h.snaps.Latest(name)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot for source " + name})
		return
	}
	records, err := h.snaps.Read(snap)
	if err != nil {
		h.fail(c, err)
		return
	}

	records = filterRecords(records, c.Query("country"), c.Query("industry"))
	c.JSON(http.StatusOK, gin.H{
		"source":   name,
		"snapshot": snap,
		"count":    len(records),
		"records":  records,
	})
}

// GetArticles returns the newest combined harvest output.
func (h *Handler) GetArticles(c *gin.Context) {
	path, ok, err := harvest.LatestOutput(h.outputDir)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no harvest output yet"})
		return
	}
	articles, err := harvest.ReadArticles(path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"file":     filepath.Base(path),
		"count":    len(articles),
		"articles": articles,
	})
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.log.Error("api request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func filterRecords(records []types.CompanyRecord, country, industry string) []types.CompanyRecord {
	if country == "" && industry == "" {
		return records
	}
	out := make([]types.CompanyRecord, 0, len(records))
	for _, r := range records {
		if country != "" && !strings.EqualFold(r.Country, country) {
			continue
		}
		if industry != "" && !strings.EqualFold(r.Industry, industry) {
			continue
		}
		out = append(out, r)
	}
	return out
}
