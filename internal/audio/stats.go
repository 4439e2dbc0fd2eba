package audio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GroupStats aggregates cache entries for one style profile and voice.
type GroupStats struct {
	StyleProfileID string `json:"style_profile_id"`
	Voice          string `json:"voice"`
	Entries        int    `json:"entries"`
	Bytes          int64  `json:"bytes"`
}

// CacheStats summarizes the content-addressed cache.
type CacheStats struct {
	Entries int          `json:"entries"`
	Bytes   int64        `json:"bytes"`
	Groups  []GroupStats `json:"groups"`
	Days    int          `json:"days"`
}

// Stats walks the cache under root. A missing cache yields zero stats.
func Stats(root string) (CacheStats, error) {
	layout := Layout{Root: root}
	groups := make(map[[2]string]*GroupStats)
	var stats CacheStats

	err := filepath.WalkDir(layout.CacheDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".wav") {
			return nil
		}
		rel, err := filepath.Rel(layout.CacheDir(), path)
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		key := [2]string{parts[0], parts[1]}
		group, ok := groups[key]
		if !ok {
			group = &GroupStats{StyleProfileID: parts[0], Voice: parts[1]}
			groups[key] = group
		}
		group.Entries++
		group.Bytes += info.Size()
		stats.Entries++
		stats.Bytes += info.Size()
		return nil
	})
	if err != nil {
		return CacheStats{}, err
	}

	for _, g := range groups {
		stats.Groups = append(stats.Groups, *g)
	}
	sort.Slice(stats.Groups, func(i, j int) bool {
		if stats.Groups[i].StyleProfileID != stats.Groups[j].StyleProfileID {
			return stats.Groups[i].StyleProfileID < stats.Groups[j].StyleProfileID
		}
		return stats.Groups[i].Voice < stats.Groups[j].Voice
	})

	days, err := os.ReadDir(filepath.Join(root, "by-date"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return CacheStats{}, err
	}
	for _, day := range days {
		if day.IsDir() {
			stats.Days++
		}
	}
	return stats, nil
}
