package utils

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

func GetRandomUserAgent() string {
	return userAgents[time.Now().UnixNano()%int64(len(userAgents))]
}

func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func FormatSpeed(bytes int64, elapsed float64) string {
	if elapsed == 0 {
		return "0 B/s"
	}
	bps := float64(bytes) / elapsed
	formatted := FormatBytes(uint64(bps))
	return formatted[:len(formatted)-1] + "B/s" // Slice off "B" and add "B/s"
}

// ParsePackList parses a comma-separated list of pack numbers.
func ParsePackList(list string) ([]int, error) {
	var packs []int
	for _, field := range strings.Split(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		pack, err := strconv.Atoi(field)
		if err != nil || pack <= 0 {
			return nil, fmt.Errorf("invalid pack number: %q", field)
		}
		packs = append(packs, pack)
	}
	return packs, nil
}

// ExpandRange returns [start, end] inclusive. Start must not exceed end.
func ExpandRange(start, end int) ([]int, error) {
	if start <= 0 || end <= 0 {
		return nil, fmt.Errorf("pack numbers must be positive, got %d-%d", start, end)
	}
	if start > end {
		return nil, fmt.Errorf("start %d must not exceed end %d", start, end)
	}
	packs := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		packs = append(packs, i)
	}
	return packs, nil
}

// DedupeSort removes duplicates and returns the packs in ascending order.
func DedupeSort(packs []int) []int {
	seen := make(map[int]struct{}, len(packs))
	var out []int
	for _, p := range packs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
