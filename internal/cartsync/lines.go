package cartsync

import (
	"context"
	"strings"

	"github.com/hifideliveryeats/cartsync/pkg/logger"
	"github.com/hifideliveryeats/cartsync/pkg/types"
)

func indexOf(lines []types.CartLine, itemID string) int {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return -1
	}
	for i := range lines {
		if lines[i].SameItem(itemID) {
			return i
		}
	}
	return -1
}

func cloneLines(lines []types.CartLine) []types.CartLine {
	if len(lines) == 0 {
		return []types.CartLine{}
	}
	out := make([]types.CartLine, len(lines))
	copy(out, lines)
	return out
}

// canonicalize enforces the list invariants on data coming from the backend:
// ids are unique (duplicates fold into the first occurrence) and every
// present line has a positive quantity.
func canonicalize(ctx context.Context, logg *logger.Logger, lines []types.CartLine) []types.CartLine {
	out := make([]types.CartLine, 0, len(lines))
	seen := make(map[string]int, len(lines))
	dropped := 0
	for _, line := range lines {
		line.ItemID = strings.TrimSpace(line.ItemID)
		if line.ItemID == "" || line.Quantity <= 0 {
			dropped++
			continue
		}
		line.DiscountPercent = clampPercent(line.DiscountPercent)
		if idx, ok := seen[line.ItemID]; ok {
			out[idx].Quantity += line.Quantity
			dropped++
			continue
		}
		seen[line.ItemID] = len(out)
		out = append(out, line)
	}
	if dropped > 0 && logg != nil {
		logg.Warn(logg.WithField(ctx, "dropped", dropped), "cart.backend_lines_normalized")
	}
	return out
}
