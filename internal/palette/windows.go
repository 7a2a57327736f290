package palette

import (
	"fmt"
	"strconv"
	"strings"
)

// Row describes one window offered in the menu.
type Row struct {
	ID      uint32
	Title   string
	Class   string
	Desktop int
	Pinned  bool
}

// TagReleaseAll is returned when the user picks the release-all action.
const TagReleaseAll = "release-all"

const windowTagPrefix = "window:"

// WindowTag encodes a window ID as an item tag.
func WindowTag(id uint32) string {
	return fmt.Sprintf("%s%#x", windowTagPrefix, id)
}

// ParseWindowTag decodes a tag produced by WindowTag.
func ParseWindowTag(tag string) (uint32, bool) {
	if !strings.HasPrefix(tag, windowTagPrefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(tag, windowTagPrefix), 0, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

// BuildWindowMenu lays out the toggle menu: pinned windows first (marked
// active), then the rest, then a release-all action when anything is
// pinned. Headers are emitted only for backends that can render them as
// non-selectable rows.
func BuildWindowMenu(rows []Row, caps Capabilities) []Item {
	var pinned, normal []Row
	for _, row := range rows {
		if row.Pinned {
			pinned = append(pinned, row)
		} else {
			normal = append(normal, row)
		}
	}

	items := make([]Item, 0, len(rows)+3)
	if caps.NonSelectable && len(pinned) > 0 {
		items = append(items, Item{Label: "Pinned", IsHeader: true})
	}
	for _, row := range pinned {
		items = append(items, windowItem(row))
	}
	if caps.NonSelectable && len(pinned) > 0 && len(normal) > 0 {
		items = append(items, Item{Label: "Windows", IsHeader: true})
	}
	for _, row := range normal {
		items = append(items, windowItem(row))
	}
	if len(pinned) > 0 {
		if caps.NonSelectable {
			items = append(items, Item{Label: "─", IsDivider: true})
		}
		items = append(items, Item{
			Label: "Release all pinned windows",
			Tag:   TagReleaseAll,
			Icon:  "edit-undo",
		})
	}
	return items
}

func windowItem(row Row) Item {
	label := row.Title
	if label == "" {
		label = fmt.Sprintf("%#x", row.ID)
	}
	if row.Class != "" {
		label = fmt.Sprintf("%s [%s]", label, row.Class)
	}
	if row.Pinned {
		label = "📌 " + label
	}
	return Item{
		Label:    label,
		Tag:      WindowTag(row.ID),
		Icon:     strings.ToLower(row.Class),
		Meta:     fmt.Sprintf("%s %d", row.Class, row.Desktop),
		IsActive: row.Pinned,
	}
}
