package run

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/srerickson/objpath"
)

// max width for size: "999.99 GB"
var sizeStyle = lipgloss.NewStyle().
	Width(10).
	Align(lipgloss.Right)

var timeStyle = lipgloss.NewStyle().
	Width(22).
	PaddingLeft(1).
	Foreground(lipgloss.Color("#999999"))

var tagStyle = lipgloss.NewStyle().
	Width(40).
	Foreground(lipgloss.Color("#999999"))

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// longEntry formats a file for ls --long
func longEntry(p objpath.PathInfo, info *objpath.ObjectInfo) string {
	return sizeStyle.Render(formatSize(info.Size)) +
		timeStyle.Render(info.ModTime.UTC().Format(time.RFC3339)) +
		tagStyle.Render(info.ETag) +
		" " + p.String()
}

func formatSize(size int64) string {
	n, unit := scaleSize(float64(size))
	if unit == sizeUnits[0] {
		return fmt.Sprintf("%d %s", size, unit)
	}
	return fmt.Sprintf("%.2f %s", n, unit)
}

func scaleSize(n float64) (float64, string) {
	unit := sizeUnits[0]
	for _, u := range sizeUnits[1:] {
		if n < 1000 {
			break
		}
		n = n / 1000
		unit = u
	}
	return n, unit
}
