package plot

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const textBarWidth = 40

// WriteText prints h as a horizontal bar chart, one row per bar:
//
//	0  ideal  |                                          0  (0.0%)
//	1  ideal  |######################################## 1024  (100.0%)
func WriteText(w io.Writer, h Histogram) error {
	bw := bufio.NewWriter(w)

	if h.Title != "" {
		fmt.Fprintf(bw, "%s\n", h.Title)
	}
	if len(h.Bars) == 0 {
		fmt.Fprintln(bw, "(no results)")
		return bw.Flush()
	}

	keyWidth, nameWidth := 0, 0
	for _, k := range h.Keys {
		keyWidth = max(keyWidth, len(k))
	}
	for _, n := range h.Series {
		nameWidth = max(nameWidth, len(n))
	}

	for i, b := range h.Bars {
		if i > 0 && b.Key != h.Bars[i-1].Key && len(h.Series) > 1 {
			bw.WriteString("\n")
		}
		name := ""
		if b.Series < len(h.Series) {
			name = h.Series[b.Series]
		}
		filled := int(b.Probability*textBarWidth + 0.5)
		fmt.Fprintf(bw, "%-*s  %-*s  |%s%s %d  (%.1f%%)\n",
			keyWidth, b.Key,
			nameWidth, name,
			strings.Repeat("#", filled),
			strings.Repeat(" ", textBarWidth-filled),
			b.Count,
			b.Probability*100)
	}
	return bw.Flush()
}
