package books

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

type marker struct{ start, mid, end string }

// Edition notes such as 【電子限定版】 or 【SS付き】 are dropped.
var notes = []marker{
	{"【", "版", "】"},
	{"【", "付", "】"},
	{"【", "入", "】"},
	{"【", "セット", "】"},
	{"【", "シリーズ", "】"},
	{"【", "小説", "】"},
	{"［", "版", "］"},
	{"〈", "版", "〉"},
	{"(", "版", ")"},
	{"（", "版", "）"},
	{" ", "シリーズ", " "},
}

var droppedWords = []string{"新装版", "(幅広)"}

// Publisher labels are removed from the title and reported separately.
var labels = []marker{
	{"(", "文庫", ")"},
	{"（", "文庫", "）"},
	{"(", "ノベル", ")"},
	{"（", "ノベル", "）"},
	{"(", "ブックス", ")"},
	{"(", "BOOKS", ")"},
	{"(", "NOVELS", ")"},
	{"(", "書庫", ")"},
	{"(", "小説", ")"},
	{"(", "書店", ")"},
	{"(", "キス", ")"},
	{"(", "ファンタジー", ")"},
	{"(", "社", ")"},
	{"(", "文芸", ")"},
	{" ", "文庫", " "},
	{"(", "Kindle Single", ")"},
	{"(", "アイリスNEO", ")"},
	{"(", "サーガフォレスト", ")"},
	{"（", "サーガフォレスト", "）"},
	{"(", "アース・スター ルナ", ")"},
}

// ParseBookTitle strips edition notes and publisher labels from a store
// title. It returns the bare book name and the labels it removed.
func ParseBookTitle(title string) (string, []string) {
	// Pad so that markers delimited by spaces also match at either end.
	title = " " + title + " "

	for _, m := range notes {
		title, _ = remove(title, m)
	}
	for _, w := range droppedWords {
		title = strings.ReplaceAll(title, w, "")
	}

	var found []string
	for _, m := range labels {
		var removed []string
		title, removed = remove(title, m)
		found = append(found, removed...)
	}
	return strings.TrimSpace(title), found
}

// BookName is the title without edition notes and labels.
func BookName(title string) string {
	name, _ := ParseBookTitle(title)
	return name
}

// remove cuts every start...mid...end group out of title, searching from the
// middle part so that the shortest enclosing group is taken.
func remove(title string, m marker) (string, []string) {
	var removed []string
	pos := 0
	for {
		i := strings.Index(title[pos:], m.mid)
		if i < 0 {
			return title, removed
		}
		midIdx := pos + i
		startIdx := strings.LastIndex(title[:midIdx], m.start)
		endIdx := strings.Index(title[midIdx:], m.end)
		if startIdx >= 0 && endIdx >= 0 {
			endIdx += midIdx
			removed = append(removed, title[startIdx+len(m.start):endIdx])
			title = title[:startIdx] + title[endIdx+len(m.end):]
			pos = startIdx
			continue
		}
		pos = midIdx + len(m.mid)
	}
}

// CountVolumes returns how many books an omnibus edition such as
// "…合本版 全３巻" contains, or 1 for a single book or an unreadable count.
func CountVolumes(title string) int {
	if !strings.Contains(title, "合本版") && !strings.Contains(title, "セット") {
		return 1
	}
	_, rest, ok := strings.Cut(title, "全")
	if !ok {
		return 1
	}
	count, _, ok := strings.Cut(rest, "巻")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(width.Fold.String(count)))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
