package epub

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuanying/epub2txt/internal/xhtml"
)

// ParseNCX reads the navigation map of an NCX document. Every navPoint must
// carry a navLabel/text title and a content src; nested points are returned
// in document order after their parent.
func ParseNCX(content, ncxPath string) ([]NavPoint, error) {
	navMap, err := requireFirst(content, "navMap")
	if err != nil {
		return nil, err
	}

	var points []NavPoint
	it := navMap.Iter()
	for {
		nav, ok, err := it.NextByEl("navPoint")
		if err != nil {
			return nil, fmt.Errorf("failed to scan navMap: %w", err)
		}
		if !ok {
			break
		}
		point, err := parseNavPoint(nav, ncxPath)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, nil
}

func parseNavPoint(nav xhtml.Tag, ncxPath string) (NavPoint, error) {
	label, err := requireChild(nav, "navLabel")
	if err != nil {
		return NavPoint{}, err
	}
	text, err := requireChild(label, "text")
	if err != nil {
		return NavPoint{}, err
	}
	_, title, err := text.End()
	if err != nil {
		return NavPoint{}, fmt.Errorf("failed to read navLabel text: %w", err)
	}

	content, err := requireChild(nav, "content")
	if err != nil {
		return NavPoint{}, err
	}
	src, err := requireAttr(content, "src")
	if err != nil {
		return NavPoint{}, err
	}
	contentPath, fragment := splitFragment(xhtml.Unescape(src))

	id, _, err := nav.Attr("id")
	if err != nil {
		return NavPoint{}, err
	}
	order, _, err := nav.Attr("playOrder")
	if err != nil {
		return NavPoint{}, err
	}
	playOrder, _ := strconv.Atoi(order)

	return NavPoint{
		ID:          id,
		PlayOrder:   playOrder,
		Label:       strings.TrimSpace(xhtml.Unescape(title)),
		ContentPath: resolvePath(ncxPath, contentPath),
		Fragment:    fragment,
	}, nil
}

func requireChild(parent xhtml.Tag, name string) (xhtml.Tag, error) {
	child, ok, err := parent.FirstChild(name)
	if err != nil {
		return xhtml.Tag{}, fmt.Errorf("failed to find <%s> in <%s>: %w", name, parent.Name, err)
	}
	if !ok {
		return xhtml.Tag{}, fmt.Errorf("%w: <%s> in <%s>", ErrMissingElement, name, parent.Name)
	}
	return child, nil
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}
