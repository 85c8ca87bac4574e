package harvest

import (
	"io"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/cognicore/cnoc/pkg/cnoc/occupation"
)

// minCells is the width of an occupation row in the listing tables.
const minCells = 8

// ParseTables extracts occupation rows from every table in an HTML page.
// Header, footer and pager rows are skipped: a row qualifies only when it has
// at least eight cells and its first cell is a serial number.
func ParseTables(r io.Reader) ([]occupation.Record, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var records []occupation.Record
	for _, table := range findAll(doc, "table") {
		for _, tr := range tableRows(table) {
			cells := rowCells(tr)
			if len(cells) < minCells || !isSerial(cells[0]) {
				continue
			}
			records = append(records, occupation.Record{
				Serial:      cells[0],
				Title:       cells[1],
				Code2015:    cells[2],
				Code2004:    cells[3],
				Division:    cells[4],
				SubDivision: cells[5],
				Group:       cells[6],
				Family:      cells[7],
			})
		}
	}
	return records, nil
}

func findAll(n *html.Node, tag string) []*html.Node {
	var results []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			results = append(results, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return results
}

// tableRows returns the rows of table, leaving rows of nested tables to their own pass.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				continue
			case "tr":
				rows = append(rows, c)
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, nodeText(c))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

func isSerial(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
