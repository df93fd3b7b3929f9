package causelist

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// caseReferencePattern recognizes the case number forms that appear in cause
// lists: "TYPE 123/2024", a bare "123/2024", or a 16-character CNR token.
var caseReferencePattern = regexp.MustCompile(`(?i)\b(?:[A-Z]{2,6}[.\s]*\d{1,6}\s*/\s*(?:19|20)\d{2}|\d{1,6}\s*/\s*(?:19|20)\d{2}|[A-Z]{4}[A-Z0-9]{12})\b`)

// courtHeadingPattern recognizes court-name headings in flowing text.
var courtHeadingPattern = regexp.MustCompile(`(?i)\b((?:district|high|sessions|magistrate|civil|family)\s+court[^,\n]*|court\s+(?:no\.?|of)\s*[^,\n]*)`)

// leadingSerialPattern captures a serial number at the start of a line.
var leadingSerialPattern = regexp.MustCompile(`^\s*(\d{1,4})[.)\s]`)

// columnRole names the listing columns the parser maps cells onto.
type columnRole string

const (
	columnSerial  columnRole = "serial"
	columnCase    columnRole = "case"
	columnParties columnRole = "parties"
	columnCourt   columnRole = "court"
	columnPDF     columnRole = "pdf"
)

// headerAliases maps header-cell text fragments to column roles.
var headerAliases = []struct {
	fragment string
	role     columnRole
}{
	{"sr", columnSerial},
	{"sl", columnSerial},
	{"s.no", columnSerial},
	{"serial", columnSerial},
	{"cnr", columnCase},
	{"case", columnCase},
	{"parties", columnParties},
	{"party", columnParties},
	{"versus", columnParties},
	{"petitioner", columnParties},
	{"court", columnCourt},
	{"judge", columnCourt},
	{"coram", columnCourt},
	{"pdf", columnPDF},
	{"view", columnPDF},
	{"download", columnPDF},
}

// positionalRoles is the column order assumed when no header row is
// recognizable: serial, case, parties, court.
var positionalRoles = []columnRole{columnSerial, columnCase, columnParties, columnCourt}

// ParseResult carries the materialized rows plus a degradation flag set when
// non-empty content yielded no recognizable structure at all. Zero rows from
// well-formed but empty markup is not degradation; an empty listing is a
// legitimate outcome.
type ParseResult struct {
	// Rows are the normalized listing rows in document order.
	Rows []ListingRow

	// Degraded is true when the content was non-empty but no tabular
	// structure or case-like text lines were found.
	Degraded bool
}

// ParseListing converts raw fetched content into normalized listing rows.
// HTML is extracted structurally (tables first, flowing text as fallback);
// PDF content is treated as opaque text and line-scanned. The function never
// fails: unusable content produces zero rows.
func ParseListing(content []byte, kind ContentKind, baseURL string) ParseResult {
	if kind == ContentNone || len(content) == 0 {
		return ParseResult{}
	}

	if kind == ContentPDF {
		rows := parseTextRows(string(content))
		return ParseResult{Rows: rows, Degraded: len(rows) == 0}
	}

	document, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		rows := parseTextRows(string(content))
		return ParseResult{Rows: rows, Degraded: len(rows) == 0}
	}

	extraction := newTableExtraction(baseURL)
	extraction.walk(document)

	if extraction.sawTable {
		return ParseResult{Rows: extraction.rows}
	}

	// No tabular markup at all: fall back to scanning the page text.
	rows := parseTextRows(documentText(document))
	return ParseResult{Rows: rows, Degraded: len(rows) == 0}
}

// tableExtraction accumulates rows while walking the document in order,
// tracking the most recent heading as the prevailing court name.
type tableExtraction struct {
	baseURL      *url.URL
	rows         []ListingRow
	sawTable     bool
	currentCourt string
}

func newTableExtraction(baseURL string) *tableExtraction {
	parsedBase, err := url.Parse(baseURL)
	if err != nil {
		parsedBase = nil
	}
	return &tableExtraction{baseURL: parsedBase}
}

func (extraction *tableExtraction) walk(node *html.Node) {
	if node.Type == html.ElementNode {
		switch node.Data {
		case "h1", "h2", "h3", "strong":
			heading := collapseWhitespace(textContent(node))
			if heading != "" {
				extraction.currentCourt = heading
			}
		case "table":
			extraction.sawTable = true
			extraction.extractTable(node)
			return // cells already consumed; do not descend again
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		extraction.walk(child)
	}
}

// extractTable maps one table's rows onto ListingRow values. The first row
// whose cells match at least two header aliases establishes the column
// mapping; otherwise the positional fallback applies. Rows without a
// recognizable case reference are discarded (section headers, spacers).
func (extraction *tableExtraction) extractTable(tableNode *html.Node) {
	tableRows := collectTableRows(tableNode)
	if len(tableRows) == 0 {
		return
	}

	columnMap, headerRowIndex := detectHeaderRow(tableRows)
	for rowIndex, cells := range tableRows {
		if rowIndex == headerRowIndex {
			continue
		}
		if row, ok := extraction.buildRow(cells, columnMap); ok {
			extraction.rows = append(extraction.rows, row)
		}
	}
}

// buildRow maps one row's cells through the column mapping.
func (extraction *tableExtraction) buildRow(cells []tableCell, columnMap map[int]columnRole) (ListingRow, bool) {
	row := ListingRow{CourtName: extraction.currentCourt}

	for cellIndex, cell := range cells {
		role, mapped := columnMap[cellIndex]
		if !mapped {
			continue
		}
		switch role {
		case columnSerial:
			row.SerialNumber = parseSerial(cell.text)
		case columnCase:
			row.CaseReference = cell.text
		case columnParties:
			row.PartiesText = cell.text
		case columnCourt:
			if cell.text != "" {
				row.CourtName = cell.text
			}
		case columnPDF:
			if cell.link != "" {
				row.PDFLink = extraction.resolveLink(cell.link)
			}
		}
		// A PDF link can live in any column; keep the first one seen.
		if row.PDFLink == "" && cell.link != "" && strings.HasSuffix(strings.ToLower(cell.link), ".pdf") {
			row.PDFLink = extraction.resolveLink(cell.link)
		}
	}

	if !caseReferencePattern.MatchString(row.CaseReference) {
		return ListingRow{}, false
	}
	return row, true
}

func (extraction *tableExtraction) resolveLink(href string) string {
	if extraction.baseURL == nil {
		return href
	}
	reference, err := url.Parse(href)
	if err != nil {
		return href
	}
	return extraction.baseURL.ResolveReference(reference).String()
}

// tableCell is one cell's collapsed text and first hyperlink.
type tableCell struct {
	text string
	link string
}

// collectTableRows gathers the cell grid of a table node.
func collectTableRows(tableNode *html.Node) [][]tableCell {
	var rows [][]tableCell

	var walkRows func(*html.Node)
	walkRows = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "tr" {
			var cells []tableCell
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				if child.Type == html.ElementNode && (child.Data == "td" || child.Data == "th") {
					cells = append(cells, tableCell{
						text: collapseWhitespace(textContent(child)),
						link: firstLink(child),
					})
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walkRows(child)
		}
	}
	walkRows(tableNode)

	return rows
}

// detectHeaderRow looks for a header row within the first few rows and
// returns the column mapping it establishes. When no row matches at least
// two aliases, the positional fallback mapping is returned with no header
// row index (-1).
func detectHeaderRow(tableRows [][]tableCell) (map[int]columnRole, int) {
	probeLimit := len(tableRows)
	if probeLimit > 3 {
		probeLimit = 3
	}

	for rowIndex := 0; rowIndex < probeLimit; rowIndex++ {
		columnMap := make(map[int]columnRole)
		for cellIndex, cell := range tableRows[rowIndex] {
			lowered := strings.ToLower(cell.text)
			for _, alias := range headerAliases {
				if strings.Contains(lowered, alias.fragment) {
					if _, taken := columnMap[cellIndex]; !taken {
						columnMap[cellIndex] = alias.role
					}
					break
				}
			}
		}
		if len(columnMap) >= 2 {
			return columnMap, rowIndex
		}
	}

	positional := make(map[int]columnRole, len(positionalRoles))
	for position, role := range positionalRoles {
		positional[position] = role
	}
	return positional, -1
}

// parseTextRows scans opaque text line by line for case-like references,
// tracking court headings as they appear.
func parseTextRows(text string) []ListingRow {
	var rows []ListingRow
	currentCourt := ""

	for _, rawLine := range strings.Split(text, "\n") {
		line := collapseWhitespace(rawLine)
		if line == "" {
			continue
		}

		if heading := courtHeadingPattern.FindString(line); heading != "" {
			currentCourt = strings.TrimSpace(heading)
		}

		reference := caseReferencePattern.FindString(line)
		if reference == "" {
			continue
		}

		row := ListingRow{
			CaseReference: reference,
			PartiesText:   line,
			CourtName:     currentCourt,
		}
		if serialMatch := leadingSerialPattern.FindStringSubmatch(line); serialMatch != nil {
			row.SerialNumber = parseSerial(serialMatch[1])
		}
		rows = append(rows, row)
	}

	return rows
}

// parseSerial extracts a positive serial number from cell text, or 0.
func parseSerial(text string) int {
	digits := strings.TrimFunc(text, func(r rune) bool { return r < '0' || r > '9' })
	if digits == "" {
		return 0
	}
	serial, err := strconv.Atoi(digits)
	if err != nil || serial <= 0 {
		return 0
	}
	return serial
}

// textContent concatenates the text beneath a node.
func textContent(node *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(current *html.Node) {
		if current.Type == html.TextNode {
			builder.WriteString(current.Data)
			builder.WriteString(" ")
		}
		for child := current.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return builder.String()
}

// documentText extracts the whole document's text with line breaks between
// block-ish elements, for the no-table fallback scan.
func documentText(document *html.Node) string {
	var builder strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			builder.WriteString(node.Data)
		}
		if node.Type == html.ElementNode {
			switch node.Data {
			case "script", "style":
				return
			case "p", "div", "br", "tr", "li", "h1", "h2", "h3":
				builder.WriteString("\n")
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(document)
	return builder.String()
}

// firstLink returns the first href beneath a node, or "".
func firstLink(node *html.Node) string {
	if node.Type == html.ElementNode && node.Data == "a" {
		for _, attribute := range node.Attr {
			if attribute.Key == "href" {
				return strings.TrimSpace(attribute.Val)
			}
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if link := firstLink(child); link != "" {
			return link
		}
	}
	return ""
}

// collapseWhitespace trims and collapses runs of whitespace to single spaces.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
