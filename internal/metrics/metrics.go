// Package metrics turns the free-text reply of the text generator into
// chart-ready metric blocks. The generator is only asked to follow the
// "### Title" / "Label: Value%" layout; this package is the enforcement
// point, so it must accept arbitrary text and never fail.
package metrics

import (
	"regexp"
	"strconv"
	"strings"
)

// Block is one named category with parallel label/value sequences.
// len(Labels) == len(Values) always holds for blocks produced here.
type Block struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// Document is the ordered collection of blocks from one extraction.
type Document []Block

// marker opens a new category line in the generator's reply.
const marker = "###"

// Options control the parts of the scan the upstream variants disagree on.
type Options struct {
	// BlankLineClosesCategory flushes the open category on an empty
	// line instead of skipping it.
	BlankLineClosesCategory bool

	// Fallback replaces an empty result. Nil means FallbackEN.
	Fallback Document
}

var digitRun = regexp.MustCompile(`\d+`)

// FallbackEN is the deterministic placeholder document returned when
// nothing in the reply parses.
var FallbackEN = Document{{
	Title:  "Default Metrics",
	Labels: []string{"Data Point A", "Data Point B", "Data Point C"},
	Values: []int{65, 75, 85},
}}

// FallbackZH is the Simplified Chinese placeholder document.
var FallbackZH = Document{{
	Title:  "默认指标",
	Labels: []string{"指标A", "指标B"},
	Values: []int{50, 75},
}}

// FallbackZHTW is the Traditional Chinese placeholder document.
var FallbackZHTW = Document{{
	Title:  "預設指標",
	Labels: []string{"指標A", "指標B"},
	Values: []int{50, 75},
}}

// Extract parses text into a Document and guarantees a non-empty result:
// if no block survives the scan, the fallback document is returned. It
// never returns an error; unparseable lines are dropped.
func Extract(text string, opts Options) Document {
	doc := Parse(text, opts)
	if len(doc) == 0 {
		if opts.Fallback != nil {
			return opts.Fallback
		}
		return FallbackEN
	}
	return doc
}

// Parse runs the line scan and may return an empty document. Category
// order follows first appearance; pairs keep input order.
func Parse(text string, opts Options) Document {
	var (
		doc    Document
		title  string
		labels []string
		values []int
	)

	flush := func() {
		// Categories with no surviving pairs are dropped, as is
		// anything accumulated before the first marker line.
		if title != "" && len(labels) > 0 {
			doc = append(doc, Block{Title: title, Labels: labels, Values: values})
		}
		labels, values = nil, nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			if opts.BlankLineClosesCategory {
				flush()
				title = ""
			}
		case strings.HasPrefix(line, marker):
			flush()
			title = strings.TrimSpace(strings.ReplaceAll(line, marker, ""))
		case strings.Contains(line, ":"):
			label, rest, _ := strings.Cut(line, ":")
			run := digitRun.FindString(rest)
			if run == "" {
				continue
			}
			v, err := strconv.Atoi(run)
			if err != nil {
				// Digit run too long for an int; treat like any
				// other unparseable metric line.
				continue
			}
			labels = append(labels, strings.TrimSpace(label))
			values = append(values, v)
		}
	}
	flush()

	return doc
}

// Pairs flattens the document into "Label: Value%" strings, the shape the
// narrative summary prompt embeds. A non-positive max keeps every pair.
func (d Document) Pairs(max int) []string {
	var out []string
	for _, b := range d {
		for i, label := range b.Labels {
			if i >= len(b.Values) {
				break
			}
			out = append(out, label+": "+strconv.Itoa(b.Values[i])+"%")
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
