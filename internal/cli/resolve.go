package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"

	"sessionrecorder/backend/internal/dom"
	"sessionrecorder/backend/internal/selector"
)

// Resolution is the locator inferred for one matched element.
type Resolution struct {
	Locator string
	// Matches counts the elements the locator finds in the page.
	Matches int
	// Found is true when the first element the locator finds is the
	// element it was inferred from, which is the one a replay acts on.
	Found bool
}

// ResolvePage infers a locator for every element of the page matching
// the CSS query and checks each locator against the same page.
func ResolvePage(r io.Reader, query string) ([]Resolution, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	root := doc.Nodes[0]

	var (
		results []Resolution
		findErr error
	)
	doc.Find(query).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Nodes[0]
		locator := selector.Resolve(dom.FromHTML(n, nil))

		var hits []*html.Node
		if selector.IsPath(locator) {
			hits, findErr = htmlquery.QueryAll(root, absolutePath(locator, s))
			if findErr != nil {
				findErr = fmt.Errorf("locator %s: %w", locator, findErr)
				return false
			}
		} else {
			hits = doc.Find(locator).Nodes
		}

		results = append(results, Resolution{
			Locator: locator,
			Matches: len(hits),
			Found:   len(hits) > 0 && hits[0] == n,
		})
		return true
	})
	if findErr != nil {
		return nil, findErr
	}
	return results, nil
}

// absolutePath anchors a positional locator, which is relative to body,
// so it can be evaluated against the whole document.
func absolutePath(locator string, s *goquery.Selection) string {
	if locator == selector.PathPrefix+"body" {
		return locator
	}
	rest := strings.TrimPrefix(locator, selector.PathPrefix)
	if s.ParentsFiltered("body").Length() > 0 {
		return "//body/" + rest
	}
	return "/" + rest
}

// NewResolveCommand creates the resolve command
func NewResolveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <page.html> <css-query>",
		Short: "Show the locators inferred for elements of a saved page",
		Long: `Print the locator the recorder would capture for every element matching
a CSS query, and check that replaying the locator finds the same element.

Examples:
  scriptgen resolve checkout.html "form button"
  scriptgen resolve checkout.html "input[type=text]"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open page: %w", err)
			}
			defer f.Close()

			results, err := ResolvePage(f, args[1])
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("no elements match %q", args[1])
			}

			misses := 0
			for _, r := range results {
				mark := "✓"
				if !r.Found {
					mark = "✗"
					misses++
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%d matches)\n", mark, r.Locator, r.Matches)
			}
			if misses > 0 {
				return fmt.Errorf("%d of %d locators do not find their element first", misses, len(results))
			}
			return nil
		},
	}

	return cmd
}
