package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/simp-lee/epubcards/internal/output"
	"github.com/simp-lee/epubcards/navigate"
)

const previewRunes = 80

type cardHit struct {
	Display int    `json:"display" yaml:"display"`
	First   int    `json:"first_original" yaml:"first_original"`
	Last    int    `json:"last_original" yaml:"last_original"`
	Preview string `json:"preview" yaml:"preview"`
}

func hit(r *navigate.Resolver, display int) cardHit {
	first, last, _ := r.DisplayRange(display)
	return cardHit{
		Display: display,
		First:   first,
		Last:    last,
		Preview: cardText(r.Layout().Chunks[display], previewRunes),
	}
}

var findCmd = &cobra.Command{
	Use:   "find <book.epub> <query>",
	Short: "List the cards containing a phrase (case-insensitive)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openResolver(args[0])
		if err != nil {
			return err
		}
		hits := []cardHit{}
		for _, d := range r.Find(args[1]) {
			hits = append(hits, hit(r, d))
		}
		return output.Write(cmd.OutOrStdout(), format, hits)
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto <book.epub> <target>",
	Short: "Resolve an original index, an href or an #anchor to a card",
	Long: `Resolve a target to the card that shows it.

A number is an original chunk index and is clamped into range. Anything else
is treated as an internal link such as "chapter2.xhtml#note3" or "#top".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openResolver(args[0])
		if err != nil {
			return err
		}
		if r.Layout().Len() == 0 {
			return fmt.Errorf("book has no cards")
		}
		target := args[1]
		var display int
		if n, err := strconv.Atoi(target); err == nil {
			display = r.ResolveOriginal(n)
		} else {
			var ok bool
			if display, ok = r.ResolveHref(target); !ok {
				return fmt.Errorf("cannot resolve %q", target)
			}
		}
		return output.Write(cmd.OutOrStdout(), format, hit(r, display))
	},
}

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks <book.epub> <bookmarks.yaml>",
	Short: "Place saved bookmarks in the current layout",
	Long: `Place saved bookmarks in the current layout.

The bookmarks file is a YAML or JSON list of {index, label} entries, where
index is an original chunk index. Indices from another edition are clamped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		var marks []navigate.Bookmark
		if err := yaml.Unmarshal(data, &marks); err != nil {
			return fmt.Errorf("parse %s: %w", args[1], err)
		}
		r, err := openResolver(args[0])
		if err != nil {
			return err
		}
		placements := r.ResolveBookmarks(marks)
		if placements == nil {
			placements = []navigate.Placement{}
		}
		return output.Write(cmd.OutOrStdout(), format, placements)
	},
}

// openResolver loads a book and lays it out with the current config.
func openResolver(path string) (*navigate.Resolver, error) {
	doc, err := loadDocument(path)
	if err != nil {
		return nil, err
	}
	s, err := newSession(doc, cfgManager.Get())
	if err != nil {
		return nil, err
	}
	return s.View().Resolver, nil
}
