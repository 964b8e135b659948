package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simp-lee/epubcards"
	"github.com/simp-lee/epubcards/chunk"
	"github.com/simp-lee/epubcards/internal/config"
	"github.com/simp-lee/epubcards/internal/output"
)

var (
	layoutWatch    bool
	layoutAt       int
	layoutChapters bool
)

var layoutCmd = &cobra.Command{
	Use:   "layout <book.epub>",
	Short: "Lay a book out as cards for the configured viewport",
	Long: `Lay a book out as cards for the configured viewport.

With --watch the config file is watched; every change relayouts the book and
prints where the reading position given by --at now lands.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		s, err := newSession(doc, cfgManager.Get())
		if err != nil {
			return err
		}

		view := s.View()
		if layoutChapters {
			return output.Write(cmd.OutOrStdout(), format, output.NewChapters(doc.Chapters, view.Resolver.ResolveChapter))
		}
		if !layoutWatch {
			return output.Write(cmd.OutOrStdout(), format, output.NewLayout(view.Layout))
		}

		if !cfgManager.WatchConfig() {
			return errors.New("--watch needs a config file")
		}
		w := cmd.OutOrStdout()
		report := func(v *epubcards.View) error {
			return output.Write(w, format, relayoutReport{
				Cards:        v.Layout.Len(),
				HeightBudget: v.Layout.Params.HeightBudget,
				Original:     layoutAt,
				Display:      v.Resolver.ResolveOriginal(layoutAt),
			})
		}
		if err := report(view); err != nil {
			return err
		}
		cfgManager.OnChange(func(c *config.Config) {
			v, err := relayout(s, c)
			if err != nil {
				logger.Warn("relayout failed", "error", err)
				return
			}
			if err := report(v); err != nil {
				logger.Warn("write report", "error", err)
			}
		})
		logger.Info("watching config", "file", cfgManager.File())
		<-cmd.Context().Done()
		return nil
	},
}

type relayoutReport struct {
	Cards        int     `json:"cards" yaml:"cards"`
	HeightBudget float64 `json:"height_budget" yaml:"height_budget"`
	Original     int     `json:"original" yaml:"original"`
	Display      int     `json:"display" yaml:"display"`
}

func init() {
	layoutCmd.Flags().BoolVar(&layoutWatch, "watch", false, "relayout whenever the config file changes")
	layoutCmd.Flags().IntVar(&layoutAt, "at", 0, "original chunk index to track across relayouts")
	layoutCmd.Flags().BoolVar(&layoutChapters, "chapters", false, "print the chapter list with card indices instead")
}

// newSession lays doc out once for cfg.
func newSession(doc *epubcards.Document, cfg *config.Config) (*epubcards.Session, error) {
	m, err := cfg.Measurer()
	if err != nil {
		return nil, err
	}
	defer m.Close()
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	return epubcards.NewSession(doc, p, m.Measure), nil
}

// relayout replaces the session's view with one for cfg.
func relayout(s *epubcards.Session, cfg *config.Config) (*epubcards.View, error) {
	m, err := cfg.Measurer()
	if err != nil {
		return nil, fmt.Errorf("measurer: %w", err)
	}
	defer m.Close()
	p, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	return s.Relayout(p, m.Measure), nil
}

// cardText returns a one-line preview of a card.
func cardText(c chunk.Display, limit int) string {
	if c.Kind == chunk.KindImage {
		return fmt.Sprintf("[image, %d bytes]", len(c.Image))
	}
	r := []rune(c.Text)
	if len(r) > limit {
		return string(r[:limit]) + "..."
	}
	return c.Text
}
