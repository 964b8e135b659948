package main

import (
	"github.com/spf13/cobra"

	"github.com/simp-lee/epubcards"
	"github.com/simp-lee/epubcards/internal/output"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <book.epub>",
	Short: "Show metadata, sections, chapters and warnings for a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		return output.Write(cmd.OutOrStdout(), format, output.NewSummary(doc))
	},
}

var (
	chunksFrom  int
	chunksLimit int
)

var chunksCmd = &cobra.Command{
	Use:   "chunks <book.epub>",
	Short: "Print the original chunks of a book",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadDocument(args[0])
		if err != nil {
			return err
		}
		chunks := doc.Chunks
		from := min(max(chunksFrom, 0), len(chunks))
		to := len(chunks)
		if chunksLimit > 0 {
			to = min(from+chunksLimit, to)
		}
		return output.Write(cmd.OutOrStdout(), format, output.NewOriginals(chunks[from:to]))
	},
}

func init() {
	chunksCmd.Flags().IntVar(&chunksFrom, "from", 0, "first chunk index to print")
	chunksCmd.Flags().IntVar(&chunksLimit, "limit", 0, "maximum number of chunks to print (0: all)")
}

func loadDocument(path string) (*epubcards.Document, error) {
	doc, err := epubcards.LoadFile(path, cfgManager.Get().SegmentOptions())
	if err != nil {
		return nil, err
	}
	for _, w := range doc.Warnings {
		logger.Debug("load warning", "book", path, "warning", w)
	}
	return doc, nil
}
