package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/escience/sitebot/internal/domain"
	"github.com/escience/sitebot/internal/service"
	"github.com/escience/sitebot/internal/storage"
	"github.com/spf13/cobra"
)

func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage the knowledge base",
		Long:  "Ingest, list, search and delete knowledge chunks directly against the database",
	}

	cmd.AddCommand(KnowledgeIngestCmd())
	cmd.AddCommand(KnowledgeListCmd())
	cmd.AddCommand(KnowledgeDeleteCmd())
	cmd.AddCommand(KnowledgeSearchCmd())
	cmd.AddCommand(KnowledgeArchiveCmd())
	cmd.AddCommand(KnowledgeReembedCmd())

	return cmd
}

func KnowledgeIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file|->",
		Short: "Chunk, embed and store a text document",
		Long:  "Read a text document from a file (or stdin with -), split it into chunks, embed each chunk and store it",
		Args:  cobra.ExactArgs(1),
		RunE:  runKnowledgeIngest,
	}

	cmd.Flags().StringP("source", "s", "", "Source label stored in chunk metadata (default manual_upload)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runKnowledgeIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	source, _ := cmd.Flags().GetString("source")
	outputFormat, _ := cmd.Flags().GetString("output")

	content, err := readDocument(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	a, err := connect(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.knowledgeService().Upload(ctx, service.UploadInput{
		Content: content,
		Source:  source,
	})
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	return printUploadResult(cmd.OutOrStdout(), result, outputFormat)
}

func readDocument(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return string(data), nil
}

func printUploadResult(w io.Writer, result *service.UploadResult, outputFormat string) error {
	if outputFormat == "json" {
		return writeJSON(w, map[string]any{
			"success":       true,
			"chunksCreated": result.ChunksCreated,
			"chunkIds":      result.ChunkIDs,
			"archiveKey":    result.ArchiveKey,
		})
	}

	fmt.Fprintf(w, "Chunks created: %d\n", result.ChunksCreated)
	if result.ArchiveKey != "" {
		fmt.Fprintf(w, "Archived as: %s\n", result.ArchiveKey)
	}
	return nil
}

func KnowledgeListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List knowledge chunks",
		Long:  "List every stored knowledge chunk, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			outputFormat, _ := cmd.Flags().GetString("output")

			a, err := connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			chunks, err := a.knowledgeService().List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list knowledge: %w", err)
			}
			return printChunks(cmd.OutOrStdout(), chunks, outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func printChunks(w io.Writer, chunks []*domain.KnowledgeChunk, outputFormat string) error {
	if outputFormat == "json" {
		data := make([]map[string]any, len(chunks))
		for i, c := range chunks {
			data[i] = map[string]any{
				"id":           c.ID,
				"content":      c.Content,
				"metadata":     c.Metadata,
				"hasEmbedding": c.HasEmbedding(),
				"createdAt":    c.CreatedAt,
			}
		}
		return writeJSON(w, data)
	}

	if len(chunks) == 0 {
		fmt.Fprintln(w, "No knowledge chunks found")
		return nil
	}
	fmt.Fprintln(w, "Knowledge chunks:")
	for _, c := range chunks {
		marker := ""
		if !c.HasEmbedding() {
			marker = " [no embedding]"
		}
		fmt.Fprintf(w, "  %s (%s, %s)%s: %s\n",
			c.ID, c.Metadata.Source(), c.CreatedAt.Format("2006-01-02 15:04:05"), marker, preview(c.Content, 60))
	}
	return nil
}

func KnowledgeDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a knowledge chunk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.knowledgeService().Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete chunk: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted chunk %s\n", args[0])
			return nil
		},
	}
}

func KnowledgeSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Rank knowledge chunks against a query",
		Long:  "Embed the query and print the most similar chunks with their cosine scores",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			k, _ := cmd.Flags().GetInt("top")
			outputFormat, _ := cmd.Flags().GetString("output")

			a, err := connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			hits, err := a.searchService().Search(ctx, strings.Join(args, " "), k)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return printHits(cmd.OutOrStdout(), hits, outputFormat)
		},
	}

	cmd.Flags().IntP("top", "k", service.DefaultSearchLimit, "Number of chunks to return")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func printHits(w io.Writer, hits []service.ScoredChunk, outputFormat string) error {
	if outputFormat == "json" {
		return writeJSON(w, hits)
	}

	if len(hits) == 0 {
		fmt.Fprintln(w, "No matching chunks")
		return nil
	}
	for i, h := range hits {
		fmt.Fprintf(w, "%d. %.4f %s: %s\n", i+1, h.Score, h.ID, preview(h.Content, 80))
	}
	return nil
}

func KnowledgeArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive <key>",
		Short: "Print or remove an archived source document",
		Long:  "Print the original text of an upload by its archive key, a temporary download URL with --url, or remove it with --delete. Chunks created from the document are kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			asURL, _ := cmd.Flags().GetBool("url")
			remove, _ := cmd.Flags().GetBool("delete")

			a, err := connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.archive == nil {
				return errors.New("document archive not configured: SITEBOT_S3_ENDPOINT required")
			}

			if remove {
				if err := a.archive.DeleteDocument(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted archived document %s\n", args[0])
				return nil
			}

			if asURL {
				url, err := a.archive.GenerateDownloadURL(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to generate download URL: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), url)
				return nil
			}

			content, err := a.archive.FetchDocument(ctx, args[0])
			if errors.Is(err, storage.ErrDocumentNotFound) {
				return fmt.Errorf("no archived document at %q", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to fetch document: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		},
	}

	cmd.Flags().Bool("url", false, "Print a presigned download URL instead of the content")
	cmd.Flags().Bool("delete", false, "Remove the archived document")
	cmd.MarkFlagsMutuallyExclusive("url", "delete")

	return cmd
}

func KnowledgeReembedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reembed",
		Short: "Embed chunks stored without an embedding",
		Long:  "Run one backfill pass over chunks that have no embedding and are therefore invisible to search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			a, err := connect(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.configured {
				return domain.ErrProviderNotConfigured
			}

			stats, err := a.backfillWorker().RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Embedded: %d, failed: %d\n", stats.Embedded, stats.Failed)
			return nil
		},
	}
}

func connect(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openApp(ctx, cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
