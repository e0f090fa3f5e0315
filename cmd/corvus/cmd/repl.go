package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/corvusdb/corvus/internal/index"
	"github.com/corvusdb/corvus/internal/output"
	"github.com/corvusdb/corvus/internal/search"
	"github.com/corvusdb/corvus/internal/store"
)

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session against a fresh in-memory core",
		Long: `repl is the primary operator surface for the corvus core: it keeps one
store and search engine alive for the session and lets you drive every
operation (library/document/chunk CRUD, index, search, search-hybrid, stats)
from stdin. State does not survive past the session, matching the core's
no-persistence design.

Type 'help' inside the session for the command grammar.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			return runREPL(cmd, a)
		},
	}
}

func runREPL(cmd *cobra.Command, a *app) error {
	out := output.New(cmd.OutOrStdout())
	out.Status("", "corvus repl — type 'help' for commands, 'exit' to quit")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		out.Status("", "corvus>")
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if err := dispatch(ctx, out, a, line); err != nil {
			out.Errorf("%v", err)
		}
	}
}

// fields splits s into at most n space-separated tokens, the last of which
// absorbs any remaining text (so free-text arguments like a chunk's body or
// a search query can contain spaces).
func fields(s string, n int) []string {
	return strings.SplitN(strings.TrimSpace(s), " ", n)
}

func dispatch(ctx context.Context, out *output.Writer, a *app, line string) error {
	parts := fields(line, 2)
	verb := parts[0]
	rest := ""
	if len(parts) > 1 {
		rest = parts[1]
	}

	switch verb {
	case "help":
		printHelp(out)
		return nil
	case "library":
		return dispatchLibrary(a, out, rest)
	case "document":
		return dispatchDocument(a, out, rest)
	case "chunk":
		return dispatchChunk(a, out, rest)
	case "index":
		return dispatchIndex(ctx, a, out, rest)
	case "search":
		return dispatchSearch(ctx, a, out, rest)
	case "search-hybrid":
		return dispatchSearchHybrid(ctx, a, out, rest)
	default:
		return fmt.Errorf("unknown command %q, type 'help'", verb)
	}
}

func printHelp(out *output.Writer) {
	out.Status("", "commands:")
	out.Status("", "  library create <name>")
	out.Status("", "  library list")
	out.Status("", "  library get <id>")
	out.Status("", "  library delete <id>")
	out.Status("", "  library stats <id>")
	out.Status("", "  document create <library_id> <title...>")
	out.Status("", "  document list <library_id>")
	out.Status("", "  document get <id>")
	out.Status("", "  document delete <id>")
	out.Status("", "  chunk create <document_id> <source> <v1,v2,...> <text...>")
	out.Status("", "  chunk get <id>")
	out.Status("", "  chunk delete <id>")
	out.Status("", "  index <library_id> <flat|rp_lsh|hierarchical>")
	out.Status("", "  search <library_id> <k> <v1,v2,...>")
	out.Status("", "  search-hybrid <library_id> <k> <v1,v2,...> <query text...>")
	out.Status("", "  exit")
}

func parseVector(csv string) ([]float64, error) {
	parts := strings.Split(csv, ",")
	v := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", p, err)
		}
		v[i] = f
	}
	return v, nil
}

func dispatchLibrary(a *app, out *output.Writer, rest string) error {
	parts := fields(rest, 2)
	sub := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch sub {
	case "create":
		if arg == "" {
			return fmt.Errorf("usage: library create <name>")
		}
		id, err := a.store.CreateLibrary(store.LibraryMetadata{Name: arg})
		if err != nil {
			return err
		}
		out.Successf("created library %s", id)
		return nil
	case "list":
		for _, lib := range a.store.ListLibraries() {
			out.Status("", fmt.Sprintf("%s  %s  indexed=%v", lib.ID, lib.Metadata.Name, lib.IsIndexed))
		}
		return nil
	case "get":
		lib, err := a.store.GetLibrary(arg)
		if err != nil {
			return err
		}
		out.Status("", fmt.Sprintf("%+v", lib))
		return nil
	case "delete":
		if err := a.store.DeleteLibrary(arg); err != nil {
			return err
		}
		out.Success("deleted")
		return nil
	case "stats":
		stats, err := a.store.LibraryStats(arg)
		if err != nil {
			return err
		}
		out.Status("", fmt.Sprintf("%+v", stats))
		return nil
	default:
		return fmt.Errorf("unknown library subcommand %q", sub)
	}
}

func dispatchDocument(a *app, out *output.Writer, rest string) error {
	parts := fields(rest, 2)
	sub := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch sub {
	case "create":
		args := fields(arg, 2)
		if len(args) < 2 {
			return fmt.Errorf("usage: document create <library_id> <title>")
		}
		id, err := a.store.CreateDocument(args[0], store.DocumentMetadata{Title: args[1]})
		if err != nil {
			return err
		}
		out.Successf("created document %s", id)
		return nil
	case "list":
		docs, err := a.store.ListDocuments(arg)
		if err != nil {
			return err
		}
		for _, d := range docs {
			out.Status("", fmt.Sprintf("%s  %s  chunks=%d", d.ID, d.Metadata.Title, len(d.ChunkIDs)))
		}
		return nil
	case "get":
		doc, err := a.store.GetDocument(arg)
		if err != nil {
			return err
		}
		out.Status("", fmt.Sprintf("%+v", doc))
		return nil
	case "delete":
		if err := a.store.DeleteDocument(arg); err != nil {
			return err
		}
		out.Success("deleted")
		return nil
	default:
		return fmt.Errorf("unknown document subcommand %q", sub)
	}
}

func dispatchChunk(a *app, out *output.Writer, rest string) error {
	parts := fields(rest, 2)
	sub := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch sub {
	case "create":
		args := fields(arg, 4)
		if len(args) < 4 {
			return fmt.Errorf("usage: chunk create <document_id> <source> <v1,v2,...> <text>")
		}
		documentID, source, vectorCSV, text := args[0], args[1], args[2], args[3]
		vector, err := parseVector(vectorCSV)
		if err != nil {
			return err
		}
		id, err := a.store.CreateChunk(documentID, text, vector, store.ChunkMetadata{Source: source})
		if err != nil {
			return err
		}
		out.Successf("created chunk %s", id)
		return nil
	case "get":
		chunk, err := a.store.GetChunk(arg)
		if err != nil {
			return err
		}
		out.Status("", fmt.Sprintf("%+v", chunk))
		return nil
	case "delete":
		if err := a.store.DeleteChunk(arg); err != nil {
			return err
		}
		out.Success("deleted")
		return nil
	default:
		return fmt.Errorf("unknown chunk subcommand %q", sub)
	}
}

func dispatchIndex(ctx context.Context, a *app, out *output.Writer, rest string) error {
	args := fields(rest, 2)
	if len(args) < 2 {
		return fmt.Errorf("usage: index <library_id> <flat|rp_lsh|hierarchical>")
	}
	libraryID, typStr := args[0], args[1]

	typ, err := index.ParseType(typStr)
	if err != nil {
		return err
	}
	if err := a.engine.IndexLibrary(ctx, libraryID, typ, a.cfg.ParamsFor(typ)); err != nil {
		return err
	}
	out.Successf("indexed library %s as %s", libraryID, typ)
	return nil
}

func dispatchSearch(ctx context.Context, a *app, out *output.Writer, rest string) error {
	args := fields(rest, 3)
	if len(args) < 3 {
		return fmt.Errorf("usage: search <library_id> <k> <v1,v2,...>")
	}
	libraryID, kStr, vectorCSV := args[0], args[1], args[2]

	k, err := strconv.Atoi(kStr)
	if err != nil {
		return fmt.Errorf("invalid k %q: %w", kStr, err)
	}
	vector, err := parseVector(vectorCSV)
	if err != nil {
		return err
	}

	results, err := a.engine.Search(ctx, libraryID, vector, k, search.Filter{})
	if err != nil {
		return err
	}
	printResults(out, results)
	return nil
}

func dispatchSearchHybrid(ctx context.Context, a *app, out *output.Writer, rest string) error {
	args := fields(rest, 4)
	if len(args) < 4 {
		return fmt.Errorf("usage: search-hybrid <library_id> <k> <v1,v2,...> <query text>")
	}
	libraryID, kStr, vectorCSV, query := args[0], args[1], args[2], args[3]

	k, err := strconv.Atoi(kStr)
	if err != nil {
		return fmt.Errorf("invalid k %q: %w", kStr, err)
	}
	vector, err := parseVector(vectorCSV)
	if err != nil {
		return err
	}

	results, err := a.engine.SearchHybrid(ctx, libraryID, vector, query, k, search.Filter{})
	if err != nil {
		return err
	}
	printResults(out, results)
	return nil
}

func printResults(out *output.Writer, results []search.Result) {
	if len(results) == 0 {
		out.Status("", "no results")
		return
	}
	for i, r := range results {
		out.Status("", fmt.Sprintf("%d. chunk=%s score=%.4f  %q", i+1, r.Chunk.ID, r.SimilarityScore, snippet(r.Chunk.Text, 60)))
	}
}

func snippet(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "…"
}
