package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mediread/vault/constants"
	"github.com/mediread/vault/internal/common"
	"github.com/mediread/vault/internal/export"
	"github.com/mediread/vault/internal/extract"
	"github.com/mediread/vault/internal/llm"
	"github.com/mediread/vault/internal/llm/groq"
	"github.com/mediread/vault/internal/pipeline"
	"github.com/mediread/vault/internal/repository"
	"github.com/mediread/vault/internal/textextract"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory of documents to process (required)")
		dbPath  = flag.String("db", "", "vault database path (defaults to DB_URL)")
		out     = flag.String("out", "", "output XLSX path (optional, defaults next to --dir)")
		date    = flag.String("date", "", "document date YYYY-MM-DD applied to every file (skips the per-file prompt)")
		delayMs = flag.Int("advance-delay", 0, "pause in milliseconds after a skipped file")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *date != "" {
		if _, err := time.Parse("2006-01-02", *date); err != nil {
			printError("Error: invalid --date, use YYYY-MM-DD: %v\n", err)
			os.Exit(1)
		}
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "mediread.xlsx")
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()
	if *dbPath != "" {
		cfg.Database.DSN = *dbPath
	}

	db, err := repository.Open(ctx, repository.Config{
		DSN:         cfg.Database.DSN,
		DialTimeout: cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		printError("Error: open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := repository.Migrate(ctx, db); err != nil {
		printError("Error: migrate database: %v\n", err)
		os.Exit(1)
	}
	docs := repository.NewDocumentStore(db, logger)

	textExtractor := textextract.NewExtractor(textextract.Config{
		Pdftotext:     cfg.Text.Pdftotext,
		Tesseract:     cfg.Text.Tesseract,
		TesseractLang: cfg.Text.TesseractLang,
	}, logger)

	var completer llm.Completer
	groqClient := groq.NewClient(groq.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
	if groqClient.Configured() {
		completer = groqClient
	} else {
		fmt.Println("Warning: GROQ_API_KEY not set; records will need manual review.")
	}
	extractor := extract.NewService(completer, logger)

	files, err := scanDirectory(*dir)
	if err != nil {
		printError("Error: scan directory: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No supported documents found.")
		return
	}
	fmt.Printf("Found %d document(s) in %s\n", len(files), *dir)

	opts := []pipeline.Option{
		pipeline.WithProgressFunc(func(prog pipeline.Progress) {
			if prog.StatusText != "" {
				fmt.Printf("  [%3d%%] %s\n", prog.Percent, prog.StatusText)
			}
		}),
	}
	if *delayMs > 0 {
		opts = append(opts, pipeline.WithAdvanceDelay(time.Duration(*delayMs)*time.Millisecond))
	}
	pipe := pipeline.NewPipeline(textExtractor, extractor, docs, logger, opts...)
	if err := pipe.Enqueue(files...); err != nil {
		printError("Error: enqueue: %v\n", err)
		os.Exit(1)
	}

	stdin := bufio.NewScanner(os.Stdin)
	for {
		pend, err := pipe.Next(ctx)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		if pend == nil {
			break
		}

		fmt.Printf("\n=== %s ===\n", pend.FileName)
		printRecord(pend)

		docDate := *date
		if docDate == "" {
			docDate = promptDate(stdin, pend.FileName)
		}
		if docDate == "" {
			if err := pipe.Skip(); err != nil {
				printError("Error: %v\n", err)
			}
			fmt.Println("Skipped.")
			continue
		}
		if err := pipe.Confirm(ctx, pend.Extracted, docDate); err != nil {
			printError("Error: save: %v\n", err)
			continue
		}
		fmt.Println("Saved.")
	}

	prog := pipe.Progress()
	fmt.Printf("\nBatch complete: %d saved, %d skipped of %d file(s)\n",
		prog.SavedCount, len(prog.Results)-prog.SavedCount, prog.TotalFiles)

	if prog.SavedCount > 0 || pipe.DocumentsChanged() {
		exporter := export.NewService(docs, logger)
		xlsx, err := exporter.ExportXLSX(ctx)
		if err != nil {
			printError("Error: export: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsx, 0644); err != nil {
			printError("Error: write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Printf("Exported workbook: %s\n", *out)
	}
}

// scanDirectory collects supported files, non-recursively, in name order.
func scanDirectory(dir string) ([]pipeline.FileInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []pipeline.FileInput
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(e.Name()))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			continue
		}
		files = append(files, pipeline.FileInput{Path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func printRecord(pend *pipeline.Pending) {
	fmt.Printf("Type: %s", pend.Extracted.DocumentType)
	if pend.NeedsReview {
		fmt.Print("  (needs review)")
	}
	fmt.Println()
	b, err := json.MarshalIndent(pend.Extracted, "", "  ")
	if err == nil {
		fmt.Println(string(b))
	}
}

// promptDate asks for the document date; an empty answer or "s" skips
// the file, and a malformed date re-prompts.
func promptDate(stdin *bufio.Scanner, fileName string) string {
	for {
		fmt.Printf("Document date for %s (YYYY-MM-DD, Enter/s to skip): ", fileName)
		if !stdin.Scan() {
			return ""
		}
		answer := strings.TrimSpace(stdin.Text())
		if answer == "" || strings.EqualFold(answer, "s") {
			return ""
		}
		if _, err := time.Parse("2006-01-02", answer); err != nil {
			fmt.Println("Invalid date format.")
			continue
		}
		return answer
	}
}
