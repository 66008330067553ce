// Package main provides a minimal command-line wrapper around the embeddable
// QuillGraph database. It is ambient tooling, not part of the database
// itself: it opens a database, runs Cypher, and prints results as a table.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillgraph/quill/pkg/quill"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var dataDir string

	rootCmd := &cobra.Command{
		Use:   "quill",
		Short: "QuillGraph - an embeddable property-graph database",
		Long: `QuillGraph is an embeddable property-graph database written in Go.

This CLI is a thin demonstration wrapper around the pkg/quill library: it
opens a database directory, runs Cypher statements against it, and prints
the results. There is no server and no network protocol here - QuillGraph
is meant to be imported as a Go package.`,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "./data", "database directory (empty for in-memory)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("quill v%s (%s)\n", version, commit)
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new database directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(dataDir)
		},
	}
	rootCmd.AddCommand(initCmd)

	queryCmd := &cobra.Command{
		Use:   "query [cypher]",
		Short: "Run a single Cypher statement and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(dataDir, args[0])
		},
	}
	rootCmd.AddCommand(queryCmd)

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive Cypher REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(dataDir)
		},
	}
	rootCmd.AddCommand(shellCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInit(dataDir string) error {
	if dataDir == "" {
		return fmt.Errorf("--data-dir is required for init")
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := quill.Open(dataDir, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	fmt.Printf("initialized database at %s\n", dataDir)
	return nil
}

func runQuery(dataDir, query string) error {
	db, err := quill.Open(dataDir, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := db.ExecuteCypher(ctx, query, nil)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	printTable(result.Columns, result.Rows)
	return nil
}

func runShell(dataDir string) error {
	db, err := quill.Open(dataDir, nil)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	fmt.Printf("quill shell - data dir: %s\n", dataDir)
	fmt.Println("Enter Cypher statements, or 'exit' to quit.")

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("quill> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result, err := db.ExecuteCypher(ctx, line, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printTable(result.Columns, result.Rows)
	}
	return scanner.Err()
}

func printTable(columns []string, rows [][]interface{}) {
	if len(columns) == 0 {
		fmt.Println("(no columns)")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(columns, "\t"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	fmt.Printf("(%d rows)\n", len(rows))
}
