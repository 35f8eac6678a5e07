package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"arsenal-loader/internal/api"
	"arsenal-loader/internal/config"
	"arsenal-loader/internal/content"
	"arsenal-loader/internal/exitcodes"
)

func main() {
	// Parse command-line flags
	dbPath := flag.String("db", config.DefaultDatabasePath, "Path to content database")
	stats := flag.Bool("stats", false, "Show registry statistics")
	category := flag.String("category", "", "List items of a category")
	itemID := flag.String("item", "", "Show one item with its properties")
	registrations := flag.Int("registrations", 0, "Show N most recent registration calls")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	serveAddr := flag.String("serve", "", "Serve the read-only JSON API on this address (e.g. :8090)")
	flag.Parse()

	// Open database
	db, err := content.NewContentDB(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	// Handle different query modes
	switch {
	case *serveAddr != "":
		err = serve(*serveAddr, db)
	case *stats:
		err = showStats(os.Stdout, db, *jsonOutput)
	case *category != "":
		err = showCategory(os.Stdout, db, *category, *jsonOutput)
	case *itemID != "":
		err = showItem(os.Stdout, db, *itemID, *jsonOutput)
	case *registrations > 0:
		err = showRegistrations(os.Stdout, db, *registrations, *jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  arsenal-query --stats                 # Show registry statistics")
		fmt.Println("  arsenal-query --category Weapons      # List registered weapons")
		fmt.Println("  arsenal-query --item salco_ak --json  # Dump one item")
		fmt.Println("  arsenal-query --registrations 10      # Show 10 most recent registration calls")
		fmt.Println("  arsenal-query --serve :8090           # Serve the registry over HTTP")
		os.Exit(exitcodes.InvalidConfig)
	}

	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			log.Printf("ERROR: %v", err)
			os.Exit(exitcodes.InvalidConfig)
		}
		log.Fatalf("ERROR: %v", err)
	}
}

func serve(addr string, db *content.DB) error {
	logger := log.New(os.Stdout, "[arsenal-query] ", log.LstdFlags)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewRouter(db, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Serving content API on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Println("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func showStats(w io.Writer, db *content.DB, jsonOutput bool) error {
	stats, err := db.GetContentStats()
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	if jsonOutput {
		return writeJSON(w, stats)
	}

	fmt.Fprintln(w, "Content Registry")
	fmt.Fprintf(w, "Items:        %d\n", stats.TotalItems)
	fmt.Fprintf(w, "Recipes:      %d\n", stats.TotalRecipes)
	fmt.Fprintf(w, "Slot filters: %d\n", stats.TotalFilters)
	fmt.Fprintf(w, "Runs:         %d\n", stats.Runs)
	if stats.LastRun != nil {
		fmt.Fprintf(w, "Last run:     %s\n", stats.LastRun.Format("2006-01-02 15:04:05"))
	}

	if len(stats.ItemsByCategory) > 0 {
		fmt.Fprintln(w, "\nBy Category:")
		names := make([]string, 0, len(stats.ItemsByCategory))
		for name := range stats.ItemsByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-15s %d\n", name, stats.ItemsByCategory[name])
		}
	}
	return nil
}

// itemView is the JSON shape of an item
type itemView struct {
	ID       string                 `json:"id"`
	Category string                 `json:"category"`
	Parent   string                 `json:"parent,omitempty"`
	Name     string                 `json:"name,omitempty"`
	Source   string                 `json:"source,omitempty"`
	Props    map[string]interface{} `json:"props"`
}

func viewOf(it content.Item) itemView {
	return itemView{ID: it.ID, Category: it.Category, Parent: it.ParentID, Name: it.Name, Source: it.Source, Props: it.Props}
}

func showCategory(w io.Writer, db *content.DB, category string, jsonOutput bool) error {
	items, err := db.ItemsByCategory(category)
	if err != nil {
		return fmt.Errorf("failed to list category %s: %w", category, err)
	}

	if jsonOutput {
		views := make([]itemView, 0, len(items))
		for _, it := range items {
			views = append(views, viewOf(it))
		}
		return writeJSON(w, views)
	}

	if len(items) == 0 {
		fmt.Fprintln(w, "No items found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tName\tParent\tSource")
	_, _ = fmt.Fprintln(tw, "--\t----\t------\t------")
	for _, it := range items {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Name, it.ParentID, it.Source)
	}
	return tw.Flush()
}

func showItem(w io.Writer, db *content.DB, id string, jsonOutput bool) error {
	it, err := db.GetItem(id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(w, viewOf(it))
	}

	fmt.Fprintf(w, "ID:       %s\n", it.ID)
	fmt.Fprintf(w, "Name:     %s\n", it.Name)
	fmt.Fprintf(w, "Category: %s\n", it.Category)
	fmt.Fprintf(w, "Parent:   %s\n", it.ParentID)
	fmt.Fprintf(w, "Source:   %s\n", it.Source)

	keys := make([]string, 0, len(it.Props))
	for k := range it.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		fmt.Fprintln(w, "\nProperties:")
		for _, k := range keys {
			fmt.Fprintf(w, "  %-22s %v\n", k, it.Props[k])
		}
	}
	return nil
}

func showRegistrations(w io.Writer, db *content.DB, limit int, jsonOutput bool) error {
	records, err := db.GetRecentRegistrations(limit)
	if err != nil {
		return fmt.Errorf("failed to get registrations: %w", err)
	}

	if jsonOutput {
		return writeJSON(w, records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No records found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTimestamp\tRun\tKind\tPath\tCount")
	_, _ = fmt.Fprintln(tw, "--\t---------\t---\t----\t----\t-----")
	for _, r := range records {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.RunID, r.Kind, r.RelPath, r.Count)
	}
	return tw.Flush()
}
