package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-circulation/config"
	"library-circulation/library"
)

func main() {
	if err := newImportCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var storage, dataPath string
	cmd := &cobra.Command{
		Use:          "import_books CSV_FILE",
		Short:        "Import books from a CSV file with columns title,author,isbn,year,categories",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if storage != "" {
				cfg.Storage = strings.ToLower(storage)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if dataPath != "" {
				if cfg.Storage == config.StorageSQLite {
					cfg.DBPath = dataPath
				} else {
					cfg.DataFile = dataPath
				}
			}

			logger := cfg.NewLogger(cmd.ErrOrStderr())
			mgr, err := library.NewLibraryManager(library.ManagerConfig{ExpiryDays: cfg.ExpiryDays, Logger: logger})
			if err != nil {
				return err
			}

			var store library.Persister = library.SnapshotFile{Path: cfg.DataFile}
			if cfg.Storage == config.StorageSQLite {
				db, err := library.NewDatabase(cfg.DBPath)
				if err != nil {
					return err
				}
				store = db
			}
			defer store.Close()

			if err := mgr.Load(store); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load library: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			imported, skipped, err := importBooks(mgr, f, logger)
			if err != nil {
				return err
			}
			if imported > 0 {
				if err := mgr.Save(store); err != nil {
					return fmt.Errorf("save library: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Import complete!\n")
			fmt.Fprintf(out, "Successfully imported: %d books\n", imported)
			fmt.Fprintf(out, "Skipped: %d\n", skipped)
			return nil
		},
	}
	cmd.Flags().StringVar(&storage, "storage", "", "storage backend: json or sqlite (default from LIBRARY_STORAGE)")
	cmd.Flags().StringVar(&dataPath, "data", "", "path to the data file or database")
	return cmd
}

// importBooks adds every valid row of r to the library. Rows that fail
// validation or repeat an ISBN already in the catalogue are logged and
// skipped. A header row starting with "title" is ignored.
func importBooks(mgr *library.LibraryManager, r io.Reader, logger *slog.Logger) (imported, skipped int, err error) {
	known := make(map[string]bool)
	for _, b := range mgr.Books.List() {
		known[normalizeISBN(b.ISBN)] = true
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("read csv: %w", err)
		}
		line++
		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "title") {
			continue
		}

		if len(record) < 3 {
			logger.Warn("skipping row with too few columns", "line", line, "columns", len(record))
			skipped++
			continue
		}
		title, author, isbn := record[0], record[1], record[2]

		year := 0
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			year, err = strconv.Atoi(strings.TrimSpace(record[3]))
			if err != nil {
				logger.Warn("skipping row with bad year", "line", line, "year", record[3])
				skipped++
				continue
			}
		}

		if known[normalizeISBN(isbn)] {
			logger.Info("skipping duplicate isbn", "line", line, "isbn", isbn)
			skipped++
			continue
		}

		id, err := mgr.AddBook(title, author, isbn, year)
		if err != nil {
			logger.Warn("skipping invalid book", "line", line, "error", err)
			skipped++
			continue
		}
		known[normalizeISBN(isbn)] = true
		imported++

		if len(record) > 4 {
			for _, name := range strings.Split(record[4], ";") {
				name = strings.TrimSpace(name)
				if name == "" {
					continue
				}
				if !mgr.Categories.HasCategory(name) {
					if err := mgr.Categories.AddCategory(name); err != nil {
						logger.Warn("could not create category", "line", line, "category", name, "error", err)
						continue
					}
				}
				if err := mgr.Categories.AssignCategory(id, name); err != nil {
					logger.Warn("could not assign category", "line", line, "category", name, "error", err)
				}
			}
		}
		logger.Debug("imported book", "line", line, "book_id", id, "title", title)
	}
	return imported, skipped, nil
}

func normalizeISBN(isbn string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", " ", "").Replace(isbn))
}
