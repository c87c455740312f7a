package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-circulation/config"
	"library-circulation/library"
)

func main() {
	root, a := newRootCmd(os.Stderr)
	err := root.Execute()
	a.release()
	if err != nil {
		os.Exit(1)
	}
}

// app is the state shared by every command invocation: the library is loaded
// before the command runs and saved after it if the command changed it. The
// caller releases the store once Execute returns, whether or not the command
// failed.
type app struct {
	cfg       *config.Config
	mgr       *library.LibraryManager
	store     library.Persister
	logWriter io.Writer
	dirty     bool
}

func newRootCmd(logWriter io.Writer) (*cobra.Command, *app) {
	a := &app{logWriter: logWriter}
	var storage, dataPath string

	root := &cobra.Command{
		Use:           "library",
		Short:         "Manage books, users, loans and reservations",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(storage, dataPath)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.save()
		},
	}
	root.PersistentFlags().StringVar(&storage, "storage", "", "storage backend: json or sqlite (default from LIBRARY_STORAGE)")
	root.PersistentFlags().StringVar(&dataPath, "data", "", "path to the data file or database")

	root.AddCommand(
		newBookCmd(a),
		newUserCmd(a),
		newCategoryCmd(a),
		newLoanCmd(a),
		newReserveCmd(a),
		newStatusCmd(a),
	)
	return root, a
}

func (a *app) open(storage, dataPath string) error {
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
	a.cfg = cfg

	logger := cfg.NewLogger(a.logWriter)
	mgr, err := library.NewLibraryManager(library.ManagerConfig{
		ExpiryDays: cfg.ExpiryDays,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	a.mgr = mgr

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	a.store = store

	if err := mgr.Load(store); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load library: %w", err)
	}
	return nil
}

func openStore(cfg *config.Config) (library.Persister, error) {
	if cfg.Storage == config.StorageSQLite {
		return library.NewDatabase(cfg.DBPath)
	}
	return library.SnapshotFile{Path: cfg.DataFile}, nil
}

func (a *app) save() error {
	if a.store == nil || !a.dirty {
		return nil
	}
	if err := a.mgr.Save(a.store); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	return nil
}

// release closes the store opened for the command, if any.
func (a *app) release() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(a.logWriter, "close store: %v\n", err)
	}
	a.store = nil
}

// changed marks the library for saving once the command finishes.
func (a *app) changed() { a.dirty = true }

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, s)
	}
	return id, nil
}

// columnWidth shrinks a table column to fit a terminal; output that is not a
// terminal keeps the full width.
func columnWidth(w io.Writer, want, fixed int) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return want
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols-fixed >= want {
		return want
	}
	if cols-fixed < 10 {
		return 10
	}
	return cols - fixed
}

func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
