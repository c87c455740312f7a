package library

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const dialectSQLite = "sqlite3"

// Database stores library snapshots in SQLite. Each Save replaces the stored
// state in a single transaction.
type Database struct {
	db *sqlx.DB
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies
// schema migrations.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Database{db: db}, nil
}

// Close closes the DB.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            isbn TEXT NOT NULL,
            year INTEGER NOT NULL DEFAULT 0,
            available BOOLEAN NOT NULL DEFAULT 1
        );`,
		`CREATE TABLE IF NOT EXISTS categories (
            name TEXT PRIMARY KEY
        );`,
		`CREATE TABLE IF NOT EXISTS book_categories (
            book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
            category TEXT NOT NULL REFERENCES categories(name) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            PRIMARY KEY(book_id, category)
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            id INTEGER PRIMARY KEY,
            user_id INTEGER NOT NULL,
            book_id INTEGER NOT NULL,
            loan_date TEXT NOT NULL,
            returned BOOLEAN NOT NULL DEFAULT 0,
            return_date TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
            id INTEGER PRIMARY KEY,
            user_id INTEGER NOT NULL,
            book_id INTEGER NOT NULL,
            request_date TEXT NOT NULL,
            status TEXT NOT NULL,
            expiry_date TEXT,
            notification_sent BOOLEAN NOT NULL DEFAULT 0
        );`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_book ON reservations(book_id, status);`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Row types
// ---------------------------------------------------------------------------

// Times are stored as RFC 3339 text so they read back exactly as written.

type bookRow struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	Author    string `db:"author"`
	ISBN      string `db:"isbn"`
	Year      int    `db:"year"`
	Available bool   `db:"available"`
}

type userRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

type categoryRow struct {
	Name string `db:"name"`
}

type bookCategoryRow struct {
	BookID   int64  `db:"book_id"`
	Category string `db:"category"`
	Position int    `db:"position"`
}

type loanRow struct {
	ID         int64          `db:"id"`
	UserID     int64          `db:"user_id"`
	BookID     int64          `db:"book_id"`
	LoanDate   string         `db:"loan_date"`
	Returned   bool           `db:"returned"`
	ReturnDate sql.NullString `db:"return_date"`
}

type reservationRow struct {
	ID               int64          `db:"id"`
	UserID           int64          `db:"user_id"`
	BookID           int64          `db:"book_id"`
	RequestDate      string         `db:"request_date"`
	Status           string         `db:"status"`
	ExpiryDate       sql.NullString `db:"expiry_date"`
	NotificationSent bool           `db:"notification_sent"`
}

type metaRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339Nano) }

func formatOptionalTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}

func parseOptionalTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

// Save replaces the stored library state with data.
func (d *Database) Save(data *LibraryData) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"book_categories", "reservations", "loans", "categories", "books", "users"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	users := make([]userRow, 0, len(data.Users))
	for _, u := range data.Users {
		users = append(users, userRow{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	books := make([]bookRow, 0, len(data.Books))
	var tags []bookCategoryRow
	for _, b := range data.Books {
		books = append(books, bookRow{ID: b.ID, Title: b.Title, Author: b.Author, ISBN: b.ISBN, Year: b.Year, Available: b.Available})
		for i, c := range b.Categories {
			tags = append(tags, bookCategoryRow{BookID: b.ID, Category: c, Position: i})
		}
	}

	categories := make([]categoryRow, 0, len(data.Categories))
	for _, c := range data.Categories {
		categories = append(categories, categoryRow{Name: c})
	}

	loans := make([]loanRow, 0, len(data.Loans))
	for _, l := range data.Loans {
		loans = append(loans, loanRow{
			ID:         l.ID,
			UserID:     l.UserID,
			BookID:     l.BookID,
			LoanDate:   formatTime(l.LoanDate),
			Returned:   l.Returned,
			ReturnDate: formatOptionalTime(l.ReturnDate),
		})
	}

	reservations := make([]reservationRow, 0, len(data.Reservations))
	for _, r := range data.Reservations {
		reservations = append(reservations, reservationRow{
			ID:               r.ID,
			UserID:           r.UserID,
			BookID:           r.BookID,
			RequestDate:      formatTime(r.RequestDate),
			Status:           string(r.Status),
			ExpiryDate:       formatOptionalTime(r.ExpiryDate),
			NotificationSent: r.NotificationSent,
		})
	}

	inserts := []struct {
		table string
		rows  any
		n     int
	}{
		{"users", users, len(users)},
		{"books", books, len(books)},
		{"categories", categories, len(categories)},
		{"book_categories", tags, len(tags)},
		{"loans", loans, len(loans)},
		{"reservations", reservations, len(reservations)},
	}
	for _, ins := range inserts {
		if ins.n == 0 {
			continue
		}
		if err := insertRows(tx, ins.table, ins.rows); err != nil {
			return err
		}
	}

	counters := map[string]int64{
		"next_book_id":        data.NextBookID,
		"next_user_id":        data.NextUserID,
		"next_loan_id":        data.NextLoanID,
		"next_reservation_id": data.NextReservationID,
	}
	for key, value := range counters {
		if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES(?,?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, key, strconv.FormatInt(value, 10)); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return tx.Commit()
}

func insertRows(tx *sqlx.Tx, table string, rows any) error {
	query, args, err := goqu.Dialect(dialectSQLite).
		Insert(table).
		Prepared(true).
		Rows(rows).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build insert for %s: %w", table, err)
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// Load reads the stored library state. An empty database yields empty data.
func (d *Database) Load() (*LibraryData, error) {
	data := &LibraryData{}

	var users []userRow
	if err := d.db.Select(&users, `SELECT id,name,email FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		data.Users = append(data.Users, &User{ID: u.ID, Name: u.Name, Email: u.Email})
	}

	var books []bookRow
	if err := d.db.Select(&books, `SELECT id,title,author,isbn,year,available FROM books ORDER BY id`); err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	var tags []bookCategoryRow
	if err := d.db.Select(&tags, `SELECT book_id,category,position FROM book_categories ORDER BY book_id, position`); err != nil {
		return nil, fmt.Errorf("load book categories: %w", err)
	}
	byBook := make(map[int64][]string)
	for _, t := range tags {
		byBook[t.BookID] = append(byBook[t.BookID], t.Category)
	}
	for _, b := range books {
		cats := byBook[b.ID]
		if cats == nil {
			cats = []string{}
		}
		data.Books = append(data.Books, &Book{
			ID:         b.ID,
			Title:      b.Title,
			Author:     b.Author,
			ISBN:       b.ISBN,
			Year:       b.Year,
			Available:  b.Available,
			Categories: cats,
		})
	}

	if err := d.db.Select(&data.Categories, `SELECT name FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	var loans []loanRow
	if err := d.db.Select(&loans, `SELECT id,user_id,book_id,loan_date,returned,return_date FROM loans ORDER BY id`); err != nil {
		return nil, fmt.Errorf("load loans: %w", err)
	}
	for _, l := range loans {
		loanDate, err := parseTime(l.LoanDate)
		if err != nil {
			return nil, err
		}
		returnDate, err := parseOptionalTime(l.ReturnDate)
		if err != nil {
			return nil, err
		}
		data.Loans = append(data.Loans, &Loan{
			ID:         l.ID,
			UserID:     l.UserID,
			BookID:     l.BookID,
			LoanDate:   loanDate,
			Returned:   l.Returned,
			ReturnDate: returnDate,
		})
	}

	var reservations []reservationRow
	if err := d.db.Select(&reservations, `SELECT id,user_id,book_id,request_date,status,expiry_date,notification_sent FROM reservations ORDER BY id`); err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	for _, r := range reservations {
		requested, err := parseTime(r.RequestDate)
		if err != nil {
			return nil, err
		}
		expiry, err := parseOptionalTime(r.ExpiryDate)
		if err != nil {
			return nil, err
		}
		data.Reservations = append(data.Reservations, &Reservation{
			ID:               r.ID,
			UserID:           r.UserID,
			BookID:           r.BookID,
			RequestDate:      requested,
			Status:           ReservationStatus(r.Status),
			ExpiryDate:       expiry,
			NotificationSent: r.NotificationSent,
		})
	}

	var meta []metaRow
	if err := d.db.Select(&meta, `SELECT key,value FROM meta`); err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}
	for _, m := range meta {
		n, err := strconv.ParseInt(m.Value, 10, 64)
		if err != nil {
			continue
		}
		switch m.Key {
		case "next_book_id":
			data.NextBookID = n
		case "next_user_id":
			data.NextUserID = n
		case "next_loan_id":
			data.NextLoanID = n
		case "next_reservation_id":
			data.NextReservationID = n
		}
	}

	return data, nil
}
