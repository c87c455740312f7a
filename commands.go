package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"library-circulation/library"
)

// ------------------ Books ------------------

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Manage the book catalogue"}

	var year int
	add := &cobra.Command{
		Use:   "add TITLE AUTHOR ISBN",
		Short: "Add a book",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.mgr.AddBook(args[0], args[1], args[2], year)
			if err != nil {
				return err
			}
			a.changed()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added book ID %d\n", id)
			if !library.ValidateISBN(args[2]) {
				fmt.Fprintf(out, "Warning: %q does not look like an ISBN-10 or ISBN-13\n", args[2])
			}
			return nil
		},
	}
	add.Flags().IntVar(&year, "year", 0, "publication year")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBooks(cmd.OutOrStdout(), a.mgr.Books.List())
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get BOOK_ID",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			b, err := a.mgr.Books.Get(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:         %d\n", b.ID)
			fmt.Fprintf(out, "Title:      %s\n", b.Title)
			fmt.Fprintf(out, "Author:     %s\n", b.Author)
			fmt.Fprintf(out, "ISBN:       %s\n", b.ISBN)
			if b.Year != 0 {
				fmt.Fprintf(out, "Year:       %d\n", b.Year)
			}
			fmt.Fprintf(out, "Available:  %s\n", yesNo(b.Available))
			fmt.Fprintf(out, "Categories: %s\n", orNone(strings.Join(b.Categories, ", ")))
			return nil
		},
	}

	var byAuthor bool
	search := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find books by title (or author with --author)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var books []*library.Book
			if byAuthor {
				books = a.mgr.Books.FindByAuthor(args[0])
			} else {
				books = a.mgr.Books.FindByTitle(args[0])
			}
			out := cmd.OutOrStdout()
			if len(books) == 0 {
				fmt.Fprintf(out, "No books found matching '%s'.\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "Found %d book(s) matching '%s':\n", len(books), args[0])
			printBooks(out, books)
			return nil
		},
	}
	search.Flags().BoolVar(&byAuthor, "author", false, "match against the author instead of the title")

	var upd library.BookUpdate
	update := &cobra.Command{
		Use:   "update BOOK_ID",
		Short: "Change a book's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			if err := a.mgr.Books.Update(id, upd); err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Updated book ID %d\n", id)
			return nil
		},
	}
	update.Flags().StringVar(&upd.Title, "title", "", "new title")
	update.Flags().StringVar(&upd.Author, "author", "", "new author")
	update.Flags().StringVar(&upd.ISBN, "isbn", "", "new ISBN")
	update.Flags().IntVar(&upd.Year, "year", 0, "new publication year")

	remove := &cobra.Command{
		Use:   "remove BOOK_ID",
		Short: "Remove a book that is not on loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			if err := a.mgr.RemoveBook(id); err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed book ID %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, get, search, update, remove)
	return cmd
}

func printBooks(out io.Writer, books []*library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(out, "No books in library.")
		return
	}
	titleWidth := columnWidth(out, 30, 60)
	fmt.Fprintf(out, "%-5s %-*s %-25s %-15s %-10s %s\n", "ID", titleWidth, "Title", "Author", "ISBN", "Available", "Categories")
	fmt.Fprintln(out, strings.Repeat("-", titleWidth+70))
	for _, b := range books {
		fmt.Fprintf(out, "%-5d %-*s %-25s %-15s %-10s %s\n",
			b.ID,
			titleWidth, truncateString(b.Title, titleWidth),
			truncateString(b.Author, 25),
			truncateString(b.ISBN, 15),
			yesNo(b.Available),
			orNone(strings.Join(b.Categories, ", ")))
	}
}

// ------------------ Users ------------------

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage library users"}

	add := &cobra.Command{
		Use:   "add NAME EMAIL",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.mgr.AddUser(args[0], args[1])
			if err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Added user '%s' with ID %d\n", args[0], id)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			users := a.mgr.Users.List()
			if len(users) == 0 {
				fmt.Fprintln(out, "No users registered.")
				return nil
			}
			fmt.Fprintf(out, "%-5s %-30s %s\n", "ID", "Name", "Email")
			fmt.Fprintln(out, strings.Repeat("-", 70))
			for _, u := range users {
				fmt.Fprintf(out, "%-5d %-30s %s\n", u.ID, truncateString(u.Name, 30), u.Email)
			}
			return nil
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

// ------------------ Categories ------------------

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage categories and book tags"}

	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.Categories.AddCategory(args[0]); err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Added category '%s'\n", args[0])
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete a category and untag every book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.mgr.Categories.RemoveCategory(args[0]); err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed category '%s'\n", args[0])
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			names := a.mgr.Categories.Categories()
			if len(names) == 0 {
				fmt.Fprintln(out, "No categories.")
				return nil
			}
			for _, name := range names {
				ids, _ := a.mgr.Categories.BooksByCategory(name)
				fmt.Fprintf(out, "%-30s %d book(s)\n", name, len(ids))
			}
			return nil
		},
	}

	assign := &cobra.Command{
		Use:   "assign BOOK_ID NAME",
		Short: "Tag a book with a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			if err := a.mgr.Categories.AssignCategory(id, args[1]); err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Book %d tagged '%s'\n", id, args[1])
			return nil
		},
	}

	unassign := &cobra.Command{
		Use:   "unassign BOOK_ID NAME",
		Short: "Remove a category from a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			if err := a.mgr.Categories.RemoveCategoryFromBook(id, args[1]); err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Book %d no longer tagged '%s'\n", id, args[1])
			return nil
		},
	}

	books := &cobra.Command{
		Use:   "books NAME",
		Short: "List the books in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.mgr.Categories.BooksByCategory(args[0])
			if err != nil {
				return err
			}
			list := make([]*library.Book, 0, len(ids))
			for _, id := range ids {
				if b, err := a.mgr.Books.Get(id); err == nil {
					list = append(list, b)
				}
			}
			printBooks(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.AddCommand(add, remove, list, assign, unassign, books)
	return cmd
}

// ------------------ Loans ------------------

func newLoanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "loan", Short: "Borrow and return books"}

	borrow := &cobra.Command{
		Use:   "borrow USER_ID BOOK_ID",
		Short: "Lend an available book to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			bookID, err := parseID("book", args[1])
			if err != nil {
				return err
			}
			loanID, err := a.mgr.Loans.LoanBook(userID, bookID)
			if err != nil {
				return err
			}
			a.changed()
			user, _ := a.mgr.Users.Get(userID)
			book, _ := a.mgr.Books.Get(bookID)
			fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' checked out to %s (loan ID %d)\n", book.Title, user.Name, loanID)
			return nil
		},
	}

	ret := &cobra.Command{
		Use:   "return LOAN_ID",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseID("loan", args[0])
			if err != nil {
				return err
			}
			res, err := a.mgr.ReturnBook(loanID)
			if err != nil {
				return err
			}
			a.changed()
			out := cmd.OutOrStdout()
			book, _ := a.mgr.Books.Get(res.Loan.BookID)
			title := fmt.Sprintf("book %d", res.Loan.BookID)
			if book != nil {
				title = "'" + book.Title + "'"
			}
			fmt.Fprintf(out, "Book %s returned\n", title)
			if !res.Promoted {
				fmt.Fprintln(out, "Book is now available for checkout")
				return nil
			}
			r, _ := a.mgr.Reservations.GetReservation(res.PromotedReservationID)
			holder := fmt.Sprintf("user %d", r.UserID)
			if u, err := a.mgr.Users.Get(r.UserID); err == nil {
				holder = u.Name
			}
			fmt.Fprintf(out, "Reservation %d for %s is ready until %s\n",
				r.ID, holder, r.ExpiryDate.Format("2006-01-02 15:04"))
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show LOAN_ID",
		Short: "Show one loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loanID, err := parseID("loan", args[0])
			if err != nil {
				return err
			}
			l, err := a.mgr.Loans.GetLoan(loanID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loan %d: user %d, book %d, loaned %s\n", l.ID, l.UserID, l.BookID, l.LoanDate.Format("2006-01-02 15:04"))
			if l.Returned {
				fmt.Fprintf(out, "Returned %s\n", l.ReturnDate.Format("2006-01-02 15:04"))
			} else {
				fmt.Fprintln(out, "Not returned")
			}
			return nil
		},
	}

	cmd.AddCommand(borrow, ret, show)
	return cmd
}

// ------------------ Reservations ------------------

func newReserveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "reserve", Short: "Queue for books that are on loan"}

	create := &cobra.Command{
		Use:   "create USER_ID BOOK_ID",
		Short: "Reserve a book that is on loan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			bookID, err := parseID("book", args[1])
			if err != nil {
				return err
			}
			id, err := a.mgr.Reservations.ReserveBook(userID, bookID)
			if err != nil {
				return err
			}
			a.changed()
			pos, _ := a.mgr.Reservations.PositionInQueue(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Reservation ID %d created\nPosition in queue: %d\n", id, pos)
			return nil
		},
	}

	cancel := reservationAction(a, "cancel", "Cancel a reservation", "cancelled",
		func(q *library.ReservationQueue, id int64) error { return q.CancelReservation(id) })
	complete := reservationAction(a, "complete", "Mark a ready reservation as fulfilled", "completed",
		func(q *library.ReservationQueue, id int64) error { return q.CompleteReservation(id) })

	borrow := &cobra.Command{
		Use:   "borrow RESERVATION_ID",
		Short: "Lend the book of a ready reservation to its holder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reservation", args[0])
			if err != nil {
				return err
			}
			loanID, err := a.mgr.BorrowReserved(id)
			if err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Reservation %d completed (loan ID %d)\n", id, loanID)
			return nil
		},
	}

	position := &cobra.Command{
		Use:   "position RESERVATION_ID",
		Short: "Show a waiting reservation's place in the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reservation", args[0])
			if err != nil {
				return err
			}
			pos, err := a.mgr.Reservations.PositionInQueue(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Position in queue: %d\n", pos)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List a user's reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID("user", args[0])
			if err != nil {
				return err
			}
			if _, err := a.mgr.Users.Get(userID); err != nil {
				return err
			}
			printReservations(cmd.OutOrStdout(), a.mgr, a.mgr.Reservations.UserReservations(userID))
			return nil
		},
	}

	queue := &cobra.Command{
		Use:   "queue BOOK_ID",
		Short: "Show the waiting queue for a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			book, err := a.mgr.Books.Get(bookID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Reservations for '%s' by %s:\n", book.Title, book.Author)
			waiting := a.mgr.Reservations.Queue(bookID)
			if len(waiting) == 0 {
				fmt.Fprintln(out, "No reservations for this book.")
				return nil
			}
			fmt.Fprintf(out, "%-10s %-8s %-30s\n", "Position", "ID", "User")
			fmt.Fprintln(out, strings.Repeat("-", 50))
			for i, r := range waiting {
				fmt.Fprintf(out, "%-10d %-8d %-30s\n", i+1, r.ID, userName(a.mgr, r.UserID))
			}
			return nil
		},
	}

	expire := &cobra.Command{
		Use:   "expire",
		Short: "Expire ready reservations that were not collected in time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := a.mgr.ExpireReservations()
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No reservations expired.")
				return nil
			}
			a.changed()
			strs := make([]string, len(ids))
			for i, id := range ids {
				strs[i] = fmt.Sprint(id)
			}
			fmt.Fprintf(out, "Expired %d reservation(s): %s\n", len(ids), strings.Join(strs, ", "))
			return nil
		},
	}

	cmd.AddCommand(create, cancel, complete, borrow, position, list, queue, expire)
	return cmd
}

// reservationAction builds a command that applies one status change to a
// reservation.
func reservationAction(a *app, use, short, done string, action func(*library.ReservationQueue, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " RESERVATION_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("reservation", args[0])
			if err != nil {
				return err
			}
			if err := action(a.mgr.Reservations, id); err != nil {
				return err
			}
			a.changed()
			fmt.Fprintf(cmd.OutOrStdout(), "Reservation %d %s\n", id, done)
			return nil
		},
	}
}

func printReservations(out io.Writer, mgr *library.LibraryManager, list []library.Reservation) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No reservations.")
		return
	}
	titleWidth := columnWidth(out, 30, 50)
	fmt.Fprintf(out, "%-8s %-*s %-10s %-17s %s\n", "ID", titleWidth, "Book", "Status", "Requested", "Expires")
	fmt.Fprintln(out, strings.Repeat("-", titleWidth+55))
	for _, r := range list {
		title := fmt.Sprintf("book %d", r.BookID)
		if b, err := mgr.Books.Get(r.BookID); err == nil {
			title = b.Title
		}
		expires := "-"
		if r.ExpiryDate != nil {
			expires = r.ExpiryDate.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(out, "%-8d %-*s %-10s %-17s %s\n",
			r.ID,
			titleWidth, truncateString(title, titleWidth),
			r.Status,
			r.RequestDate.Format("2006-01-02 15:04"),
			expires)
	}
}

// ------------------ Status ------------------

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show circulation status for every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			status := a.mgr.Status()
			if len(status) == 0 {
				fmt.Fprintln(out, "No books in the library.")
				return nil
			}
			titleWidth := columnWidth(out, 30, 80)
			fmt.Fprintf(out, "%-5s %-*s %-12s %-25s %s\n", "ID", titleWidth, "Title", "Status", "Borrower", "Queue")
			fmt.Fprintln(out, strings.Repeat("-", titleWidth+80))
			for _, st := range status {
				state, borrower := "Available", "None"
				if !st.Book.Available {
					state = "Checked Out"
				}
				if st.Borrower != nil {
					borrower = fmt.Sprintf("%s (ID: %d)", st.Borrower.Name, st.Borrower.ID)
				}
				queue := make([]string, len(st.Queue))
				for i, r := range st.Queue {
					queue[i] = fmt.Sprintf("%d.%s(ID:%d)", i+1, userName(a.mgr, r.UserID), r.UserID)
				}
				fmt.Fprintf(out, "%-5d %-*s %-12s %-25s %s\n",
					st.Book.ID,
					titleWidth, truncateString(st.Book.Title, titleWidth),
					state,
					truncateString(borrower, 25),
					orNone(strings.Join(queue, ", ")))
			}
			return nil
		},
	}
}

func userName(mgr *library.LibraryManager, id int64) string {
	if u, err := mgr.Users.Get(id); err == nil {
		return u.Name
	}
	return fmt.Sprintf("user %d", id)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
