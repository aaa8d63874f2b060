package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	pkgapi "github.com/iudanet/bookshelf/pkg/api"
)

func (c *Cli) newBooksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and add books",
	}
	cmd.AddCommand(c.newBooksListCommand(), c.newBooksAddCommand())
	return cmd
}

type listOptions struct {
	keyword  string
	genre    string
	sort     string
	order    string
	yearFrom int
	yearTo   int
	page     int
	pageSize int
}

// query переводит флаги в параметры GET /api/books; нулевые значения не передаются
func (o listOptions) query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	setInt := func(key string, value int) {
		if value != 0 {
			q.Set(key, strconv.Itoa(value))
		}
	}

	set("keyword", o.keyword)
	set("genre", o.genre)
	set("sort", o.sort)
	set("order", o.order)
	setInt("yearFrom", o.yearFrom)
	setInt("yearTo", o.yearTo)
	setInt("page", o.page)
	setInt("pageSize", o.pageSize)
	return q
}

func (c *Cli) newBooksListCommand() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := c.apiClient.ListBooks(cmd.Context(), opts.query())
			if err != nil {
				return err
			}

			if len(resp.Data) == 0 {
				c.io.Println("No books found.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tYEAR\tGENRE")
			for _, b := range resp.Data {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", b.ID, b.Title, b.Author, b.Year, b.Genre)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			p := resp.Pagination
			c.io.Printf("\nPage %d of %d (%d books)\n", p.CurrentPage, p.TotalPages, p.TotalData)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.keyword, "keyword", "k", "", "search in title, author and publisher")
	flags.StringVar(&opts.genre, "genre", "", "filter by genre")
	flags.IntVar(&opts.yearFrom, "year-from", 0, "published in or after year")
	flags.IntVar(&opts.yearTo, "year-to", 0, "published in or before year")
	flags.StringVar(&opts.sort, "sort", "", "sort by title, author, publisher, year, genre or createdAt")
	flags.StringVar(&opts.order, "order", "", "sort order: asc or desc")
	flags.IntVar(&opts.page, "page", 0, "page number")
	flags.IntVar(&opts.pageSize, "page-size", 0, "books per page")
	return cmd
}

func (c *Cli) newBooksAddCommand() *cobra.Command {
	var (
		title, author, publisher string
		genre, description       string
		year                     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := pkgapi.BookRequest{
				Title:     &title,
				Author:    &author,
				Publisher: &publisher,
				Year:      &year,
			}
			if cmd.Flags().Changed("genre") {
				req.Genre = &genre
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}

			var book *pkgapi.BookData
			err := c.authService.WithAccessToken(cmd.Context(), func(ctx context.Context, token string) error {
				var err error
				book, err = c.apiClient.CreateBook(ctx, token, req)
				return err
			})
			if err != nil {
				return err
			}

			c.io.Printf("✓ Book added: %s (%s)\n", book.Title, book.ID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&title, "title", "", "book title")
	flags.StringVar(&author, "author", "", "book author")
	flags.StringVar(&publisher, "publisher", "", "publisher")
	flags.IntVar(&year, "year", 0, "publication year")
	flags.StringVar(&genre, "genre", "", "genre (default General)")
	flags.StringVar(&description, "description", "", "short description")
	for _, name := range []string{"title", "author", "publisher", "year"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
