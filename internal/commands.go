package internal

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/starford/callerid/internal/contact"
	"github.com/starford/callerid/internal/contactservice"
	"github.com/starford/callerid/internal/mcpserver"
)

// withService opens the contact store for the duration of fn.
func withService(opts []Option, fn func(app *application, svc *contactservice.Service) error) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	app.logger()

	db, err := contact.Open(app.config.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init contact store: %w", err)
	}
	defer db.Close()

	return fn(app, contactservice.NewService(db))
}

// ServeMCP exposes the contact tools over stdio until the client disconnects.
func ServeMCP(_ context.Context, opts ...Option) error {
	return withService(opts, func(_ *application, svc *contactservice.Service) error {
		return mcpserver.New(svc).ServeStdio()
	})
}

// AddContact stores one contact and prints it.
func AddContact(ctx context.Context, name, phoneNumber, notes string, opts ...Option) error {
	return withService(opts, func(app *application, svc *contactservice.Service) error {
		c, err := svc.Add(ctx, name, phoneNumber, notes)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(app.out, "added %d\t%s\t%s\n", c.ID, c.Name, c.PhoneNumber)
		return err
	})
}

// ListContacts prints every contact as a table.
func ListContacts(ctx context.Context, opts ...Option) error {
	return withService(opts, func(app *application, svc *contactservice.Service) error {
		items, err := svc.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tPHONE\tNOTES")
		for _, c := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.PhoneNumber, c.Notes)
		}
		return tw.Flush()
	})
}
