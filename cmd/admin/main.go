// Package main provides admin management utilities for Agora.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"agora/internal/config"
	"agora/internal/database"
	"agora/internal/markdown"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/service"
	"agora/internal/wiki"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// deps is what the commands operate on. It is opened lazily so --help works
// without a database.
type deps struct {
	accounts *service.AccountService
	admin    *service.AdminService
	wiki     *service.WikiService
}

type opener func() (*deps, error)

func newDeps(db *gorm.DB, store *wiki.Store) *deps {
	userRepo := repository.NewUserRepository(db)
	return &deps{
		accounts: service.NewAccountService(userRepo),
		admin: service.NewAdminService(
			userRepo,
			repository.NewCategoryRepository(db),
			repository.NewListingRepository(db),
			repository.NewCommentRepository(db),
			repository.NewBidRepository(db),
			repository.NewPostRepository(db),
			repository.NewWatchRepository(db),
		),
		wiki: service.NewWikiService(store, markdown.NewRenderer()),
	}
}

func openFromConfig() (*deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	store, err := wiki.NewOSStore(cfg.WikiDir)
	if err != nil {
		return nil, fmt.Errorf("open wiki store: %w", err)
	}
	return newDeps(db, store), nil
}

func newRootCmd(open opener, fs afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Agora admin management utilities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSetAdminCmd(open, "promote", "Promote a user to admin", true),
		newSetAdminCmd(open, "demote", "Demote a user from admin", false),
		newListAdminsCmd(open),
		newCategoriesCmd(open),
		newWikiCmd(open, fs),
	)
	return root
}

func newSetAdminCmd(open opener, use, short string, isAdmin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user_id|username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var user *models.User
			if id, perr := strconv.ParseUint(args[0], 10, 64); perr == nil {
				user, err = d.accounts.SetAdmin(ctx, uint(id), isAdmin)
			} else {
				user, err = d.accounts.SetAdminByUsername(ctx, args[0], isAdmin)
			}
			if err != nil {
				return err
			}

			verb := "promoted"
			if !isAdmin {
				verb = "demoted"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
			return nil
		},
	}
}

func newListAdminsCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list-admins",
		Short: "List all admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := open()
			if err != nil {
				return err
			}
			admins, err := d.accounts.ListAdmins(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(admins) == 0 {
				fmt.Fprintln(out, "No admins found in the system")
				return nil
			}
			for _, a := range admins {
				fmt.Fprintf(out, "ID: %d | Username: %s | Email: %s\n", a.ID, a.Username, a.Email)
			}
			return nil
		},
	}
}

func newCategoriesCmd(open opener) *cobra.Command {
	categories := &cobra.Command{
		Use:   "categories",
		Short: "Manage listing categories",
	}
	categories.AddCommand(
		&cobra.Command{
			Use:   "add <name>",
			Short: "Create a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				c, err := d.admin.CreateCategory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (ID: %d)\n", c.Name, c.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				d, err := open()
				if err != nil {
					return err
				}
				table, err := d.admin.Categories(cmd.Context())
				if err != nil {
					return err
				}
				printTable(cmd.OutOrStdout(), table)
				return nil
			},
		},
	)
	return categories
}

func newWikiCmd(open opener, fs afero.Fs) *cobra.Command {
	wikiCmd := &cobra.Command{
		Use:   "wiki",
		Short: "Manage encyclopedia entries",
	}
	wikiCmd.AddCommand(&cobra.Command{
		Use:   "import <dir>",
		Short: "Import every .md file in dir as an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open()
			if err != nil {
				return err
			}
			n, err := d.wiki.Import(cmd.Context(), fs, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries from %s\n", n, args[0])
			return nil
		},
	})
	return wikiCmd
}

func printTable(w io.Writer, table *service.AdminTable) {
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%s: %v", col, row[col])
		}
		fmt.Fprintln(w)
	}
}

func main() {
	if err := newRootCmd(openFromConfig, afero.NewOsFs()).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
