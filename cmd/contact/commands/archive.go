package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/devfolio/portfolio-backend/config"
	"github.com/devfolio/portfolio-backend/db"
	apperrors "github.com/devfolio/portfolio-backend/errors"
	"github.com/devfolio/portfolio-backend/store"
	"github.com/devfolio/portfolio-backend/store/postgres"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// archive list | show <id>: inspect archived messages. Reads DB_* settings.
func archiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect the contact message archive",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived contact messages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(cmd, func(s store.ContactStore) error {
				return listMessages(cmd, s, limit, offset)
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of messages")
	list.Flags().IntVar(&offset, "offset", 0, "number of messages to skip")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one archived contact message in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withArchive(cmd, func(s store.ContactStore) error {
				return showMessage(cmd, s, args[0])
			})
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

func withArchive(cmd *cobra.Command, fn func(store.ContactStore) error) error {
	dbCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(cmd.Context(), dbCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(postgres.NewContactStore(pool))
}

func listMessages(cmd *cobra.Command, s store.ContactStore, limit, offset int) error {
	messages, err := s.ListMessages(cmd.Context(), limit, offset)
	if err != nil {
		return apperrors.Wrap(err, apperrors.DatabaseError, "Failed to list archived messages")
	}
	writeMessages(cmd.OutOrStdout(), messages)
	return nil
}

func showMessage(cmd *cobra.Command, s store.ContactStore, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.ValidationFailed("Invalid message ID", err.Error())
	}

	msg, err := s.GetMessage(cmd.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.New(apperrors.NotFoundError, "Message not found", id)
	case err != nil:
		return apperrors.Wrap(err, apperrors.DatabaseError, "Failed to load archived message")
	}
	writeMessage(cmd.OutOrStdout(), msg)
	return nil
}

func writeMessage(w io.Writer, m *types.ContactMessage) {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", m.ID)
	fmt.Fprintf(tw, "Received:\t%s\n", m.ReceivedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "From:\t%s <%s>\n", m.Name, m.Email)
	fmt.Fprintf(tw, "Remote IP:\t%s\n", m.RemoteIP)
	fmt.Fprintf(tw, "User agent:\t%s\n", m.UserAgent)
	fmt.Fprintf(tw, "Delivered:\t%t\n", m.Delivered)
	if m.ProviderID != "" {
		fmt.Fprintf(tw, "Provider ID:\t%s\n", m.ProviderID)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%s\n", m.Message)
}

func writeMessages(w io.Writer, messages []*types.ContactMessage) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "no archived messages")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RECEIVED\tNAME\tEMAIL\tDELIVERED\tMESSAGE")
	for _, m := range messages {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			m.ReceivedAt.Format(time.RFC3339),
			m.Name,
			m.Email,
			m.Delivered,
			preview(m.Message, 40))
	}
	_ = tw.Flush()
}

func preview(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
