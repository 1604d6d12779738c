package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/devfolio/portfolio-backend/internal/contact"
	"github.com/spf13/cobra"
)

const defaultEndpoint = "http://localhost:8080/api/sendEmail"

type sendOptions struct {
	endpoint     string
	input        contact.SubmissionInput
	wait         bool
	dismissAfter time.Duration
	timeout      time.Duration
}

// send: submit one message through the contact flow and print every status.
func sendCmd() *cobra.Command {
	opts := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a contact message to the portfolio endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.endpoint, "endpoint", defaultEndpoint, "contact endpoint URL (env CONTACT_ENDPOINT)")
	cmd.Flags().StringVar(&opts.input.Name, "name", "", "sender name")
	cmd.Flags().StringVar(&opts.input.Email, "email", "", "sender email address")
	cmd.Flags().StringVar(&opts.input.Message, "message", "", "message body")
	cmd.Flags().BoolVar(&opts.wait, "wait", false, "stay until the status is dismissed")
	cmd.Flags().DurationVar(&opts.dismissAfter, "dismiss-after", contact.DefaultDismissAfter, "how long the final status stays visible")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "HTTP timeout (0 waits indefinitely)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func runSend(cmd *cobra.Command, opts *sendOptions) error {
	if !opts.input.Complete() {
		return fmt.Errorf("name, email and message must not be blank")
	}
	// Read after the root command has loaded --env-file.
	if !cmd.Flags().Changed("endpoint") {
		if endpoint := os.Getenv("CONTACT_ENDPOINT"); endpoint != "" {
			opts.endpoint = endpoint
		}
	}

	out := cmd.OutOrStdout()
	// Only the dismiss timer moves the flow back to idle.
	dismissed := make(chan struct{})
	var once sync.Once

	client := contact.NewClient(opts.endpoint, contact.WithHTTPClient(&http.Client{Timeout: opts.timeout}))
	flow := contact.NewFlow(client,
		contact.WithDismissAfter(opts.dismissAfter),
		contact.WithStatusListener(func(s contact.Status) {
			printStatus(out, s)
			if s.Phase == contact.PhaseIdle {
				once.Do(func() { close(dismissed) })
			}
		}),
	)
	defer flow.Close()

	final := flow.Submit(cmd.Context(), opts.input)

	if opts.wait {
		select {
		case <-dismissed:
		case <-cmd.Context().Done():
		}
	}

	if final.Phase == contact.PhaseFailed {
		return fmt.Errorf("message was not delivered")
	}
	return nil
}

func printStatus(w io.Writer, s contact.Status) {
	if s.Text == "" {
		fmt.Fprintf(w, "[%s]\n", s.Phase)
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", s.Phase, s.Text)
}
