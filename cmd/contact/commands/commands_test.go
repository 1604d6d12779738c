package commands

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/devfolio/portfolio-backend/errors"
	"github.com/devfolio/portfolio-backend/logger"
	"github.com/devfolio/portfolio-backend/store"
	"github.com/devfolio/portfolio-backend/types"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", ""))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func newEndpoint(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSend_Success(t *testing.T) {
	server := newEndpoint(t, http.StatusOK)

	out, err := runRoot(t, "send",
		"--endpoint", server.URL,
		"--name", "Jane",
		"--email", "jane@x.com",
		"--message", "Hi")

	require.NoError(t, err)
	assert.Contains(t, out, "[submitting]")
	assert.Contains(t, out, "[succeeded] Message sent successfully! I will get back to you soon.")
	assert.NotContains(t, out, "[idle]")
}

func TestSend_FailureReturnsError(t *testing.T) {
	server := newEndpoint(t, http.StatusInternalServerError)

	out, err := runRoot(t, "send",
		"--endpoint", server.URL,
		"--name", "Jane",
		"--email", "jane@x.com",
		"--message", "Hi")

	require.Error(t, err)
	assert.Contains(t, out, "[failed] Failed to send message. Please try again later.")
}

func TestSend_WaitUntilDismissed(t *testing.T) {
	server := newEndpoint(t, http.StatusOK)

	out, err := runRoot(t, "send",
		"--endpoint", server.URL,
		"--name", "Jane",
		"--email", "jane@x.com",
		"--message", "Hi",
		"--wait",
		"--dismiss-after", "20ms")

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "[idle]"), out)
}

func TestSend_EndpointFromEnvFile(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	t.Setenv("CONTACT_ENDPOINT", "")
	require.NoError(t, os.Unsetenv("CONTACT_ENDPOINT"))

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("CONTACT_ENDPOINT="+server.URL+"\n"), 0o600))

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"send",
		"--env-file", envFile,
		"--name", "Jane",
		"--email", "jane@x.com",
		"--message", "Hi"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, int32(1), hits.Load())
	assert.Contains(t, out.String(), "[succeeded]")
}

func TestSend_EndpointFlagOverridesEnv(t *testing.T) {
	server := newEndpoint(t, http.StatusOK)
	t.Setenv("CONTACT_ENDPOINT", "http://127.0.0.1:1/unreachable")

	out, err := runRoot(t, "send",
		"--endpoint", server.URL,
		"--name", "Jane",
		"--email", "jane@x.com",
		"--message", "Hi")

	require.NoError(t, err)
	assert.Contains(t, out, "[succeeded]")
}

func TestSend_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing message flag", []string{"send", "--name", "Jane", "--email", "jane@x.com"}},
		{"blank name", []string{"send", "--name", "  ", "--email", "jane@x.com", "--message", "Hi"}},
		{"unexpected argument", []string{"send", "extra", "--name", "Jane", "--email", "jane@x.com", "--message", "Hi"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runRoot(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

type fakeArchive struct {
	messages []*types.ContactMessage
	limit    int
	offset   int
	err      error
}

func (f *fakeArchive) SaveMessage(ctx context.Context, msg *types.ContactMessage) error { return nil }

func (f *fakeArchive) GetMessage(ctx context.Context, id string) (*types.ContactMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, m := range f.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeArchive) ListMessages(ctx context.Context, limit, offset int) ([]*types.ContactMessage, error) {
	f.limit, f.offset = limit, offset
	return f.messages, f.err
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func TestListMessages(t *testing.T) {
	archive := &fakeArchive{messages: []*types.ContactMessage{{
		Name:       "Jane",
		Email:      "jane@x.com",
		Message:    "Hello\nthere, this message is long enough to be cut short in the table",
		ReceivedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Delivered:  true,
	}}}

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, listMessages(cmd, archive, 5, 10))

	assert.Equal(t, 5, archive.limit)
	assert.Equal(t, 10, archive.offset)
	assert.Contains(t, out.String(), "RECEIVED")
	assert.Contains(t, out.String(), "2026-03-01T12:00:00Z")
	assert.Contains(t, out.String(), "Hello there")
	assert.Contains(t, out.String(), "…")
}

func TestListMessages_Empty(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, listMessages(cmd, &fakeArchive{}, 20, 0))
	assert.Equal(t, "no archived messages\n", out.String())
}

func TestListMessages_StoreError(t *testing.T) {
	cmd, _ := newTestCommand()

	err := listMessages(cmd, &fakeArchive{err: errors.New("connection reset")}, 20, 0)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.DatabaseError, appErr.Type)
	assert.Equal(t, "connection reset", appErr.Detail)
}

func TestShowMessage(t *testing.T) {
	const id = "9b2f7c1e-3d4a-4f5b-8c6d-7e8f9a0b1c2d"
	archive := &fakeArchive{messages: []*types.ContactMessage{{
		ID:         id,
		Name:       "Jane",
		Email:      "jane@x.com",
		Message:    "Hello\nthere",
		RemoteIP:   "203.0.113.7",
		ReceivedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Delivered:  true,
		ProviderID: "re_123",
	}}}

	cmd, out := newTestCommand()
	require.NoError(t, showMessage(cmd, archive, id))

	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "Jane <jane@x.com>")
	assert.Contains(t, out.String(), "2026-03-01T12:00:00Z")
	assert.Contains(t, out.String(), "re_123")
	assert.True(t, strings.HasSuffix(out.String(), "\nHello\nthere\n"))
}

func TestShowMessage_Errors(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		archive  *fakeArchive
		wantType apperrors.ErrorType
	}{
		{"malformed id", "not-a-uuid", &fakeArchive{}, apperrors.ValidationError},
		{"unknown id", "9b2f7c1e-3d4a-4f5b-8c6d-7e8f9a0b1c2d", &fakeArchive{}, apperrors.NotFoundError},
		{"store failure", "9b2f7c1e-3d4a-4f5b-8c6d-7e8f9a0b1c2d", &fakeArchive{err: errors.New("timeout")}, apperrors.DatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, out := newTestCommand()

			err := showMessage(cmd, tt.archive, tt.id)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.wantType, appErr.Type)
			assert.Empty(t, out.String())
		})
	}
}

func TestArchiveCommands(t *testing.T) {
	root := NewRootCommand()

	show, _, err := root.Find([]string{"archive", "show"})
	require.NoError(t, err)
	assert.Error(t, show.Args(show, nil))
	assert.NoError(t, show.Args(show, []string{"id"}))

	list, _, err := root.Find([]string{"archive", "list"})
	require.NoError(t, err)
	assert.NotNil(t, list.Flags().Lookup("limit"))
	assert.NotNil(t, list.Flags().Lookup("offset"))
}
