package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/eshop/internal/logger"
	"github.com/nkiryanov/eshop/internal/mailer"
	"github.com/nkiryanov/eshop/internal/models"
	"github.com/nkiryanov/eshop/internal/repository/postgres"
	"github.com/nkiryanov/eshop/internal/service/auth"
	"github.com/nkiryanov/eshop/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/eshop/internal/service/passwordreset"
	"github.com/nkiryanov/eshop/internal/service/user"
	"github.com/nkiryanov/eshop/internal/testutil"
)

// Keeps sent messages in memory
type mailbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *mailbox) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

var codeRe = regexp.MustCompile(`Code Is: ([A-Z2-7]{8}) `)

// Code from the last sent message
func (m *mailbox) lastCode(t *testing.T) string {
	t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no message sent")

	match := codeRe.FindStringSubmatch(m.sent[len(m.sent)-1].Body)
	require.Len(t, match, 2, "message has to contain reset code")
	return match[1]
}

type services struct {
	Tx      pgx.Tx
	Auth    *auth.AuthService
	User    *user.UserService
	Reset   *passwordreset.Service
	Mailbox *mailbox
}

// Run server on top of db transaction (one connection cause one transaction)
// Requests have to be done one by one
func serveWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(srvURL string, s services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		us := user.NewService(user.BcryptHasher{Cost: bcrypt.MinCost}, storage)

		as, err := auth.NewService(auth.Config{}, tokenManager, us)
		require.NoError(t, err, "auth service starting error", err)

		box := &mailbox{}
		l := logger.NewNoOpLogger()
		rs := passwordreset.NewService(passwordreset.Config{}, us, storage.Codes(), box, as, l)

		srv := httptest.NewServer(NewRouter(as, us, rs, l))
		defer srv.Close()

		fn(srv.URL, services{Tx: tx, Auth: as, User: us, Reset: rs, Mailbox: box})
	})
}

// Send request with json body and optional access token
func doJSON(t *testing.T, method string, url string, body string, access string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(respBody)
}

func createUser(t *testing.T, s services, email string, pwd string) models.User {
	t.Helper()

	u, err := s.User.CreateUser(t.Context(), user.CreateUserParams{
		Email:     email,
		FirstName: "Ivan",
		LastName:  "Petrov",
		Password:  pwd,
	})
	require.NoError(t, err)
	return u
}

func decodePair(t *testing.T, body string) (access string, refresh string) {
	t.Helper()

	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &pair))
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	return pair.Access, pair.Refresh
}
