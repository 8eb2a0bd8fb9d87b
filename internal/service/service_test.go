package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/registry"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
	"github.com/mmynk/splitledger/pkg/api"
)

type testServer struct {
	auth   api.AuthServiceClient
	groups api.GroupServiceClient
	ledger api.LedgerServiceClient
	pub    *events.MemoryPublisher
}

// setupTestServer wires the three services the way cmd/server does, backed
// by a temporary SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := events.NewMemoryPublisher()
	coord := ledger.New(store, ledger.WithPublisher(pub), ledger.WithLogger(logger))
	reg := registry.New(store, coord)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	authSvc := NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, logger)
	authPath, authHandler := api.NewAuthServiceHandler(authSvc,
		connect.WithInterceptors(middleware.OptionalAuth(jwtManager)))

	protected := connect.WithInterceptors(middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor())
	groupPath, groupHandler := api.NewGroupServiceHandler(NewGroupService(reg), protected)
	ledgerPath, ledgerHandler := api.NewLedgerServiceHandler(NewLedgerService(coord, reg), protected)

	mux := http.NewServeMux()
	mux.Handle(authPath, authHandler)
	mux.Handle(groupPath, groupHandler)
	mux.Handle(ledgerPath, ledgerHandler)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testServer{
		auth:   api.NewAuthServiceClient(http.DefaultClient, server.URL),
		groups: api.NewGroupServiceClient(http.DefaultClient, server.URL),
		ledger: api.NewLedgerServiceClient(http.DefaultClient, server.URL),
		pub:    pub,
	}
}

// register creates an account and returns its bearer token.
func (s *testServer) register(t *testing.T, name string) string {
	t.Helper()
	resp, err := s.auth.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password-" + name,
	}))
	if err != nil {
		t.Fatalf("Register %s failed: %v", name, err)
	}
	return resp.Msg.Token
}

// as attaches a bearer token to msg.
func as[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got no error", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("expected code %v, got %v (%v)", want, got, err)
	}
}
