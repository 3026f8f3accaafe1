package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/example/weekly-events/internal/application"
	"github.com/example/weekly-events/internal/persistence"
	"github.com/example/weekly-events/internal/testfixtures"
)

func TestRunSeedAdminCreatesAdminAccount(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	users := application.NewUserServiceWithLogger(store,
		func(password string) (string, error) { return "hashed:" + password, nil },
		nil, nil)

	var out bytes.Buffer
	err := RunSeedAdmin(context.Background(), []string{"-username", "root", "-surname", "Admin"}, strings.NewReader("s3cret\n"), &out, users)
	if err != nil {
		t.Fatalf("RunSeedAdmin returned error: %v", err)
	}
	if !strings.Contains(out.String(), `account "root" saved`) {
		t.Fatalf("unexpected output: %q", out.String())
	}

	var doc struct {
		Users []application.User `json:"users"`
	}
	if ok, err := store.Get(persistence.UsersKey, &doc); err != nil || !ok {
		t.Fatalf("expected persisted users document, ok=%v err=%v", ok, err)
	}
	if len(doc.Users) != 1 {
		t.Fatalf("expected one account, got %+v", doc.Users)
	}
	account := doc.Users[0]
	if account.Username != "root" || account.Role != application.RoleAdmin || account.PasswordHash != "hashed:s3cret" {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestRunSeedAdminRejectsEmptyPassword(t *testing.T) {
	t.Parallel()

	store := testfixtures.NewMemoryStore()
	users := application.NewUserService(store)

	var out bytes.Buffer
	err := RunSeedAdmin(context.Background(), nil, strings.NewReader("\n"), &out, users)
	if err == nil {
		t.Fatalf("expected error for empty password")
	}
}
