package main

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/productfruits/academy/core"
	"github.com/productfruits/academy/core/user"
	inmemdb "github.com/productfruits/academy/storage/database/inmem"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	t.Helper()
	logger = log.New(os.Stdout, "ADMIN TEST : ", log.LstdFlags)

	db := inmemdb.Open()
	usrRepo = inmemdb.NewUserRepository(db)
	return &commandLine{
		usrRepo: usrRepo,
		crsRepo: inmemdb.NewCourseRepository(db),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	extra   interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	orig := migrateFunc
	defer func() { migrateFunc = orig }()

	var migrated bool
	migrateFunc = func(db *sqlx.DB) error {
		migrated = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !migrated {
		t.Error("migrate subcommand did not run the migrations")
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"addadmin", "-email", "root@test.cd"}, wantErr: errHelp},
		{name: "created", args: []string{"addadmin", "-email", "Root@Test.CD", "-first-name", "Root"}, extra: extra{pwd: "s3cret-w0rd"}},
		{name: "promoted on re-run", args: []string{"addadmin", "-email", "root@test.cd"}, extra: extra{pwd: "an0ther-w0rd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			usr, err := usrRepo.GetUserByEmail(context.Background(), "root@test.cd")
			if err != nil {
				t.Fatalf("GetUserByEmail(): %v", err)
			}
			if !usr.IsAdmin() || !usr.IsActive() {
				t.Errorf("failed! role = %v, status = %v; want active admin", usr.Role, usr.Status)
			}
			if extra, ok := tt.extra.(extra); ok {
				if err := usr.CheckPassword(extra.pwd); err != nil {
					t.Error("failed! password not set")
				}
			}
		})
	}
}

func Test_commandLine_addAdmin_pinnedClock(t *testing.T) {
	cli := setup(t)

	orig := core.NowFunc
	core.NowFunc = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	defer func() { core.NowFunc = orig }()

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cret-w0rd"), nil }
	if err := cli.run([]string{"admin", "addadmin", "-email", "root@test.cd"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	// re-running with the clock unchanged must update the account, not
	// attempt a second create
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("an0ther-w0rd"), nil }
	if err := cli.run([]string{"admin", "addadmin", "-email", "root@test.cd"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}

	users, err := usrRepo.QueryAllUsers(context.Background())
	if err != nil {
		t.Fatalf("QueryAllUsers(): %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("failed! len(users) = %d; want 1", len(users))
	}
	if err := users[0].CheckPassword("an0ther-w0rd"); err != nil {
		t.Error("failed! password not updated")
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	courses, err := cli.crsRepo.QueryAllCourses(context.Background())
	if err != nil {
		t.Fatalf("QueryAllCourses(): %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("failed! len(courses) = %d; want 1", len(courses))
	}
	seeded := courses[0]

	// seeding again must not duplicate
	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	courses, err = cli.crsRepo.QueryAllCourses(context.Background())
	if err != nil {
		t.Fatalf("QueryAllCourses(): %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("failed! len(courses) = %d; want 1", len(courses))
	}
	if courses[0].ID != seeded.ID {
		t.Error("failed! seeded course replaced")
	}
}
