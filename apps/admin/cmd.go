package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/productfruits/academy/core/course"
	"github.com/productfruits/academy/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
	crsRepo course.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addadmin -email EMAIL [-first-name NAME] [-last-name NAME] - create or promote an admin account")
	fmt.Println("  migrate                                                    - apply pending database migrations")
	fmt.Println("  seed                                                       - load demo data into an empty database")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ExitOnError)
	addAdminEmail := addAdminCmd.String("email", "", "The admin's email. The password will be prompted next.")
	addAdminFirstName := addAdminCmd.String("first-name", "", "The admin's first name.")
	addAdminLastName := addAdminCmd.String("last-name", "", "The admin's last name.")

	switch args[1] {
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminEmail == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addAdminCmd.Usage()
			return errHelp
		}
		return cli.addAdmin(*addAdminEmail, *addAdminFirstName, *addAdminLastName, string(pwd))
	case "migrate":
		return cli.migrate()
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
