// dirctl is a thin command-line front end over the directory client core.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/pflag"

	directory "github.com/medmanager/go-directory"
	"github.com/medmanager/go-directory/adapters/zaplog"
)

const usage = `usage: dirctl <command> [flags]

commands:
  login     authenticate and persist the session
  logout    clear the persisted session
  whoami    show the persisted principal
  register  self-register a new account
  list      show the account roster
  create    create an account (administrator only)
  update    edit an account (administrator only)
  toggle    flip an account's active status (administrator only)
  delete    remove an account (administrator only)
`

type app struct {
	cfg    *appConfig
	logger directory.Logger
	store  directory.SessionStore
	client *directory.Client
	guard  *directory.Guard
	roster *directory.Roster
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	command := os.Args[1]
	flags := pflag.NewFlagSet(command, pflag.ExitOnError)
	registerGlobalFlags(flags)

	email := flags.String("email", "", "account email")
	password := flags.String("password", "", "account password")
	name := flags.String("name", "", "account full name")
	role := flags.Int("role", 0, "numeric role key (1-4)")
	id := flags.Int64("id", 0, "account id")

	if err := flags.Parse(os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	a, err := newApp(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*a.cfg.Timeout)
	defer cancel()

	switch command {
	case "login":
		err = a.login(ctx, *email, *password)
	case "logout":
		err = a.guard.Logout(ctx)
	case "whoami":
		err = a.whoami()
	case "register":
		err = a.register(ctx, *name, *email, *password, *role)
	case "list":
		err = a.list(ctx)
	case "create":
		err = a.create(ctx, *name, *email, *password, *role)
	case "update":
		err = a.update(ctx, *id, *name, *email, *role)
	case "toggle":
		err = a.mutate(ctx, func(ctx context.Context) error { return a.roster.ToggleStatus(ctx, *id) })
	case "delete":
		err = a.mutate(ctx, func(ctx context.Context) error { return a.roster.Delete(ctx, *id) })
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		if failure, ok := directory.FailureFrom(err); ok {
			fmt.Fprintln(os.Stderr, failure.UserMessage())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newApp(flags *pflag.FlagSet) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logger, err := zaplog.New(cfg.LogLevel, cfg.LogFormat, "dirctl")
	if err != nil {
		return nil, err
	}

	store := directory.NewFileSessionStore(cfg.SessionPath)
	client := directory.NewClient(cfg, directory.WithClientLogger(logger))
	guard := directory.NewGuard(store, client, directory.WithGuardLogger(logger))
	roster := directory.NewRoster(guard, client, directory.WithRosterLogger(logger))

	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		client: client,
		guard:  guard,
		roster: roster,
	}, nil
}

// login drives the authentication form so credential validation matches the
// interactive flow.
func (a *app) login(ctx context.Context, email, password string) error {
	form := directory.NewLoginForm(a.guard)
	if err := form.SetField(directory.FieldEmail, email); err != nil {
		return err
	}
	if err := form.SetField(directory.FieldPassword, password); err != nil {
		return err
	}
	if err := a.submitForm(ctx, form); err != nil {
		return err
	}

	principal, _ := a.guard.Principal()
	fmt.Printf("signed in as %s (%s)\n", principal.DisplayName, principal.Role.Label())
	return nil
}

func (a *app) whoami() error {
	session, ok, err := a.store.Load()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("no session; run dirctl login")
	}

	fmt.Printf("user:  %s (id %d)\n", session.Principal.DisplayName, session.Principal.ID)
	fmt.Printf("role:  %s\n", session.Principal.Role.Label())

	// Display-only claim peek; validity is always decided by the service.
	parser := jwt.NewParser()
	if token, _, err := parser.ParseUnverified(session.Token, jwt.MapClaims{}); err == nil {
		if issuer, err := token.Claims.GetIssuer(); err == nil && issuer != "" {
			fmt.Printf("issuer: %s\n", issuer)
		}
		if expires, err := token.Claims.GetExpirationTime(); err == nil && expires != nil {
			fmt.Printf("token expires: %s\n", expires.Format(time.RFC1123))
		}
	}
	return nil
}

func (a *app) register(ctx context.Context, name, email, password string, role int) error {
	form := directory.NewRegisterForm(a.client)
	fields := map[string]string{
		directory.FieldFullName: name,
		directory.FieldEmail:    email,
		directory.FieldPassword: password,
	}
	if role != 0 {
		fields[directory.FieldRoleKey] = strconv.Itoa(role)
	}
	for field, value := range fields {
		if err := form.SetField(field, value); err != nil {
			return err
		}
	}
	if err := a.submitForm(ctx, form); err != nil {
		return err
	}

	fmt.Println("registered; you can now sign in")
	return nil
}

func (a *app) list(ctx context.Context) error {
	accounts, err := a.guard.Activate(ctx)
	if err != nil {
		return err
	}
	a.roster.Seed(accounts)

	caps := a.guard.Capabilities()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
	for _, account := range accounts {
		status := "inactive"
		if account.IsActive {
			status = "active"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			account.ID, account.FullName, account.Email, account.Role.Label(), status)
	}
	w.Flush()

	if !caps.CanCreate {
		fmt.Println("(read-only: mutations are administrator-only)")
	}
	return nil
}

func (a *app) create(ctx context.Context, name, email, password string, role int) error {
	if _, err := a.guard.Activate(ctx); err != nil {
		return err
	}

	form := directory.NewAccountCreateForm(a.roster)
	fields := map[string]string{
		directory.FieldFullName: name,
		directory.FieldEmail:    email,
		directory.FieldPassword: password,
	}
	if role != 0 {
		fields[directory.FieldRoleKey] = strconv.Itoa(role)
	}
	for field, value := range fields {
		if err := form.SetField(field, value); err != nil {
			return err
		}
	}
	if err := a.submitForm(ctx, form); err != nil {
		return err
	}

	fmt.Println("account created")
	return nil
}

func (a *app) update(ctx context.Context, id int64, name, email string, role int) error {
	if id == 0 {
		return errors.New("--id is required")
	}
	if _, err := a.guard.Activate(ctx); err != nil {
		return err
	}

	form := directory.NewAccountEditForm(a.roster, id)
	fields := map[string]string{
		directory.FieldFullName: name,
		directory.FieldEmail:    email,
	}
	if role != 0 {
		fields[directory.FieldRoleKey] = strconv.Itoa(role)
	}
	for field, value := range fields {
		if err := form.SetField(field, value); err != nil {
			return err
		}
	}
	if err := a.submitForm(ctx, form); err != nil {
		return err
	}

	fmt.Println("account updated")
	return nil
}

func (a *app) mutate(ctx context.Context, op func(ctx context.Context) error) error {
	accounts, err := a.guard.Activate(ctx)
	if err != nil {
		return err
	}
	a.roster.Seed(accounts)

	if err := op(ctx); err != nil {
		return err
	}
	fmt.Println("done")
	return nil
}

func (a *app) submitForm(ctx context.Context, form *directory.Form) error {
	err := form.Submit(ctx)
	if err == nil {
		return nil
	}

	fieldErrors := form.FieldErrors()
	for field, msg := range fieldErrors {
		fmt.Fprintf(os.Stderr, "%s: %s\n", field, msg)
	}
	if len(fieldErrors) > 0 {
		return errors.New("fix the fields above and retry")
	}
	return err
}
