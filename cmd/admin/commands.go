package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/repositories"
	"github.com/yigit/schoolsphere/internal/bootstrap"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/pkg/validation"
	"github.com/yigit/schoolsphere/internal/seed"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

var errPasswordMismatch = errors.New("passwords do not match")

// passwordReader prompts and returns one line of input.
type passwordReader func(prompt string) (string, error)

// terminalPassword reads without echo when stdin is a terminal and falls
// back to a plain line read for piped input.
func terminalPassword(in *os.File, out io.Writer) passwordReader {
	lines := bufio.NewReader(in)
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
		line, err := lines.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

// choosePassword asks twice and enforces the password rules.
func choosePassword(read passwordReader) (string, error) {
	password, err := read("Password: ")
	if err != nil {
		return "", err
	}
	if !validation.IsStrongPassword(password) {
		return "", fmt.Errorf("password must be at least %d characters and contain a letter and a digit", validation.PasswordMinLength)
	}
	again, err := read("Password (again): ")
	if err != nil {
		return "", err
	}
	if again != password {
		return "", errPasswordMismatch
	}
	return password, nil
}

func runCreateSuperuser(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	username := fs.String("username", "", "login name")
	address := fs.String("email", "", "email address")
	first := fs.String("first-name", "", "first name")
	last := fs.String("last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*username) == "" || !validation.IsEmail(*address) {
		return errors.New("createsuperuser needs -username and a valid -email")
	}

	password, err := choosePassword(terminalPassword(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &models.User{
		Username:  strings.TrimSpace(*username),
		Email:     strings.ToLower(*address),
		Password:  hash,
		FirstName: *first,
		LastName:  *last,
		RoleType:  models.RoleSuperAdmin,
		IsActive:  true,
	}
	users := repositories.NewUserRepository(e.database.SQL)
	if err := users.Create(tenancy.WithTenant(ctx, tenancy.Public()), user); err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	e.logger.Info().Int64("userId", user.ID).Str("username", user.Username).Msg("Super admin created")
	fmt.Printf("super admin %q created\n", user.Username)
	return nil
}

func runCreateSchool(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("createschool", flag.ContinueOnError)
	name := fs.String("name", "", "school name")
	domain := fs.String("domain", "", "primary domain (defaults to <schema>.<base domain>)")
	schema := fs.String("schema", "", "schema name (derived from the name when empty)")
	principal := fs.String("principal", "Principal", "principal's full name")
	address := fs.String("email", "", "principal email, receives the admin credentials")
	phone := fs.String("phone", "0000000000", "contact phone")
	board := fs.String("board", string(models.BoardState), "board affiliation: CBSE, ICSE or STATE")
	year := fs.String("year", "apr-mar", "academic year: apr-mar or jun-may")
	withDefaults := fs.Bool("seed", true, "create the default classes and fee categories")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" || !validation.IsEmail(*address) {
		return errors.New("createschool needs -name and a valid -email")
	}

	start, end, err := academicMonths(*year)
	if err != nil {
		return err
	}

	deps, err := bootstrap.BuildDependencies(ctx, e.cfg, e.database, e.logger)
	if err != nil {
		return err
	}

	public := tenancy.WithTenant(ctx, tenancy.Public())
	school, err := deps.Schools.Register(public, &dto.RegisterSchoolRequest{
		Name:              *name,
		SchemaName:        *schema,
		Domain:            *domain,
		Address:           "-",
		ContactEmail:      *address,
		ContactPhone:      *phone,
		BoardAffiliation:  models.BoardAffiliation(strings.ToUpper(*board)),
		PrincipalName:     *principal,
		PrincipalEmail:    *address,
		PrincipalPhone:    *phone,
		AcademicYearStart: start,
		AcademicYearEnd:   end,
	})
	if err != nil {
		return err
	}

	approval, err := deps.Schools.Approve(public, school.ID)
	if err != nil {
		return err
	}

	fmt.Printf("school %q approved (id %d, schema %s)\n", school.Name, school.ID, school.SchemaName)
	for _, d := range school.Domains {
		fmt.Printf("  domain:   %s\n", d.Domain)
	}
	if approval.Admin != nil {
		fmt.Printf("  username: %s\n  password: %s\n", approval.Admin.Username, approval.Admin.Password)
	}

	if *withDefaults {
		return seedSchema(ctx, e, school.SchemaName)
	}
	return nil
}

func runSeed(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	schema := fs.String("schema", "", "school schema to seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !validation.IsSchemaName(*schema) {
		return fmt.Errorf("seed needs a valid -schema, got %q", *schema)
	}
	return seedSchema(ctx, e, *schema)
}

func seedSchema(ctx context.Context, e *env, schema string) error {
	repos := repositories.NewRepositories(e.database.SQL)
	tctx := tenancy.WithTenant(ctx, &tenancy.Tenant{SchemaName: schema, IsApproved: true})
	created, err := seed.SchoolDefaults(tctx, repos.ClassRepository, repos.FeeRepository, e.logger.With().Str("schema", schema).Logger())
	fmt.Printf("seeded %d default records into %s\n", created, schema)
	return err
}

func academicMonths(year string) (int, int, error) {
	switch strings.ToLower(year) {
	case "apr-mar":
		return 4, 3, nil
	case "jun-may":
		return 6, 5, nil
	}
	return 0, 0, fmt.Errorf("unknown academic year %q, use apr-mar or jun-may", year)
}
