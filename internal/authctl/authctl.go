// Package authctl implements the operator command line for password
// material: hashing, verifying against a stored hash, generating and rating
// passwords.
package authctl

import (
	"bufio"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/campusauth/internal/server/passwords"
)

const usage = `usage: authctl <command> [arguments]

commands:
  hash               read a password and print its stored form
  verify <stored>    read a password and check it against a stored hash
  generate [-n len]  print a random password (default length 12)
  strength           read a password and rate it
`

const defaultGeneratedLength = 12

// Run executes one command and returns the process exit code: 0 on success,
// 1 when verify does not match or a command fails, 2 on usage errors.
func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	in := bufio.NewReader(stdin)
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "hash":
		pw, err := getPassword(in, stderr, "Password: ")
		if err != nil {
			return fail(stderr, err)
		}
		h, err := passwords.Hash(pw)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintln(stdout, h)
		return 0

	case "verify":
		if len(rest) != 1 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		pw, err := getPassword(in, stderr, "Password: ")
		if err != nil {
			return fail(stderr, err)
		}
		if passwords.Verify(pw, rest[0]) {
			fmt.Fprintln(stdout, "match")
			return 0
		}
		fmt.Fprintln(stdout, "no match")
		return 1

	case "generate":
		fs := flag.NewFlagSet("generate", flag.ContinueOnError)
		fs.SetOutput(stderr)
		n := fs.Int("n", defaultGeneratedLength, "password length")
		if err := fs.Parse(rest); err != nil {
			return 2
		}
		pw, err := passwords.GenerateSecurePassword(*n)
		if err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintln(stdout, pw)
		return 0

	case "strength":
		pw, err := getPassword(in, stderr, "Password: ")
		if err != nil {
			return fail(stderr, err)
		}
		s := passwords.CheckStrength(pw)
		fmt.Fprintf(stdout, "%s: %s\n", s, s.Description())
		return 0

	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0

	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		fmt.Fprint(stderr, usage)
		return 2
	}
}

func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "error: %v\n", err)
	return 1
}
