package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/codeassociates/cfront/ast"
	"github.com/codeassociates/cfront/astprint"
	"github.com/codeassociates/cfront/demogen"
	"github.com/codeassociates/cfront/diag"
	"github.com/codeassociates/cfront/lexer"
	"github.com/codeassociates/cfront/parser"
)

const version = "0.1.0"

// defaultSystemIncludePaths is appended after whatever -isystem paths the
// driver is given, in lookup order.
var defaultSystemIncludePaths = []string{"/usr/local/include", "/usr/include"}

func usage() {
	fmt.Fprintf(os.Stderr, "cfront - a C99 front end\n\n")
	fmt.Fprintf(os.Stderr, "Usage: %s [options] <input.c> [input2.c ...]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  -I<dir>, --include-directory[=<dir>]         add a user include search path (repeatable)\n")
	fmt.Fprintf(os.Stderr, "  -isystem<dir>, --system-include-directory[=<dir>]  add a system include search path (repeatable)\n")
	fmt.Fprintf(os.Stderr, "  --ast                                        print the parsed AST instead of building IR\n")
	fmt.Fprintf(os.Stderr, "  -h, --help                                   print this message and exit\n")
}

// parsedArgs is the result of walking os.Args: every path flag's argument
// is appended to its slice in the order it was seen.
type parsedArgs struct {
	userIncludes   []string
	systemIncludes []string
	inputs         []string
	printAST       bool
	help           bool
}

// usageError is a plain error message: parseArgs returns one for a
// malformed invocation (missing flag argument, unrecognized option), and
// processFile returns one when a file's parse reported errors.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// parseArgs hand-walks args rather than using package flag directly,
// since several of the flags here take their argument glued to the flag
// itself (-Ifoo, -isystemfoo) in addition to the --long=value form, which
// flag's Var/Set machinery does not recognize on its own.
func parseArgs(args []string) (parsedArgs, error) {
	var out parsedArgs
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-h" || a == "--help":
			out.help = true
		case a == "--ast":
			out.printAST = true
		case a == "-I":
			i++
			if i >= len(args) {
				return out, usageError{"-I requires a directory argument"}
			}
			out.userIncludes = append(out.userIncludes, args[i])
		case strings.HasPrefix(a, "-I"):
			out.userIncludes = append(out.userIncludes, strings.TrimPrefix(a, "-I"))
		case a == "--include-directory":
			i++
			if i >= len(args) {
				return out, usageError{"--include-directory requires a directory argument"}
			}
			out.userIncludes = append(out.userIncludes, args[i])
		case strings.HasPrefix(a, "--include-directory="):
			out.userIncludes = append(out.userIncludes, strings.TrimPrefix(a, "--include-directory="))
		case a == "-isystem":
			i++
			if i >= len(args) {
				return out, usageError{"-isystem requires a directory argument"}
			}
			out.systemIncludes = append(out.systemIncludes, args[i])
		case strings.HasPrefix(a, "-isystem"):
			out.systemIncludes = append(out.systemIncludes, strings.TrimPrefix(a, "-isystem"))
		case a == "--system-include-directory":
			i++
			if i >= len(args) {
				return out, usageError{"--system-include-directory requires a directory argument"}
			}
			out.systemIncludes = append(out.systemIncludes, args[i])
		case strings.HasPrefix(a, "--system-include-directory="):
			out.systemIncludes = append(out.systemIncludes, strings.TrimPrefix(a, "--system-include-directory="))
		case strings.HasPrefix(a, "-") && a != "-":
			return out, usageError{fmt.Sprintf("unrecognized option %q", a)}
		default:
			out.inputs = append(out.inputs, a)
		}
	}
	return out, nil
}

func main() {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n\n", os.Args[0], err)
		usage()
		os.Exit(1)
	}
	if args.help {
		usage()
		os.Exit(0)
	}
	if len(args.inputs) == 0 {
		fmt.Fprintf(os.Stderr, "%s: no input files\n\n", os.Args[0])
		usage()
		os.Exit(1)
	}

	systemPaths := append(append([]string{}, args.systemIncludes...), defaultSystemIncludePaths...)

	exitCode := 0
	for _, path := range args.inputs {
		if err := processFile(path, args.userIncludes, systemPaths, args.printAST); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func processFile(path string, userPaths, systemPaths []string, printAST bool) error {
	diags := &diag.Bag{}
	global := lexer.NewGlobalContext(userPaths, systemPaths, nil, diags)

	input, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", path, err)
	}

	toks := lexer.Tokenize(path, input, global)

	p := parser.New(toks, diags)
	tu := p.Parse()

	var exitErr error
	for _, d := range diags.All() {
		fmt.Fprintln(os.Stderr, d.String())
		if d.Severity == diag.Error {
			exitErr = usageError{"parse completed with errors"}
		}
	}

	if printAST {
		astprint.Fprint(os.Stdout, tu)
		return exitErr
	}

	for _, decl := range tu.Decls {
		if fd, ok := decl.(*ast.FunctionDefinition); ok && fd.Body != nil {
			if _, err := demogen.Build(fd); err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s: %s\n", path, fd.Name.Lexeme, err)
			}
		}
	}

	return exitErr
}
