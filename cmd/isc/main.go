// Command isc is the IndentScript CLI: transpile sources to ECMAScript,
// optionally execute them, or serve an editor integration over stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/indentscript/isc/evaluator"
	"github.com/indentscript/isc/lsp"
	"github.com/indentscript/isc/transpile"
)

const version = "0.1.0"

var log = commonlog.GetLogger("isc")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("isc", flag.ContinueOnError)
	verbose := fs.Bool("verbose", false, "verbose logging")
	transpileFlag := fs.Bool("transpile", false, "transpile a source file")
	transpileShort := fs.Bool("t", false, "transpile a source file (shorthand)")
	executeFlag := fs.Bool("execute", false, "transpile then execute a source file")
	executeShort := fs.Bool("e", false, "transpile then execute a source file (shorthand)")
	versionFlag := fs.Bool("version", false, "print version")
	versionShort := fs.Bool("v", false, "print version (shorthand)")
	helpShort := fs.Bool("h", false, "print usage (shorthand)")
	lspFlag := fs.Bool("lsp", false, "start the language server on stdio")
	runtime := fs.String("runtime", "node", "JavaScript runtime used by --execute")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: isc [options] <input> [output]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  isc --transpile greet.isc          # writes greet.js\n")
		fmt.Fprintf(os.Stderr, "  isc -t greet.isc out.js            # writes out.js\n")
		fmt.Fprintf(os.Stderr, "  isc --execute greet.isc            # runs via node\n")
		fmt.Fprintf(os.Stderr, "  isc --lsp                          # serve over stdio\n")
	}

	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	if *verbose {
		commonlog.SetMaxLevel(commonlog.Debug)
	}

	switch {
	case *versionFlag || *versionShort:
		fmt.Println("isc", version)
		return 0

	case *helpShort:
		fs.Usage()
		return 0

	case *lspFlag:
		log.Info("starting language server on stdio")
		if err := lsp.New().Run(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case *transpileFlag || *transpileShort:
		return runTranspile(fs.Args())

	case *executeFlag || *executeShort:
		return runExecute(fs.Args(), *runtime)

	case len(fs.Args()) == 0:
		fs.Usage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "isc: unknown command %q\n", strings.Join(fs.Args(), " "))
		return 1
	}
}

func runTranspile(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "isc: --transpile requires an input file")
		return 1
	}
	in := args[0]
	out := args[0]
	if len(args) > 1 {
		out = args[1]
	} else {
		ext := filepath.Ext(in)
		out = strings.TrimSuffix(in, ext) + ".js"
	}

	source, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	target, err := transpile.Transpile(string(source))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := os.WriteFile(out, []byte(target), 0o644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Infof("wrote %s", out)
	return 0
}

func runExecute(args []string, runtime string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "isc: --execute requires an input file")
		return 1
	}
	source, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out, err := evaluator.Execute(context.Background(), string(source), runtime)
	fmt.Print(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
