// tiersplit generates the tier1 (threaded, JIT-aware) and tier2 (plain)
// variants of an annotated interpreter source file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/tiersplit/manifest"
	"github.com/chazu/tiersplit/transform"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("tiersplit")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command line and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("tiersplit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose output")
	toStdout := fs.Bool("stdout", false, "Print the generated source instead of writing a file")
	treeInput := fs.Bool("tree", false, "Read the input as a CBOR tree instead of source text")
	emitTree := fs.Bool("emit-tree", false, "Also write the generated tree as <base>_<tier>.tree")
	configDir := fs.String("config", "", "Directory containing tiersplit.toml (default: search upward from the input)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: tiersplit [options] <filename> <tier>\n")
		fmt.Fprintf(stderr, "       tiersplit [options] build [dir]\n\n")
		fmt.Fprintf(stderr, "Rewrites an annotated interpreter into its tier1 or tier2 variant.\n")
		fmt.Fprintf(stderr, "The output is written to <basename>_<tier><ext> next to the input.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  tiersplit interp.py tier1        # writes interp_tier1.py\n")
		fmt.Fprintf(stderr, "  tiersplit -stdout interp.py tier2\n")
		fmt.Fprintf(stderr, "  tiersplit build                  # every [[source]] in tiersplit.toml\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	configureLogging(*verbose)
	runID := uuid.New().String()

	fail := func(err error) int {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	args = fs.Args()
	if len(args) > 0 && args[0] == "build" {
		dir := "."
		if len(args) > 1 {
			dir = args[1]
		}
		if err := runBuild(dir, runID); err != nil {
			return fail(err)
		}
		return 0
	}

	if len(args) < 2 {
		fs.Usage()
		return 1
	}

	tier, err := transform.ParseTier(args[1])
	if err != nil {
		return fail(err)
	}

	m, err := loadManifest(*configDir, filepath.Dir(args[0]))
	if err != nil {
		return fail(err)
	}

	j := &job{
		Input:     args[0],
		Tier:      tier,
		Options:   m.Options(),
		TreeInput: *treeInput,
		EmitTree:  *emitTree || (m != nil && m.Output.EmitTree),
		OutDir:    m.OutputDir(args[0]),
		RunID:     runID,
	}

	res, err := j.transform()
	if err != nil {
		return fail(err)
	}

	if *toStdout {
		fmt.Fprint(stdout, res.Source())
		return 0
	}
	if _, err := j.write(res); err != nil {
		return fail(err)
	}
	return 0
}

func configureLogging(verbose bool) {
	verbosity := 1
	if verbose {
		verbosity = 4
	}
	commonlog.Configure(verbosity, nil)
}

// loadManifest loads tiersplit.toml from configDir when given, otherwise
// searches upward from startDir. No manifest is not an error.
func loadManifest(configDir, startDir string) (*manifest.Manifest, error) {
	if configDir != "" {
		return manifest.Load(configDir)
	}
	m, err := manifest.FindAndLoad(startDir)
	if err != nil {
		return nil, err
	}
	if m != nil {
		log.Debugf("using %s", filepath.Join(m.Dir, manifest.FileName))
	}
	return m, nil
}
