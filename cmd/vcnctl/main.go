// Command vcnctl inspects the VCN decode command encoder without
// hardware: it prints session sizing, dumps synthetic submissions to a
// capture file, and decodes capture files.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/pflag"
)

var version = "dev"

const usage = `usage: vcnctl <command> [flags]

commands:
  sizes     print session sizes for every codec and hardware version
  dump      build synthetic create/decode/destroy submissions into a capture
  inspect   print the submissions of a capture file
`

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var run func(args []string) error
	switch os.Args[1] {
	case "sizes":
		run = runSizes
	case "dump":
		run = runDump
	case "inspect":
		run = runInspect
	case "version":
		fmt.Println(version)
		return
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err := run(os.Args[2:]); err != nil {
		slog.Error("vcnctl failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

// newFlagSet returns a flag set with the options every command shares.
func newFlagSet(name string) (*pflag.FlagSet, *int) {
	fs := pflag.NewFlagSet(name, pflag.ExitOnError)
	jobs := fs.IntP("jobs", "j", envInt("VCNCTL_JOBS", runtime.NumCPU()), "concurrent builds")
	return fs, jobs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("ignoring malformed environment value", "key", key, "value", v)
		return fallback
	}
	return n
}
