package cmd

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	logging "github.com/shenwei356/go-logging"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

var log = logging.MustGetLogger("fmhcov")

// Options holds the global, persistent-flag-derived settings every
// subcommand needs. Grounded on
// shenwei356-unikmer/unikmer/cmd/util.go's Options struct.
type Options struct {
	NumCPUs          int
	Verbose          bool
	Compress         bool
	CompressionLevel int
}

func getOptions(cmd *cobra.Command) *Options {
	return &Options{
		NumCPUs:          getFlagPositiveInt(cmd, "threads"),
		Verbose:          getFlagBool(cmd, "verbose"),
		Compress:         !getFlagBool(cmd, "no-compress"),
		CompressionLevel: getFlagInt(cmd, "compression-level"),
	}
}

// checkError prints err and exits the process if err is non-nil. Grounded
// on shenwei356-unikmer's own checkError idiom, used throughout its
// cmd package instead of propagating errors back up through cobra.
func checkError(err error) {
	if err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}
}

func checkFilesExist(files ...string) {
	for _, file := range files {
		if file == "-" {
			continue
		}
		ok, err := pathutil.Exists(file)
		if err != nil {
			checkError(errors.Wrapf(err, "failed to check file %s", file))
		}
		if !ok {
			checkError(fmt.Errorf("file does not exist: %s", file))
		}
	}
}

// readLines reads a newline-delimited list of strings (input file paths or
// sample names) out of path, transparently gzip-decompressing if needed.
// Grounded on unikmer/cmd/util.go's getFileListFromFile, which backs the
// teacher's own -i/--infile-list flag.
func readLines(path string) ([]string, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer r.Close()

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return lines, nil
}

// collectInputFiles merges positional file arguments with any listed in the
// persistent -i/--infile-list file, mirroring unikmer/cmd/root.go's
// --infile-list handling so file lists too long for a shell command line
// can be supplied instead.
func collectInputFiles(cmd *cobra.Command, args []string) []string {
	listFile := getFlagString(cmd, "infile-list")
	if listFile == "" {
		return args
	}
	lines, err := readLines(listFile)
	checkError(err)
	return append(append([]string{}, args...), lines...)
}

// ramGuard is the advisory --max-ram barrier: original_source/src/sketch.rs's
// check_vram_and_block polls process memory and sleeps in 1s increments
// before sketching each read file rather than hard-failing. maxRAMGB <= 0
// disables the guard entirely.
func ramGuard(maxRAMGB float64) {
	if maxRAMGB <= 0 {
		return
	}
	limit := uint64(maxRAMGB * 1e9)
	for i := 0; i < 300; i++ {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		if stats.Sys <= limit {
			return
		}
		log.Infof("process memory %s exceeds --max-ram %s, waiting", humanize.Bytes(stats.Sys), humanize.Bytes(limit))
		time.Sleep(1 * time.Second)
	}
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	v, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return v
}

func getFlagInt64(cmd *cobra.Command, flag string) int64 {
	v, err := cmd.Flags().GetInt64(flag)
	checkError(err)
	return v
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	v := getFlagInt(cmd, flag)
	if v <= 0 {
		checkError(fmt.Errorf("value of flag --%s should be a positive integer", flag))
	}
	return v
}

func getFlagUint64(cmd *cobra.Command, flag string) uint64 {
	v, err := cmd.Flags().GetInt64(flag)
	checkError(err)
	if v < 0 {
		checkError(fmt.Errorf("value of flag --%s should not be negative", flag))
	}
	return uint64(v)
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	v, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return v
}

func getFlagString(cmd *cobra.Command, flag string) string {
	v, err := cmd.Flags().GetString(flag)
	checkError(err)
	return v
}

func getFlagStringSlice(cmd *cobra.Command, flag string) []string {
	v, err := cmd.Flags().GetStringSlice(flag)
	checkError(err)
	return v
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	v, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return v
}
