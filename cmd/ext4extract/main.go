// Command ext4extract mounts a raw ext4 image and extracts it to a host
// directory, alongside the fs_config/file_contexts sidecars Android
// packaging tools expect.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"

	"github.com/ext4img/extractor/backend/file"
	"github.com/ext4img/extractor/internal/ext4"
	"github.com/ext4img/extractor/internal/extract"
)

var (
	flagOutputDir  string
	flagQuiet      bool
	flagVerbose    bool
	flagNumThreads int
)

// defaultNumThreads mirrors the specification's default of
// ceil(host_parallelism/4), with a floor of one worker.
func defaultNumThreads() int {
	n := (runtime.NumCPU() + 3) / 4
	if n < 1 {
		n = 1
	}
	return n
}

var rootCmd = &cobra.Command{
	Use:   "ext4extract <image>",
	Short: "Extract an Android ext4 system image to a host directory",
	Long: `ext4extract mounts a raw ext4 image read-only, walks its directory tree,
and writes the extracted files plus fs_config/file_contexts sidecars to
an output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&flagOutputDir, "output-dir", "o", "", "output directory (default output-<unix-epoch-seconds>)")
	flags.IntVarP(&flagNumThreads, "num-threads", "t", defaultNumThreads(), "number of extraction workers")
	flags.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress progress reporting")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "raise the log level to debug")

	_ = viper.BindPFlag("output-dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("num-threads", flags.Lookup("num-threads"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.SetEnvPrefix("EXT4EXTRACT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logrus.New()
	switch {
	case viper.GetBool("quiet"):
		log.SetLevel(logrus.WarnLevel)
	case viper.GetBool("verbose"):
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	quiet := viper.GetBool("quiet")

	imagePath := args[0]
	outputDir := viper.GetString("output-dir")
	if outputDir == "" {
		outputDir = fmt.Sprintf("output-%d", time.Now().Unix())
	}
	concurrency := viper.GetInt("num-threads")
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	storage, err := file.OpenFromPath(imagePath, true)
	if err != nil {
		return fmt.Errorf("open %s: %w", imagePath, err)
	}
	defer storage.Close()

	vol, err := ext4.Open(storage)
	if err != nil {
		return fmt.Errorf("mount %s: %w", imagePath, err)
	}
	log.WithFields(logrus.Fields{
		"volume": vol.Name(),
		"uuid":   vol.UUID(),
	}).Info("mounted volume")

	progressOut := cmd.OutOrStdout()
	if quiet {
		progressOut = io.Discard
	}
	progress := mpb.New(mpb.WithWidth(64), mpb.WithOutput(progressOut))
	spinner := progress.AddSpinner(0, mpb.SpinnerOnLeft,
		mpb.PrependDecorators(decor.Name("scanning "+imagePath)),
	)

	driver := extract.NewDriver(vol, outputDir, concurrency, log)
	start := time.Now()
	report, err := driver.Extract(ctx)
	spinner.Increment()
	progress.Wait()
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	elapsed := time.Since(start)
	summary := fmt.Sprintf("extracted %d/%d entries from %s in %s",
		report.ItemsWritten, report.ItemsWalked, report.VolumeLabel, elapsed.Round(time.Millisecond))
	if len(report.WalkErrors) > 0 {
		color.Yellow("%s (%d entries skipped)", summary, len(report.WalkErrors))
	} else {
		color.Green(summary)
	}
	if report.SystemAsRoot {
		log.Info("detected System-as-Root layout")
	}
	return nil
}

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
