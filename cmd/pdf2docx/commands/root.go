package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"pdf-to-word/internal/config"
	"pdf-to-word/internal/domain"
	"pdf-to-word/pkg/logger"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// ErrReported marks a failure that was already printed for the user.
var ErrReported = errors.New("conversion failed")

var (
	outputDir   string
	languages   string
	onCollision string
	ocrErrors   string
	marker      string
	verbose     bool
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "pdf2docx [flags] <file.pdf>",
	Short: "Convert a PDF into an editable Word document",
	Long: `pdf2docx extracts the text layer of every page and runs OCR on embedded
images, then writes the result as a .docx file with one page break between
source pages.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runConvert,
}

func init() {
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for converted documents (default $OUTPUT_DIR or ./converted_docs)")
	rootCmd.Flags().StringVarP(&languages, "lang", "l", "", `OCR languages, e.g. "vie+eng"`)
	rootCmd.Flags().StringVar(&onCollision, "on-collision", "", "existing output file: suffix, overwrite or reject")
	rootCmd.Flags().StringVar(&ocrErrors, "ocr-errors", "", "OCR engine errors: abort or skip")
	rootCmd.Flags().StringVar(&marker, "marker", "", "label inserted before each OCR block")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline progress to stderr")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command. A failed conversion returns ErrReported
// after the failure has been printed.
func Execute() error {
	return rootCmd.Execute()
}

func runConvert(cmd *cobra.Command, args []string) error {
	if noColor {
		color.NoColor = true
	}

	// Environment first, then flags
	_ = godotenv.Load()
	cfg := config.Load()
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	appLogger := logger.NewLoggerWithWriter(level, "console", os.Stderr)

	container, err := config.NewContainerWithLogger(cfg, appLogger)
	if err != nil {
		return err
	}

	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%s: only .pdf files can be converted", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var s *spinner.Spinner
	if !verbose {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Converting " + filepath.Base(path)
		s.Writer = os.Stderr
		s.Start()
	}

	result := container.Converter.Convert(ctx, filepath.Base(path), f)

	if s != nil {
		s.Stop()
	}

	printResult(cmd.OutOrStdout(), cmd.ErrOrStderr(), result)
	if !result.OK() {
		return ErrReported
	}
	return nil
}

// applyFlags overrides configuration with flags the user actually set.
func applyFlags(cmd *cobra.Command, cfg *config.AppConfig) error {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("lang") {
		cfg.OCRLanguages = config.ParseLanguages(languages)
	}
	if flags.Changed("on-collision") {
		policy := domain.CollisionPolicy(strings.ToLower(onCollision))
		switch policy {
		case domain.CollisionSuffix, domain.CollisionOverwrite, domain.CollisionReject:
			cfg.CollisionPolicy = policy
		default:
			return fmt.Errorf("invalid --on-collision %q (want suffix, overwrite or reject)", onCollision)
		}
	}
	if flags.Changed("ocr-errors") {
		policy := domain.OCRFailurePolicy(strings.ToLower(ocrErrors))
		switch policy {
		case domain.OCRFailureAbort, domain.OCRFailureSkip:
			cfg.OCRFailurePolicy = policy
		default:
			return fmt.Errorf("invalid --ocr-errors %q (want abort or skip)", ocrErrors)
		}
	}
	if flags.Changed("marker") {
		cfg.OCRMarker = marker
	}
	return nil
}

func printResult(stdout, stderr io.Writer, result domain.ConversionResult) {
	if !result.OK() {
		kind, message := string(domain.FailureInternal), "conversion produced no output"
		if result.Failure != nil {
			kind, message = string(result.Failure.Kind), result.Failure.Message
			if detail := result.Failure.Detail(); detail != "" {
				message += ": " + detail
			}
		}
		color.New(color.FgRed, color.Bold).Fprintf(stderr, "✗ %s failed [%s]: %s\n", result.SourceName, kind, message)
		return
	}

	out := result.Output
	color.New(color.FgGreen, color.Bold).Fprintf(stdout, "✓ Saved %s\n", out.Location)
	st := out.Stats
	fmt.Fprintf(stdout, "  pages: %d  text blocks: %d  OCR blocks: %d  images: %d (%d skipped)  time: %s\n",
		st.Pages, st.NativeBlocks, st.OCRBlocks, st.ImagesSeen, st.ImagesSkipped, st.Duration.Round(time.Millisecond))
	if out.RemotePath != "" {
		fmt.Fprintf(stdout, "  published: %s\n", out.RemotePath)
	}
}
