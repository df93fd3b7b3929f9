package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/adalat/pkg/api"
	"github.com/coolbeans/adalat/pkg/causelist"
	"github.com/coolbeans/adalat/pkg/ecourts"
	"github.com/coolbeans/adalat/pkg/jurisdiction"
	"github.com/coolbeans/adalat/pkg/outputs"
)

var version = "0.1.0"

// jurisdictionFlags are the location selectors shared by the search
// commands. Each accepts a code or a display name.
type jurisdictionFlags struct {
	state    string
	district string
	complex  string
	court    string
}

func (flags *jurisdictionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.state, "state", "", "state code or name")
	cmd.Flags().StringVar(&flags.district, "district", "", "district code or name")
	cmd.Flags().StringVar(&flags.complex, "complex", "", "court complex code or name")
	cmd.Flags().StringVar(&flags.court, "court", "", "court code or name")
}

func (flags *jurisdictionFlags) selectors() causelist.Selectors {
	return causelist.Selectors{
		State:    flags.state,
		District: flags.district,
		Complex:  flags.complex,
		Court:    flags.court,
	}
}

// dateFlags select the cause-list date.
type dateFlags struct {
	date     string
	tomorrow bool
}

func (flags *dateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flags.date, "date", "", "cause-list date (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&flags.tomorrow, "tomorrow", false, "use tomorrow's date")
}

func (flags *dateFlags) resolve() (causelist.Date, error) {
	return causelist.DateFor(false, flags.tomorrow, flags.date)
}

var verbose bool

func main() {
	rootCmd := &cobra.Command{
		Use:   "adalat",
		Short: "eCourts cause-list search",
		Long: `Adalat checks whether a case is listed on an Indian eCourts daily
cause list.

It resolves the court hierarchy (state, district, complex, court) through
the eCourts data endpoints with scrape and static fallbacks, fetches the
requested day's cause list, and matches a CNR or a case type/number/year
reference against the listing. Results are written as JSON documents with
every recoverable problem recorded alongside the verdict.`,
		Version: version,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(causeListCmd())
	rootCmd.AddCommand(bulkCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func buildResolver(logger *zap.Logger) (*jurisdiction.Resolver, error) {
	return jurisdiction.NewDefaultResolver(jurisdiction.ResolverConfig{Logger: logger})
}

func buildEngine(logger *zap.Logger, outputDir string, allowPartialCNR bool) (*causelist.Engine, *outputs.Store, error) {
	resolver, err := buildResolver(logger)
	if err != nil {
		return nil, nil, err
	}

	store := outputs.NewStore(outputDir, logger)
	matchOptions := causelist.MatchOptions{AllowPartialCNR: allowPartialCNR}

	engine, err := causelist.NewEngine(causelist.EngineConfig{
		Resolver:     resolver,
		MatchOptions: &matchOptions,
		PDFSaver:     store,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return engine, store, nil
}

// identifierFromFlags builds the case identifier from either the positional
// CNR argument or the --type/--number/--year triple.
func identifierFromFlags(args []string, caseType string, number, year int) (ecourts.CaseIdentifier, error) {
	if len(args) > 0 {
		return ecourts.ParseCNR(args[0])
	}
	if caseType == "" && number == 0 && year == 0 {
		return ecourts.CaseIdentifier{}, fmt.Errorf("supply a CNR argument or --type, --number and --year")
	}
	return ecourts.NewTypeNumberYear(caseType, number, year)
}

func checkCmd() *cobra.Command {
	var caseType string
	var number, year int

	cmd := &cobra.Command{
		Use:   "check [cnr]",
		Short: "Validate and normalize a case identifier",
		Long: `Validate a case identifier without running a search.

Example:
  adalat check MHMU010123452024
  adalat check --type CR --number 123 --year 2024`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier, err := identifierFromFlags(args, caseType, number, year)
			if err != nil {
				return err
			}

			fmt.Printf("valid %s identifier: %s\n", identifier.Kind, identifier.String())
			if identifier.Kind == ecourts.IdentifierCNR {
				fmt.Printf("  establishment: %s\n", identifier.EstablishmentCode())
				fmt.Printf("  sequence:      %s\n", identifier.SequenceNumber())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&caseType, "type", "", "case type, e.g. CR")
	cmd.Flags().IntVar(&number, "number", 0, "case number")
	cmd.Flags().IntVar(&year, "year", 0, "filing year")
	return cmd
}

func lookupCmd() *cobra.Command {
	var flags jurisdictionFlags

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "List jurisdiction options at the next level",
		Long: `List the selectable options one level below the deepest selector
given: states with no flags, districts with --state, complexes with
--district, courts with --complex.

Example:
  adalat lookup --state Maharashtra
  adalat lookup --state MH --district Mumbai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()
			resolver, err := buildResolver(logger)
			if err != nil {
				return err
			}
			engine, err := causelist.NewEngine(causelist.EngineConfig{Resolver: resolver, Logger: logger})
			if err != nil {
				return err
			}

			path, _, err := engine.ResolvePath(flags.selectors())
			if err != nil {
				return err
			}

			level := jurisdiction.LevelState
			if deepest, selected := path.DeepestLevel(); selected {
				next, hasNext := nextLevel(deepest)
				if !hasNext {
					return fmt.Errorf("nothing below the %s level", deepest)
				}
				level = next
			}

			options, trace, err := resolver.Options(level, path)
			if err != nil {
				return err
			}

			fmt.Printf("%ss (via %s):\n", level, trace.ServedBy)
			for _, option := range options {
				fmt.Printf("  %-12s %s\n", option.Code, option.Name)
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func nextLevel(level jurisdiction.Level) (jurisdiction.Level, bool) {
	for levelIndex, candidate := range jurisdiction.Levels {
		if candidate == level && levelIndex+1 < len(jurisdiction.Levels) {
			return jurisdiction.Levels[levelIndex+1], true
		}
	}
	return "", false
}

func searchCmd() *cobra.Command {
	var locationFlags jurisdictionFlags
	var whenFlags dateFlags
	var caseType string
	var number, year int
	var outputDir string
	var downloadPDF, noPartialCNR bool

	cmd := &cobra.Command{
		Use:   "search [cnr]",
		Short: "Search a cause list for a case",
		Long: `Check whether a case appears on the cause list of the selected
jurisdiction and date, and write the outcome as a JSON document.

Example:
  adalat search MHMU010123452024 --state MH --district Mumbai
  adalat search --type CR --number 123 --year 2024 --state MH --tomorrow --download-pdf`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			identifier, err := identifierFromFlags(args, caseType, number, year)
			if err != nil {
				return err
			}
			date, err := whenFlags.resolve()
			if err != nil {
				return err
			}

			logger := buildLogger()
			engine, store, err := buildEngine(logger, outputDir, !noPartialCNR)
			if err != nil {
				return err
			}

			path, traces, err := engine.ResolvePath(locationFlags.selectors())
			if err != nil {
				return err
			}

			outcome, err := engine.Search(causelist.SearchRequest{
				Identifier:  identifier,
				Query:       causelist.Query{Jurisdiction: path, Date: date},
				Traces:      traces,
				DownloadPDF: downloadPDF,
			})
			if err != nil {
				return err
			}

			savedPath, err := store.WriteOutcome(outcome)
			if err != nil {
				return err
			}

			printOutcome(outcome)
			fmt.Printf("outcome written to %s\n", savedPath)
			return nil
		},
	}

	locationFlags.register(cmd)
	whenFlags.register(cmd)
	cmd.Flags().StringVar(&caseType, "type", "", "case type, e.g. CR")
	cmd.Flags().IntVar(&number, "number", 0, "case number")
	cmd.Flags().IntVar(&year, "year", 0, "filing year")
	cmd.Flags().StringVar(&outputDir, "output", outputs.DefaultRoot, "output directory")
	cmd.Flags().BoolVar(&downloadPDF, "download-pdf", false, "download the matched row's PDF")
	cmd.Flags().BoolVar(&noPartialCNR, "no-partial-cnr", false, "disable sequence-number fallback matching")
	return cmd
}

func printOutcome(outcome *causelist.SearchOutcome) {
	if outcome.Listed {
		fmt.Printf("LISTED (%s confidence)\n", outcome.Confidence)
		if outcome.SerialNumber > 0 {
			fmt.Printf("  serial:  %d\n", outcome.SerialNumber)
		}
		if outcome.CourtName != "" {
			fmt.Printf("  court:   %s\n", outcome.CourtName)
		}
		fmt.Printf("  line:    %s\n", outcome.MatchedLine)
		if outcome.CasePDFSavedPath != "" {
			fmt.Printf("  pdf:     %s\n", outcome.CasePDFSavedPath)
		}
	} else {
		fmt.Println("not listed")
	}
	for _, issue := range outcome.Issues {
		fmt.Printf("  [%s] %s\n", issue.Stage, issue.Message)
	}
}

func causeListCmd() *cobra.Command {
	var locationFlags jurisdictionFlags
	var whenFlags dateFlags
	var outputDir string
	var download bool

	cmd := &cobra.Command{
		Use:   "causelist",
		Short: "Locate or download a full cause-list PDF",
		Long: `Locate the cause-list document for a jurisdiction and date without
searching for a case, optionally downloading it.

Example:
  adalat causelist --state MH --district Mumbai --download`,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := whenFlags.resolve()
			if err != nil {
				return err
			}

			logger := buildLogger()
			engine, _, err := buildEngine(logger, outputDir, true)
			if err != nil {
				return err
			}

			path, _, err := engine.ResolvePath(locationFlags.selectors())
			if err != nil {
				return err
			}

			outcome, err := engine.FindCauseList(causelist.Query{Jurisdiction: path, Date: date}, download)
			if err != nil {
				return err
			}

			if outcome.Found {
				fmt.Printf("cause list: %s\n", outcome.PDFLink)
				if outcome.SavedPath != "" {
					fmt.Printf("saved to:   %s\n", outcome.SavedPath)
				}
			} else {
				fmt.Println("no cause-list document found")
			}
			for _, issue := range outcome.Issues {
				fmt.Printf("  [%s] %s\n", issue.Stage, issue.Message)
			}
			return nil
		},
	}

	locationFlags.register(cmd)
	whenFlags.register(cmd)
	cmd.Flags().StringVar(&outputDir, "output", outputs.DefaultRoot, "output directory")
	cmd.Flags().BoolVar(&download, "download", false, "download the PDF")
	return cmd
}

func bulkCmd() *cobra.Command {
	var locationFlags jurisdictionFlags
	var whenFlags dateFlags
	var caseType string
	var number, year int
	var outputDir string
	var downloadPDF, archive bool

	cmd := &cobra.Command{
		Use:   "bulk [cnr]",
		Short: "Run a search or cause-list download across a whole complex",
		Long: `Run the pipeline against every court of the selected complex.

With an identifier the run searches each court's cause list; without one it
locates (and with --download-pdf downloads) every court's cause-list PDF.

Example:
  adalat bulk MHMU010123452024 --state MH --district Mumbai --complex "City Civil"
  adalat bulk --state MH --district Mumbai --complex "City Civil" --download-pdf --zip`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := whenFlags.resolve()
			if err != nil {
				return err
			}

			logger := buildLogger()
			engine, store, err := buildEngine(logger, outputDir, true)
			if err != nil {
				return err
			}

			path, traces, err := engine.ResolvePath(locationFlags.selectors())
			if err != nil {
				return err
			}
			query := causelist.Query{Jurisdiction: path, Date: date}

			var result *causelist.BulkResult
			if len(args) > 0 || caseType != "" {
				identifier, identifierErr := identifierFromFlags(args, caseType, number, year)
				if identifierErr != nil {
					return identifierErr
				}
				result, err = engine.SearchComplex(causelist.SearchRequest{
					Identifier:  identifier,
					Query:       query,
					Traces:      traces,
					DownloadPDF: downloadPDF,
				})
			} else {
				result, err = engine.ComplexCauseLists(query, downloadPDF)
			}
			if err != nil {
				return err
			}

			savedPath, err := store.WriteBulkResult(result)
			if err != nil {
				return err
			}

			fmt.Printf("run %s: %d succeeded, %d failed\n", result.RunID, result.Succeeded, result.Failed)
			for _, outcome := range result.Outcomes {
				court := outcome.Query.Jurisdiction.Court.Name
				verdict := "not listed"
				if outcome.Listed {
					verdict = fmt.Sprintf("LISTED at serial %d", outcome.SerialNumber)
				}
				fmt.Printf("  %-24s %s\n", court, verdict)
			}
			for _, listOutcome := range result.CauseLists {
				court := listOutcome.Query.Jurisdiction.Court.Name
				if listOutcome.Found {
					fmt.Printf("  %-24s %s\n", court, listOutcome.PDFLink)
				} else {
					fmt.Printf("  %-24s no cause list found\n", court)
				}
			}
			fmt.Printf("run written to %s\n", savedPath)

			if archive {
				archivePath, archiveErr := store.ArchiveRun(result)
				if archiveErr != nil {
					return archiveErr
				}
				if archivePath != "" {
					fmt.Printf("archive written to %s\n", archivePath)
				}
			}
			return nil
		},
	}

	locationFlags.register(cmd)
	whenFlags.register(cmd)
	cmd.Flags().StringVar(&caseType, "type", "", "case type, e.g. CR")
	cmd.Flags().IntVar(&number, "number", 0, "case number")
	cmd.Flags().IntVar(&year, "year", 0, "filing year")
	cmd.Flags().StringVar(&outputDir, "output", outputs.DefaultRoot, "output directory")
	cmd.Flags().BoolVar(&downloadPDF, "download-pdf", false, "download the PDFs")
	cmd.Flags().BoolVar(&archive, "zip", false, "zip the downloaded cause-list PDFs")
	return cmd
}

func serveCmd() *cobra.Command {
	var listenAddr string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lookup and search API over HTTP",
		Long: `Expose the jurisdiction lookups and the search pipeline as a JSON
API.

Routes:
  GET  /api/states
  GET  /api/districts/{state}
  GET  /api/complexes/{state}/{district}
  GET  /api/courts/{state}/{district}/{complex}
  POST /api/search
  POST /api/bulk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := buildLogger()
			resolver, err := buildResolver(logger)
			if err != nil {
				return err
			}

			store := outputs.NewStore(outputDir, logger)
			engine, err := causelist.NewEngine(causelist.EngineConfig{
				Resolver: resolver,
				PDFSaver: store,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			server := api.NewServer(api.ServerConfig{
				Engine:   engine,
				Resolver: resolver,
				Logger:   logger,
			})
			fmt.Printf("listening on %s\n", listenAddr)
			return server.Start(listenAddr)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "addr", api.DefaultListenAddr, "listen address")
	cmd.Flags().StringVar(&outputDir, "output", outputs.DefaultRoot, "output directory")
	return cmd
}
