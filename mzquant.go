// Copyright 2018 Rob Marissen.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/524D/mzquant/internal/batch"
	"github.com/524D/mzquant/internal/blocks"
	"github.com/524D/mzquant/internal/config"
	"github.com/524D/mzquant/internal/logging"
	"github.com/524D/mzquant/internal/reflist"
	"github.com/spf13/cobra"
)

// Program name and version, appended to software list in mzML output
const progName = "mzQuant"

var progVersion = `Unknown`

// params holds the command line parameters
type params struct {
	settings   string
	calibrants string
	analytes   string
	outDir     string
	db         string
	function   string
	charge     string
	blocksDir  string
	logLevel   string
	verbose    bool
	quiet      bool
	debugSpecs string
	debugMz    string
	calFile    string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrInvalid) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var par params
	version := progVersion
	if version == `Unknown` {
		version = `Unknown
Please build this program with script 'build.sh' so that the git version is shown here.`
	}
	rootCmd := &cobra.Command{
		Use:   "mzquant",
		Short: "mzQuant - calibration and quantitation of MS1 spectra",
		Long: `mzQuant calibrates the m/z axis of MS1 spectra using a list of
calibrants with known m/z, and quantifies analytes given as compositions
of building blocks (e.g. glycans as "H5N4F1S2") from their isotopic pattern.

Spectra are read from .xy/.txt files (two columns: m/z and intensity)
or from mzML files (first MS1 scan).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&par.settings, "settings", "", "JSON `file` with processing parameters")
	pf.StringVarP(&par.outDir, "out", "o", ".", "output `directory`")
	pf.StringVar(&par.db, "db", "", "SQLite `file` to store the results in")
	pf.StringVar(&par.blocksDir, "blocks", "", "`directory` with additional building block files (*.block)")
	pf.StringVar(&par.logLevel, "log-level", "", "log `level` (debug, info, warn, error)")
	pf.BoolVar(&par.verbose, "verbose", false, "Print more verbose progress information")
	pf.BoolVar(&par.quiet, "quiet", false, "Don't print any output except for errors")
	pf.StringVar(&par.debugSpecs, "debug", "", "Print debug output for given spectrum `range` e.g. 3:6")
	pf.StringVar(&par.debugMz, "debugmz", "", "Limit debug output to calibrants in m/z `range` e.g. 1000:2000")

	calFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&par.calibrants, "calibrants", "", "calibrant list `file` (name and m/z per line)")
		cmd.Flags().StringVar(&par.function, "func", "",
			"calibration `function`"+` to apply, overrides the settings file.
Valid function names:
    FTICR, TOF, Orbitrap: Calibration function suitable for these instruments.
    POLY<N>: Polynomial with degree <N> (range 1:5)
    OFFSET: Constant m/z offset per spectrum.`)
	}
	quantFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&par.analytes, "analytes", "", "analyte list `file` (composition and optional window per line)")
		cmd.Flags().StringVar(&par.charge, "charge", "", "charge `range` of analytes, e.g. 1:3")
	}

	calibrateCmd := &cobra.Command{
		Use:   "calibrate [flags] <spectrum files>",
		Short: "Calibrate spectra",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(&par, args, true, false)
		},
	}
	calFlags(calibrateCmd)
	calibrateCmd.MarkFlagRequired("calibrants")

	quantifyCmd := &cobra.Command{
		Use:   "quantify [flags] <spectrum files>",
		Short: "Quantify analytes in (calibrated) spectra",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(&par, args, false, true)
		},
	}
	quantFlags(quantifyCmd)
	quantifyCmd.MarkFlagRequired("analytes")

	batchCmd := &cobra.Command{
		Use:   "batch [flags] <spectrum files>",
		Short: "Calibrate spectra, then quantify analytes",
		Long: `Calibrate spectra, then quantify analytes. Spectra for which the
calibration is rejected are quantified uncalibrated, and flagged as such
in the summary.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(&par, args, true, true)
		},
	}
	calFlags(batchCmd)
	quantFlags(batchCmd)
	batchCmd.MarkFlagRequired("calibrants")
	batchCmd.MarkFlagRequired("analytes")

	applyCmd := &cobra.Command{
		Use:   "apply [flags] <spectrum files>",
		Short: "Calibrate spectra using previously computed parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(&par, args)
		},
	}
	applyCmd.Flags().StringVar(&par.calFile, "cal", batch.CalibrationFile, "`file` with calibration parameters")

	rootCmd.AddCommand(calibrateCmd, quantifyCmd, batchCmd, applyCmd)
	return rootCmd
}

// newLogger creates the logger for the verbosity flags
func newLogger(par *params) (logging.Logger, error) {
	l := logging.NewDefaultLogger()
	level := logging.InfoLevel
	if par.verbose {
		level = logging.DebugLevel
	}
	if par.quiet {
		level = logging.ErrorLevel
	}
	if par.logLevel != "" {
		var err error
		level, err = logging.ParseLevel(par.logLevel)
		if err != nil {
			return nil, err
		}
	}
	l.SetLevel(level)
	return l, nil
}

// loadConfig reads the settings file and applies the command line
// overrides
func loadConfig(par *params) (config.Config, error) {
	cfg := config.Default()
	if par.settings != "" {
		var err error
		cfg, err = config.Load(par.settings)
		if err != nil {
			return cfg, err
		}
	}
	if par.function != "" {
		cfg.CalibrationFunction = par.function
	}
	if par.charge != "" {
		if err := cfg.SetChargeRange(par.charge); err != nil {
			return cfg, err
		}
	}
	if par.blocksDir != "" {
		cfg.BlocksDir = par.blocksDir
	}
	return cfg, cfg.Validate()
}

// loadBlocks returns the built-in building blocks, extended with the
// blocks from cfg.BlocksDir
func loadBlocks(cfg config.Config) (*blocks.Table, error) {
	t := blocks.Default()
	if cfg.BlocksDir == "" {
		return t, nil
	}
	extra, err := blocks.LoadDir(cfg.BlocksDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	return t.WithBlocks(extra)
}

func run(par *params, files []string, calibrate, quantify bool) error {
	log, err := newLogger(par)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(par)
	if err != nil {
		return err
	}
	table, err := loadBlocks(cfg)
	if err != nil {
		return err
	}

	var cals []reflist.Calibrant
	if calibrate {
		cals, err = reflist.ReadCalibrantsFile(par.calibrants)
		if err != nil {
			return err
		}
		log.Debug("calibrants read", logging.Fields{"file": par.calibrants, "count": len(cals)})
	}
	var analytes []reflist.Analyte
	if quantify {
		analytes, err = reflist.ReadAnalytesFile(par.analytes)
		if err != nil {
			return err
		}
		log.Debug("analytes read", logging.Fields{"file": par.analytes, "count": len(analytes)})
	}

	r := &batch.Runner{
		Config:   cfg,
		Table:    table,
		Log:      log,
		Software: progName,
		Version:  progVersion,
		OutDir:   par.outDir,
		DB:       par.db,
		// Check if debug output should be enabled
		Debug: os.Getenv("MZQUANT_DEBUG") == `1`,
	}
	sum, err := r.Run(files, cals, analytes)
	if sum != nil {
		if err := debugLogSpectra(os.Stdout, par, sum); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}
	if !par.quiet {
		fmt.Fprintf(os.Stderr, "Spectra: %d Calibrated: %d Skipped: %d (%s)\n",
			len(sum.Entries), sum.Calibrated(), len(sum.Skipped), sum.Elapsed)
	}
	if len(sum.Entries) == 0 && len(files) > 0 {
		return errors.New("no spectrum could be processed")
	}
	return nil
}
