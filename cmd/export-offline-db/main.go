// Copyright 2025 The offlinedb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command export-offline-db converts offline DB artefacts (icon.db and a
// titles json index) into titles.pack, icons.pack and a manifest describing
// both.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cyberfoil/offlinedb"
	"github.com/cyberfoil/offlinedb/internal/discover"
	"github.com/cyberfoil/offlinedb/manifest"
)

type config struct {
	sourceDir       string
	iconDB          string
	titlesJSON      string
	outputDir       string
	skipIcons       bool
	skipMetadata    bool
	dbVersion       string
	manifestBaseURL string
	manifestName    string
	verify          bool
	verbose         bool
}

func parseFlags() *config {
	var c config
	flag.StringVar(&c.sourceDir, "source-dir", "", "directory containing original artefacts (icon.db and titles json)")
	flag.StringVar(&c.iconDB, "icon-db", "", "path to icon.db (overrides discovery)")
	flag.StringVar(&c.titlesJSON, "titles-json", "", "path to titles json (overrides discovery)")
	flag.StringVar(&c.outputDir, "output-dir", "offline_db", "output directory")
	flag.BoolVar(&c.skipIcons, "skip-icons", false, "do not export icons")
	flag.BoolVar(&c.skipMetadata, "skip-metadata", false, "do not export metadata")
	flag.StringVar(&c.dbVersion, "db-version", "", "override manifest db_version (default: current UTC timestamp)")
	flag.StringVar(&c.manifestBaseURL, "manifest-base-url", "", "base URL for manifest file URLs")
	flag.StringVar(&c.manifestName, "manifest-name", "offline_db_manifest.json", "manifest file name")
	flag.BoolVar(&c.verify, "verify", false, "re-open the emitted packs and check their invariants")
	flag.BoolVar(&c.verbose, "v", false, "verbose logging")
	flag.Parse()
	return &c
}

func run(c *config, logger *slog.Logger) error {
	needIcons := !c.skipIcons
	needMetadata := !c.skipMetadata
	if !needIcons && !needMetadata {
		logger.Info("nothing to export (both -skip-icons and -skip-metadata set)")
		return nil
	}

	if c.sourceDir != "" {
		if st, err := os.Stat(c.sourceDir); err != nil || !st.IsDir() {
			return fmt.Errorf("source dir not found: %s", c.sourceDir)
		}
		if needIcons && c.iconDB == "" {
			c.iconDB = discover.FindCandidate(c.sourceDir, discover.IconDBCandidates)
		}
		if needMetadata && c.titlesJSON == "" {
			c.titlesJSON = discover.FindCandidate(c.sourceDir, discover.TitlesJSONCandidates)
		}
	}
	if needIcons && c.iconDB == "" {
		return fmt.Errorf("missing icon source: provide -icon-db or -source-dir containing icon.db")
	}
	if needMetadata && c.titlesJSON == "" {
		return fmt.Errorf("missing titles source: provide -titles-json or -source-dir containing titles json")
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll(%q): %w", c.outputDir, err)
	}

	var titlesPack, iconsPack string

	if needMetadata {
		logger.Info("exporting metadata", "source", c.titlesJSON)
		titlesPack = filepath.Join(c.outputDir, "titles.pack")
		n, err := offlinedb.ExportTitles(c.titlesJSON, titlesPack, logger)
		if err != nil {
			return fmt.Errorf("metadata export: %w", err)
		}
		logger.Info("exported metadata", "records", n, "path", titlesPack)
	}

	if needIcons {
		logger.Info("exporting icons", "source", c.iconDB)
		iconsPack = filepath.Join(c.outputDir, "icons.pack")
		n, err := offlinedb.ExportIcons(c.iconDB, iconsPack, logger)
		if err != nil {
			return fmt.Errorf("icon export: %w", err)
		}
		logger.Info("exported icons", "entries", n, "path", iconsPack)
	}

	if titlesPack != "" && iconsPack != "" {
		m, err := manifest.Build([]string{titlesPack, iconsPack}, c.manifestBaseURL, c.dbVersion, time.Now())
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		manifestPath := filepath.Join(c.outputDir, c.manifestName)
		if err := manifest.Write(manifestPath, m); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		logger.Info("wrote manifest", "path", manifestPath, "dbVersion", m.DBVersion)

		if c.verify {
			if err := offlinedb.VerifyPacks(titlesPack, iconsPack); err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			logger.Info("verified packs")
		}
	} else {
		logger.Info("manifest skipped (requires both metadata and icons outputs)")
	}

	return nil
}

func main() {
	c := parseFlags()

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(c, logger); err != nil {
		logger.Error("export failed", "err", err)
		os.Exit(1)
	}
}
