package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/config"
	"github.com/shapedtime/hoardhelper/internal/exporter"
	"github.com/shapedtime/hoardhelper/internal/history"
	dlog "github.com/shapedtime/hoardhelper/internal/log"
	"github.com/shapedtime/hoardhelper/internal/queue"
	"github.com/shapedtime/hoardhelper/internal/realdebrid"
	"github.com/shapedtime/hoardhelper/internal/uploader"
	"github.com/shapedtime/hoardhelper/internal/webdav"
	"github.com/urfave/cli/v2"
)

var parseCommand = &cli.Command{
	Name:      "parse",
	Usage:     "show the library path proposed for each file",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "print full metadata as JSON"},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("no files given", 1)
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		files := newIngestor(cfg).Ingest(c.Args().Slice())
		if c.Bool("json") {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(files)
		}

		for _, f := range files {
			if !f.Valid {
				fmt.Printf("%s\t! %s\n", f.OriginalName, f.Status.Message)
				continue
			}
			fmt.Printf("%s\t-> %s\n", f.OriginalName, f.Proposed)
		}
		return nil
	},
}

var uploadCommand = &cli.Command{
	Name:      "upload",
	Usage:     "parse files and upload them to the WebDAV library",
	ArgsUsage: "FILE...",
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("no files given", 1)
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}

		dav, err := webdav.NewClient(cfg.WebDAV)
		if err != nil {
			return err
		}

		db, err := history.NewDB(cfg.Database.HistoryPath)
		if err != nil {
			return err
		}
		defer db.Close()

		svc := uploader.NewService(dav, uploader.Options{
			MaxAttempts: cfg.Upload.MaxAttempts,
			History:     history.NewRepository(db),
		})

		files := newIngestor(cfg).Ingest(c.Args().Slice())
		results := svc.UploadAll(c.Context, files, func(ev uploader.Event) {
			if ev.Status.Kind == queue.StatusProcessing {
				return
			}
			fmt.Printf("%s\t%s\n", files[ev.Index].OriginalName, ev.Status)
		})

		summary := uploader.Summary(results)
		fmt.Println(summary)

		for _, r := range results {
			if !r.OK() {
				return cli.Exit(summary, 1)
			}
		}
		return nil
	},
}

var testConnectionCommand = &cli.Command{
	Name:  "test-connection",
	Usage: "check WebDAV and Real-Debrid credentials",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		ok := true

		dav, err := webdav.NewClient(cfg.WebDAV)
		if err == nil {
			err = dav.TestConnection(c.Context)
		}
		if err != nil {
			ok = false
			fmt.Printf("webdav\tFAILED: %v\n", err)
		} else {
			fmt.Println("webdav\tOK")
			if dav.Insecure() {
				fmt.Println("webdav\twarning: credentials are sent without https")
			}
		}

		rd := realdebrid.NewClient(cfg.RealDebrid)
		if rd.Configured() {
			res := rd.TestConnection(c.Context)
			if res.Success {
				fmt.Printf("realdebrid\tOK (%s, premium until %s)\n", res.Username, res.Expiration)
			} else {
				ok = false
				fmt.Printf("realdebrid\tFAILED: %s\n", res.Error)
			}
		}

		if !ok {
			return cli.Exit("connection test failed", 1)
		}
		return nil
	},
}

var initCommand = &cli.Command{
	Name:  "init",
	Usage: "write a configuration file with default values",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
	},
	Action: func(c *cli.Context) error {
		path := c.String(configFlag)
		if _, err := os.Stat(path); err == nil && !c.Bool("force") {
			return cli.Exit(fmt.Sprintf("%s already exists, use --force to overwrite", path), 1)
		}

		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		log.Info().Str("config", path).Msg("configuration written")
		return nil
	},
}

func newIngestor(cfg *config.Config) *queue.Ingestor {
	bases := exporter.Bases{TV: cfg.Library.TVBase(), Movie: cfg.Library.MovieBase()}
	return queue.NewIngestor(bases, nil, dlog.Component("ingest"))
}

var exportCommand = &cli.Command{
	Name:      "export",
	Usage:     "copy files into a local library folder using the proposed paths",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "to", Usage: "library root folder", Required: true},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() == 0 {
			return cli.Exit("no files given", 1)
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		failed := 0
		for _, f := range newIngestor(cfg).Ingest(c.Args().Slice()) {
			if !f.Valid {
				failed++
				fmt.Printf("%s\t! %s\n", f.OriginalName, f.Status.Message)
				continue
			}

			dst, err := exporter.ExportLocal(c.Context, f.FullPath, c.String("to"), f.Proposed)
			if err != nil {
				failed++
				fmt.Printf("%s\t! %v\n", f.OriginalName, err)
				continue
			}
			fmt.Printf("%s\t-> %s\n", f.OriginalName, dst)
		}

		if failed > 0 {
			return cli.Exit(fmt.Sprintf("%d file(s) not exported", failed), 1)
		}
		return nil
	},
}
