package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/shapedtime/hoardhelper/internal/config"
	dlog "github.com/shapedtime/hoardhelper/internal/log"
	"github.com/urfave/cli/v2"
)

const configFlag = "config"

func main() {
	app := &cli.App{
		Name:  "hoardhelper",
		Usage: "rename media files into a Plex-style library and upload them over WebDAV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to configuration file",
				EnvVars: []string{"HOARDHELPER_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand,
			parseCommand,
			uploadCommand,
			exportCommand,
			testConnectionCommand,
			initCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("hoardhelper failed")
	}
}

// loadConfig reads the configuration and sets up logging from it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(configFlag)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	dlog.Load(&cfg.Log)
	log.Debug().Str("config", path).Msg("configuration loaded")

	return cfg, nil
}
