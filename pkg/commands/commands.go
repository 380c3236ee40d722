package commands

import (
	"github.com/urfave/cli/v2"
)

func GetCommands() []*cli.Command {
	return []*cli.Command{
		serverCommand(),
		monitorCommand(),
		syncCommand(),
		versionCommand(),
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to the YAML config file",
		Aliases: []string{"c"},
		EnvVars: []string{"GREPP_CONFIG"},
		Value:   "/etc/grepp/config.yaml",
	}
}

func dbFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "sql-dialect",
			Usage:   "The type of sql to use, sqlite or mysql",
			EnvVars: []string{"GREPP_SQL_DIALECT", "SQL_DIALECT"},
			Value:   "sqlite",
		},
		&cli.StringFlag{
			Name:    "sql-dsn",
			Usage:   "The DSN to use to connect to",
			EnvVars: []string{"GREPP_SQL_DSN", "SQL_DSN"},
			Value:   "file:grepp.sqlite?_pragma=foreign_keys(1)",
		},
	}
}
