// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the HTTP proxy.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the widget token proxy",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// setupCommand initializes the config file and the sqlite store schema.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create the config file and initialize the token store",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// loginCommand seeds the token store through a browser OAuth flow.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authorize with Spotify in a browser and store the refresh token",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Address for the temporary OAuth callback server",
				Value: "127.0.0.1:8787",
			},
			&cli.StringFlag{
				Name:  "redirect",
				Usage: "Redirect URI registered with Spotify for the callback server",
				Value: "http://127.0.0.1:8787/callback",
			},
		},
		Action: r.Login,
	}
}
