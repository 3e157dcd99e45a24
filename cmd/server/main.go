package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"chodewars-server/internal/archive"
	"chodewars-server/internal/auth"

	"github.com/urfave/cli/v3"
)

func main() {
	root := &cli.Command{
		Name:  "chodewars",
		Usage: "Chodewars game server and admin tools",
		Commands: []*cli.Command{
			serveCommand(),
			bootstrapCommand(),
			resetCommand(),
			exportCommand(),
			importCommand(),
			tokenCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx)
		},
	}

	if err := root.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP server",
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx)
		},
	}
}

func bootstrapCommand() *cli.Command {
	return &cli.Command{
		Name:  "bootstrap",
		Usage: "Create configured clusters that do not exist yet",
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.game.Bootstrap(ctx)
			if err != nil {
				return err
			}
			for _, cluster := range created {
				fmt.Printf("created cluster %s (%dx%d)\n", cluster.Name, cluster.X, cluster.Y)
			}
			fmt.Printf("%d cluster(s) created\n", len(created))
			return nil
		},
	}
}

func resetCommand() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "Destroy every record and recreate the configured clusters",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "confirm the reset"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if !c.Bool("yes") {
				return fmt.Errorf("refusing to reset without --yes")
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.game.ResetUniverse(ctx); err != nil {
				return err
			}
			fmt.Println("universe reset")
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write every record to a zstd-compressed JSONL archive",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "backups/universe.jsonl.zst", Usage: "archive path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := archive.Export(ctx, a.store, c.String("out"), a.logger)
			if err != nil {
				return err
			}
			fmt.Printf("exported %d record(s) to %s\n", n, c.String("out"))
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Load records from an archive, replacing records with the same id",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "in", Required: true, Usage: "archive path"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := archive.Import(ctx, a.store, c.String("in"), a.logger)
			if err != nil {
				return err
			}
			fmt.Printf("imported %d record(s) from %s\n", n, c.String("in"))
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Register a player and print a session token for it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "player", Required: true, Usage: "player id (email)"},
			&cli.StringFlag{Name: "name", Usage: "display name, defaults to the player id"},
			&cli.BoolFlag{Name: "admin", Usage: "issue an admin token"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			tokens, err := auth.NewTokenIssuer(a.config.Auth.JWTSecret, a.config.Auth.TokenExpiration)
			if err != nil {
				return err
			}

			name := c.String("name")
			if name == "" {
				name = c.String("player")
			}
			player, err := a.game.CreatePlayer(ctx, c.String("player"), name)
			if err != nil {
				return err
			}

			role := auth.RolePlayer
			if c.Bool("admin") {
				role = auth.RoleAdmin
			}
			token, err := tokens.Generate(player.ID, player.Name, role)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
}
