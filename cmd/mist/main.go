// Command mist creates, inspects and verifies torrents.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cenkalti/log"
	"github.com/mitchellh/go-homedir"
	"github.com/urfave/cli"

	"github.com/mistbt/mist/internal/logger"
	"github.com/mistbt/mist/torrent"
)

func main() {
	app := cli.NewApp()
	app.Name = "mist"
	app.Usage = "torrent toolkit"
	app.Version = torrent.Version
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "enable debug log",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.GlobalBool("debug") {
			logger.SetLevel(log.DEBUG)
		} else {
			logger.SetLevel(log.WARNING)
		}
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "create",
			Usage:     "create a torrent file from a file or directory",
			ArgsUsage: "<path>",
			Flags: []cli.Flag{
				cli.StringSliceFlag{
					Name:  "tracker, t",
					Usage: "announce URL, repeatable",
				},
				cli.UintFlag{
					Name:  "piece-length, l",
					Usage: "piece length in bytes",
				},
				cli.StringFlag{
					Name:  "comment, c",
					Usage: "comment stored in the torrent",
				},
				cli.BoolFlag{
					Name:  "private, p",
					Usage: "mark the torrent private",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file, defaults to <name>.torrent",
				},
			},
			Action: handleCreate,
		},
		{
			Name:      "info",
			Usage:     "print the contents of a torrent file",
			ArgsUsage: "<file.torrent>",
			Action:    handleInfo,
		},
		{
			Name:      "verify",
			Usage:     "verify downloaded data against a torrent file",
			ArgsUsage: "<file.torrent>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir, w",
					Usage: "download directory",
					Value: ".",
				},
			},
			Action: handleVerify,
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func handleCreate(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("give a file or directory as the only argument", 1)
	}
	o := torrent.CreateOptions{
		Trackers:    c.StringSlice("tracker"),
		PieceLength: uint32(c.Uint("piece-length")),
		Comment:     c.String("comment"),
	}
	if c.Bool("private") {
		private := true
		o.Private = &private
	}
	t, err := torrent.Create(c.Args().First(), o)
	if err != nil {
		return err
	}
	defer t.Close()

	out := c.String("out")
	if out == "" {
		out = t.Name() + ".torrent"
	}
	if err := t.SaveToFile(out); err != nil {
		return err
	}
	fmt.Printf("%s  %s\n", t.InfoHashString(), out)
	return nil
}

func handleInfo(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("give a torrent file as the only argument", 1)
	}
	// The download directory is irrelevant for inspection but must be set.
	t, err := torrent.LoadFromFile(c.Args().First(), torrent.Config{DownloadDir: "."})
	if err != nil {
		return err
	}
	defer t.Close()

	fmt.Printf("Name:         %s\n", t.Name())
	fmt.Printf("Info hash:    %s\n", t.InfoHashString())
	fmt.Printf("Total length: %d bytes\n", t.TotalLength())
	fmt.Printf("Pieces:       %d\n", t.NumPieces())
	if v, ok := t.Private(); ok {
		fmt.Printf("Private:      %t\n", v)
	}
	if s := t.Comment(); s != "" {
		fmt.Printf("Comment:      %s\n", s)
	}
	if s := t.CreatedBy(); s != "" {
		fmt.Printf("Created by:   %s\n", s)
	}
	fmt.Printf("Trackers:     %s\n", strings.Join(t.Trackers(), ", "))
	fmt.Println("Files:")
	for _, f := range t.Files() {
		fmt.Printf("  %10d  %s\n", f.Length, f.Path)
	}
	return nil
}

func handleVerify(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("give a torrent file as the only argument", 1)
	}
	dir, err := homedir.Expand(c.String("dir"))
	if err != nil {
		return err
	}
	t, err := torrent.LoadFromFile(c.Args().First(), torrent.Config{DownloadDir: dir})
	if err != nil {
		return err
	}
	defer t.Close()

	if err := t.VerifyAll(); err != nil {
		return err
	}
	stats := t.Stats()
	fmt.Printf("%d/%d pieces ok (%.1f%%), %d bytes left\n",
		stats.VerifiedPieces, t.NumPieces(), stats.Progress*100, stats.BytesLeft)
	if stats.BytesLeft != 0 {
		return cli.NewExitError("data is incomplete or corrupt", 2)
	}
	return nil
}
