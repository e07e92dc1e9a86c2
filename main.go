package main

import (
	"github.com/alecthomas/kong"

	"droscher.com/BeanJournal/cmd"
)

func main() {
	ctx := kong.Parse(&cmd.CLI, kong.Name("BeanJournal"), kong.Description("BeanJournal is a coffee journal backend."))
	err := ctx.Run(&cmd.Context{Debug: cmd.CLI.Debug})
	ctx.FatalIfErrorf(err)
}
