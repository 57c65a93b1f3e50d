// Chorus CLI — инструмент командной строки для работы с control-plane:
// создание workflows, захват и продление lease, переходы статусов.
//
// Использование:
//
//	chorus [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	wf     Управление workflows
//	lease  Захват и продление lease
//	state  Переходы статусов и просмотр states
//
// Подключение к store настраивается окружением:
// STORE_BACKEND (redis|postgres), REDIS_URL, DB_URL.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Chorus/internal/cli"
	"github.com/shaiso/Chorus/internal/store"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "chorus",
		Short:         "Chorus CLI — choreography control-plane tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	storeFn := func(ctx context.Context) (store.Client, error) { return cli.OpenStore(ctx) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewWfCmd(storeFn, outputFn),
		cli.NewLeaseCmd(storeFn, outputFn),
		cli.NewStateCmd(storeFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
