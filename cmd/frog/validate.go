package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"frog/internal/loader"
	"frog/internal/modcache"
	"frog/internal/trace"
)

var validateCmd = &cobra.Command{
	Use:   "validate <module.frogc>",
	Short: "Decode and structurally validate a module without running it",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().String("mod-cache-dir", "", "directory for the validation-skip cache (empty disables it)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir, err := cmd.Flags().GetString("mod-cache-dir")
	if err != nil {
		return err
	}

	var store *modcache.Store
	if dir != "" {
		store, _ = modcache.Open(dir)
	}

	mod, err := loader.LoadFile(args[0], store)
	if err != nil {
		trace.Diagnostic(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok: %d constants, %d functions, %d instructions\n",
		len(mod.ConstPool), len(mod.Functions), len(mod.Code))
	return nil
}
