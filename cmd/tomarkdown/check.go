// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tomarkdown/internal/decode"
	"github.com/pdiddy/tomarkdown/pkg/types"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which decoder serves each supported file type",
		Long: `Check lists every supported extension with the decoder the selected
backend uses for it and whether that decoder is usable. For the markitdown
backend this verifies that docker or podman is running and the markitdown
image is present. Exits with status 1 if any decoder is unavailable.`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}
	cmd.Flags().String("backend", string(types.BackendNative), "decoder backend: native or markitdown")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name, _ := cmd.Flags().GetString("backend")
	backend, err := types.ParseBackend(name)
	if err != nil {
		return err
	}
	registry, err := newRegistry(backend)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXTENSION\tDECODER\tSTATUS")

	unavailable := 0
	for _, e := range registry.Entries() {
		status := "ok"
		if c, ok := e.Decoder.(decode.Checker); ok {
			if err := c.Available(); err != nil {
				status = "unavailable: " + err.Error()
				unavailable++
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Ext, e.Decoder.Name(), status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if unavailable > 0 {
		return &exitError{code: 1}
	}
	return nil
}
