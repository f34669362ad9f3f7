package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/lua"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/pagectx"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
)

var parseCmd = &cobra.Command{
	Use:   "parse <title>",
	Short: "Expand one page and print its parsed WikiNode tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[0]

		ns, err := namespace.LoadLanguage("", cfg.Language)
		if err != nil {
			return err
		}
		st, err := store.Open(afero.NewOsFs(), cfg.CacheDir, ns)
		if err != nil {
			return fmt.Errorf("opening page store: %w", err)
		}
		defer st.Close()

		text, ok := st.Read(title)
		if !ok {
			return fmt.Errorf("page not found: %s", title)
		}

		pc := pagectx.New(ns, st, nil, lua.NoopSandbox{}, logger)
		node := pc.Parse(title, text)
		fmt.Println(node.String())
		return nil
	},
}
