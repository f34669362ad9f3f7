package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/namespace"
	"github.com/CauldronDevelopmentLLC/wikimunge/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print page store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ns, err := namespace.LoadLanguage("", cfg.Language)
		if err != nil {
			return err
		}
		st, err := store.Open(afero.NewOsFs(), cfg.CacheDir, ns)
		if err != nil {
			return fmt.Errorf("opening page store: %w", err)
		}
		defer st.Close()

		b, err := json.MarshalIndent(st.Stats(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}
