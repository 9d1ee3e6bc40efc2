package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	lang "reelsmith/internal/language"
	"reelsmith/internal/speech"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var language string
	var live bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List recommended or installed speech voices",
		// --live loads the config itself.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if strings.TrimSpace(language) != "" {
				code := lang.ToISO2(language)
				if code == "" {
					return fmt.Errorf("unknown language %q", language)
				}
				language = code
			}

			if live {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				client := speech.New(cfg.Speech.Binary, speech.WithTimeout(cfg.SpeechTimeout()))
				voices, err := client.ListVoices(cmd.Context(), language)
				if err != nil {
					return err
				}
				if len(voices) == 0 {
					fmt.Fprintln(out, "No voices reported")
					return nil
				}
				rows := make([][]string, 0, len(voices))
				for _, v := range voices {
					rows = append(rows, []string{v.ID, v.Language, v.Region})
				}
				fmt.Fprint(out, renderTable([]string{"Voice", "Language", "Region"}, rows, nil))
				return nil
			}

			catalog := speech.RecommendedVoices()
			languages := catalog.Languages()
			if language != "" {
				if _, ok := catalog[language]; !ok {
					return fmt.Errorf("no recommended voices for %s (known: %s)", lang.DisplayName(language), strings.Join(languages, ", "))
				}
				languages = []string{language}
			}
			var rows [][]string
			for _, code := range languages {
				set := catalog[code]
				name := lang.DisplayName(code)
				for _, v := range set.Male {
					rows = append(rows, []string{name, "male", v})
				}
				for _, v := range set.Female {
					rows = append(rows, []string{name, "female", v})
				}
			}
			fmt.Fprint(out, renderTable([]string{"Language", "Gender", "Voice"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Language such as es, spanish or es-MX")
	cmd.Flags().BoolVar(&live, "live", false, "Ask the speech engine for every installed voice")
	return cmd
}
