package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/songsim/lexical/analysis"
)

var flagLangTokens bool

var langCmd = &cobra.Command{
	Use:   "lang",
	Short: "Language utilities",
}

var langDetectCmd = &cobra.Command{
	Use:   "detect <text>",
	Short: "Detect the language of a text and show its index terms",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		d := analysis.Detect(text)
		fmt.Printf("language:   %s\n", d.Language)
		fmt.Printf("confidence: %.2f\n", d.Confidence)
		fmt.Printf("reliable:   %t\n", d.Reliable)
		fmt.Printf("supported:  %t\n", analysis.Supported(d.Language))

		if flagLangTokens {
			a := analysis.New()
			lang := a.Language(text, "")
			fmt.Printf("terms (%s): %s\n", lang, strings.Join(a.Analyze(text, lang), " "))
		}
		return nil
	},
}

func init() {
	langDetectCmd.Flags().BoolVar(&flagLangTokens, "terms", false, "Also print the analyzed index terms")
	langCmd.AddCommand(langDetectCmd)
	rootCmd.AddCommand(langCmd)
}
