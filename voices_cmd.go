package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/kokoro/internal/tts"
)

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the voices in the voices file",
	Long:    paragraph(fmt.Sprintf("\n%s every voice stored in the voices file, followed by the total count.", keyword("List"))),
	Example: paragraph("kokoro voices\nkokoro voices --voices path/to/voices-v1.0.bin"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, cleanup, err := loadEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		_, err = tts.ListVoices(cmd.OutOrStdout(), e)
		return err
	},
}
