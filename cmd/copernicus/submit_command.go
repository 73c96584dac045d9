package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garywelz/copernicus-web-sub000/internal/api"
	"github.com/garywelz/copernicus-web-sub000/internal/jobaccess"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var category string
	var kind string
	var expertise string
	var minutes int
	var owner string
	var voiceFlags []string

	cmd := &cobra.Command{
		Use:   "submit <topic>",
		Short: "Submit an episode generation request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voices, err := parseVoiceFlags(voiceFlags)
			if err != nil {
				return err
			}
			req := api.GenerationRequest{
				Topic:         strings.Join(args, " "),
				Category:      category,
				Kind:          kind,
				Expertise:     expertise,
				TargetMinutes: minutes,
				OwnerID:       owner,
				Voices:        voices,
			}
			return ctx.withAccess(func(access jobaccess.Access) error {
				resp, err := access.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job #%d accepted\n", resp.ID)
				fmt.Fprintf(out, "Token: %s\n", resp.Token)
				fmt.Fprintf(out, "Track progress with `copernicus show %d`\n", resp.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "g", "", "Subject category (biology, chemistry, computer-science, mathematics, physics)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "evergreen", "Episode kind (evergreen or news)")
	cmd.Flags().StringVarP(&expertise, "expertise", "e", "", "Audience expertise level (beginner, intermediate, advanced)")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "Target duration in minutes (0 uses the default)")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner id recorded on the published episode")
	cmd.Flags().StringArrayVar(&voiceFlags, "voice", nil, "Voice override as ROLE=voice (repeatable)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func parseVoiceFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	voices := make(map[string]string, len(flags))
	for _, flag := range flags {
		role, voice, ok := strings.Cut(flag, "=")
		if !ok || strings.TrimSpace(role) == "" || strings.TrimSpace(voice) == "" {
			return nil, fmt.Errorf("invalid voice override %q (expected ROLE=voice)", flag)
		}
		voices[strings.TrimSpace(role)] = strings.TrimSpace(voice)
	}
	return voices, nil
}
