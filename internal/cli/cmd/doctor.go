package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"versereel/internal/util/deps"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "doctor",
		Short:         "Diagnose external dependencies (ffmpeg, ffprobe) and the media library",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			ff, ferr := deps.FindFFmpeg(a.settings.FFmpeg)
			if ferr != nil {
				return &ExitError{Code: ExitMissingDep, Err: ferr}
			}
			fp, perr := deps.FindFFprobe()
			if perr != nil {
				return &ExitError{Code: ExitMissingDep, Err: perr}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "FFmpeg:    %s\n", ff)
			fmt.Fprintf(out, "FFprobe:   %s\n", fp)

			lib, err := a.loadLibrary()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Clips:     %d\n", lib.Clips.Len())
			fmt.Fprintf(out, "Tracks:    %d\n", lib.Tracks.Len())
			fmt.Fprintf(out, "Quotes:    %d\n", len(lib.Quotes))
			missing := 0
			for _, f := range lib.Fonts {
				if _, err := os.Stat(f.Path); err != nil {
					fmt.Fprintf(out, "Font missing (fallback will be used): %s\n", f.Path)
					missing++
				}
			}
			fmt.Fprintf(out, "Fonts:     %d (%d missing)\n", len(lib.Fonts), missing)
			for _, p := range []string{lib.LogoImage, lib.ReferenceFont} {
				if _, err := os.Stat(p); err != nil {
					return &ExitError{Code: ExitLibraryError, Err: fmt.Errorf("required file missing: %s", p)}
				}
			}
			return nil
		},
	}
}
