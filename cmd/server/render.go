package main

import (
	"fmt"
	"image/png"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/janpfeifer/GoTales/internal/canvas"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

var (
	renderOutput  string
	renderTimeout time.Duration
)

var renderCmd = &cobra.Command{
	Use:   "render SCRIPT",
	Short: "Render a stroke script to a PNG file",
	Long: `Render replays a YAML stroke script on a drawing surface and writes the exported image,
composited with the script's background exactly like a drawing saved in the app.

The background may be a data URL, an http(s) URL or a local image file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		sc, err := canvas.ParseScript(data)
		if err != nil {
			return err
		}
		if sc.Background, err = backgroundRef(sc.Background); err != nil {
			return err
		}

		img, err := sc.Render(cmd.Context(), canvas.WithLoadTimeout(renderTimeout))
		if err != nil {
			return err
		}

		f, err := os.Create(renderOutput)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return fmt.Errorf("writing %q: %w", renderOutput, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		klog.Infof("Rendered %d strokes on %dx%d to %q", len(sc.Strokes), sc.Width, sc.Height, renderOutput)
		return nil
	},
}

// backgroundRef turns a local file path into a data URL. URLs are returned unchanged.
func backgroundRef(ref string) (string, error) {
	if ref == "" || canvas.IsDataURL(ref) || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref, nil
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return "", fmt.Errorf("reading background: %w", err)
	}
	return canvas.EncodeDataURL(http.DetectContentType(data), data), nil
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "drawing.png", "PNG file to write")
	renderCmd.Flags().DurationVar(&renderTimeout, "timeout", canvas.DefaultLoadTimeout, "Deadline to load the background")
	rootCmd.AddCommand(renderCmd)
}
