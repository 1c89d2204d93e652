package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"github.com/kestrelvision/facecascade/internal/cascade"
	"github.com/kestrelvision/facecascade/internal/detector"
	"github.com/kestrelvision/facecascade/internal/geom"
	"github.com/kestrelvision/facecascade/internal/integral"
	"github.com/spf13/cobra"
)

var (
	detectModelPath string
	detectImagePath string
	detectDrawPath  string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect faces in an image with a trained cascade",
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectModelPath, "model", "", "Trained cascade model path (required)")
	detectCmd.Flags().StringVar(&detectImagePath, "image", "", "Input image path (required)")
	detectCmd.Flags().StringVar(&detectDrawPath, "draw", "", "Optional output PNG with detection rectangles drawn")

	detectCmd.MarkFlagRequired("model")
	detectCmd.MarkFlagRequired("image")
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	model, err := cascade.Load(detectModelPath)
	if err != nil {
		return fmt.Errorf("loading model: %w", err)
	}
	slog.Debug("loaded cascade", "summary", model.Inspect().String())

	f, err := os.Open(detectImagePath)
	if err != nil {
		return fmt.Errorf("opening image: %w", err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := make([]byte, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			lum := (299*uint32(r>>8) + 587*uint32(g>>8) + 114*uint32(b>>8)) / 1000
			gray[y*w+x] = byte(lum)
		}
	}
	table := integral.Compute(gray, w, h)

	faces := detector.Detect(model, table)
	slog.Info("detection complete", "faces", len(faces), "width", w, "height", h)

	for i, r := range faces {
		fmt.Printf("%d: y=%d x=%d h=%d w=%d\n", i, r.Y, r.X, r.H, r.W)
	}

	if detectDrawPath != "" {
		if err := drawDetections(img, faces, detectDrawPath); err != nil {
			return fmt.Errorf("drawing detections: %w", err)
		}
		fmt.Printf("Wrote %s\n", detectDrawPath)
	}

	return nil
}

// drawDetections renders src into an RGBA canvas with a red outline for
// every face rectangle, then writes it as a PNG.
func drawDetections(src image.Image, faces []geom.Rect, outPath string) error {
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			canvas.Set(x, y, src.At(x, y))
		}
	}

	red := color.RGBA{R: 255, A: 255}
	for _, r := range faces {
		rect := image.Rect(bounds.Min.X+r.X, bounds.Min.Y+r.Y, bounds.Min.X+r.X+r.W, bounds.Min.Y+r.Y+r.H)
		drawRect(canvas, red, rect)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, canvas)
}

func hLine(img *image.RGBA, col color.Color, y, x1, x2 int) {
	for ; x1 <= x2; x1++ {
		img.Set(x1, y, col)
	}
}

func vLine(img *image.RGBA, col color.Color, x, y1, y2 int) {
	for ; y1 <= y2; y1++ {
		img.Set(x, y1, col)
	}
}

func drawRect(img *image.RGBA, col color.Color, r image.Rectangle) {
	hLine(img, col, r.Min.Y, r.Min.X, r.Max.X)
	hLine(img, col, r.Max.Y, r.Min.X, r.Max.X)
	vLine(img, col, r.Min.X, r.Min.Y, r.Max.Y)
	vLine(img, col, r.Max.X, r.Min.Y, r.Max.Y)
}
