package background

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/gradient"
	"github.com/Brandi-Kinard/filmmagix-mvp-sub000/internal/scene"
)

// Resolved is the outcome of background resolution for one scene, consumed
// once per render.
type Resolved struct {
	Image      image.Image
	ActualMode scene.BackgroundMode
	Source     string
	Gradient   *gradient.Spec
	Queries    []string // prompts sent to (or intended for) the image service
	Reasons    []string
}

// Resolver walks the Upload -> AI -> Gradient hierarchy. The gradient step
// has no failure path, so Resolve always returns a usable background.
type Resolver struct {
	Images    *ImageClient
	AiEnabled bool
}

// Resolve applies strict precedence:
//  1. Upload mode with bytes present: decode and cover-crop. A decode failure
//     falls through to the gradient, never to the network.
//  2. AI mode with AI enabled: one bounded request with a deterministic seed;
//     any failure falls through.
//  3. Gradient: guaranteed terminal case.
func (r *Resolver) Resolve(ctx context.Context, spec scene.BackgroundSpec, sceneText string, sceneIndex int, projectID string, width, height int, history []gradient.Spec) Resolved {
	var reasons []string

	if spec.Mode == scene.ModeUpload {
		if len(spec.UploadedImage) > 0 {
			img, format, err := image.Decode(bytes.NewReader(spec.UploadedImage))
			if err == nil {
				return Resolved{
					Image:      CoverCrop(img, width, height),
					ActualMode: scene.ModeUpload,
					Source:     "upload:" + format,
					Reasons:    reasons,
				}
			}
			reasons = append(reasons, fmt.Sprintf("upload decode failed: %v", err))
		} else {
			reasons = append(reasons, "upload mode with no image bytes")
		}
		// An explicit upload that fails never triggers network calls.
		return r.gradientFallback(sceneText, sceneIndex, projectID, width, height, history, reasons)
	}

	var queries []string
	if spec.Mode == scene.ModeAi && r.AiEnabled && r.Images != nil {
		seed := int64(gradient.StableHash(fmt.Sprintf("%s-%d-%s", projectID, sceneIndex, sceneText)))
		prompt := aiPrompt(sceneText)
		queries = append(queries, prompt)
		body, err := r.Images.Generate(ctx, prompt, seed, width, height)
		if err == nil {
			img, format, decErr := image.Decode(bytes.NewReader(body))
			if decErr == nil {
				return Resolved{
					Image:      CoverCrop(img, width, height),
					ActualMode: scene.ModeAi,
					Source:     "ai:" + format,
					Queries:    queries,
					Reasons:    reasons,
				}
			}
			reasons = append(reasons, fmt.Sprintf("ai image decode failed: %v", decErr))
		} else {
			reasons = append(reasons, fmt.Sprintf("ai generation failed: %v", err))
		}
	} else if spec.Mode == scene.ModeAi {
		reasons = append(reasons, "ai requested but disabled")
	}

	res := r.gradientFallback(sceneText, sceneIndex, projectID, width, height, history, reasons)
	res.Queries = queries
	return res
}

func (r *Resolver) gradientFallback(sceneText string, sceneIndex int, projectID string, width, height int, history []gradient.Spec, reasons []string) Resolved {
	spec := gradient.Generate(projectID, sceneIndex, sceneText, history)
	log.Printf("scene %d background: gradient %s -> %s at %d°", sceneIndex, spec.Color1, spec.Color2, spec.AngleDegrees)
	return Resolved{
		Image:      gradient.Render(spec, width, height),
		ActualMode: scene.ModeGradient,
		Source:     "gradient",
		Gradient:   &spec,
		Reasons:    reasons,
	}
}

// aiPrompt turns scene text into a compact visual prompt.
func aiPrompt(sceneText string) string {
	words := scene.Keywords(sceneText)
	if len(words) == 0 {
		return "cinematic abstract background"
	}
	return strings.Join(words, " ") + " cinematic background"
}

// CoverCrop scales img to cover width x height preserving aspect, then
// center-crops to exactly that size.
func CoverCrop(img image.Image, width, height int) *image.RGBA {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()
	if srcW == 0 || srcH == 0 {
		return image.NewRGBA(image.Rect(0, 0, width, height))
	}

	scale := float64(width) / float64(srcW)
	if s := float64(height) / float64(srcH); s > scale {
		scale = s
	}
	scaledW := int(float64(srcW)*scale + 0.5)
	scaledH := int(float64(srcH)*scale + 0.5)
	if scaledW < width {
		scaledW = width
	}
	if scaledH < height {
		scaledH = height
	}

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)

	offsetX := (scaledW - width) / 2
	offsetY := (scaledH - height) / 2
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Copy(out, image.Point{}, scaled, image.Rect(offsetX, offsetY, offsetX+width, offsetY+height), xdraw.Src, nil)
	return out
}
