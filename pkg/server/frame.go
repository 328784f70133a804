package server

import (
	"bytes"
	"image"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
)

// parseSize parses "N" (fit within N×N keeping the aspect ratio) or "WxH"
// (exact). An empty string keeps the source size.
func parseSize(s string, srcW, srcH int) (int, int, error) {
	if s == "" {
		return srcW, srcH, nil
	}
	var w, h int
	if ws, hs, ok := strings.Cut(strings.ToLower(s), "x"); ok {
		var errW, errH error
		w, errW = strconv.Atoi(ws)
		h, errH = strconv.Atoi(hs)
		if errW != nil || errH != nil {
			return 0, 0, flameerrors.New(flameerrors.ErrCodeInvalidSize, "invalid size %q (want N or WxH)", s)
		}
	} else {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, flameerrors.New(flameerrors.ErrCodeInvalidSize, "invalid size %q (want N or WxH)", s)
		}
		w, h = fit(srcW, srcH, n)
	}
	if err := flameerrors.ValidateDimensions(w, h); err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

// fit scales srcW×srcH to fit within n×n, keeping at least one pixel per axis.
func fit(srcW, srcH, n int) (int, int) {
	if n <= 0 {
		return n, n
	}
	if srcW >= srcH {
		return n, max(1, srcH*n/srcW)
	}
	return max(1, srcW*n/srcH), n
}

// encodeFrame writes src as PNG, scaled to w×h when that differs from its
// bounds. Scaling uses nearest-neighbour so that single hit cells stay
// visible.
func encodeFrame(src *image.RGBA, w, h int) ([]byte, error) {
	var img image.Image = src
	if b := src.Bounds(); b.Dx() != w || b.Dy() != h {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		img = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, flameerrors.Wrap(flameerrors.ErrCodeInternal, err, "encode frame")
	}
	return buf.Bytes(), nil
}
