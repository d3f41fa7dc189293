// Package ocr extracts text from images by invoking the tesseract binary.
//
// Multiple languages are joined with "+" the way tesseract expects
// (for example "eng+deu"). Output is read from stdout; an image without
// recognizable text produces an empty result, not an error.
package ocr
