//go:build !cgo || !linux

package provider

import "github.com/pkg/errors"

func recognizeWords([]byte, string, string) ([]word, error) {
	return nil, errors.Wrap(ErrModelUnavailable, "built without tesseract support")
}

func tesseractReady() error {
	return errors.Wrap(ErrModelUnavailable, "built without tesseract support")
}
