//go:build cgo && linux

package provider

import (
	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"
)

func recognizeWords(png []byte, language, tessdataPrefix string) ([]word, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(tessdataPrefix); err != nil {
			return nil, errors.Wrap(ErrModelUnavailable, err.Error())
		}
	}
	if err := client.SetLanguage(language); err != nil {
		return nil, errors.Wrap(ErrModelUnavailable, err.Error())
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return nil, failure(KindText, errors.Wrap(err, "set image"))
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, failure(KindText, errors.Wrap(err, "get bounding boxes"))
	}

	words := make([]word, 0, len(boxes))
	for _, box := range boxes {
		words = append(words, word{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			X1:         box.Box.Min.X,
			Y1:         box.Box.Min.Y,
			X2:         box.Box.Max.X,
			Y2:         box.Box.Max.Y,
		})
	}
	return words, nil
}

func tesseractReady() error {
	client := gosseract.NewClient()
	defer client.Close()

	if client.Version() == "" {
		return errors.Wrap(ErrModelUnavailable, "tesseract is not installed")
	}
	return nil
}
