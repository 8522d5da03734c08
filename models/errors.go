package models

import "errors"

var (
	// ErrEmptyDataset is returned when there are no records to analyze.
	ErrEmptyDataset = errors.New("geen data om te analyseren")
	// ErrNoMatchingWeather is returned when no sales date has a weather observation.
	ErrNoMatchingWeather = errors.New("no matching weather data found for sales dates")
	// ErrBinaryContent is returned for spreadsheet or other binary uploads.
	ErrBinaryContent = errors.New("binary content is not supported, upload a CSV text file")
	// ErrPayloadTooLarge is returned when the upload exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum upload size")
	// ErrInvalidDataset is returned when validation finds critical issues.
	ErrInvalidDataset = errors.New("dataset failed validation")
)
