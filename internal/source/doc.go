// Package source fetches the raw text of a day's readings.
//
// PDFProvider downloads the daily PDF published by dominicos.org, keeps a copy
// under the raw directory, and converts it to text with pdftotext. FileProvider
// reads text that was extracted elsewhere, which is how tests and manual
// corrections feed the pipeline.
package source
