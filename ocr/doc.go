// Package ocr defines the abstraction for plugging OCR engines (for example,
// Tesseract) into rectangle ingestion. Engines receive page images and
// report word boxes in image pixels; package ingest turns those into
// page-relative rectangles.
package ocr
