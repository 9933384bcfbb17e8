package extract

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// billExtractionPrompt is the shared prompt used by all vision providers.
// The JSON contract mirrors what the reconciliation engine reads back, so
// field names here must stay in sync with the payload normalizer.
const billExtractionPrompt = `You are analyzing a bill, receipt or invoice document. Carefully read all text in the image and extract the following information:

1. **Merchant Name**: The store, business or service provider name, usually the largest text at the top. Examples: "Apollo Pharmacy", "Big Basket", "Hotel Saravana Bhavan".

2. **Date**: The transaction, purchase or invoice date. Convert it to ISO 8601 format (YYYY-MM-DD). Common source formats: DD/MM/YYYY, MM/DD/YYYY, or written dates.

3. **Total Amount**: The final amount due, usually at the bottom and labeled "TOTAL", "Grand Total", "Amount Payable" or similar. Extract only the numeric value.

4. **Currency**: The currency code or symbol on the bill, as an ISO code where possible (e.g., "INR", "USD").

5. **Line Items**: Every purchased item with its name and price. Use the line price, not the unit price, when a quantity is shown.

6. **Taxes**: Any tax amounts, split into GST, CGST, SGST, IGST and other taxes. Use 0 for taxes that do not appear.

7. **Discount**: Any discount or rebate amount applied to the total. Use 0 if none appears.

Return ONLY valid JSON in this exact format:
{
  "merchant": "Merchant Name",
  "date": "YYYY-MM-DD",
  "total": 0.00,
  "currency": "INR",
  "items": [
    {"name": "Item Name", "price": 0.00}
  ],
  "taxes": {"gst": 0.00, "cgst": 0.00, "sgst": 0.00, "igst": 0.00, "other": 0.00},
  "discount": 0.00
}

Important:
- All amounts must be numbers (not strings)
- The date must be in YYYY-MM-DD format
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// pdfToImage renders the first page of a PDF as a PNG image. Bills are
// almost always single page.
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// imageToPNG converts any supported image format to PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not covered by the standard image
	// package, so it gets its own decoder.
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICFormat checks the data for an ftyp box carrying a HEIC brand
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) == "ftyp" {
		brand := string(data[8:12])
		if brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1" {
			return true
		}
	}
	return false
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return mimeType == "image/heic" || mimeType == "image/heif" ||
		strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// prepareImage normalizes an upload to PNG bytes. PDFs are rendered,
// non-PNG images are re-encoded, PNGs pass through untouched. Every
// provider sends PNG, so no MIME type needs to travel with the result.
func prepareImage(imageData []byte, contentType string) ([]byte, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	if mimeType == "application/pdf" {
		pngData, err := pdfToImage(imageData)
		if err != nil {
			return nil, fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, nil
	}

	if mimeType != "image/png" || isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		pngData, err := imageToPNG(imageData, mimeType)
		if err != nil {
			return nil, fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, nil
	}

	return imageData, nil
}
